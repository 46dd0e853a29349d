// Runner drives one world's step loop on its own cadence.
package multiworld

import (
	"sync/atomic"
	"time"
)

// Runner calls a step function on a fixed interval with an adjustable
// speed multiplier. Each world gets its own runner; runners never share
// state.
type Runner struct {
	Interval time.Duration

	speed   atomic.Value // float64 multiplier: 1.0 = real-time, 0 = paused
	running atomic.Bool
	done    chan struct{}
	step    func()
}

// NewRunner creates a runner for the given step function.
func NewRunner(interval time.Duration, step func()) *Runner {
	r := &Runner{
		Interval: interval,
		done:     make(chan struct{}),
		step:     step,
	}
	r.speed.Store(1.0)
	r.running.Store(true)
	return r
}

// SetSpeed adjusts the speed multiplier. Zero or negative pauses the
// loop without stopping it.
func (r *Runner) SetSpeed(speed float64) {
	r.speed.Store(speed)
}

// Run executes the step loop. Blocks until Stop is called. A step in
// progress always completes; stopping only prevents the next one.
func (r *Runner) Run() {
	defer close(r.done)

	for r.running.Load() {
		speed := r.speed.Load().(float64)
		if speed <= 0 {
			time.Sleep(100 * time.Millisecond)
			continue
		}

		start := time.Now()
		r.step()

		elapsed := time.Since(start)
		target := time.Duration(float64(r.Interval) / speed)
		if elapsed < target {
			time.Sleep(target - elapsed)
		}
	}
}

// Stop flips the run flag. The loop exits after the in-flight step
// completes; use Wait to block until then.
func (r *Runner) Stop() {
	r.running.Store(false)
}

// Wait blocks until the loop has exited.
func (r *Runner) Wait() {
	<-r.done
}
