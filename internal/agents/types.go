// Package agents provides the agent data model, bounded memory stream,
// and the observe → predict → decide → learn control loop with its
// pluggable decision strategies.
package agents

import (
	"math/rand"
	"time"

	"github.com/talgya/auralis/internal/market"
)

// MemoryLimit is the maximum number of entries kept in an agent's memory
// window on the observation path.
const MemoryLimit = 50

// Personality holds the named parameters that shape a strategy's
// thresholds.
type Personality struct {
	RiskTolerance       float64 `json:"risk_tolerance"`
	ConfidenceThreshold float64 `json:"confidence_threshold"`
	Strategy            string  `json:"strategy"`
}

// MemoryKind tags entries in an agent's memory stream.
type MemoryKind string

const (
	MemoryObservation  MemoryKind = "observation"
	MemoryActionResult MemoryKind = "action_result"
)

// MemoryEntry is one record in an agent's memory stream.
type MemoryEntry struct {
	Time        int                 `json:"time,omitempty"`
	Kind        MemoryKind          `json:"type"`
	Observation *market.Observation `json:"data,omitempty"`
	Action      *market.Action      `json:"action,omitempty"`
	Result      *market.Result      `json:"result,omitempty"`
}

// Strategy is an agent's decision policy. Implementations keep their own
// rolling price windows; Predict must not touch anything outside the
// strategy and the agent passed in.
type Strategy interface {
	Name() string
	Personality() Personality
	Predict(a *Agent, obs market.Observation) market.Prediction
	Decide(a *Agent, obs market.Observation) *market.Action
}

// Agent is one autonomous participant in a world.
type Agent struct {
	ID          string
	Personality Personality
	Balance     float64
	Holdings    float64
	Memory      []MemoryEntry

	ActionCount  int
	SuccessCount int

	// TrimLearned applies the observation-path memory window to entries
	// appended by Learn as well. Off by default: the reference behavior
	// keeps the full action history.
	TrimLearned bool

	strategy Strategy
	rng      *rand.Rand
}

// Summary is the serialized external view of an agent. The live strategy
// state is not part of it; a loaded summary cannot re-enter a world.
type Summary struct {
	Name        string      `json:"name"`
	Personality Personality `json:"personality"`
	Balance     float64     `json:"balance"`
	Holdings    float64     `json:"holdings"`
	ActionCount int         `json:"action_count"`
	SuccessRate float64     `json:"success_rate"`
	MemorySize  int         `json:"memory_size"`
}

// New creates an agent with the given strategy and starting balance.
func New(id string, strategy Strategy, balance float64) *Agent {
	return &Agent{
		ID:          id,
		Personality: strategy.Personality(),
		Balance:     balance,
		strategy:    strategy,
	}
}

// SetRand injects the random source the agent's strategy draws from.
// Worlds call this at registration so every stochastic choice inside one
// world flows from one seedable stream.
func (a *Agent) SetRand(rng *rand.Rand) {
	a.rng = rng
}

// Rand returns the agent's random source, lazily creating a time-seeded
// one when none was injected.
func (a *Agent) Rand() *rand.Rand {
	if a.rng == nil {
		a.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return a.rng
}

// Strategy returns the agent's decision policy.
func (a *Agent) Strategy() Strategy {
	return a.strategy
}

// Observe records what the agent can currently see and returns it. The
// observation window is trimmed to the most recent MemoryLimit entries.
func (a *Agent) Observe(obs market.Observation) market.Observation {
	a.Memory = append(a.Memory, MemoryEntry{
		Time:        obs.Time,
		Kind:        MemoryObservation,
		Observation: &obs,
	})
	a.trimMemory()
	return obs
}

// Decide runs one pass of the control loop: observe, then let the
// strategy predict and pick an action. A nil return means the agent sits
// this step out. Decide never fails; malformed observations fall back to
// defaults inside the strategy.
func (a *Agent) Decide(obs market.Observation) *market.Action {
	seen := a.Observe(obs)
	return a.strategy.Decide(a, seen)
}

// Learn updates the agent's counters from an action outcome and appends
// an action_result memory entry.
func (a *Agent) Learn(action market.Action, result market.Result) {
	a.ActionCount++
	if result.Success {
		a.SuccessCount++
	}
	a.Memory = append(a.Memory, MemoryEntry{
		Kind:   MemoryActionResult,
		Action: &action,
		Result: &result,
	})
	if a.TrimLearned {
		a.trimMemory()
	}
}

// SuccessRate returns the fraction of learned actions that succeeded.
func (a *Agent) SuccessRate() float64 {
	if a.ActionCount == 0 {
		return 0
	}
	return float64(a.SuccessCount) / float64(a.ActionCount)
}

// Summarize serializes the agent's external state.
func (a *Agent) Summarize() Summary {
	return Summary{
		Name:        a.ID,
		Personality: a.Personality,
		Balance:     a.Balance,
		Holdings:    a.Holdings,
		ActionCount: a.ActionCount,
		SuccessRate: a.SuccessRate(),
		MemorySize:  len(a.Memory),
	}
}

func (a *Agent) trimMemory() {
	if len(a.Memory) > MemoryLimit {
		a.Memory = a.Memory[len(a.Memory)-MemoryLimit:]
	}
}

// observedPrice extracts the market price from an observation, defaulting
// to 100 when the field is missing or zeroed.
func observedPrice(obs market.Observation) float64 {
	if obs.Price <= 0 {
		return 100
	}
	return obs.Price
}
