// World snapshot export/restore. Agents are persisted as summaries only;
// restoring a snapshot brings back time, state, events, and history
// verbatim, but agents must be re-registered by the caller.
package world

import (
	"github.com/talgya/auralis/internal/agents"
	"github.com/talgya/auralis/internal/market"
)

// Snapshot is the durable document form of a world.
type Snapshot struct {
	Time    int                   `json:"time"`
	State   market.State          `json:"state"`
	Agents  []agents.Summary      `json:"agents"`
	Events  []market.Event        `json:"events"`
	History []market.StepSnapshot `json:"history"`
}

// Export captures the full world state for serialization.
func (w *World) Export() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	summaries := make([]agents.Summary, len(w.agents))
	for i, a := range w.agents {
		summaries[i] = a.Summarize()
	}

	events := make([]market.Event, len(w.events))
	copy(events, w.events)
	history := make([]market.StepSnapshot, len(w.history))
	copy(history, w.history)

	return Snapshot{
		Time:    w.time,
		State:   w.state,
		Agents:  summaries,
		Events:  events,
		History: history,
	}
}

// Restore overwrites the world's time, state, events, and history from a
// snapshot. The agent roster is left untouched.
func (w *World) Restore(s Snapshot) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.time = s.Time
	w.state = s.State
	w.events = make([]market.Event, len(s.Events))
	copy(w.events, s.Events)
	w.history = make([]market.StepSnapshot, len(s.History))
	copy(w.history, s.History)
}
