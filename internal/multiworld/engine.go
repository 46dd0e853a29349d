// Package multiworld manages a registry of independent simulation worlds:
// capacity-gated admission, per-world run lifecycles, and aggregated state
// projections for external consumers.
package multiworld

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/auralis/internal/market"
	"github.com/talgya/auralis/internal/world"
)

// DefaultMaxAgents caps admission when a world is created without an
// explicit limit.
const DefaultMaxAgents = 100

// Config is the immutable configuration of a registered world.
type Config struct {
	ID        string         `json:"world_id"`
	Name      string         `json:"name"`
	Creator   string         `json:"creator"`
	EntryFee  float64        `json:"entry_fee"`
	MaxAgents int            `json:"max_agents"`
	Rules     map[string]any `json:"rules"`
	CreatedAt time.Time      `json:"created_at"`
}

// State is the aggregated view of a world kept for external consumers.
// It mirrors the embedded simulation after each step.
type State struct {
	ID           string   `json:"world_id"`
	Time         int      `json:"time"`
	Price        float64  `json:"market_price"`
	Volatility   float64  `json:"volatility"`
	Resources    float64  `json:"resources"`
	ActiveAgents []string `json:"active_agents"`

	// TotalVolume aggregates settled trade notional from the embedded
	// simulation. Reads 0 until the first trade settles.
	TotalVolume float64 `json:"total_volume"`

	Events []market.Event `json:"events"`
}

// Listing is the catalogue row returned by ListWorlds.
type Listing struct {
	ID           string    `json:"world_id"`
	Name         string    `json:"name"`
	Creator      string    `json:"creator"`
	EntryFee     float64   `json:"entry_fee"`
	MaxAgents    int       `json:"max_agents"`
	ActiveAgents int       `json:"active_agents"`
	Running      bool      `json:"running"`
	CreatedAt    time.Time `json:"created_at"`
}

// StateView is the read-only projection returned by GetWorldState.
type StateView struct {
	ID           string         `json:"world_id"`
	Time         int            `json:"time"`
	Price        float64        `json:"market_price"`
	Volatility   float64        `json:"volatility"`
	Resources    float64        `json:"resources"`
	ActiveAgents int            `json:"active_agents"`
	TotalVolume  float64        `json:"total_volume"`
	RecentEvents []market.Event `json:"recent_events"`
}

type entry struct {
	config  Config
	state   State
	sim     *world.World // nil until attached
	running bool
	runner  *Runner
}

// Engine is the multi-world registry. Worlds share no state, so their
// step loops run concurrently without cross-world synchronization; the
// engine lock only guards the registry itself.
type Engine struct {
	mu     sync.RWMutex
	worlds map[string]*entry

	// OnStep, when set, is invoked after every runner-driven step with
	// the world id and its resolved actions. Set it before starting any
	// world; runners read it without synchronization.
	OnStep func(worldID string, actions []market.StepAction)
}

// NewEngine creates an empty registry.
func NewEngine() *Engine {
	return &Engine{worlds: make(map[string]*entry)}
}

// CreateWorld registers a new world and returns its id. The embedded
// simulation is created lazily by the caller and handed over with
// AttachWorld. An empty id gets a fresh short uuid.
func (e *Engine) CreateWorld(name, creator string, entryFee float64, maxAgents int, rules map[string]any, id string) string {
	if id == "" {
		id = uuid.NewString()[:8]
	}
	if maxAgents <= 0 {
		maxAgents = DefaultMaxAgents
	}
	if rules == nil {
		rules = map[string]any{}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.worlds[id] = &entry{
		config: Config{
			ID:        id,
			Name:      name,
			Creator:   creator,
			EntryFee:  entryFee,
			MaxAgents: maxAgents,
			Rules:     rules,
			CreatedAt: time.Now(),
		},
		state: State{
			ID:         id,
			Price:      100,
			Volatility: 0.02,
			Resources:  1000,
		},
	}

	slog.Info("world created", "world", id, "name", name, "creator", creator, "max_agents", maxAgents)
	return id
}

// AttachWorld hands the embedded simulation to a registered world.
// Returns false for unknown ids.
func (e *Engine) AttachWorld(id string, sim *world.World) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	w, ok := e.worlds[id]
	if !ok {
		return false
	}
	w.sim = sim
	return true
}

// Sim returns the embedded simulation of a world, or nil.
func (e *Engine) Sim(id string) *world.World {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if w, ok := e.worlds[id]; ok {
		return w.sim
	}
	return nil
}

// WorldConfig returns the configuration of a registered world.
func (e *Engine) WorldConfig(id string) (Config, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	w, ok := e.worlds[id]
	if !ok {
		return Config{}, false
	}
	return w.config, true
}

// AgentEnterWorld admits an agent id into a world. Unknown worlds and
// worlds at capacity reject; the cap is checked before membership, so a
// full world turns away even its own members. Below the cap, re-entry
// of a present agent is an idempotent success.
func (e *Engine) AgentEnterWorld(worldID, agentID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	w, ok := e.worlds[worldID]
	if !ok {
		return false
	}

	if len(w.state.ActiveAgents) >= w.config.MaxAgents {
		return false
	}

	for _, id := range w.state.ActiveAgents {
		if id == agentID {
			return true
		}
	}

	w.state.ActiveAgents = append(w.state.ActiveAgents, agentID)
	w.state.Events = append(w.state.Events, market.Event{
		Time:  w.state.Time,
		Type:  market.EventAgentJoined,
		Agent: agentID,
	})
	return true
}

// StepWorld advances a world's embedded simulation by one step and
// mirrors its state into the aggregated view. A no-op when the world is
// unknown or has no simulation attached.
func (e *Engine) StepWorld(worldID string) []market.StepAction {
	e.mu.RLock()
	w, ok := e.worlds[worldID]
	e.mu.RUnlock()
	if !ok || w.sim == nil {
		return nil
	}

	actions := w.sim.Step()

	state := w.sim.State()
	e.mu.Lock()
	w.state.Time = w.sim.Time()
	w.state.Price = state.Price
	w.state.Volatility = state.Volatility
	w.state.Resources = state.Resources
	w.state.TotalVolume = w.sim.TotalVolume()
	e.mu.Unlock()

	return actions
}

// ListWorlds returns a catalogue row per registered world.
func (e *Engine) ListWorlds() []Listing {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]Listing, 0, len(e.worlds))
	for _, w := range e.worlds {
		out = append(out, Listing{
			ID:           w.config.ID,
			Name:         w.config.Name,
			Creator:      w.config.Creator,
			EntryFee:     w.config.EntryFee,
			MaxAgents:    w.config.MaxAgents,
			ActiveAgents: len(w.state.ActiveAgents),
			Running:      w.running,
			CreatedAt:    w.config.CreatedAt,
		})
	}
	return out
}

// GetWorldState returns the aggregated projection of a world, or false
// for unknown ids.
func (e *Engine) GetWorldState(worldID string) (StateView, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	w, ok := e.worlds[worldID]
	if !ok {
		return StateView{}, false
	}

	recent := w.state.Events
	if len(recent) > 10 {
		recent = recent[len(recent)-10:]
	}
	events := make([]market.Event, len(recent))
	copy(events, recent)

	return StateView{
		ID:           worldID,
		Time:         w.state.Time,
		Price:        w.state.Price,
		Volatility:   w.state.Volatility,
		Resources:    w.state.Resources,
		ActiveAgents: len(w.state.ActiveAgents),
		TotalVolume:  w.state.TotalVolume,
		RecentEvents: events,
	}, true
}

// DeleteWorld removes a world from the registry, stopping its runner
// first. Notifying connected consumers is the network layer's job.
func (e *Engine) DeleteWorld(worldID string) bool {
	e.mu.Lock()
	w, ok := e.worlds[worldID]
	if !ok {
		e.mu.Unlock()
		return false
	}
	runner := w.runner
	delete(e.worlds, worldID)
	e.mu.Unlock()

	if runner != nil {
		runner.Stop()
	}
	slog.Info("world deleted", "world", worldID)
	return true
}

// StartWorld launches a runner goroutine stepping the world on the given
// interval. Returns false when the world is unknown, has no simulation,
// or is already running.
func (e *Engine) StartWorld(worldID string, interval time.Duration) bool {
	e.mu.Lock()
	w, ok := e.worlds[worldID]
	if !ok || w.sim == nil || w.running {
		e.mu.Unlock()
		return false
	}

	runner := NewRunner(interval, func() {
		actions := e.StepWorld(worldID)
		if e.OnStep != nil {
			e.OnStep(worldID, actions)
		}
	})
	w.runner = runner
	w.running = true
	e.mu.Unlock()

	go runner.Run()
	slog.Info("world started", "world", worldID, "interval", interval)
	return true
}

// StopWorld flips the run flag; a step already in flight finishes before
// the runner exits.
func (e *Engine) StopWorld(worldID string) bool {
	e.mu.Lock()
	w, ok := e.worlds[worldID]
	if !ok || !w.running {
		e.mu.Unlock()
		return false
	}
	runner := w.runner
	w.running = false
	w.runner = nil
	e.mu.Unlock()

	runner.Stop()
	slog.Info("world stopped", "world", worldID)
	return true
}

// Running reports whether a world's runner is active.
func (e *Engine) Running(worldID string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	w, ok := e.worlds[worldID]
	return ok && w.running
}
