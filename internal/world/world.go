// Package world implements the single-world time-stepping state machine:
// market updates, agent fan-out, action resolution, and the event and
// history logs.
package world

import (
	"math"
	"math/rand"
	"sync"
	"time"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/auralis/internal/agents"
	"github.com/talgya/auralis/internal/market"
)

// ActionFee is the flat fee charged for every resolved action.
const ActionFee = 1.0

// resourceDriftScale sets how far the resource pool wanders per step.
const resourceDriftScale = 5.0

// Notary records action digests on an external ledger. Best-effort: it
// returns a receipt and never an error, so resolution can call it without
// caring whether the ledger is reachable.
type Notary interface {
	LogAction(agent string, actionType string, payload map[string]any, worldTime int) string
}

// Config sets up a new world.
type Config struct {
	Initial market.State // zero value → price 100, volatility 0.1, resources 1000
	Seed    int64        // 0 → time-based seed (non-reproducible runs)
	Notary  Notary       // optional
}

// World is one isolated simulation instance. All exported methods are
// safe for concurrent use; Step holds the lock for the whole resolution
// pipeline so no caller ever observes a world mid-step.
type World struct {
	mu sync.Mutex

	time    int
	state   market.State
	agents  []*agents.Agent
	events  []market.Event
	history []market.StepSnapshot

	totalVolume float64

	rng    *rand.Rand
	noise  opensimplex.Noise
	notary Notary
}

// New creates a world with the given configuration.
func New(cfg Config) *World {
	state := cfg.Initial
	if state.Price == 0 {
		state.Price = 100
	}
	if state.Volatility == 0 {
		state.Volatility = 0.1
	}
	if state.Resources == 0 {
		state.Resources = 1000
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &World{
		state:  state,
		rng:    rand.New(rand.NewSource(seed)),
		noise:  opensimplex.New(seed),
		notary: cfg.Notary,
	}
}

// RegisterAgent adds an agent to the resolution roster. Registration
// order is the resolution order on every subsequent step. The agent
// inherits the world's random stream unless it already carries one.
func (w *World) RegisterAgent(a *agents.Agent) {
	w.mu.Lock()
	defer w.mu.Unlock()

	a.SetRand(w.rng)
	w.agents = append(w.agents, a)
	w.events = append(w.events, market.Event{
		Time:    w.time,
		Type:    market.EventAgentJoined,
		Agent:   a.ID,
		Details: a.ID + " joined the simulation",
	})
}

// Step advances the world by one time unit: market update, then every
// agent observes, decides, has its action resolved, and learns, strictly
// in registration order. Later agents see state already mutated by
// earlier agents within the same step.
func (w *World) Step() []market.StepAction {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.time++
	w.updateMarket()

	var stepActions []market.StepAction
	for _, a := range w.agents {
		a.Observe(w.publicState())

		action := a.Decide(w.publicState())
		if action == nil {
			continue
		}
		if action.Time == 0 {
			action.Time = w.time
		}

		result := w.resolveAction(*action)
		stepActions = append(stepActions, market.StepAction{
			Agent:  a.ID,
			Action: *action,
			Result: result,
		})
		a.Learn(*action, result)
	}

	w.history = append(w.history, market.StepSnapshot{
		Time:    w.time,
		State:   w.state,
		Actions: stepActions,
	})

	return stepActions
}

// updateMarket applies the stochastic price walk and recomputes
// volatility from recent event density. Price is re-clamped to the floor
// after every perturbation.
func (w *World) updateMarket() {
	change := w.rng.NormFloat64() * w.state.Volatility
	w.state.Price *= 1 + change
	if w.state.Price < market.PriceFloor {
		w.state.Price = market.PriceFloor
	}

	recent := len(w.events)
	if recent > 10 {
		recent = 10
	}
	w.state.Volatility = 0.05 + float64(recent)*0.01

	// The resource pool drifts smoothly with simulation time; the noise
	// field keeps the drift deterministic under a fixed seed.
	w.state.Resources += w.noise.Eval2(float64(w.time)*0.05, 0) * resourceDriftScale
	if w.state.Resources < 0 {
		w.state.Resources = 0
	}
}

// Resolve applies a single action outside the step pipeline, against the
// current market state and under the same lock.
func (w *World) Resolve(action market.Action) market.Result {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.resolveAction(action)
}

func (w *World) resolveAction(action market.Action) market.Result {
	agent := w.findAgent(action.Agent)
	if agent == nil {
		return market.Result{Success: false, Reason: market.ReasonAgentNotFound}
	}

	if agent.Balance < ActionFee {
		return market.Result{Success: false, Reason: market.ReasonInsufficientBalance}
	}
	agent.Balance -= ActionFee

	result := market.Result{Success: true, Cost: ActionFee}

	switch action.Kind {
	case market.ActionObserve:
		obs := w.publicState()
		result.Observation = &obs

	case market.ActionTrade:
		w.resolveTrade(agent, action, &result)

	case market.ActionPredict:
		result.Prediction = action.Prediction

	case market.ActionCommunicate:
		result.Message = action.Message
		result.Target = action.Target
		w.events = append(w.events, market.Event{
			Time:    w.time,
			Type:    market.EventCommunication,
			From:    action.Agent,
			To:      action.Target,
			Message: action.Message,
		})
	}

	w.events = append(w.events, market.Event{
		Time:   w.time,
		Type:   market.EventType(action.Kind),
		Agent:  action.Agent,
		Action: &action,
		Result: &result,
	})

	if w.notary != nil {
		w.notary.LogAction(action.Agent, string(action.Kind), map[string]any{
			"direction": string(action.Direction),
			"amount":    action.Amount,
		}, w.time)
	}

	return result
}

// resolveTrade settles a trade leg against the agent's balance and
// holdings. A leg that fails its precondition leaves the ledger alone;
// the fee already charged is the only effect.
func (w *World) resolveTrade(agent *agents.Agent, action market.Action, result *market.Result) {
	amount := action.Amount

	switch action.Direction {
	case market.Buy:
		if agent.Balance >= amount {
			agent.Balance -= amount
			agent.Holdings += amount / w.state.Price
			result.Holdings = agent.Holdings
			result.Price = w.state.Price
			w.totalVolume += amount
		}
	case market.Sell:
		if agent.Holdings > 0 {
			sold := math.Min(amount, agent.Holdings)
			agent.Holdings -= sold
			proceeds := sold * w.state.Price
			agent.Balance += proceeds
			result.Holdings = agent.Holdings
			result.Balance = agent.Balance
			w.totalVolume += proceeds
		}
	}
}

func (w *World) findAgent(id string) *agents.Agent {
	for _, a := range w.agents {
		if a.ID == id {
			return a
		}
	}
	return nil
}

// PublicState returns the slice of world state any agent can observe.
func (w *World) PublicState() market.Observation {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.publicState()
}

func (w *World) publicState() market.Observation {
	recent := w.events
	if len(recent) > 5 {
		recent = recent[len(recent)-5:]
	}
	events := make([]market.Event, len(recent))
	copy(events, recent)

	return market.Observation{
		Time:         w.time,
		Price:        w.state.Price,
		Volatility:   w.state.Volatility,
		Resources:    w.state.Resources,
		NumAgents:    len(w.agents),
		RecentEvents: events,
	}
}

// Time returns the current step counter.
func (w *World) Time() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.time
}

// State returns a copy of the current market state.
func (w *World) State() market.State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// TotalVolume returns the cumulative notional of settled trade legs.
func (w *World) TotalVolume() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.totalVolume
}

// Events returns a copy of the event log.
func (w *World) Events() []market.Event {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]market.Event, len(w.events))
	copy(out, w.events)
	return out
}

// History returns a copy of the per-step snapshot log.
func (w *World) History() []market.StepSnapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]market.StepSnapshot, len(w.history))
	copy(out, w.history)
	return out
}

// Agents returns the registered agents in resolution order.
func (w *World) Agents() []*agents.Agent {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]*agents.Agent, len(w.agents))
	copy(out, w.agents)
	return out
}
