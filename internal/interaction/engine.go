// Package interaction manages agent-to-agent exchange outside any single
// world: the per-agent resource ledger, atomic two-sided trades,
// alliances, and one-way transfers.
package interaction

import (
	"sync"

	"github.com/google/uuid"
)

// Default basket granted to every agent on first contact.
const (
	DefaultMaterials   = 100.0
	DefaultEnergy      = 100.0
	DefaultInformation = 50.0
)

// Alliance is a named group of agents with a shared resource pool.
type Alliance struct {
	ID              string             `json:"alliance_id"`
	Members         []string           `json:"members"`
	SharedResources map[string]float64 `json:"shared_resources"`
	CreatedAt       int                `json:"created_at"`
}

// Trade is an immutable record of a committed two-sided exchange.
type Trade struct {
	AgentA  string             `json:"agent_a"`
	AgentB  string             `json:"agent_b"`
	Offer   map[string]float64 `json:"offer"`
	Request map[string]float64 `json:"request"`
	Seq     int                `json:"timestamp"`
}

// Engine is the cross-agent interaction ledger. One engine-wide lock
// covers every mutating operation so a precondition check and its
// mutation are never separated; partial application of a trade or
// transfer is not observable.
type Engine struct {
	mu        sync.Mutex
	alliances map[string]*Alliance
	trades    []Trade
	resources map[string]map[string]float64
}

// NewEngine creates an empty interaction ledger.
func NewEngine() *Engine {
	return &Engine{
		alliances: make(map[string]*Alliance),
		resources: make(map[string]map[string]float64),
	}
}

// InitializeAgent grants an agent the default resource basket. A no-op
// for agents already on the ledger.
func (e *Engine) InitializeAgent(agentID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.initAgent(agentID)
}

func (e *Engine) initAgent(agentID string) {
	if _, ok := e.resources[agentID]; ok {
		return
	}
	e.resources[agentID] = map[string]float64{
		"materials":   DefaultMaterials,
		"energy":      DefaultEnergy,
		"information": DefaultInformation,
	}
}

// SetAgentResources replaces an agent's ledger entry. Intended for
// scenario setup and for callers restoring external state.
func (e *Engine) SetAgentResources(agentID string, resources map[string]float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	entry := make(map[string]float64, len(resources))
	for k, v := range resources {
		entry[k] = v
	}
	e.resources[agentID] = entry
}

// ExecuteTrade commits a two-sided exchange: a gives offer to b, b gives
// request to a. Both sides' preconditions are verified before either
// ledger is touched; on any shortfall the whole trade is rejected with no
// effect.
func (e *Engine) ExecuteTrade(agentA, agentB string, offer, request map[string]float64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	a, ok := e.resources[agentA]
	if !ok {
		return false
	}
	for resource, amount := range offer {
		if a[resource] < amount {
			return false
		}
	}

	b, ok := e.resources[agentB]
	if !ok {
		return false
	}
	for resource, amount := range request {
		if b[resource] < amount {
			return false
		}
	}

	for resource, amount := range offer {
		a[resource] -= amount
		b[resource] += amount
	}
	for resource, amount := range request {
		b[resource] -= amount
		a[resource] += amount
	}

	e.trades = append(e.trades, Trade{
		AgentA:  agentA,
		AgentB:  agentB,
		Offer:   copyBasket(offer),
		Request: copyBasket(request),
		Seq:     len(e.trades),
	})

	return true
}

// TransferResources moves a basket from one agent to another. The target
// ledger is auto-initialized with the default basket when absent. Fails
// atomically when the sender lacks any listed resource.
func (e *Engine) TransferResources(from, to string, resources map[string]float64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	sender, ok := e.resources[from]
	if !ok {
		return false
	}
	for resource, amount := range resources {
		if sender[resource] < amount {
			return false
		}
	}

	e.initAgent(to)
	receiver := e.resources[to]

	for resource, amount := range resources {
		sender[resource] -= amount
		receiver[resource] += amount
	}

	return true
}

// FormAlliance creates an alliance with a fresh id and an empty shared
// pool. Always succeeds.
func (e *Engine) FormAlliance(memberIDs []string) string {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := uuid.NewString()[:8]
	members := make([]string, len(memberIDs))
	copy(members, memberIDs)

	e.alliances[id] = &Alliance{
		ID:              id,
		Members:         members,
		SharedResources: make(map[string]float64),
		CreatedAt:       len(e.alliances),
	}
	return id
}

// BreakAlliance dissolves an alliance. Returns false when the id is
// unknown.
func (e *Engine) BreakAlliance(allianceID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.alliances[allianceID]; !ok {
		return false
	}
	delete(e.alliances, allianceID)
	return true
}

// GetAlliance returns the alliance the agent belongs to, or nil.
func (e *Engine) GetAlliance(agentID string) *Alliance {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, alliance := range e.alliances {
		for _, member := range alliance.Members {
			if member == agentID {
				copied := *alliance
				copied.Members = append([]string(nil), alliance.Members...)
				copied.SharedResources = copyBasket(alliance.SharedResources)
				return &copied
			}
		}
	}
	return nil
}

// GetAgentResources returns a copy of the agent's ledger entry, or an
// empty basket for unknown agents.
func (e *Engine) GetAgentResources(agentID string) map[string]float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, ok := e.resources[agentID]
	if !ok {
		return map[string]float64{}
	}
	return copyBasket(entry)
}

// GetTradeHistory returns every committed trade involving the agent, in
// sequence order.
func (e *Engine) GetTradeHistory(agentID string) []Trade {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []Trade
	for _, t := range e.trades {
		if t.AgentA == agentID || t.AgentB == agentID {
			out = append(out, t)
		}
	}
	return out
}

func copyBasket(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
