// Package market defines the shared market state, action, event, and
// observation types that flow between agents and worlds.
package market

// PriceFloor is the minimum market price. The stochastic price walk is
// re-clamped to this floor after every update.
const PriceFloor = 10.0

// State is the mutable market state of a single world.
type State struct {
	Price      float64 `json:"market_price"`
	Volatility float64 `json:"volatility"`
	Resources  float64 `json:"resources"`
}

// ActionKind enumerates the actions an agent can request.
type ActionKind string

const (
	ActionObserve     ActionKind = "observe"
	ActionTrade       ActionKind = "trade"
	ActionPredict     ActionKind = "predict"
	ActionCommunicate ActionKind = "communicate"
)

// TradeDirection is the side of a trade action.
type TradeDirection string

const (
	Buy  TradeDirection = "buy"
	Sell TradeDirection = "sell"
)

// Prediction is a strategy's view of where the market is heading.
// Strategies populate different subsets of the fields.
type Prediction struct {
	Direction  string  `json:"direction,omitempty"`
	Confidence float64 `json:"confidence"`
	Magnitude  float64 `json:"magnitude,omitempty"`
	Volatility float64 `json:"volatility,omitempty"`
	Trend      string  `json:"trend,omitempty"`
}

// Action is a tagged request emitted by an agent's decision policy.
// Kind selects which of the optional fields are meaningful.
type Action struct {
	Agent      string         `json:"agent"`
	Kind       ActionKind     `json:"type"`
	Time       int            `json:"time"`
	Direction  TradeDirection `json:"direction,omitempty"`
	Amount     float64        `json:"amount,omitempty"`
	Prediction *Prediction    `json:"prediction,omitempty"`
	Message    string         `json:"message,omitempty"`
	Target     string         `json:"target,omitempty"`

	// Set when the action came from the advisory oracle.
	Reasoning  string  `json:"ai_reasoning,omitempty"`
	Confidence float64 `json:"ai_confidence,omitempty"`
}

// Result is the outcome of resolving an action. Success reflects the
// fee-affordability check; a trade leg that had no effect still reports
// success once the fee was paid.
type Result struct {
	Success     bool         `json:"success"`
	Reason      string       `json:"reason,omitempty"`
	Cost        float64      `json:"cost,omitempty"`
	Observation *Observation `json:"observation,omitempty"`
	Prediction  *Prediction  `json:"prediction,omitempty"`
	Holdings    float64      `json:"holdings,omitempty"`
	Balance     float64      `json:"balance,omitempty"`
	Price       float64      `json:"price,omitempty"`
	Message     string       `json:"message,omitempty"`
	Target      string       `json:"target,omitempty"`
}

// Domain rejection reasons.
const (
	ReasonAgentNotFound       = "agent_not_found"
	ReasonInsufficientBalance = "insufficient_balance"
)

// EventType tags entries in a world's event log. Action events reuse the
// action kind as their type.
type EventType string

const (
	EventAgentJoined   EventType = "agent_joined"
	EventCommunication EventType = "communication"
)

// Event is one entry in a world's append-only log.
type Event struct {
	Time    int       `json:"time"`
	Type    EventType `json:"type"`
	Agent   string    `json:"agent,omitempty"`
	Details string    `json:"details,omitempty"`
	From    string    `json:"from,omitempty"`
	To      string    `json:"to,omitempty"`
	Message string    `json:"message,omitempty"`
	Action  *Action   `json:"action,omitempty"`
	Result  *Result   `json:"result,omitempty"`
}

// Observation is the publicly visible slice of a world's state that an
// agent sees each step.
type Observation struct {
	Time         int     `json:"time"`
	Price        float64 `json:"market_price"`
	Volatility   float64 `json:"volatility"`
	Resources    float64 `json:"resources"`
	NumAgents    int     `json:"num_agents"`
	RecentEvents []Event `json:"recent_events"`
}

// StepAction is one agent's resolved action within a step report.
type StepAction struct {
	Agent  string `json:"agent"`
	Action Action `json:"action"`
	Result Result `json:"result"`
}

// StepSnapshot is the per-step history record a world appends after
// resolving every agent.
type StepSnapshot struct {
	Time    int          `json:"time"`
	State   State        `json:"state"`
	Actions []StepAction `json:"actions"`
}
