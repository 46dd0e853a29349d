// Advised strategy — delegates to an external advisory oracle, degrading
// silently to the momentum rule when the oracle is unavailable or talks
// nonsense.
package agents

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/talgya/auralis/internal/market"
)

// Suggestion is an oracle-proposed action.
type Suggestion struct {
	Action     string
	Reasoning  string
	Confidence float64
	Direction  string
	Amount     float64
}

// Forecast is an oracle-proposed market prediction.
type Forecast struct {
	Direction  string
	Confidence float64
	Magnitude  float64
}

// Oracle is the advisory interface the Advised strategy consults. Both
// methods are best-effort: a nil return means unavailable, and callers
// must bound the response time themselves. Implementations never panic
// and never surface errors.
type Oracle interface {
	SuggestAction(p Personality, obs market.Observation, memory []string) *Suggestion
	Forecast(obs market.Observation, prices []float64) *Forecast
}

const (
	advisedWindow      = 20
	advisedBuyFrac     = 0.2
	advisedBuyCap      = 10.0
	advisedMemoryDepth = 10
)

// Advised consults the oracle for both prediction and decision. Oracle
// failures never propagate: the strategy falls back to the rule-based
// momentum path and logs a warning on the side.
type Advised struct {
	oracle Oracle
	prices []float64
}

// NewAdvised creates the oracle-backed strategy. A nil oracle is legal
// and leaves the strategy permanently on the rule-based path.
func NewAdvised(oracle Oracle) *Advised {
	return &Advised{oracle: oracle}
}

func (v *Advised) Name() string { return "ai_enhanced" }

func (v *Advised) Personality() Personality {
	return Personality{
		RiskTolerance:       0.6,
		ConfidenceThreshold: 0.5,
		Strategy:            "ai_enhanced",
	}
}

func (v *Advised) Predict(a *Agent, obs market.Observation) market.Prediction {
	v.prices = append(v.prices, observedPrice(obs))
	if len(v.prices) > advisedWindow {
		v.prices = v.prices[len(v.prices)-advisedWindow:]
	}

	if v.oracle != nil {
		if f := v.oracle.Forecast(obs, v.prices); f != nil {
			return market.Prediction{
				Direction:  f.Direction,
				Confidence: f.Confidence,
				Magnitude:  f.Magnitude,
			}
		}
	}

	direction := "stable"
	if len(v.prices) >= 2 {
		if v.prices[len(v.prices)-1] > v.prices[len(v.prices)-2] {
			direction = "up"
		} else {
			direction = "down"
		}
	}

	return market.Prediction{Direction: direction, Confidence: 0.5, Magnitude: 0.1}
}

func (v *Advised) Decide(a *Agent, obs market.Observation) *market.Action {
	if v.oracle != nil {
		if action := v.decideWithOracle(a, obs); action != nil {
			return action
		}
		slog.Warn("oracle unavailable, using rule-based decision", "agent", a.ID)
	}
	return v.decideFallback(a, obs)
}

// decideWithOracle maps an oracle suggestion onto a world action. Any
// missing or malformed field causes a nil return and a fallback.
func (v *Advised) decideWithOracle(a *Agent, obs market.Observation) *market.Action {
	suggestion := v.oracle.SuggestAction(a.Personality, obs, v.memorySummaries(a))
	if suggestion == nil {
		return nil
	}

	kind := market.ActionKind(suggestion.Action)
	switch kind {
	case market.ActionObserve, market.ActionTrade, market.ActionPredict, market.ActionCommunicate:
	default:
		return nil
	}

	action := &market.Action{
		Agent:      a.ID,
		Kind:       kind,
		Time:       obs.Time,
		Reasoning:  suggestion.Reasoning,
		Confidence: suggestion.Confidence,
	}

	switch kind {
	case market.ActionTrade:
		action.Direction = market.Buy
		if suggestion.Direction == string(market.Sell) {
			action.Direction = market.Sell
		}
		amount := suggestion.Amount
		if amount <= 0 {
			amount = 5
		}
		action.Amount = math.Min(amount, a.Balance*0.3)
	case market.ActionCommunicate:
		action.Message = suggestion.Reasoning
		if action.Message == "" {
			action.Message = "AI agent communicating"
		}
		action.Target = "all"
	case market.ActionPredict:
		p := v.Predict(a, obs)
		action.Prediction = &p
	}

	return action
}

func (v *Advised) decideFallback(a *Agent, obs market.Observation) *market.Action {
	prediction := v.Predict(a, obs)

	if prediction.Direction == "up" && a.Balance > 5 {
		return &market.Action{
			Agent:     a.ID,
			Kind:      market.ActionTrade,
			Direction: market.Buy,
			Amount:    math.Min(a.Balance*advisedBuyFrac, advisedBuyCap),
			Time:      obs.Time,
		}
	}

	if prediction.Direction == "down" && a.Holdings > 0 {
		return &market.Action{
			Agent:     a.ID,
			Kind:      market.ActionTrade,
			Direction: market.Sell,
			Amount:    a.Holdings * 0.3,
			Time:      obs.Time,
		}
	}

	return &market.Action{Agent: a.ID, Kind: market.ActionObserve, Time: obs.Time}
}

// memorySummaries condenses recent action outcomes into short lines the
// oracle can digest.
func (v *Advised) memorySummaries(a *Agent) []string {
	var lines []string
	start := len(a.Memory) - advisedMemoryDepth
	if start < 0 {
		start = 0
	}
	for _, m := range a.Memory[start:] {
		if m.Kind != MemoryActionResult || m.Action == nil || m.Result == nil {
			continue
		}
		outcome := "failed"
		if m.Result.Success {
			outcome = "ok"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", m.Action.Kind, outcome))
	}
	return lines
}
