// Aggressive strategy — momentum chasing with large position sizes.
package agents

import (
	"fmt"
	"math"

	"github.com/talgya/auralis/internal/market"
)

const (
	aggressiveWindow  = 5
	aggressiveBuyFrac = 0.3
	aggressiveBuyCap  = 20.0
)

// Aggressive trades on two-sample momentum: buys 30% of balance on an
// uptick, dumps half its holdings on a downtick, and advertises intent
// when it can do neither.
type Aggressive struct {
	prices []float64
}

// NewAggressive creates the momentum-chasing strategy.
func NewAggressive() *Aggressive { return &Aggressive{} }

func (g *Aggressive) Name() string { return "aggressive" }

func (g *Aggressive) Personality() Personality {
	return Personality{
		RiskTolerance:       0.9,
		ConfidenceThreshold: 0.3,
		Strategy:            "aggressive",
	}
}

func (g *Aggressive) Predict(a *Agent, obs market.Observation) market.Prediction {
	g.prices = append(g.prices, observedPrice(obs))
	if len(g.prices) > aggressiveWindow {
		g.prices = g.prices[len(g.prices)-aggressiveWindow:]
	}

	direction := "stable"
	if len(g.prices) >= 2 {
		if g.prices[len(g.prices)-1] > g.prices[len(g.prices)-2] {
			direction = "up"
		} else {
			direction = "down"
		}
	}

	return market.Prediction{
		Direction:  direction,
		Confidence: 0.8,
		Trend:      direction,
	}
}

func (g *Aggressive) Decide(a *Agent, obs market.Observation) *market.Action {
	prediction := g.Predict(a, obs)

	if prediction.Direction == "up" && a.Balance > 10 {
		return &market.Action{
			Agent:     a.ID,
			Kind:      market.ActionTrade,
			Direction: market.Buy,
			Amount:    math.Min(a.Balance*aggressiveBuyFrac, aggressiveBuyCap),
			Time:      obs.Time,
		}
	}

	if prediction.Direction == "down" && a.Holdings > 0 {
		return &market.Action{
			Agent:     a.ID,
			Kind:      market.ActionTrade,
			Direction: market.Sell,
			Amount:    a.Holdings * 0.5,
			Time:      obs.Time,
		}
	}

	return &market.Action{
		Agent:   a.ID,
		Kind:    market.ActionCommunicate,
		Message: fmt.Sprintf("Looking for trades! Momentum: %s", prediction.Direction),
		Target:  "all",
		Time:    obs.Time,
	}
}
