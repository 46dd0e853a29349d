// Cautious strategy — acts only when the recent price window looks calm.
package agents

import (
	"math"

	"github.com/talgya/auralis/internal/market"
)

const (
	cautiousWindow        = 10
	cautiousMaxVolatility = 5.0
	cautiousTradeAmount   = 2.0
)

// Cautious keeps a rolling price window and trades a small fixed amount
// only when its confidence clears the personality threshold.
type Cautious struct {
	prices []float64
}

// NewCautious creates the risk-averse strategy.
func NewCautious() *Cautious { return &Cautious{} }

func (c *Cautious) Name() string { return "cautious" }

func (c *Cautious) Personality() Personality {
	return Personality{
		RiskTolerance:       0.2,
		ConfidenceThreshold: 0.7,
		Strategy:            "cautious",
	}
}

// Predict computes a stability-based confidence: mean absolute deviation
// over the window acts as the volatility proxy. Fewer than 3 samples
// defaults to 0.5 confidence.
func (c *Cautious) Predict(a *Agent, obs market.Observation) market.Prediction {
	c.prices = append(c.prices, observedPrice(obs))
	if len(c.prices) > cautiousWindow {
		c.prices = c.prices[len(c.prices)-cautiousWindow:]
	}

	confidence := 0.5
	volatility := 0.0
	if len(c.prices) >= 3 {
		avg := 0.0
		for _, p := range c.prices {
			avg += p
		}
		avg /= float64(len(c.prices))

		for _, p := range c.prices {
			volatility += math.Abs(p - avg)
		}
		volatility /= float64(len(c.prices))

		confidence = math.Max(0, 1-volatility/avg)
	}

	return market.Prediction{
		Direction:  "stable",
		Confidence: confidence,
		Volatility: volatility,
	}
}

func (c *Cautious) Decide(a *Agent, obs market.Observation) *market.Action {
	prediction := c.Predict(a, obs)

	if prediction.Confidence < a.Personality.ConfidenceThreshold {
		return &market.Action{Agent: a.ID, Kind: market.ActionObserve, Time: obs.Time}
	}

	if prediction.Volatility < cautiousMaxVolatility {
		direction := market.Sell
		if a.Holdings == 0 {
			direction = market.Buy
		}
		return &market.Action{
			Agent:     a.ID,
			Kind:      market.ActionTrade,
			Direction: direction,
			Amount:    cautiousTradeAmount,
			Time:      obs.Time,
		}
	}

	return &market.Action{Agent: a.ID, Kind: market.ActionObserve, Time: obs.Time}
}
