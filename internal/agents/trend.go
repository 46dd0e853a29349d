// TrendFollower strategy — trades with the herd it sees in the event log.
package agents

import (
	"math"

	"github.com/talgya/auralis/internal/market"
)

// TrendFollower counts buy versus sell trades among the recent events it
// can observe and follows the majority.
type TrendFollower struct{}

// NewTrendFollower creates the herd-following strategy.
func NewTrendFollower() *TrendFollower { return &TrendFollower{} }

func (t *TrendFollower) Name() string { return "trend_follower" }

func (t *TrendFollower) Personality() Personality {
	return Personality{
		RiskTolerance:       0.5,
		ConfidenceThreshold: 0.5,
		Strategy:            "trend_follower",
	}
}

func (t *TrendFollower) Predict(a *Agent, obs market.Observation) market.Prediction {
	buys, sells := 0, 0
	for _, e := range obs.RecentEvents {
		if e.Type != market.EventType(market.ActionTrade) || e.Action == nil {
			continue
		}
		switch e.Action.Direction {
		case market.Buy:
			buys++
		case market.Sell:
			sells++
		}
	}

	trend := "neutral"
	if buys > sells {
		trend = "bullish"
	} else if sells > buys {
		trend = "bearish"
	}

	return market.Prediction{
		Trend:      trend,
		Confidence: 0.6,
	}
}

func (t *TrendFollower) Decide(a *Agent, obs market.Observation) *market.Action {
	prediction := t.Predict(a, obs)

	switch {
	case prediction.Trend == "bullish" && a.Balance > 5:
		return &market.Action{
			Agent:     a.ID,
			Kind:      market.ActionTrade,
			Direction: market.Buy,
			Amount:    math.Min(a.Balance*0.2, 10),
			Time:      obs.Time,
		}
	case prediction.Trend == "bearish" && a.Holdings > 0:
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
