// Simple strategy — uniformly random choices. Exists for load and smoke
// testing, not for making money.
package agents

import (
	"fmt"

	"github.com/talgya/auralis/internal/market"
)

// Simple picks a random action every step.
type Simple struct{}

// NewSimple creates the random baseline strategy.
func NewSimple() *Simple { return &Simple{} }

func (s *Simple) Name() string { return "simple" }

func (s *Simple) Personality() Personality { return Personality{Strategy: "simple"} }

func (s *Simple) Predict(a *Agent, obs market.Observation) market.Prediction {
	directions := []string{"up", "down", "stable"}
	return market.Prediction{
		Direction:  directions[a.Rand().Intn(len(directions))],
		Confidence: a.Rand().Float64(),
	}
}

func (s *Simple) Decide(a *Agent, obs market.Observation) *market.Action {
	prediction := s.Predict(a, obs)

	kinds := []market.ActionKind{
		market.ActionObserve,
		market.ActionTrade,
		market.ActionPredict,
		market.ActionCommunicate,
	}
	action := &market.Action{
		Agent: a.ID,
		Kind:  kinds[a.Rand().Intn(len(kinds))],
		Time:  obs.Time,
	}

	switch action.Kind {
	case market.ActionTrade:
		if a.Rand().Intn(2) == 0 {
			action.Direction = market.Buy
		} else {
			action.Direction = market.Sell
		}
		action.Amount = 1 + a.Rand().Float64()*9
	case market.ActionPredict:
		action.Prediction = &prediction
	case market.ActionCommunicate:
		action.Message = fmt.Sprintf("%s observed price: %.2f", a.ID, obs.Price)
		action.Target = "all"
	}

	return action
}
