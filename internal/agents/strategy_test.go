package agents

import (
	"math"
	"math/rand"
	"testing"

	"github.com/talgya/auralis/internal/market"
)

func TestCautious_FewSamplesDefaultsToObserve(t *testing.T) {
	a := New("turtle", NewCautious(), 100)

	// Fewer than 3 price samples: confidence defaults to 0.5, below the
	// 0.7 threshold, so the agent only observes.
	action := a.Strategy().Decide(a, obsAt(1, 100))
	if action.Kind != market.ActionObserve {
		t.Fatalf("action kind = %s, want observe", action.Kind)
	}
}

func TestCautious_StablePricesTradeSmall(t *testing.T) {
	c := NewCautious()
	a := New("turtle", c, 100)

	var action *market.Action
	for i := 0; i < 5; i++ {
		action = c.Decide(a, obsAt(i, 100))
	}

	// Flat prices: volatility 0, confidence 1 → trade a small amount.
	if action.Kind != market.ActionTrade {
		t.Fatalf("action kind = %s, want trade", action.Kind)
	}
	if action.Direction != market.Buy {
		t.Errorf("direction = %s, want buy (no holdings yet)", action.Direction)
	}
	if action.Amount != 2 {
		t.Errorf("amount = %v, want 2", action.Amount)
	}

	// With holdings, the small trade flips to sell.
	a.Holdings = 1
	action = c.Decide(a, obsAt(6, 100))
	if action.Direction != market.Sell {
		t.Errorf("direction = %s, want sell with holdings", action.Direction)
	}
}

func TestCautious_VolatilePricesObserve(t *testing.T) {
	c := NewCautious()
	a := New("turtle", c, 100)

	prices := []float64{100, 140, 80, 150, 70, 160}
	var action *market.Action
	for i, p := range prices {
		action = c.Decide(a, obsAt(i, p))
	}

	if action.Kind != market.ActionObserve {
		t.Fatalf("action kind = %s, want observe under volatility", action.Kind)
	}
}

func TestCautious_MissingPriceDefaults(t *testing.T) {
	c := NewCautious()
	a := New("turtle", c, 100)

	// A zeroed observation must not fail; price defaults to 100.
	p := c.Predict(a, market.Observation{Time: 1})
	if p.Confidence != 0.5 {
		t.Fatalf("confidence = %v, want 0.5", p.Confidence)
	}
	if got := c.prices[len(c.prices)-1]; got != 100 {
		t.Fatalf("recorded price = %v, want default 100", got)
	}
}

func TestAggressive_BuysOnUpMomentum(t *testing.T) {
	g := NewAggressive()
	a := New("hawk", g, 100)

	g.Decide(a, obsAt(1, 100))
	action := g.Decide(a, obsAt(2, 110))

	if action.Kind != market.ActionTrade || action.Direction != market.Buy {
		t.Fatalf("expected buy, got %+v", action)
	}
	if want := math.Min(100*0.3, 20); action.Amount != want {
		t.Errorf("amount = %v, want %v", action.Amount, want)
	}
}

func TestAggressive_SellsHalfOnDownMomentum(t *testing.T) {
	g := NewAggressive()
	a := New("hawk", g, 100)
	a.Holdings = 4

	g.Decide(a, obsAt(1, 110))
	action := g.Decide(a, obsAt(2, 100))

	if action.Kind != market.ActionTrade || action.Direction != market.Sell {
		t.Fatalf("expected sell, got %+v", action)
	}
	if action.Amount != 2 {
		t.Errorf("amount = %v, want half of holdings (2)", action.Amount)
	}
}

func TestAggressive_CommunicatesWhenUnableToTrade(t *testing.T) {
	g := NewAggressive()
	a := New("hawk", g, 5) // too poor to buy, nothing to sell

	g.Decide(a, obsAt(1, 100))
	action := g.Decide(a, obsAt(2, 110))

	if action.Kind != market.ActionCommunicate {
		t.Fatalf("action kind = %s, want communicate", action.Kind)
	}
	if action.Target != "all" || action.Message == "" {
		t.Errorf("unexpected communicate payload: %+v", action)
	}
}

func tradeEvent(direction market.TradeDirection) market.Event {
	return market.Event{
		Type:   market.EventType(market.ActionTrade),
		Action: &market.Action{Kind: market.ActionTrade, Direction: direction},
	}
}

func TestTrendFollower_FollowsMajority(t *testing.T) {
	tf := NewTrendFollower()
	a := New("echo", tf, 100)

	bullish := market.Observation{Time: 1, Price: 100, RecentEvents: []market.Event{
		tradeEvent(market.Buy), tradeEvent(market.Buy), tradeEvent(market.Sell),
	}}
	action := tf.Decide(a, bullish)
	if action.Kind != market.ActionTrade || action.Direction != market.Buy {
		t.Fatalf("bullish: expected buy, got %+v", action)
	}
	if want := math.Min(100*0.2, 10); action.Amount != want {
		t.Errorf("bullish amount = %v, want %v", action.Amount, want)
	}

	a.Holdings = 10
	bearish := market.Observation{Time: 2, Price: 100, RecentEvents: []market.Event{
		tradeEvent(market.Sell), tradeEvent(market.Sell), tradeEvent(market.Buy),
	}}
	action = tf.Decide(a, bearish)
	if action.Kind != market.ActionTrade || action.Direction != market.Sell {
		t.Fatalf("bearish: expected sell, got %+v", action)
	}
	if action.Amount != 3 {
		t.Errorf("bearish amount = %v, want 30%% of holdings (3)", action.Amount)
	}
}

func TestTrendFollower_TieObserves(t *testing.T) {
	tf := NewTrendFollower()
	a := New("echo", tf, 100)

	tie := market.Observation{Time: 1, Price: 100, RecentEvents: []market.Event{
		tradeEvent(market.Buy), tradeEvent(market.Sell),
	}}
	if action := tf.Decide(a, tie); action.Kind != market.ActionObserve {
		t.Fatalf("tie: expected observe, got %+v", action)
	}
}

func TestSimple_SeededRandIsValid(t *testing.T) {
	s := NewSimple()
	a := New("scout", s, 100)
	a.SetRand(rand.New(rand.NewSource(7)))

	valid := map[market.ActionKind]bool{
		market.ActionObserve:     true,
		market.ActionTrade:       true,
		market.ActionPredict:     true,
		market.ActionCommunicate: true,
	}

	for i := 0; i < 50; i++ {
		action := s.Decide(a, obsAt(i, 100))
		if action == nil || !valid[action.Kind] {
			t.Fatalf("step %d: invalid action %+v", i, action)
		}
		if action.Kind == market.ActionTrade {
			if action.Amount < 1 || action.Amount > 10 {
				t.Fatalf("trade amount out of range: %v", action.Amount)
			}
			if action.Direction != market.Buy && action.Direction != market.Sell {
				t.Fatalf("invalid direction: %q", action.Direction)
			}
		}
	}
}

// stubOracle scripts oracle replies for strategy tests.
type stubOracle struct {
	suggestion *Suggestion
	forecast   *Forecast
}

func (s *stubOracle) SuggestAction(Personality, market.Observation, []string) *Suggestion {
	return s.suggestion
}

func (s *stubOracle) Forecast(market.Observation, []float64) *Forecast {
	return s.forecast
}

func TestAdvised_UsesOracleSuggestion(t *testing.T) {
	oracle := &stubOracle{suggestion: &Suggestion{
		Action:     "trade",
		Direction:  "sell",
		Amount:     8,
		Confidence: 0.9,
		Reasoning:  "take profits",
	}}
	v := NewAdvised(oracle)
	a := New("sage", v, 100)

	action := v.Decide(a, obsAt(1, 100))
	if action.Kind != market.ActionTrade || action.Direction != market.Sell {
		t.Fatalf("expected oracle-driven sell, got %+v", action)
	}
	if action.Amount != 8 {
		t.Errorf("amount = %v, want 8", action.Amount)
	}
	if action.Reasoning != "take profits" || action.Confidence != 0.9 {
		t.Errorf("oracle metadata not carried: %+v", action)
	}
}

func TestAdvised_MalformedSuggestionFallsBack(t *testing.T) {
	// An action tag outside the closed set is treated as unavailable.
	oracle := &stubOracle{suggestion: &Suggestion{Action: "moon"}}
	v := NewAdvised(oracle)
	a := New("sage", v, 100)

	v.Decide(a, obsAt(1, 100))
	action := v.Decide(a, obsAt(2, 110))

	if action.Kind != market.ActionTrade || action.Direction != market.Buy {
		t.Fatalf("expected momentum fallback buy, got %+v", action)
	}
	if want := math.Min(100*0.2, 10); action.Amount != want {
		t.Errorf("fallback amount = %v, want %v", action.Amount, want)
	}
}

func TestAdvised_NoOracleUsesMomentumRule(t *testing.T) {
	v := NewAdvised(nil)
	a := New("sage", v, 100)
	a.Holdings = 10

	v.Decide(a, obsAt(1, 110))
	action := v.Decide(a, obsAt(2, 100))

	if action.Kind != market.ActionTrade || action.Direction != market.Sell {
		t.Fatalf("expected fallback sell, got %+v", action)
	}
	if action.Amount != 3 {
		t.Errorf("amount = %v, want 30%% of holdings (3)", action.Amount)
	}
}

func TestAdvised_OracleForecastDrivesPrediction(t *testing.T) {
	oracle := &stubOracle{forecast: &Forecast{Direction: "up", Confidence: 0.8, Magnitude: 0.2}}
	v := NewAdvised(oracle)
	a := New("sage", v, 100)

	p := v.Predict(a, obsAt(1, 100))
	if p.Direction != "up" || p.Confidence != 0.8 || p.Magnitude != 0.2 {
		t.Fatalf("forecast not used: %+v", p)
	}
}
