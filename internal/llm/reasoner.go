// Reasoner builds prompts for agent advice and market forecasts and
// parses the model's loosely structured replies. It implements
// agents.Oracle; a nil return always means "unavailable".
package llm

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/talgya/auralis/internal/agents"
	"github.com/talgya/auralis/internal/market"
)

// SuggestAction asks the model to propose an action for an agent. Any
// failure or malformed reply yields nil.
func (c *Client) SuggestAction(p agents.Personality, obs market.Observation, memory []string) *agents.Suggestion {
	if !c.Enabled() {
		return nil
	}

	prompt := buildActionPrompt(p, obs, memory)
	response, err := c.Generate(prompt)
	if err != nil {
		slog.Debug("oracle suggestion failed", "error", err)
		return nil
	}

	body := extractJSON(response)
	if body == "" || !gjson.Valid(body) {
		slog.Debug("oracle reply not parseable", "reply", truncate(response, 100))
		return nil
	}

	action := gjson.Get(body, "action")
	if !action.Exists() {
		return nil
	}

	return &agents.Suggestion{
		Action:     action.String(),
		Reasoning:  gjson.Get(body, "reasoning").String(),
		Confidence: gjson.Get(body, "confidence").Float(),
		Direction:  gjson.Get(body, "direction").String(),
		Amount:     gjson.Get(body, "amount").Float(),
	}
}

// Forecast asks the model for a market prediction. Any failure or
// malformed reply yields nil.
func (c *Client) Forecast(obs market.Observation, prices []float64) *agents.Forecast {
	if !c.Enabled() {
		return nil
	}

	prompt := buildForecastPrompt(obs, prices)
	response, err := c.Generate(prompt)
	if err != nil {
		slog.Debug("oracle forecast failed", "error", err)
		return nil
	}

	body := extractJSON(response)
	if body == "" || !gjson.Valid(body) {
		return nil
	}

	direction := gjson.Get(body, "direction")
	if !direction.Exists() {
		return nil
	}

	return &agents.Forecast{
		Direction:  direction.String(),
		Confidence: gjson.Get(body, "confidence").Float(),
		Magnitude:  gjson.Get(body, "magnitude").Float(),
	}
}

func buildActionPrompt(p agents.Personality, obs market.Observation, memory []string) string {
	var events strings.Builder
	for _, line := range memory {
		fmt.Fprintf(&events, "- %s\n", line)
	}
	eventsStr := events.String()
	if eventsStr == "" {
		eventsStr = "None yet\n"
	}

	return fmt.Sprintf(`You are an AI agent in a multi-agent trading simulation.

Your Personality:
- Strategy: %s
- Risk Tolerance: %.2f (0=cautious, 1=aggressive)

Current World State:
- Market Price: $%.2f
- Volatility: %.2f%%
- Time Step: %d

Recent Events:
%s
Based on your personality and the world state, decide what action to take.

Respond with ONLY a JSON object in this exact format:
{
    "action": "trade" or "observe" or "communicate",
    "reasoning": "brief explanation",
    "confidence": 0.0 to 1.0
}

If action is "trade", also include:
{
    "direction": "buy" or "sell",
    "amount": number (suggested trade amount)
}

Your response (JSON only):`,
		p.Strategy, p.RiskTolerance,
		obs.Price, obs.Volatility*100, obs.Time,
		eventsStr,
	)
}

func buildForecastPrompt(obs market.Observation, prices []float64) string {
	recent := prices
	if len(recent) > 10 {
		recent = recent[len(recent)-10:]
	}
	trend := "falling"
	if len(recent) >= 2 && recent[len(recent)-1] > recent[0] {
		trend = "rising"
	}

	return fmt.Sprintf(`Analyze this market data and predict the next price movement.

Current Price: $%.2f
Current Volatility: %.2f%%
Price Trend: %s
Recent Prices: %v

Predict:
1. Will price go up or down?
2. How confident are you (0-1)?
3. What's the expected magnitude of change?

Respond with JSON only:
{
    "direction": "up" or "down",
    "confidence": 0.0 to 1.0,
    "magnitude": 0.0 to 1.0
}

Your response:`,
		obs.Price, obs.Volatility*100, trend, recent,
	)
}

// extractJSON pulls the first {...} block out of a completion that may
// wrap its JSON in prose.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return s[start : end+1]
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
