// Package llm provides the advisory oracle client. A local model server
// (Ollama) is consulted on a best-effort basis; every failure mode
// degrades to "no advice" rather than an error.
package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

const (
	// DefaultModel is used when the configuration names none.
	DefaultModel = "llama2"

	probeTimeout   = 2 * time.Second
	requestTimeout = 10 * time.Second
)

// Client wraps the Ollama generate API.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client

	// Rate limiting: max calls per minute.
	mu        sync.Mutex
	callCount int
	resetAt   time.Time
	maxPerMin int

	available bool
}

// NewClient creates an oracle client against the given base URL.
// Returns nil if baseURL is empty (oracle disabled).
func NewClient(baseURL, model string) *Client {
	if baseURL == "" {
		return nil
	}
	if model == "" {
		model = DefaultModel
	}
	c := &Client{
		baseURL:    baseURL,
		model:      model,
		httpClient: &http.Client{Timeout: requestTimeout},
		maxPerMin:  30,
	}
	c.available = c.probe()
	if !c.available {
		slog.Warn("advisory oracle unreachable, agents will run rule-based", "url", baseURL)
	}
	return c
}

// Enabled returns true if the client reached the model server at startup.
func (c *Client) Enabled() bool {
	return c != nil && c.available
}

// probe checks whether the model server answers at all.
func (c *Client) probe() bool {
	client := &http.Client{Timeout: probeTimeout}
	resp, err := client.Get(c.baseURL + "/api/tags")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// generateRequest is the Ollama generate API request body.
type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

// generateResponse is the subset of the response body we consume.
type generateResponse struct {
	Response string `json:"response"`
}

// Generate sends a prompt to the model and returns the raw completion.
func (c *Client) Generate(prompt string) (string, error) {
	if c == nil || c.baseURL == "" {
		return "", fmt.Errorf("oracle client not configured")
	}

	c.mu.Lock()
	now := time.Now()
	if now.After(c.resetAt) {
		c.callCount = 0
		c.resetAt = now.Add(time.Minute)
	}
	if c.callCount >= c.maxPerMin {
		c.mu.Unlock()
		return "", fmt.Errorf("rate limit exceeded (%d calls/min)", c.maxPerMin)
	}
	c.callCount++
	c.mu.Unlock()

	req := generateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
		Options: map[string]any{
			"temperature": 0.7,
			"top_p":       0.9,
		},
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	resp, err := c.httpClient.Post(c.baseURL+"/api/generate", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("oracle call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("oracle error %d: %s", resp.StatusCode, string(respBody))
	}

	var apiResp generateResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	return apiResp.Response, nil
}
