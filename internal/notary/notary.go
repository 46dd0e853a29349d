// Package notary records action digests on an external ledger service.
// The service is best-effort: any failure falls back to a locally
// generated receipt so the owning world's step never stalls or aborts.
package notary

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

// maxRecords bounds the local record log.
const maxRecords = 1000

// Record is one notarized action digest.
type Record struct {
	Receipt    string         `json:"receipt"`
	Agent      string         `json:"agent"`
	ActionType string         `json:"action_type"`
	WorldTime  int            `json:"world_time"`
	Payload    map[string]any `json:"payload,omitempty"`
	LoggedAt   time.Time      `json:"logged_at"`
	Local      bool           `json:"local"`
}

// Client posts digests to a notarization endpoint, keeping a bounded
// local log either way. With no endpoint configured it runs in local
// mode and only issues local receipts.
type Client struct {
	endpoint   string
	httpClient *http.Client

	mu      sync.Mutex
	seq     int
	records []Record
}

// NewClient creates a notary client. An empty endpoint selects local
// mode.
func NewClient(endpoint string) *Client {
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// LogAction notarizes one action digest and returns a receipt id. Never
// fails: remote errors of any kind degrade to a local receipt.
func (c *Client) LogAction(agent, actionType string, payload map[string]any, worldTime int) string {
	receipt, local := c.submit(agent, actionType, payload, worldTime)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.records = append(c.records, Record{
		Receipt:    receipt,
		Agent:      agent,
		ActionType: actionType,
		WorldTime:  worldTime,
		Payload:    payload,
		LoggedAt:   time.Now(),
		Local:      local,
	})
	if len(c.records) > maxRecords {
		c.records = c.records[len(c.records)-maxRecords:]
	}

	return receipt
}

// submit tries the remote endpoint and falls back to a local receipt.
func (c *Client) submit(agent, actionType string, payload map[string]any, worldTime int) (receipt string, local bool) {
	if c.endpoint == "" {
		return c.localReceipt(), true
	}

	body, err := json.Marshal(map[string]any{
		"agent":       agent,
		"action_type": actionType,
		"payload":     payload,
		"world_time":  worldTime,
	})
	if err != nil {
		return c.localReceipt(), true
	}

	resp, err := c.httpClient.Post(c.endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		slog.Debug("notary unreachable, issuing local receipt", "error", err)
		return c.localReceipt(), true
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil || resp.StatusCode != http.StatusOK {
		slog.Debug("notary rejected digest, issuing local receipt", "status", resp.StatusCode)
		return c.localReceipt(), true
	}

	var parsed struct {
		Receipt string `json:"receipt"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil || parsed.Receipt == "" {
		return c.localReceipt(), true
	}

	return parsed.Receipt, false
}

func (c *Client) localReceipt() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return fmt.Sprintf("local-%06d", c.seq)
}

// Records returns a copy of the local record log.
func (c *Client) Records() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Record, len(c.records))
	copy(out, c.records)
	return out
}
