// Package client talks to the persistence endpoint that owns flow
// documents. The endpoint is an opaque collaborator: one GET and one PUT
// per agent, both moving the same envelope.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/voxkit/flowsync/pkg/flow"
)

const defaultTimeout = 30 * time.Second

// EngineState is the envelope both GET and PUT return. For legacy agents
// the flow document is absent and LegacyEngineData carries the
// single-prompt payload instead.
type EngineState struct {
	Exists           bool            `json:"exists"`
	Flow             *flow.Document  `json:"flow,omitempty"`
	EngineType       string          `json:"engine_type,omitempty"`
	LLMID            string          `json:"llm_id,omitempty"`
	LegacyEngineData json.RawMessage `json:"legacy_engine_data,omitempty"`
}

// SaveRequest is the PUT body: the full document plus passthrough fields
// the legacy-format case must carry back untouched.
type SaveRequest struct {
	Flow             *flow.Document  `json:"flow"`
	EngineType       string          `json:"engine_type,omitempty"`
	LLMID            string          `json:"llm_id,omitempty"`
	LegacyEngineData json.RawMessage `json:"legacy_engine_data,omitempty"`
}

// Client is an HTTP client for the persistence endpoint.
type Client struct {
	base string
	http *http.Client
}

// New builds a client for the endpoint at base (e.g. "http://host:3000").
func New(base string) *Client {
	return &Client{
		base: base,
		http: &http.Client{Timeout: defaultTimeout},
	}
}

// Load fetches the persisted state for an agent.
func (c *Client) Load(ctx context.Context, agentID string) (EngineState, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.flowURL(agentID), nil)
	if err != nil {
		return EngineState{}, fmt.Errorf("load agent %q: build request: %w", agentID, err)
	}
	return c.do(req, agentID)
}

// Save submits the full document and returns the state the server
// persisted, which may differ structurally (server-assigned ids, bumped
// version) and triggers a reload cycle in the editor.
func (c *Client) Save(ctx context.Context, agentID string, sr SaveRequest) (EngineState, error) {
	body, err := json.Marshal(sr)
	if err != nil {
		return EngineState{}, fmt.Errorf("save agent %q: marshal: %w", agentID, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.flowURL(agentID), bytes.NewReader(body))
	if err != nil {
		return EngineState{}, fmt.Errorf("save agent %q: build request: %w", agentID, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, agentID)
}

func (c *Client) flowURL(agentID string) string {
	return c.base + "/agents/" + url.PathEscape(agentID) + "/flow"
}

func (c *Client) do(req *http.Request, agentID string) (EngineState, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return EngineState{}, fmt.Errorf("agent %q: %w", agentID, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return EngineState{}, fmt.Errorf("agent %q: read response: %w", agentID, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return EngineState{}, fmt.Errorf("agent %q: endpoint returned %d: %s", agentID, resp.StatusCode, truncateBody(raw))
	}

	var state EngineState
	if err := json.Unmarshal(raw, &state); err != nil {
		return EngineState{}, fmt.Errorf("agent %q: decode envelope: %w", agentID, err)
	}
	return state, nil
}

func truncateBody(b []byte) string {
	const max = 200
	if len(b) <= max {
		return string(b)
	}
	return string(b[:max]) + "…"
}
