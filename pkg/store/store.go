// Package store persists agent flow state for the reference persistence
// endpoint. The editor never talks to a Store directly; it goes through
// the HTTP envelope, which a Store implementation backs.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/voxkit/flowsync/pkg/flow"
)

// ErrNotFound is returned by Get when an agent has no persisted flow.
var ErrNotFound = errors.New("store: agent flow not found")

// State is the persisted record for one agent.
type State struct {
	AgentID          string
	EngineType       string
	LLMID            string
	LegacyEngineData json.RawMessage
	Doc              *flow.Document
	UpdatedAt        time.Time
}

// Store is the contract for persisting and retrieving agent flow state.
// Put returns the stored state, including the server-assigned version and
// any ids filled in by Normalize.
type Store interface {
	Get(ctx context.Context, agentID string) (*State, error)
	Put(ctx context.Context, agentID string, st State) (*State, error)
}

// Normalize assigns ids to nodes and owned edges that arrived without one.
// This is the server-side id churn the editor's layout cache exists for.
func Normalize(d *flow.Document) {
	if d == nil {
		return
	}
	for _, n := range d.Nodes {
		if n.ID == "" {
			n.ID = uuid.NewString()
		}
		for _, oe := range n.Outgoing() {
			if oe.Edge.ID == "" {
				oe.Edge.ID = uuid.NewString()
			}
		}
	}
}
