package store

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Memory is an in-process Store used for tests and for running the serve
// command without a database.
type Memory struct {
	mu   sync.RWMutex
	byID map[string]*State
}

// NewMemory builds an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{byID: make(map[string]*State)}
}

func (m *Memory) Get(_ context.Context, agentID string) (*State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.byID[agentID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneState(st)
}

func (m *Memory) Put(_ context.Context, agentID string, st State) (*State, error) {
	st.AgentID = agentID
	Normalize(st.Doc)

	m.mu.Lock()
	defer m.mu.Unlock()
	prior := m.byID[agentID]
	if st.Doc != nil {
		var version int64 = 1
		if prior != nil && prior.Doc != nil {
			version = prior.Doc.Version + 1
		}
		st.Doc.Version = version
	}
	st.UpdatedAt = time.Now()

	stored, err := cloneState(&st)
	if err != nil {
		return nil, err
	}
	m.byID[agentID] = stored
	return cloneState(stored)
}

// cloneState detaches a record from the caller via the document's JSON
// round trip, so store contents never alias live editor state.
func cloneState(st *State) (*State, error) {
	out := *st
	if st.Doc != nil {
		doc, err := st.Doc.Clone()
		if err != nil {
			return nil, fmt.Errorf("store: clone document: %w", err)
		}
		out.Doc = doc
	}
	return &out, nil
}
