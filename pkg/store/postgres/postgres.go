// Package postgres backs the flow store with PostgreSQL. Documents are
// stored as JSONB alongside the legacy passthrough payload; the version
// column bumps atomically on every write.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voxkit/flowsync/pkg/flow"
	"github.com/voxkit/flowsync/pkg/store"
)

// Store implements store.Store on a pgx connection pool.
type Store struct {
	db *pgxpool.Pool
}

// New wraps an existing pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{db: pool}
}

// CreateSchema creates the agent_flows table if it does not exist.
func (s *Store) CreateSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS agent_flows (
			agent_id    TEXT PRIMARY KEY,
			engine_type TEXT NOT NULL DEFAULT '',
			llm_id      TEXT NOT NULL DEFAULT '',
			legacy      JSONB,
			doc         JSONB,
			version     BIGINT NOT NULL DEFAULT 0,
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("store: create schema: %w", err)
	}
	return nil
}

// DropSchema removes the agent_flows table.
func (s *Store) DropSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, `DROP TABLE IF EXISTS agent_flows`); err != nil {
		return fmt.Errorf("store: drop schema: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, agentID string) (*store.State, error) {
	st := store.State{AgentID: agentID}
	var docRaw []byte
	var version int64

	err := s.db.QueryRow(ctx, `
		SELECT engine_type, llm_id, legacy, doc, version, updated_at
		FROM agent_flows WHERE agent_id = $1`, agentID,
	).Scan(&st.EngineType, &st.LLMID, &st.LegacyEngineData, &docRaw, &version, &st.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get %q: %w", agentID, err)
	}

	if len(docRaw) > 0 {
		var doc flow.Document
		if err := json.Unmarshal(docRaw, &doc); err != nil {
			return nil, fmt.Errorf("store: decode document %q: %w", agentID, err)
		}
		doc.Version = version
		st.Doc = &doc
	}
	return &st, nil
}

func (s *Store) Put(ctx context.Context, agentID string, st store.State) (*store.State, error) {
	st.AgentID = agentID
	store.Normalize(st.Doc)

	var docRaw []byte
	if st.Doc != nil {
		// Version is assigned by the upsert below; strip any client value
		// before encoding so the row and the column cannot disagree.
		st.Doc.Version = 0
		raw, err := json.Marshal(st.Doc)
		if err != nil {
			return nil, fmt.Errorf("store: encode document %q: %w", agentID, err)
		}
		docRaw = raw
	}

	var version int64
	err := s.db.QueryRow(ctx, `
		INSERT INTO agent_flows (agent_id, engine_type, llm_id, legacy, doc, version, updated_at)
		VALUES ($1, $2, $3, $4, $5, 1, now())
		ON CONFLICT (agent_id) DO UPDATE SET
			engine_type = EXCLUDED.engine_type,
			llm_id      = EXCLUDED.llm_id,
			legacy      = EXCLUDED.legacy,
			doc         = EXCLUDED.doc,
			version     = agent_flows.version + 1,
			updated_at  = now()
		RETURNING version, updated_at`,
		agentID, st.EngineType, st.LLMID, st.LegacyEngineData, docRaw,
	).Scan(&version, &st.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("store: put %q: %w", agentID, err)
	}

	if st.Doc != nil {
		st.Doc.Version = version
	}
	return &st, nil
}
