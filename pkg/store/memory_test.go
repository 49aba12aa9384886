package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/voxkit/flowsync/pkg/flow"
	"github.com/voxkit/flowsync/pkg/store"
)

func TestMemory_GetMissingReturnsNotFound(t *testing.T) {
	m := store.NewMemory()
	if _, err := m.Get(context.Background(), "ghost"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestMemory_VersionBumpsMonotonically(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	st, err := m.Put(ctx, "a1", store.State{Doc: flow.NewTemplate()})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if st.Doc.Version != 1 {
		t.Errorf("version = %d, want 1", st.Doc.Version)
	}

	// The client-sent version is ignored; the server owns the counter.
	doc := flow.NewTemplate()
	doc.Version = 99
	st, err = m.Put(ctx, "a1", store.State{Doc: doc})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if st.Doc.Version != 2 {
		t.Errorf("version = %d, want 2", st.Doc.Version)
	}

	got, err := m.Get(ctx, "a1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Doc.Version != 2 {
		t.Errorf("stored version = %d", got.Doc.Version)
	}
	if got.UpdatedAt.IsZero() {
		t.Error("UpdatedAt not set")
	}
}

func TestMemory_ReturnsDetachedCopies(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	if _, err := m.Put(ctx, "a1", store.State{Doc: flow.NewTemplate()}); err != nil {
		t.Fatalf("put: %v", err)
	}

	first, _ := m.Get(ctx, "a1")
	first.Doc.Nodes[0].Name = "Mutated"
	second, _ := m.Get(ctx, "a1")
	if second.Doc.Nodes[0].Name == "Mutated" {
		t.Error("store contents must not alias returned documents")
	}
}

func TestNormalize_AssignsMissingIDs(t *testing.T) {
	doc := &flow.Document{Nodes: []*flow.Node{{
		Type: flow.NodeConversation,
		Data: &flow.ConversationData{Edges: []flow.Edge{{Destination: "x"}}},
	}}}
	store.Normalize(doc)
	if doc.Nodes[0].ID == "" {
		t.Error("node id not assigned")
	}
	conv := doc.Nodes[0].Data.(*flow.ConversationData)
	if conv.Edges[0].ID == "" {
		t.Error("edge id not assigned")
	}
	store.Normalize(nil) // nil doc is a no-op
}
