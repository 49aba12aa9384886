// Package editor owns one editing session per agent: the live canvas
// graph, the document-level settings, and the autosave loop that keeps the
// persistence endpoint in sync with what the user sees.
package editor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/voxkit/flowsync/pkg/canvas"
	"github.com/voxkit/flowsync/pkg/client"
	"github.com/voxkit/flowsync/pkg/convert"
	"github.com/voxkit/flowsync/pkg/flow"
)

// Persister is the slice of the persistence endpoint the session needs.
// *client.Client implements it.
type Persister interface {
	Load(ctx context.Context, agentID string) (client.EngineState, error)
	Save(ctx context.Context, agentID string, sr client.SaveRequest) (client.EngineState, error)
}

// Session is the synchronization engine behind one open flow editor. All
// exported methods are safe for concurrent use, though the expected caller
// is a single UI event loop.
type Session struct {
	agentID string
	store   Persister
	sched   *Autosave
	layout  *canvas.LayoutCache

	mu        sync.Mutex
	graph     *canvas.Graph
	meta      flow.Document // document-level fields; Nodes stays nil
	loaded    bool
	dirty     bool
	seq       uint64 // bumps on every mutation; guards mid-save reloads
	lastSaved time.Time

	// Legacy-format passthrough. legacy is the parsed payload, legacyRaw
	// what goes back on the wire.
	isLegacy   bool
	engineType string
	llmID      string
	legacy     *flow.LegacyEngine
	legacyRaw  json.RawMessage
}

// NewSession builds a session for agentID against the given endpoint. The
// debounce delay applies to autosave; pass 0 for the default.
func NewSession(agentID string, store Persister, debounce time.Duration) (*Session, error) {
	lc, err := canvas.NewLayoutCache()
	if err != nil {
		return nil, fmt.Errorf("session %q: %w", agentID, err)
	}
	s := &Session{
		agentID: agentID,
		store:   store,
		layout:  lc,
	}
	s.sched = NewAutosave(debounce, s.doSave)
	return s, nil
}

// Load fetches the agent's persisted state and rebuilds the canvas. A
// legacy single-prompt payload is lifted into the graph shape; an agent
// with no flow at all starts from the template. Load failures leave the
// session unpopulated — the caller shows a blocking retry screen, never a
// partial editor.
func (s *Session) Load(ctx context.Context) error {
	state, err := s.store.Load(ctx, s.agentID)
	if err != nil {
		return fmt.Errorf("load agent %q: %w", s.agentID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sched.Reset()
	if err := s.applyStateLocked(state); err != nil {
		return err
	}
	s.loaded = true
	s.dirty = false
	// The load populates state through the same change path mutations use;
	// the scheduler swallows this first notification so mounting an editor
	// never fires a save on its own.
	s.sched.Notify()
	return nil
}

// applyStateLocked rebuilds graph and meta from an envelope.
func (s *Session) applyStateLocked(state client.EngineState) error {
	s.engineType = state.EngineType
	s.llmID = state.LLMID

	var doc *flow.Document
	switch {
	case state.Flow != nil:
		s.isLegacy = false
		doc = state.Flow
	case len(state.LegacyEngineData) > 0:
		legacy, err := flow.ParseLegacy(state.LegacyEngineData)
		if err != nil {
			return fmt.Errorf("agent %q: %w", s.agentID, err)
		}
		s.isLegacy = true
		s.legacy = legacy
		s.legacyRaw = state.LegacyEngineData
		doc = flow.LiftLegacy(legacy)
	default:
		s.isLegacy = false
		doc = flow.NewTemplate()
	}

	meta := *doc
	meta.Nodes = nil
	s.meta = meta

	s.graph = convert.ToVisual(doc)
	if s.isLegacy {
		s.layout.Restore(s.agentID, s.graph)
	}
	canvas.InjectEntry(s.graph, s.meta.StartNodeID, nil)
	return nil
}

// changed records a user mutation: marks unsaved changes and pokes the
// autosave debounce.
func (s *Session) changed() {
	s.seq++
	s.dirty = true
	s.sched.Notify()
}

// ─── graph mutations ──────────────────────────────────────────────────────────

// Connect records a canvas-drawn connection between two nodes.
func (s *Session) Connect(sourceID, targetID string) (*canvas.Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := canvas.Connect(s.graph, sourceID, targetID)
	if err != nil {
		return nil, err
	}
	s.changed()
	return e, nil
}

// DeleteEdge removes a visual edge and its node-owned counterpart.
func (s *Session) DeleteEdge(edgeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	canvas.DeleteEdge(s.graph, edgeID)
	s.changed()
}

// DeleteNode removes a node with the full cascade. Deleting the start node
// promotes the first remaining node to start so the entry edge never
// dangles.
func (s *Session) DeleteNode(nodeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	canvas.DeleteNode(s.graph, nodeID)
	if s.meta.StartNodeID == nodeID {
		s.meta.StartNodeID = ""
		for _, n := range s.graph.Nodes {
			if n.ID != canvas.EntryNodeID {
				s.meta.StartNodeID = n.ID
				break
			}
		}
		canvas.RetargetEntry(s.graph, s.meta.StartNodeID)
	}
	s.changed()
}

// AddNode places a new node of the given type on the canvas.
func (s *Session) AddNode(typ flow.NodeType, name string, pos flow.Position) (*canvas.Node, error) {
	data := flow.NewNodeData(typ)
	if data == nil {
		return nil, fmt.Errorf("add node: unknown node type %q", typ)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := &canvas.Node{
		ID:       "node-" + newID(),
		Type:     string(typ),
		Name:     name,
		Position: pos,
		Data:     data,
	}
	s.graph.Nodes = append(s.graph.Nodes, n)
	s.changed()
	return n, nil
}

// UpdateNodeData replaces a node's variant payload, as the detail side
// panel does, and regenerates that node's visual edges from the new data.
func (s *Session) UpdateNodeData(nodeID string, data flow.NodeData) error {
	if data == nil {
		return fmt.Errorf("update node %q: nil data", nodeID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.graph.NodeByID(nodeID)
	if n == nil || n.ID == canvas.EntryNodeID {
		return fmt.Errorf("update node %q: no such node", nodeID)
	}
	n.Data = data
	n.Type = string(flow.TypeOf(data))
	canvas.SyncNodeEdges(s.graph, nodeID)
	s.changed()
	return nil
}

// MoveNode updates a node's canvas position.
func (s *Session) MoveNode(nodeID string, pos flow.Position) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := s.graph.NodeByID(nodeID); n != nil {
		n.Position = pos
		s.changed()
	}
}

// RenameNode changes a node's display name; its id is untouched.
func (s *Session) RenameNode(nodeID, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := s.graph.NodeByID(nodeID); n != nil && n.ID != canvas.EntryNodeID {
		n.Name = name
		s.changed()
	}
}

// SetStartNode redesignates the conversation's starting state. Only the
// entry edge moves.
func (s *Session) SetStartNode(nodeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := s.graph.NodeByID(nodeID); n == nil || n.ID == canvas.EntryNodeID {
		return fmt.Errorf("set start: no such node %q", nodeID)
	}
	s.meta.StartNodeID = nodeID
	canvas.RetargetEntry(s.graph, nodeID)
	s.changed()
	return nil
}

// ─── settings and tool mutations ──────────────────────────────────────────────

// SetGlobalInstruction updates the instruction applied to every
// conversation state.
func (s *Session) SetGlobalInstruction(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meta.GlobalInstruction = text
	s.changed()
}

// SetModelChoice updates the document's model selection.
func (s *Session) SetModelChoice(model string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meta.ModelChoice = model
	s.changed()
}

// SetStartSpeaker updates who opens the conversation.
func (s *Session) SetStartSpeaker(sp flow.StartSpeaker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meta.StartSpeaker = sp
	s.changed()
}

// AddTool appends a tool to the registry.
func (s *Session) AddTool(t flow.Tool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meta.AddTool(t)
	s.changed()
}

// ReplaceTool commits a tool edit against the index captured when the
// editing dialog opened; a stale index degrades to append.
func (s *Session) ReplaceTool(i int, t flow.Tool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meta.ReplaceTool(i, t)
	s.changed()
}

// RemoveTool deletes a tool by index. Node references are not cascaded.
func (s *Session) RemoveTool(i int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meta.RemoveTool(i)
	s.changed()
}

// ─── persistence ──────────────────────────────────────────────────────────────

// Save persists immediately, sharing the in-flight guard with autosave so
// a manual save can never race the timer into two concurrent PUTs.
func (s *Session) Save(ctx context.Context) error {
	return s.sched.Flush(ctx)
}

// doSave is the single save path used by both the debounce timer and Save.
func (s *Session) doSave(ctx context.Context) error {
	s.mu.Lock()
	if !s.loaded {
		s.mu.Unlock()
		return nil
	}
	seq := s.seq
	sr, err := s.buildSaveRequestLocked()
	s.mu.Unlock()
	if err != nil {
		return err
	}

	state, err := s.store.Save(ctx, s.agentID, sr)
	if err != nil {
		// Local state stays the source of truth; the dirty flag survives so
		// the next debounce cycle retries with current state.
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSaved = time.Now()
	if s.seq != seq {
		// Mutations landed while the request was in flight. Keep the local
		// graph and only take the server's version; the pending debounce
		// cycle will persist the newer state.
		if state.Flow != nil {
			s.meta.Version = state.Flow.Version
		}
		return nil
	}
	if err := s.applyStateLocked(state); err != nil {
		return err
	}
	s.dirty = false
	return nil
}

// buildSaveRequestLocked converts the canvas back into a document and
// wraps it with the passthrough fields. Tool parameter schemas are checked
// here so a malformed schema aborts the save before anything is sent.
func (s *Session) buildSaveRequestLocked() (client.SaveRequest, error) {
	for i, t := range s.meta.Tools {
		if t.Webhook != nil && len(t.Webhook.Parameters) > 0 && !json.Valid(t.Webhook.Parameters) {
			return client.SaveRequest{}, fmt.Errorf("tool %d (%s): parameter schema is not valid JSON", i, t.Name)
		}
	}

	doc := convert.ToDocument(s.graph, convert.MetaOf(&s.meta))

	sr := client.SaveRequest{
		Flow:       doc,
		EngineType: s.engineType,
		LLMID:      s.llmID,
	}
	if s.isLegacy {
		// The response rebuilds the node set with fresh ids; remember where
		// everything is before letting that happen.
		s.layout.Capture(s.agentID, s.graph)
		sr.LegacyEngineData = s.legacyRaw
		if lowered, ok := flow.LowerLegacy(doc, s.legacy); ok {
			if raw, err := json.Marshal(lowered); err == nil {
				sr.LegacyEngineData = raw
			} else {
				slog.Warn("keeping stored legacy payload", "agent", s.agentID, "error", err)
			}
		}
	}
	return sr, nil
}

// Close tears the session down: the pending debounce is cancelled and any
// in-flight save is left to finish on its own, best-effort.
func (s *Session) Close() {
	s.sched.Stop()
}

// ─── accessors ────────────────────────────────────────────────────────────────

// Graph returns the live canvas graph. Callers must treat it as read-only
// and go through the mutation methods.
func (s *Session) Graph() *canvas.Graph {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph
}

// Document snapshots the current state as a persistable document.
func (s *Session) Document() *flow.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return convert.ToDocument(s.graph, convert.MetaOf(&s.meta))
}

// Dirty reports whether unsaved changes exist.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// LastSaved returns the time of the last successful save (zero if none).
func (s *Session) LastSaved() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSaved
}

// StartNodeID returns the current start state id.
func (s *Session) StartNodeID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meta.StartNodeID
}

// Tools returns a copy of the current tool registry.
func (s *Session) Tools() []flow.Tool {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]flow.Tool, len(s.meta.Tools))
	copy(out, s.meta.Tools)
	return out
}
