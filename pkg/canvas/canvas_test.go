package canvas_test

import (
	"testing"

	"github.com/voxkit/flowsync/pkg/canvas"
	"github.com/voxkit/flowsync/pkg/flow"
)

func twoNodeGraph() *canvas.Graph {
	return &canvas.Graph{
		Nodes: []*canvas.Node{
			{
				ID: "n1", Type: string(flow.NodeConversation), Name: "Ask",
				Position: flow.Position{X: 100, Y: 100},
				Data:     &flow.ConversationData{Instruction: "ask"},
			},
			{
				ID: "n2", Type: string(flow.NodeEnd), Name: "Bye",
				Position: flow.Position{X: 400, Y: 100},
				Data:     &flow.EndData{},
			},
		},
	}
}

// ─── Connect ──────────────────────────────────────────────────────────────────

func TestConnect_WritesBothRepresentations(t *testing.T) {
	g := twoNodeGraph()
	e, err := canvas.Connect(g, "n1", "n2")
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if e.Source != "n1" || e.Target != "n2" {
		t.Errorf("visual edge = %+v", e)
	}

	conv := g.NodeByID("n1").Data.(*flow.ConversationData)
	if len(conv.Edges) != 1 {
		t.Fatalf("owned edges = %d, want 1", len(conv.Edges))
	}
	owned := conv.Edges[0]
	if owned.ID != e.ID {
		t.Errorf("owned id %q != visual id %q (join key broken)", owned.ID, e.ID)
	}
	if owned.Destination != "n2" {
		t.Errorf("destination = %q", owned.Destination)
	}
	if owned.Condition.Prompt != "" {
		t.Errorf("fresh edge condition = %q, want empty", owned.Condition.Prompt)
	}
}

func TestConnect_TransferSlotFillsOnce(t *testing.T) {
	g := twoNodeGraph()
	g.Nodes[0].Type = string(flow.NodeTransfer)
	g.Nodes[0].Data = &flow.TransferData{Number: "+15550100"}

	e, err := canvas.Connect(g, "n1", "n2")
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if e.Label != flow.LabelTransferFailed {
		t.Errorf("label = %q, want %q", e.Label, flow.LabelTransferFailed)
	}
	if _, err := canvas.Connect(g, "n1", "n2"); err == nil {
		t.Error("second connect must fail: fallback slot already filled")
	}
}

func TestConnect_MessageFillsSuccessThenFailure(t *testing.T) {
	g := twoNodeGraph()
	g.Nodes[0].Type = string(flow.NodeMessage)
	g.Nodes[0].Data = &flow.MessageData{Text: "hi"}

	first, err := canvas.Connect(g, "n1", "n2")
	if err != nil {
		t.Fatalf("first connect: %v", err)
	}
	second, err := canvas.Connect(g, "n1", "n2")
	if err != nil {
		t.Fatalf("second connect: %v", err)
	}
	if first.Label != flow.LabelMessageSent || second.Label != flow.LabelMessageFailed {
		t.Errorf("labels = %q, %q", first.Label, second.Label)
	}
	if _, err := canvas.Connect(g, "n1", "n2"); err == nil {
		t.Error("third connect must fail: both outcome slots filled")
	}
}

func TestConnect_EndNodeAndEntryRejected(t *testing.T) {
	g := twoNodeGraph()
	if _, err := canvas.Connect(g, "n2", "n1"); err == nil {
		t.Error("end node must reject outgoing connections")
	}
	canvas.InjectEntry(g, "n1", nil)
	if _, err := canvas.Connect(g, canvas.EntryNodeID, "n1"); err == nil {
		t.Error("entry marker must not be a connect source")
	}
	if _, err := canvas.Connect(g, "n1", canvas.EntryNodeID); err == nil {
		t.Error("entry marker must not be a connect target")
	}
}

// ─── DeleteEdge ───────────────────────────────────────────────────────────────

func TestDeleteEdge_RemovesBothRepresentations(t *testing.T) {
	g := twoNodeGraph()
	e, _ := canvas.Connect(g, "n1", "n2")

	canvas.DeleteEdge(g, e.ID)
	if g.EdgeByID(e.ID) != nil {
		t.Error("visual edge still present")
	}
	conv := g.NodeByID("n1").Data.(*flow.ConversationData)
	if len(conv.Edges) != 0 {
		t.Errorf("owned edges = %d, want 0", len(conv.Edges))
	}

	canvas.DeleteEdge(g, "no-such-edge") // no-op
}

func TestDeleteEdge_EntryEdgeIsNoOp(t *testing.T) {
	g := twoNodeGraph()
	canvas.InjectEntry(g, "n1", nil)
	canvas.DeleteEdge(g, canvas.EntryEdgeID)
	if g.EdgeByID(canvas.EntryEdgeID) == nil {
		t.Error("entry edge must survive DeleteEdge")
	}
}

// ─── SyncNodeEdges ────────────────────────────────────────────────────────────

func TestSyncNodeEdges_RegeneratesFromOwnedData(t *testing.T) {
	g := twoNodeGraph()
	conv := g.NodeByID("n1").Data.(*flow.ConversationData)
	conv.Edges = []flow.Edge{
		{ID: "e1", Destination: "n2", Condition: flow.PromptCondition("done")},
		{ID: "e2", Condition: flow.PromptCondition("unwired")},
	}

	canvas.SyncNodeEdges(g, "n1")
	out := g.OutgoingEdges("n1")
	if len(out) != 1 {
		t.Fatalf("visual edges = %d, want 1 (unwired skipped)", len(out))
	}
	if out[0].ID != "e1" || out[0].Label != "done" {
		t.Errorf("edge = %+v", out[0])
	}

	// Idempotent: running again produces the same single edge.
	canvas.SyncNodeEdges(g, "n1")
	if len(g.OutgoingEdges("n1")) != 1 {
		t.Error("sync is not idempotent")
	}
}

func TestSyncNodeEdges_NodeWithoutDataDropsEdgesOnly(t *testing.T) {
	g := twoNodeGraph()
	g.Nodes = append(g.Nodes, &canvas.Node{ID: "n3", Type: "mystery"})
	g.Edges = append(g.Edges, &canvas.Edge{ID: "stale", Source: "n3", Target: "n2"})

	canvas.SyncNodeEdges(g, "n3") // must not panic on nil payload
	if g.EdgeByID("stale") != nil {
		t.Error("stale visual edge must still be dropped")
	}
}

func TestSyncNodeEdges_LeavesOtherNodesAlone(t *testing.T) {
	g := twoNodeGraph()
	g.Nodes = append(g.Nodes, &canvas.Node{
		ID: "n3", Type: string(flow.NodeConversation),
		Data: &flow.ConversationData{Edges: []flow.Edge{{ID: "e3", Destination: "n2"}}},
	})
	canvas.SyncNodeEdges(g, "n3")
	canvas.SyncNodeEdges(g, "n1")
	if g.EdgeByID("e3") == nil {
		t.Error("syncing n1 must not drop n3's edges")
	}
}

// ─── DeleteNode ───────────────────────────────────────────────────────────────

func TestDeleteNode_CascadeUnwiresIncomingTransitions(t *testing.T) {
	g := twoNodeGraph()
	e, _ := canvas.Connect(g, "n1", "n2")

	canvas.DeleteNode(g, "n2")
	if g.NodeByID("n2") != nil {
		t.Fatal("node still present")
	}
	if g.EdgeByID(e.ID) != nil {
		t.Error("visual edge into deleted node still present")
	}
	conv := g.NodeByID("n1").Data.(*flow.ConversationData)
	if len(conv.Edges) != 1 {
		t.Fatalf("owned edges = %d, want transition kept", len(conv.Edges))
	}
	if conv.Edges[0].Destination != "" {
		t.Errorf("destination = %q, want cleared", conv.Edges[0].Destination)
	}
}

func TestDeleteNode_EntryMarkerProtected(t *testing.T) {
	g := twoNodeGraph()
	canvas.InjectEntry(g, "n1", nil)
	canvas.DeleteNode(g, canvas.EntryNodeID)
	if g.NodeByID(canvas.EntryNodeID) == nil {
		t.Error("entry marker must not be deletable")
	}
}

// ─── Entry marker ─────────────────────────────────────────────────────────────

func TestInjectEntry_NeverTwoMarkers(t *testing.T) {
	g := twoNodeGraph()
	canvas.InjectEntry(g, "n1", nil)
	canvas.InjectEntry(g, "n2", nil)

	var markers int
	for _, n := range g.Nodes {
		if n.ID == canvas.EntryNodeID {
			markers++
		}
	}
	if markers != 1 {
		t.Fatalf("markers = %d, want 1", markers)
	}
	if e := g.EdgeByID(canvas.EntryEdgeID); e == nil || e.Target != "n2" {
		t.Errorf("entry edge = %+v, want target n2", e)
	}
}

func TestStripEntry_ReturnsMarkerPosition(t *testing.T) {
	g := twoNodeGraph()
	canvas.InjectEntry(g, "n1", &flow.Position{X: 5, Y: 7})

	pos := canvas.StripEntry(g)
	if pos == nil || pos.X != 5 || pos.Y != 7 {
		t.Errorf("pos = %+v, want {5 7}", pos)
	}
	if g.NodeByID(canvas.EntryNodeID) != nil || g.EdgeByID(canvas.EntryEdgeID) != nil {
		t.Error("marker not fully stripped")
	}
	if canvas.StripEntry(g) != nil {
		t.Error("second strip must return nil")
	}
}

func TestRetargetEntry_MovesEdgeOnly(t *testing.T) {
	g := twoNodeGraph()
	canvas.InjectEntry(g, "n1", &flow.Position{X: 1, Y: 2})
	canvas.RetargetEntry(g, "n2")

	if e := g.EdgeByID(canvas.EntryEdgeID); e == nil || e.Target != "n2" {
		t.Fatalf("entry edge = %+v", e)
	}
	marker := g.NodeByID(canvas.EntryNodeID)
	if marker.Position.X != 1 || marker.Position.Y != 2 {
		t.Error("marker position must not move on retarget")
	}
}

// ─── Layout cache ─────────────────────────────────────────────────────────────

func TestLayoutCache_IDChurnFallsBackToName(t *testing.T) {
	lc, err := canvas.NewLayoutCache()
	if err != nil {
		t.Fatalf("NewLayoutCache: %v", err)
	}
	g := twoNodeGraph()
	g.NodeByID("n1").Position = flow.Position{X: 900, Y: 900}
	lc.Capture("agent-1", g)

	// Server churned the id but kept the name.
	rebuilt := twoNodeGraph()
	rebuilt.Nodes[0].ID = "server-assigned"
	rebuilt.Nodes[0].Position = flow.Position{X: 0, Y: 0}
	lc.Restore("agent-1", rebuilt)

	if p := rebuilt.Nodes[0].Position; p.X != 900 || p.Y != 900 {
		t.Errorf("position = %+v, want restored by name", p)
	}
}

func TestLayoutCache_IDWinsOverName(t *testing.T) {
	lc, _ := canvas.NewLayoutCache()
	g := twoNodeGraph()
	g.NodeByID("n1").Position = flow.Position{X: 11, Y: 12}
	g.NodeByID("n2").Position = flow.Position{X: 21, Y: 22}
	lc.Capture("agent-1", g)

	// Rename n1 but keep its id: the id entry must win.
	rebuilt := twoNodeGraph()
	rebuilt.Nodes[0].Name = "Renamed"
	rebuilt.Nodes[0].Position = flow.Position{}
	lc.Restore("agent-1", rebuilt)
	if p := rebuilt.Nodes[0].Position; p.X != 11 {
		t.Errorf("position = %+v, want restored by id despite rename", p)
	}
}

func TestLayoutCache_MissIsSilent(t *testing.T) {
	lc, _ := canvas.NewLayoutCache()
	g := twoNodeGraph()
	lc.Restore("never-captured", g)
	if p := g.Nodes[0].Position; p.X != 100 {
		t.Errorf("position = %+v, want untouched on miss", p)
	}
}
