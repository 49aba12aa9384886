package canvas

import "github.com/voxkit/flowsync/pkg/flow"

// The entry marker is a synthetic, non-persisted node/edge pair that points
// at the configured start state. It exists only on the canvas: injected
// after every load, stripped before every save.
const (
	EntryNodeID = "__entry__"
	EntryEdgeID = "__entry_edge__"
	EntryType   = "entry"
)

// entryOffset places the marker left of the start node when no stored
// position is available.
var entryOffset = flow.Position{X: -220, Y: 0}

// InjectEntry adds the entry node and its animated edge targeting startID.
// Any existing entry pair is replaced, so the graph never holds two markers.
// pos overrides the computed placement for formats that persist one.
func InjectEntry(g *Graph, startID string, pos *flow.Position) {
	StripEntry(g)

	p := flow.Position{}
	switch {
	case pos != nil:
		p = *pos
	default:
		if start := g.NodeByID(startID); start != nil {
			p = flow.Position{X: start.Position.X + entryOffset.X, Y: start.Position.Y + entryOffset.Y}
		}
	}

	g.Nodes = append(g.Nodes, &Node{
		ID:       EntryNodeID,
		Type:     EntryType,
		Name:     "Entry",
		Position: p,
	})
	g.Edges = append(g.Edges, &Edge{
		ID:       EntryEdgeID,
		Source:   EntryNodeID,
		Target:   startID,
		Animated: true,
	})
}

// StripEntry removes the entry node and edge, returning the marker's last
// position (nil if no marker was present) so callers can persist it for
// formats that store an entry offset.
func StripEntry(g *Graph) *flow.Position {
	var pos *flow.Position
	kept := g.Nodes[:0]
	for _, n := range g.Nodes {
		if n.ID == EntryNodeID {
			p := n.Position
			pos = &p
			continue
		}
		kept = append(kept, n)
	}
	g.Nodes = kept
	g.removeEdges(func(e *Edge) bool { return e.ID == EntryEdgeID })
	return pos
}

// RetargetEntry points the entry edge at a new start node. Only the edge
// target moves; the marker node stays where the user left it. If the edge
// is missing (start node deleted out from under it), it is recreated.
func RetargetEntry(g *Graph, startID string) {
	if e := g.EdgeByID(EntryEdgeID); e != nil {
		e.Target = startID
		return
	}
	if g.NodeByID(EntryNodeID) == nil {
		InjectEntry(g, startID, nil)
		return
	}
	g.Edges = append(g.Edges, &Edge{
		ID:       EntryEdgeID,
		Source:   EntryNodeID,
		Target:   startID,
		Animated: true,
	})
}
