package canvas

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/voxkit/flowsync/pkg/flow"
)

// Edges live in two places at once: as flat visual edges on the canvas and
// as owned transitions inside their source node's data. The functions here
// are the only code allowed to touch both, and each direction is idempotent.
// The edge id is the join key between the two representations.

// Connect records a freshly drawn canvas connection from source to target.
// The same id is written to both the visual edge and the node-owned edge so
// later reconciliation recognizes the pair. Multi-edge variants gain an
// unconditioned transition; single-slot variants fill their named slot.
func Connect(g *Graph, sourceID, targetID string) (*Edge, error) {
	src := g.NodeByID(sourceID)
	if src == nil {
		return nil, fmt.Errorf("connect: unknown source node %q", sourceID)
	}
	if g.NodeByID(targetID) == nil {
		return nil, fmt.Errorf("connect: unknown target node %q", targetID)
	}
	if sourceID == EntryNodeID || targetID == EntryNodeID {
		return nil, fmt.Errorf("connect: the entry marker cannot be rewired by hand")
	}

	id := "edge-" + uuid.NewString()
	label, err := attachDrawnEdge(src.Data, id, targetID)
	if err != nil {
		return nil, fmt.Errorf("connect %q→%q: %w", sourceID, targetID, err)
	}

	e := &Edge{ID: id, Source: sourceID, Target: targetID, Label: label}
	g.Edges = append(g.Edges, e)
	return e, nil
}

// attachDrawnEdge appends or slots a new owned edge into the variant's
// shape, returning the label the visual edge should wear.
func attachDrawnEdge(data flow.NodeData, id, targetID string) (string, error) {
	fresh := flow.Edge{ID: id, Destination: targetID, Condition: flow.PromptCondition("")}

	switch d := data.(type) {
	case *flow.ConversationData:
		d.Edges = append(d.Edges, fresh)
		return "", nil
	case *flow.FunctionData:
		d.Edges = append(d.Edges, fresh)
		return "", nil
	case *flow.DigitsData:
		d.Edges = append(d.Edges, fresh)
		return "", nil
	case *flow.BranchData:
		d.Cases = append(d.Cases, fresh)
		return "", nil
	case *flow.TransferData:
		if d.FailureEdge != nil {
			return "", fmt.Errorf("transfer node already has its fallback transition")
		}
		d.FailureEdge = &fresh
		return flow.LabelTransferFailed, nil
	case *flow.HandoffData:
		if d.FailureEdge != nil {
			return "", fmt.Errorf("handoff node already has its fallback transition")
		}
		d.FailureEdge = &fresh
		return flow.LabelHandoffFailed, nil
	case *flow.MessageData:
		if d.SuccessEdge == nil {
			d.SuccessEdge = &fresh
			return flow.LabelMessageSent, nil
		}
		if d.FailureEdge == nil {
			d.FailureEdge = &fresh
			return flow.LabelMessageFailed, nil
		}
		return "", fmt.Errorf("message node already has both outcome transitions")
	}
	return "", fmt.Errorf("node type owns no outgoing transitions")
}

// DeleteEdge removes a visual edge and the node-owned edge sharing its id
// from the source node's data. Unknown ids and the entry edge are no-ops;
// the entry pair is managed by InjectEntry/RetargetEntry only.
func DeleteEdge(g *Graph, edgeID string) {
	if edgeID == EntryEdgeID {
		return
	}
	e := g.EdgeByID(edgeID)
	if e == nil {
		return
	}
	if src := g.NodeByID(e.Source); src != nil && src.Data != nil {
		detachOwnedEdge(src.Data, edgeID)
	}
	g.removeEdges(func(ve *Edge) bool { return ve.ID == edgeID })
}

// detachOwnedEdge strips the owned edge with the given id from whatever
// slot the variant keeps it in.
func detachOwnedEdge(data flow.NodeData, id string) {
	clearSlot := func(slot **flow.Edge) {
		if *slot != nil && (*slot).ID == id {
			*slot = nil
		}
	}
	switch d := data.(type) {
	case *flow.ConversationData:
		d.Edges = dropEdge(d.Edges, id)
	case *flow.FunctionData:
		d.Edges = dropEdge(d.Edges, id)
	case *flow.DigitsData:
		d.Edges = dropEdge(d.Edges, id)
	case *flow.BranchData:
		d.Cases = dropEdge(d.Cases, id)
		clearSlot(&d.Else)
	case *flow.TransferData:
		clearSlot(&d.FailureEdge)
	case *flow.HandoffData:
		clearSlot(&d.FailureEdge)
	case *flow.MessageData:
		clearSlot(&d.SuccessEdge)
		clearSlot(&d.FailureEdge)
	}
}

func dropEdge(edges []flow.Edge, id string) []flow.Edge {
	kept := edges[:0]
	for _, e := range edges {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	return kept
}

// SyncNodeEdges is the node-data→canvas direction: after a node's owned
// transitions were edited directly (side panel), every visual edge leaving
// that node is regenerated from the new data. Edges of other nodes and the
// entry edge are untouched. Unwired transitions produce no visual edge.
func SyncNodeEdges(g *Graph, nodeID string) {
	if nodeID == EntryNodeID {
		return
	}
	n := g.NodeByID(nodeID)
	if n == nil {
		return
	}

	g.removeEdges(func(e *Edge) bool { return e.Source == nodeID && e.ID != EntryEdgeID })

	if n.Data == nil {
		return
	}
	for _, oe := range n.Data.Outgoing() {
		if oe.Edge.Destination == "" {
			continue
		}
		g.Edges = append(g.Edges, &Edge{
			ID:     oe.Edge.ID,
			Source: nodeID,
			Target: oe.Edge.Destination,
			Label:  EdgeLabel(oe),
		})
	}
}

// EdgeLabel returns the canvas display text for an owned edge: the fixed
// structural label if it has one, else the condition prompt.
func EdgeLabel(oe flow.OwnedEdge) string {
	if oe.Label != "" {
		return oe.Label
	}
	return oe.Edge.Condition.Prompt
}

// DeleteNode removes a node and cascades: every visual edge touching it is
// dropped (the entry edge is left for the caller to retarget), and every
// owned edge in any other node that targeted it is kept but unwired, so no
// transition silently disappears from a side panel.
func DeleteNode(g *Graph, nodeID string) {
	if nodeID == EntryNodeID {
		return
	}

	kept := g.Nodes[:0]
	for _, n := range g.Nodes {
		if n.ID != nodeID {
			kept = append(kept, n)
		}
	}
	g.Nodes = kept

	g.removeEdges(func(e *Edge) bool {
		return (e.Source == nodeID || e.Target == nodeID) && e.ID != EntryEdgeID
	})

	for _, n := range g.Nodes {
		if n.Data == nil {
			continue
		}
		for _, oe := range n.Data.Outgoing() {
			if oe.Edge.Destination == nodeID {
				oe.Edge.Destination = ""
			}
		}
	}
}
