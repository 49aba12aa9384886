package convert

import (
	"github.com/voxkit/flowsync/pkg/canvas"
	"github.com/voxkit/flowsync/pkg/flow"
)

// ToDocument rebuilds a persisted document from the canvas. The entry
// marker is excluded, and for each node the variant-specific owned-edge
// shape is reconstructed by merging the node's own transition data with the
// visual edges leaving it:
//
//   - node-owned edges are authoritative for every edge id they already
//     name; the canvas never overrides their condition text
//   - a visual edge whose id is unknown to the node, and whose label is not
//     a reserved structural name, is a fresh canvas-drawn connection and is
//     appended with an empty condition
//   - a visual edge whose target is not a real node is dropped
//   - structurally named slots (fallback, SMS outcomes, else) resolve
//     positionally or by label, falling back to the stored slot
//
// The conversion is total: a node whose payload has no recognized edge
// shape comes back as a terminal node rather than failing the save.
func ToDocument(g *canvas.Graph, meta Meta) *flow.Document {
	real := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.ID != canvas.EntryNodeID {
			real[n.ID] = true
		}
	}

	doc := &flow.Document{
		StartNodeID:       meta.StartNodeID,
		StartSpeaker:      meta.StartSpeaker,
		GlobalInstruction: meta.GlobalInstruction,
		ModelChoice:       meta.ModelChoice,
		Tools:             meta.Tools,
		KnowledgeBaseIDs:  meta.KnowledgeBaseIDs,
		DefaultVariables:  meta.DefaultVariables,
		Version:           meta.Version,
	}

	for _, vn := range g.Nodes {
		if vn.ID == canvas.EntryNodeID {
			continue
		}

		// Visual edges leaving this node, dangling targets dropped.
		var vis []*canvas.Edge
		for _, e := range g.OutgoingEdges(vn.ID) {
			if e.ID == canvas.EntryEdgeID || !real[e.Target] {
				continue
			}
			vis = append(vis, e)
		}

		typ, data := rebuildData(vn.Data, vis)
		pos := vn.Position
		doc.Nodes = append(doc.Nodes, &flow.Node{
			ID:            vn.ID,
			Type:          typ,
			Name:          vn.Name,
			Position:      &pos,
			GlobalSetting: vn.GlobalSetting,
			Data:          data,
		})
	}

	return doc
}

// rebuildData dispatches to the per-variant rebuild rule. The default arm
// is the documented terminal fallback for unrecognized payloads.
func rebuildData(data flow.NodeData, vis []*canvas.Edge) (flow.NodeType, flow.NodeData) {
	switch d := data.(type) {
	case *flow.ConversationData:
		return flow.NodeConversation, &flow.ConversationData{
			Instruction: d.Instruction,
			Edges:       mergeEdgeList(d.Edges, vis),
		}
	case *flow.FunctionData:
		return flow.NodeFunction, &flow.FunctionData{
			ToolID:      d.ToolID,
			ToolType:    d.ToolType,
			SpeakDuring: d.SpeakDuring,
			Edges:       mergeEdgeList(d.Edges, vis),
		}
	case *flow.DigitsData:
		return flow.NodeDigits, &flow.DigitsData{
			MaxDigits:      d.MaxDigits,
			TerminationKey: d.TerminationKey,
			Edges:          mergeEdgeList(d.Edges, vis),
		}
	case *flow.BranchData:
		return flow.NodeBranch, &flow.BranchData{
			Cases: mergeEdgeList(d.Cases, vis),
			Else:  resolveLabeled(d.Else, vis, flow.LabelElse),
		}
	case *flow.TransferData:
		return flow.NodeTransfer, &flow.TransferData{
			Number:      d.Number,
			ToolID:      d.ToolID,
			ToolType:    d.ToolType,
			FailureEdge: resolveSingle(d.FailureEdge, vis),
		}
	case *flow.HandoffData:
		return flow.NodeHandoff, &flow.HandoffData{
			AgentID:     d.AgentID,
			ToolID:      d.ToolID,
			ToolType:    d.ToolType,
			FailureEdge: resolveSingle(d.FailureEdge, vis),
		}
	case *flow.MessageData:
		return flow.NodeMessage, &flow.MessageData{
			Text:        d.Text,
			ToolID:      d.ToolID,
			ToolType:    d.ToolType,
			SuccessEdge: resolveLabeled(d.SuccessEdge, vis, flow.LabelMessageSent),
			FailureEdge: resolveLabeled(d.FailureEdge, vis, flow.LabelMessageFailed),
		}
	case *flow.EndData:
		return flow.NodeEnd, &flow.EndData{}
	}
	return flow.NodeEnd, &flow.EndData{}
}

// mergeEdgeList keeps the node's own edges (by id, conditions intact) and
// appends every visual edge the node does not yet know about, unless its
// label is a reserved structural name — those belong to other variants'
// slots and must never become generic transitions.
func mergeEdgeList(prior []flow.Edge, vis []*canvas.Edge) []flow.Edge {
	out := make([]flow.Edge, len(prior))
	copy(out, prior)

	known := make(map[string]bool, len(prior))
	for _, e := range prior {
		known[e.ID] = true
	}

	for _, ve := range vis {
		if known[ve.ID] || flow.StructuralLabel(ve.Label) {
			continue
		}
		out = append(out, flow.Edge{
			ID:          ve.ID,
			Destination: ve.Target,
			Condition:   flow.PromptCondition(ve.Label),
		})
	}
	return out
}

// resolveSingle resolves a single-slot edge positionally: the first visual
// edge becomes the slot, keeping the stored condition when the ids agree.
// With no visual edge the stored slot survives as-is.
func resolveSingle(prior *flow.Edge, vis []*canvas.Edge) *flow.Edge {
	if len(vis) == 0 {
		return copyEdge(prior)
	}
	ve := vis[0]
	e := flow.Edge{ID: ve.ID, Destination: ve.Target}
	if prior != nil && prior.ID == ve.ID {
		e.Condition = prior.Condition
	}
	return &e
}

// resolveLabeled picks the visual edge wearing the slot's structural label,
// falling back to the stored slot when no visual edge matches.
func resolveLabeled(prior *flow.Edge, vis []*canvas.Edge, label string) *flow.Edge {
	for _, ve := range vis {
		if ve.Label != label {
			continue
		}
		e := flow.Edge{ID: ve.ID, Destination: ve.Target}
		if prior != nil && prior.ID == ve.ID {
			e.Condition = prior.Condition
		}
		return &e
	}
	return copyEdge(prior)
}

func copyEdge(e *flow.Edge) *flow.Edge {
	if e == nil {
		return nil
	}
	c := *e
	return &c
}
