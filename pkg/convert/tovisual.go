// Package convert is the schema adapter between the persisted document
// model (edges owned inside their source node) and the canvas model (flat
// node and edge lists). Both directions are total functions: malformed
// input degrades to a safe shape instead of failing the conversion.
package convert

import (
	"github.com/voxkit/flowsync/pkg/canvas"
	"github.com/voxkit/flowsync/pkg/flow"
)

// Auto-layout grid used for nodes without a stored position.
const (
	gridOriginX = 120.0
	gridOriginY = 120.0
	gridStepX   = 320.0
	gridStepY   = 220.0
	gridCols    = 4
)

func autoPosition(i int) flow.Position {
	return flow.Position{
		X: gridOriginX + float64(i%gridCols)*gridStepX,
		Y: gridOriginY + float64(i/gridCols)*gridStepY,
	}
}

// ToVisual flattens a document into a canvas graph: one visual node per
// document node and one visual edge per owned edge with a resolved
// destination. Nodes without stored coordinates fall onto an auto-layout
// grid. The entry marker is not added here; callers inject it after any
// layout restoration. The returned graph shares node payloads with doc —
// clone the document first if isolation is needed.
func ToVisual(doc *flow.Document) *canvas.Graph {
	g := &canvas.Graph{}

	for i, n := range doc.Nodes {
		pos := autoPosition(i)
		if n.Position != nil {
			pos = *n.Position
		}
		data := n.Data
		if data == nil {
			data = &flow.EndData{}
		}
		g.Nodes = append(g.Nodes, &canvas.Node{
			ID:            n.ID,
			Type:          string(n.Type),
			Name:          n.Name,
			Position:      pos,
			GlobalSetting: n.GlobalSetting,
			Data:          data,
		})

		for _, oe := range data.Outgoing() {
			if oe.Edge.Destination == "" {
				continue
			}
			g.Edges = append(g.Edges, &canvas.Edge{
				ID:     oe.Edge.ID,
				Source: n.ID,
				Target: oe.Edge.Destination,
				Label:  canvas.EdgeLabel(oe),
			})
		}
	}

	return g
}

// Meta carries the document-level fields that live outside the graph while
// the canvas is being edited.
type Meta struct {
	StartNodeID       string
	StartSpeaker      flow.StartSpeaker
	GlobalInstruction string
	ModelChoice       string
	Tools             []flow.Tool
	KnowledgeBaseIDs  []string
	DefaultVariables  []flow.Variable
	Version           int64
}

// MetaOf extracts the non-graph fields of a document.
func MetaOf(d *flow.Document) Meta {
	return Meta{
		StartNodeID:       d.StartNodeID,
		StartSpeaker:      d.StartSpeaker,
		GlobalInstruction: d.GlobalInstruction,
		ModelChoice:       d.ModelChoice,
		Tools:             d.Tools,
		KnowledgeBaseIDs:  d.KnowledgeBaseIDs,
		DefaultVariables:  d.DefaultVariables,
		Version:           d.Version,
	}
}
