// Package dot renders flow documents as Graphviz digraphs for review and
// documentation. Rendering only; flows are never parsed back from DOT.
package dot

import (
	"fmt"
	"strconv"

	gographviz "github.com/awalterschulze/gographviz"

	"github.com/voxkit/flowsync/pkg/canvas"
	"github.com/voxkit/flowsync/pkg/flow"
)

// nodeShape maps each variant to a distinct Graphviz shape.
var nodeShape = map[flow.NodeType]string{
	flow.NodeConversation: "box",
	flow.NodeEnd:          "doubleoctagon",
	flow.NodeTransfer:     "cds",
	flow.NodeFunction:     "component",
	flow.NodeMessage:      "note",
	flow.NodeDigits:       "parallelogram",
	flow.NodeBranch:       "diamond",
	flow.NodeHandoff:      "cds",
}

// Export renders doc as a DOT digraph. Edge labels carry condition prompts
// or structural names; unwired transitions are omitted.
func Export(doc *flow.Document, name string) (string, error) {
	if name == "" {
		name = "flow"
	}
	g := gographviz.NewGraph()
	if err := g.SetName(strconv.Quote(name)); err != nil {
		return "", fmt.Errorf("dot export: %w", err)
	}
	if err := g.SetDir(true); err != nil {
		return "", fmt.Errorf("dot export: %w", err)
	}

	for _, n := range doc.Nodes {
		label := n.Name
		if label == "" {
			label = n.ID
		}
		shape := nodeShape[n.Type]
		if shape == "" {
			shape = "box"
		}
		attrs := map[string]string{
			"label": strconv.Quote(label),
			"shape": shape,
		}
		if n.ID == doc.StartNodeID {
			attrs["penwidth"] = "2"
		}
		if err := g.AddNode(strconv.Quote(name), strconv.Quote(n.ID), attrs); err != nil {
			return "", fmt.Errorf("dot export: node %q: %w", n.ID, err)
		}
	}

	for _, n := range doc.Nodes {
		for _, oe := range n.Outgoing() {
			attrs := map[string]string{}
			if lbl := canvas.EdgeLabel(oe); lbl != "" {
				attrs["label"] = strconv.Quote(lbl)
			}
			dst := oe.Edge.Destination
			if dst == "" {
				continue
			}
			if err := g.AddEdge(strconv.Quote(n.ID), strconv.Quote(dst), true, attrs); err != nil {
				return "", fmt.Errorf("dot export: edge %q: %w", oe.Edge.ID, err)
			}
		}
	}

	return g.String(), nil
}
