// Package canvas holds the edit-time visual graph: a flat node list plus a
// flat edge list, the shape a drag-and-drop editor works in. It is never
// persisted as-is; the convert package maps it to and from the document
// model, and this package keeps the two truth sources for edges consistent.
package canvas

import "github.com/voxkit/flowsync/pkg/flow"

// Node is one visual node. Data is the same variant payload the document
// node carries; the entry marker is the only node with nil Data.
type Node struct {
	ID            string                  `json:"id"`
	Type          string                  `json:"type"`
	Name          string                  `json:"name,omitempty"`
	Position      flow.Position           `json:"position"`
	GlobalSetting *flow.GlobalNodeSetting `json:"global,omitempty"`
	Data          flow.NodeData           `json:"-"`
}

// Edge is one visual connection. ID doubles as the join key against the
// node-owned edge with the same id.
type Edge struct {
	ID       string `json:"id"`
	Source   string `json:"source"`
	Target   string `json:"target"`
	Label    string `json:"label,omitempty"`
	Animated bool   `json:"animated,omitempty"`
}

// Graph is the full visual state of one editor.
type Graph struct {
	Nodes []*Node `json:"nodes"`
	Edges []*Edge `json:"edges"`
}

// NodeByID returns the visual node with the given id, or nil.
func (g *Graph) NodeByID(id string) *Node {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// EdgeByID returns the visual edge with the given id, or nil.
func (g *Graph) EdgeByID(id string) *Edge {
	for _, e := range g.Edges {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// OutgoingEdges returns all visual edges leaving nodeID, in list order.
func (g *Graph) OutgoingEdges(nodeID string) []*Edge {
	var out []*Edge
	for _, e := range g.Edges {
		if e.Source == nodeID {
			out = append(out, e)
		}
	}
	return out
}

// IncomingEdges returns all visual edges arriving at nodeID.
func (g *Graph) IncomingEdges(nodeID string) []*Edge {
	var out []*Edge
	for _, e := range g.Edges {
		if e.Target == nodeID {
			out = append(out, e)
		}
	}
	return out
}

// removeEdges drops every edge matching keep==false from the edge list.
func (g *Graph) removeEdges(drop func(*Edge) bool) {
	kept := g.Edges[:0]
	for _, e := range g.Edges {
		if !drop(e) {
			kept = append(kept, e)
		}
	}
	g.Edges = kept
}
