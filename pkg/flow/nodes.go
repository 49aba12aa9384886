package flow

import (
	"encoding/json"
	"fmt"
)

// NodeType identifies the kind of dialogue state a node represents.
type NodeType string

const (
	NodeConversation NodeType = "conversation"
	NodeEnd          NodeType = "end"
	NodeTransfer     NodeType = "transfer"
	NodeFunction     NodeType = "function"
	NodeMessage      NodeType = "message"
	NodeDigits       NodeType = "digits"
	NodeBranch       NodeType = "branch"
	NodeHandoff      NodeType = "handoff"
)

// Structural edge labels. These edges carry a fixed role instead of a
// user-written condition, and the labels double as the display text on the
// canvas. A canvas edge wearing one of these labels is never merged into a
// node's generic transition list.
const (
	LabelTransferFailed = "Transfer failed"
	LabelHandoffFailed  = "Handoff failed"
	LabelMessageSent    = "SMS sent"
	LabelMessageFailed  = "SMS failed"
	LabelElse           = "Else"
)

// StructuralLabel reports whether s is one of the reserved edge labels.
func StructuralLabel(s string) bool {
	switch s {
	case LabelTransferFailed, LabelHandoffFailed, LabelMessageSent, LabelMessageFailed, LabelElse:
		return true
	}
	return false
}

// OwnedEdge pairs a node-owned edge with the fixed label of its structural
// slot. Label is empty for condition-bearing edges; their display text is the
// condition prompt. The Edge pointer aliases the node's live data.
type OwnedEdge struct {
	Edge  *Edge
	Label string
}

// NodeData is the variant payload of a node. Each variant owns its outgoing
// transitions in its own shape; Outgoing flattens that shape into an ordered
// list so the schema adapter stays total over every variant.
type NodeData interface {
	Outgoing() []OwnedEdge
	nodeType() NodeType
}

// GlobalNodeSetting marks a node reachable from any state when its
// condition holds, overriding the document-level default.
type GlobalNodeSetting struct {
	Enabled   bool   `json:"enabled"`
	Condition string `json:"condition,omitempty"`
}

// Node is one dialogue state in the flow graph. Position is nil when the
// backing format does not persist coordinates.
type Node struct {
	ID            string
	Type          NodeType
	Name          string
	Position      *Position
	GlobalSetting *GlobalNodeSetting
	Data          NodeData
}

// Outgoing returns the node's owned transitions, tolerating nil Data.
func (n *Node) Outgoing() []OwnedEdge {
	if n.Data == nil {
		return nil
	}
	return n.Data.Outgoing()
}

// ─── variants ─────────────────────────────────────────────────────────────────

// ConversationData is a dialogue state: the agent speaks/listens per its
// instruction, then leaves via the first matching transition.
type ConversationData struct {
	Instruction string `json:"instruction"`
	Edges       []Edge `json:"edges"`
}

func (d *ConversationData) Outgoing() []OwnedEdge { return conditionEdges(d.Edges) }
func (d *ConversationData) nodeType() NodeType    { return NodeConversation }

// EndData terminates the conversation. No outgoing transitions.
type EndData struct{}

func (d *EndData) Outgoing() []OwnedEdge { return nil }
func (d *EndData) nodeType() NodeType    { return NodeEnd }

// TransferData hands the call to a phone number. Its single owned edge is
// the fallback taken when the transfer fails.
type TransferData struct {
	Number      string `json:"number,omitempty"`
	ToolID      string `json:"tool_id,omitempty"`
	ToolType    string `json:"tool_type,omitempty"`
	FailureEdge *Edge  `json:"failure_edge,omitempty"`
}

func (d *TransferData) Outgoing() []OwnedEdge {
	return singleEdge(d.FailureEdge, LabelTransferFailed)
}
func (d *TransferData) nodeType() NodeType { return NodeTransfer }

// HandoffData swaps the conversation to another agent. Like transfer, it
// owns exactly one optional fallback edge.
type HandoffData struct {
	AgentID     string `json:"agent_id,omitempty"`
	ToolID      string `json:"tool_id,omitempty"`
	ToolType    string `json:"tool_type,omitempty"`
	FailureEdge *Edge  `json:"failure_edge,omitempty"`
}

func (d *HandoffData) Outgoing() []OwnedEdge {
	return singleEdge(d.FailureEdge, LabelHandoffFailed)
}
func (d *HandoffData) nodeType() NodeType { return NodeHandoff }

// FunctionData invokes a registered tool, then routes on the outcome via an
// ordered condition list.
type FunctionData struct {
	ToolID      string `json:"tool_id,omitempty"`
	ToolType    string `json:"tool_type,omitempty"`
	SpeakDuring bool   `json:"speak_during_execution,omitempty"`
	Edges       []Edge `json:"edges"`
}

func (d *FunctionData) Outgoing() []OwnedEdge { return conditionEdges(d.Edges) }
func (d *FunctionData) nodeType() NodeType    { return NodeFunction }

// MessageData sends an SMS-like message and owns two named edges: one for
// delivery success, one for failure.
type MessageData struct {
	Text        string `json:"text"`
	ToolID      string `json:"tool_id,omitempty"`
	ToolType    string `json:"tool_type,omitempty"`
	SuccessEdge *Edge  `json:"success_edge,omitempty"`
	FailureEdge *Edge  `json:"failure_edge,omitempty"`
}

func (d *MessageData) Outgoing() []OwnedEdge {
	out := singleEdge(d.SuccessEdge, LabelMessageSent)
	return append(out, singleEdge(d.FailureEdge, LabelMessageFailed)...)
}
func (d *MessageData) nodeType() NodeType { return NodeMessage }

// DigitsData captures DTMF input, then routes via an ordered condition list.
type DigitsData struct {
	MaxDigits      int    `json:"max_digits,omitempty"`
	TerminationKey string `json:"termination_key,omitempty"`
	Edges          []Edge `json:"edges"`
}

func (d *DigitsData) Outgoing() []OwnedEdge { return conditionEdges(d.Edges) }
func (d *DigitsData) nodeType() NodeType    { return NodeDigits }

// BranchData routes without speaking: an ordered case list plus one
// structurally named else edge.
type BranchData struct {
	Cases []Edge `json:"cases"`
	Else  *Edge  `json:"else_edge,omitempty"`
}

func (d *BranchData) Outgoing() []OwnedEdge {
	out := conditionEdges(d.Cases)
	return append(out, singleEdge(d.Else, LabelElse)...)
}
func (d *BranchData) nodeType() NodeType { return NodeBranch }

// conditionEdges flattens an edge slice into OwnedEdges aliasing the slice.
func conditionEdges(edges []Edge) []OwnedEdge {
	out := make([]OwnedEdge, 0, len(edges))
	for i := range edges {
		out = append(out, OwnedEdge{Edge: &edges[i]})
	}
	return out
}

func singleEdge(e *Edge, label string) []OwnedEdge {
	if e == nil {
		return nil
	}
	return []OwnedEdge{{Edge: e, Label: label}}
}

// ─── JSON encoding ────────────────────────────────────────────────────────────

// nodeWire is the on-the-wire shape of a node; the variant payload travels
// under "data" and is decoded per the "type" discriminator.
type nodeWire struct {
	ID            string             `json:"id"`
	Type          NodeType           `json:"type"`
	Name          string             `json:"name,omitempty"`
	Position      *Position          `json:"position,omitempty"`
	GlobalSetting *GlobalNodeSetting `json:"global,omitempty"`
	Data          json.RawMessage    `json:"data,omitempty"`
}

// TypeOf returns the node type a payload belongs to, or NodeEnd for nil —
// matching the terminal fallback used everywhere else.
func TypeOf(data NodeData) NodeType {
	if data == nil {
		return NodeEnd
	}
	return data.nodeType()
}

// NewNodeData returns the zero payload for a node type, or nil for an
// unrecognized type.
func NewNodeData(t NodeType) NodeData {
	switch t {
	case NodeConversation:
		return &ConversationData{}
	case NodeEnd:
		return &EndData{}
	case NodeTransfer:
		return &TransferData{}
	case NodeHandoff:
		return &HandoffData{}
	case NodeFunction:
		return &FunctionData{}
	case NodeMessage:
		return &MessageData{}
	case NodeDigits:
		return &DigitsData{}
	case NodeBranch:
		return &BranchData{}
	}
	return nil
}

func (n *Node) MarshalJSON() ([]byte, error) {
	w := nodeWire{
		ID:            n.ID,
		Type:          n.Type,
		Name:          n.Name,
		Position:      n.Position,
		GlobalSetting: n.GlobalSetting,
	}
	if n.Data != nil {
		raw, err := json.Marshal(n.Data)
		if err != nil {
			return nil, fmt.Errorf("node %q: marshal data: %w", n.ID, err)
		}
		w.Data = raw
	}
	return json.Marshal(w)
}

func (n *Node) UnmarshalJSON(raw []byte) error {
	var w nodeWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return err
	}
	n.ID = w.ID
	n.Type = w.Type
	n.Name = w.Name
	n.Position = w.Position
	n.GlobalSetting = w.GlobalSetting

	data := NewNodeData(w.Type)
	if data == nil {
		// Unknown variant: keep the type tag but degrade the payload to the
		// edge-less end shape so downstream conversion stays total.
		n.Data = &EndData{}
		return nil
	}
	if len(w.Data) > 0 {
		if err := json.Unmarshal(w.Data, data); err != nil {
			return fmt.Errorf("node %q: decode %s data: %w", w.ID, w.Type, err)
		}
	}
	n.Data = data
	return nil
}
