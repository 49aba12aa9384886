// Package flow defines the persisted conversation-flow document model: a
// multi-state graph where each node owns its outgoing transitions, plus the
// flat tool registry and the global settings that ride along with it.
package flow

import "encoding/json"

// StartSpeaker identifies who opens the conversation.
type StartSpeaker string

const (
	SpeakerAgent StartSpeaker = "agent"
	SpeakerUser  StartSpeaker = "user"
)

// Position is a canvas coordinate. Legacy single-prompt documents do not
// persist positions; a nil *Position means "no stored coordinate".
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ConditionKind tags how a transition condition is interpreted.
// Only prompt conditions exist today; the tag keeps the wire format open.
type ConditionKind string

const ConditionPrompt ConditionKind = "prompt"

// Condition is the trigger attached to a transition. The prompt text is
// interpreted by the agent runtime, never evaluated locally.
type Condition struct {
	Kind   ConditionKind `json:"kind"`
	Prompt string        `json:"prompt"`
}

// PromptCondition builds a prompt-kind condition from free text.
func PromptCondition(text string) Condition {
	return Condition{Kind: ConditionPrompt, Prompt: text}
}

// Edge is a transition owned by its source node. An empty Destination means
// the transition is not yet wired to a target state; that is a valid,
// persistable configuration.
type Edge struct {
	ID          string    `json:"id"`
	Destination string    `json:"destination_node_id,omitempty"`
	Condition   Condition `json:"condition"`
}

// Variable is a key/value pair seeded into every conversation.
type Variable struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Document is the persisted unit: the full multi-state conversation graph
// plus its registry of callable tools and global settings. Version is
// assigned by the server and bumps monotonically on every write.
type Document struct {
	Nodes             []*Node    `json:"nodes"`
	StartNodeID       string     `json:"start_node_id"`
	StartSpeaker      StartSpeaker `json:"start_speaker"`
	GlobalInstruction string     `json:"global_instruction,omitempty"`
	ModelChoice       string     `json:"model_choice,omitempty"`
	Tools             []Tool     `json:"tools,omitempty"`
	KnowledgeBaseIDs  []string   `json:"knowledge_base_ids,omitempty"`
	DefaultVariables  []Variable `json:"default_variables,omitempty"`
	Version           int64      `json:"version,omitempty"`
}

// NodeByID returns the node with the given id, or nil.
func (d *Document) NodeByID(id string) *Node {
	for _, n := range d.Nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// NodeByName returns the first node with the given name, or nil.
func (d *Document) NodeByName(name string) *Node {
	for _, n := range d.Nodes {
		if n.Name == name {
			return n
		}
	}
	return nil
}

// Clone deep-copies the document via its JSON form. Used by the editor to
// detach in-flight save payloads from the live graph.
func (d *Document) Clone() (*Document, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	var out Document
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
