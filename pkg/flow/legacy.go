package flow

import (
	"encoding/json"
	"fmt"
)

// Engine type tags carried in the persistence envelope.
const (
	EngineFlow   = "flow"
	EngineLegacy = "single-prompt"
)

// LegacyStartName is the display name given to the node a legacy prompt is
// lifted into. Lifted node ids are server-assigned and churn across saves,
// so the layout cache falls back to this name.
const LegacyStartName = "Start"

// LegacyEngine is the single-prompt agent format that predates graph flows.
// The editor never shows it directly; it is lifted into a one-node Document
// on load and refreshed from the graph on save.
type LegacyEngine struct {
	Prompt           string     `json:"prompt"`
	BeginMessage     string     `json:"begin_message,omitempty"`
	ModelChoice      string     `json:"model_choice,omitempty"`
	Tools            []Tool     `json:"general_tools,omitempty"`
	KnowledgeBaseIDs []string   `json:"knowledge_base_ids,omitempty"`
	DefaultVariables []Variable `json:"default_variables,omitempty"`
}

// ParseLegacy decodes raw legacy engine data.
func ParseLegacy(raw json.RawMessage) (*LegacyEngine, error) {
	var e LegacyEngine
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("decode legacy engine data: %w", err)
	}
	return &e, nil
}

// LiftLegacy converts a single-prompt engine into a graph document with one
// conversation node. The node carries no position: the legacy format does
// not persist coordinates, which is why the layout cache exists.
func LiftLegacy(e *LegacyEngine) *Document {
	speaker := SpeakerUser
	if e.BeginMessage != "" {
		speaker = SpeakerAgent
	}
	start := &Node{
		ID:   "legacy-start",
		Type: NodeConversation,
		Name: LegacyStartName,
		Data: &ConversationData{Instruction: e.Prompt},
	}
	return &Document{
		Nodes:            []*Node{start},
		StartNodeID:      start.ID,
		StartSpeaker:     speaker,
		ModelChoice:      e.ModelChoice,
		Tools:            e.Tools,
		KnowledgeBaseIDs: e.KnowledgeBaseIDs,
		DefaultVariables: e.DefaultVariables,
	}
}

// LowerLegacy refreshes a legacy engine payload from a document that still
// has the lifted single-node shape: one conversation node and no wired
// transitions. It returns false when the graph has grown beyond that shape,
// in which case the stored legacy payload is passed through untouched.
func LowerLegacy(d *Document, prior *LegacyEngine) (*LegacyEngine, bool) {
	if len(d.Nodes) != 1 {
		return nil, false
	}
	conv, ok := d.Nodes[0].Data.(*ConversationData)
	if !ok {
		return nil, false
	}
	for _, e := range conv.Edges {
		if e.Destination != "" {
			return nil, false
		}
	}

	out := LegacyEngine{
		Prompt:           conv.Instruction,
		ModelChoice:      d.ModelChoice,
		Tools:            d.Tools,
		KnowledgeBaseIDs: d.KnowledgeBaseIDs,
		DefaultVariables: d.DefaultVariables,
	}
	if prior != nil {
		out.BeginMessage = prior.BeginMessage
	}
	return &out, true
}
