package flow

// NewTemplate returns the starter document used when an agent has no
// persisted flow yet: a greeting state wired to a hang-up state.
func NewTemplate() *Document {
	greet := &Node{
		ID:       "node-greeting",
		Type:     NodeConversation,
		Name:     "Greeting",
		Position: &Position{X: 120, Y: 120},
		Data: &ConversationData{
			Instruction: "Greet the caller and ask how you can help.",
			Edges: []Edge{{
				ID:          "edge-greeting-done",
				Destination: "node-goodbye",
				Condition:   PromptCondition("The caller has no further questions"),
			}},
		},
	}
	bye := &Node{
		ID:       "node-goodbye",
		Type:     NodeEnd,
		Name:     "Goodbye",
		Position: &Position{X: 440, Y: 120},
		Data:     &EndData{},
	}
	return &Document{
		Nodes:        []*Node{greet, bye},
		StartNodeID:  greet.ID,
		StartSpeaker: SpeakerAgent,
	}
}
