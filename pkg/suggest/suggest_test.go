package suggest_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/voxkit/flowsync/pkg/flow"
	"github.com/voxkit/flowsync/pkg/llm"
	"github.com/voxkit/flowsync/pkg/suggest"
)

// stubLLM answers every completion with a canned string and records the
// prompts it saw.
type stubLLM struct {
	reply   string
	err     error
	prompts []string
}

func (s *stubLLM) Complete(_ context.Context, req llm.Request) (llm.Response, error) {
	s.prompts = append(s.prompts, req.Prompt)
	if s.err != nil {
		return llm.Response{}, s.err
	}
	return llm.Response{Text: s.reply}, nil
}

func unlabeledDoc() *flow.Document {
	return &flow.Document{
		GlobalInstruction: "You answer for a dental clinic.",
		Nodes: []*flow.Node{
			{ID: "n1", Type: flow.NodeConversation, Name: "Greeting", Data: &flow.ConversationData{
				Instruction: "Greet the caller.",
				Edges: []flow.Edge{
					{ID: "e1", Destination: "n2"}, // unlabeled, wired
					{ID: "e2", Destination: "n3", Condition: flow.PromptCondition("wants to cancel")},
					{ID: "e3"}, // unwired
				},
			}},
			{ID: "n2", Type: flow.NodeConversation, Name: "Booking", Data: &flow.ConversationData{Instruction: "Book a slot."}},
			{ID: "n3", Type: flow.NodeEnd, Name: "Done", Data: &flow.EndData{}},
		},
		StartNodeID: "n1",
	}
}

func TestConditions_OnlyUnlabeledWiredTransitions(t *testing.T) {
	stub := &stubLLM{reply: "Caller wants to book an appointment\n"}
	got, err := suggest.Conditions(context.Background(), stub, unlabeledDoc())
	if err != nil {
		t.Fatalf("Conditions: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("suggestions = %d, want only the unlabeled wired edge", len(got))
	}
	s := got[0]
	if s.EdgeID != "e1" || s.NodeID != "n1" {
		t.Errorf("suggestion = %+v", s)
	}
	if s.Prompt != "Caller wants to book an appointment" {
		t.Errorf("prompt = %q, want trimmed to one line", s.Prompt)
	}

	if len(stub.prompts) != 1 {
		t.Fatalf("calls = %d", len(stub.prompts))
	}
	p := stub.prompts[0]
	for _, want := range []string{"dental clinic", "Greeting", "Booking"} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q:\n%s", want, p)
		}
	}
}

func TestConditions_StructuralSlotsSkipped(t *testing.T) {
	doc := &flow.Document{Nodes: []*flow.Node{
		{ID: "t", Type: flow.NodeTransfer, Data: &flow.TransferData{
			FailureEdge: &flow.Edge{ID: "fb", Destination: "end"},
		}},
		{ID: "end", Type: flow.NodeEnd, Data: &flow.EndData{}},
	}}
	stub := &stubLLM{reply: "x"}
	got, err := suggest.Conditions(context.Background(), stub, doc)
	if err != nil {
		t.Fatalf("Conditions: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("suggestions = %d, structural slots never need labels", len(got))
	}
}

func TestConditions_ProviderErrorStops(t *testing.T) {
	stub := &stubLLM{err: errors.New("rate limited")}
	_, err := suggest.Conditions(context.Background(), stub, unlabeledDoc())
	if err == nil {
		t.Fatal("expected provider error to surface")
	}
}

func TestApply_WritesPromptsOntoEdges(t *testing.T) {
	doc := unlabeledDoc()
	suggest.Apply(doc, []suggest.Suggestion{
		{NodeID: "n1", EdgeID: "e1", Prompt: "Caller wants to book"},
		{NodeID: "n1", EdgeID: "missing", Prompt: "ignored"},
	})

	conv := doc.Nodes[0].Data.(*flow.ConversationData)
	if conv.Edges[0].Condition.Prompt != "Caller wants to book" {
		t.Errorf("condition = %q", conv.Edges[0].Condition.Prompt)
	}
	if conv.Edges[1].Condition.Prompt != "wants to cancel" {
		t.Error("existing condition must be untouched")
	}
}
