// Package suggest drafts condition prompts for transitions that were
// drawn on the canvas but never labeled. Suggestions are advisory; the
// caller decides whether to apply them.
package suggest

import (
	"context"
	"fmt"
	"strings"

	"github.com/voxkit/flowsync/pkg/flow"
	"github.com/voxkit/flowsync/pkg/llm"
)

const systemPrompt = `You label transitions in a phone agent conversation flow.
Given the source step and the destination step, reply with a single short
condition describing when the agent should take this transition, phrased
from the caller's perspective (e.g. "Caller wants to book an appointment").
Reply with the condition text only, no quotes, no explanation.`

// Suggestion is a drafted condition prompt for one transition.
type Suggestion struct {
	NodeID string
	EdgeID string
	Prompt string
}

// Conditions drafts a condition prompt for every wired prompt-condition
// transition whose prompt is empty. It stops at the first provider error.
func Conditions(ctx context.Context, c llm.Client, doc *flow.Document) ([]Suggestion, error) {
	if doc == nil {
		return nil, nil
	}
	var out []Suggestion
	for _, n := range doc.Nodes {
		for _, oe := range n.Outgoing() {
			if !needsPrompt(oe) {
				continue
			}
			target := doc.NodeByID(oe.Edge.Destination)
			if target == nil {
				continue
			}
			resp, err := c.Complete(ctx, llm.Request{
				System:    systemPrompt,
				Prompt:    describeTransition(doc, n, target),
				MaxTokens: 128,
			})
			if err != nil {
				return out, fmt.Errorf("suggest: transition %q: %w", oe.Edge.ID, err)
			}
			prompt := firstLine(resp.Text)
			if prompt == "" {
				continue
			}
			out = append(out, Suggestion{NodeID: n.ID, EdgeID: oe.Edge.ID, Prompt: prompt})
		}
	}
	return out, nil
}

// Apply writes suggestions back onto the document's matching edges.
// Unknown edge ids are skipped.
func Apply(doc *flow.Document, suggestions []Suggestion) {
	byEdge := make(map[string]string, len(suggestions))
	for _, s := range suggestions {
		byEdge[s.EdgeID] = s.Prompt
	}
	for _, n := range doc.Nodes {
		for _, oe := range n.Outgoing() {
			if p, ok := byEdge[oe.Edge.ID]; ok {
				oe.Edge.Condition = flow.PromptCondition(p)
			}
		}
	}
}

// needsPrompt reports whether a transition is wired, prompt-conditioned,
// and unlabeled. Structural transitions keep their fixed labels.
func needsPrompt(oe flow.OwnedEdge) bool {
	if oe.Edge.Destination == "" || flow.StructuralLabel(oe.Label) {
		return false
	}
	cond := oe.Edge.Condition
	if cond.Kind != "" && cond.Kind != flow.ConditionPrompt {
		return false
	}
	return cond.Prompt == ""
}

func describeTransition(doc *flow.Document, src, dst *flow.Node) string {
	var b strings.Builder
	if doc.GlobalInstruction != "" {
		fmt.Fprintf(&b, "Agent role: %s\n\n", doc.GlobalInstruction)
	}
	fmt.Fprintf(&b, "Source step %q", src.Name)
	if conv, ok := src.Data.(*flow.ConversationData); ok && conv.Instruction != "" {
		fmt.Fprintf(&b, ": %s", conv.Instruction)
	}
	fmt.Fprintf(&b, "\nDestination step %q", dst.Name)
	if conv, ok := dst.Data.(*flow.ConversationData); ok && conv.Instruction != "" {
		fmt.Fprintf(&b, ": %s", conv.Instruction)
	}
	return b.String()
}

// firstLine trims the response down to one clean line.
func firstLine(s string) string {
	for line := range strings.Lines(s) {
		line = strings.Trim(strings.TrimSpace(line), `"`)
		if line != "" {
			return line
		}
	}
	return ""
}
