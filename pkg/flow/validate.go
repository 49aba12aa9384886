package flow

import (
	"fmt"
	"strings"
)

// LintError describes a structural problem in a flow document.
// Warnings flag suspicious but persistable states (the platform tolerates
// them); hard errors would be rejected by the agent runtime.
type LintError struct {
	NodeID  string
	Message string
	Warning bool
}

func (e LintError) Error() string {
	if e.NodeID != "" {
		return fmt.Sprintf("node %q: %s", e.NodeID, e.Message)
	}
	return e.Message
}

// Validate checks a document for structural correctness and returns all
// discovered problems, not just the first.
func Validate(d *Document) []LintError {
	var errs []LintError

	ids := make(map[string]bool, len(d.Nodes))
	for _, n := range d.Nodes {
		if n.ID == "" {
			errs = append(errs, LintError{Message: fmt.Sprintf("node %q has no id", n.Name)})
			continue
		}
		if ids[n.ID] {
			errs = append(errs, LintError{NodeID: n.ID, Message: "duplicate node id"})
		}
		ids[n.ID] = true
	}

	switch {
	case d.StartNodeID == "":
		errs = append(errs, LintError{Message: "document has no start node"})
	case !ids[d.StartNodeID]:
		errs = append(errs, LintError{Message: fmt.Sprintf("start node %q does not exist", d.StartNodeID)})
	}

	if d.StartSpeaker != "" && d.StartSpeaker != SpeakerAgent && d.StartSpeaker != SpeakerUser {
		errs = append(errs, LintError{Message: fmt.Sprintf("unknown start speaker %q", d.StartSpeaker)})
	}

	// Owned-edge destinations must resolve or be unset. Unset ("not yet
	// wired") is legal; it only warns because the runtime will stall there.
	for _, n := range d.Nodes {
		for _, oe := range n.Outgoing() {
			switch {
			case oe.Edge.Destination == "":
				errs = append(errs, LintError{NodeID: n.ID, Message: "transition has no destination", Warning: true})
			case !ids[oe.Edge.Destination]:
				errs = append(errs, LintError{
					NodeID:  n.ID,
					Message: fmt.Sprintf("transition %q targets unknown node %q", oe.Edge.ID, oe.Edge.Destination),
				})
			}
		}
	}

	// Tool references are not cascaded on delete, so a node may point at a
	// tool that no longer exists. The runtime's treatment of that state is
	// unspecified; report it as a warning only.
	for _, n := range d.Nodes {
		id, typ := toolRef(n.Data)
		if id == "" {
			continue
		}
		if d.ToolByRef(id, typ) == nil {
			errs = append(errs, LintError{
				NodeID:  n.ID,
				Message: fmt.Sprintf("references missing tool %s/%s", typ, id),
				Warning: true,
			})
		}
	}

	return errs
}

// toolRef extracts the (tool_id, tool_type) reference from the variants that
// carry one.
func toolRef(data NodeData) (string, ToolType) {
	switch d := data.(type) {
	case *TransferData:
		return d.ToolID, ToolType(d.ToolType)
	case *HandoffData:
		return d.ToolID, ToolType(d.ToolType)
	case *FunctionData:
		return d.ToolID, ToolType(d.ToolType)
	case *MessageData:
		return d.ToolID, ToolType(d.ToolType)
	}
	return "", ""
}

// ValidateErr returns nil if the document has no hard errors, or one error
// listing every hard error found. Warnings never fail validation.
func ValidateErr(d *Document) error {
	var msgs []string
	for _, e := range Validate(d) {
		if e.Warning {
			continue
		}
		msgs = append(msgs, e.Error())
	}
	if len(msgs) == 0 {
		return nil
	}
	return fmt.Errorf("flow validation failed:\n  %s", strings.Join(msgs, "\n  "))
}
