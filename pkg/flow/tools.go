package flow

import "encoding/json"

// ToolType discriminates the tool union.
type ToolType string

const (
	ToolWebhook       ToolType = "custom"
	ToolCalendarCheck ToolType = "check_availability"
	ToolCalendarBook  ToolType = "book_appointment"
	ToolEndCall       ToolType = "end_call"
	ToolTransferCall  ToolType = "transfer_call"
	ToolAgentHandoff  ToolType = "agent_handoff"
	ToolPressDigit    ToolType = "press_digit"
	ToolSendMessage   ToolType = "send_message"
	ToolExtractVar    ToolType = "extract_variable"
)

// WebhookConfig configures a custom webhook tool.
type WebhookConfig struct {
	URL        string            `json:"url"`
	Method     string            `json:"method,omitempty"`
	Headers    map[string]string `json:"headers,omitempty"`
	Parameters json.RawMessage   `json:"parameters,omitempty"` // JSON Schema
	TimeoutMS  int               `json:"timeout_ms,omitempty"`
}

// CalendarConfig configures the calendar check/book tools.
type CalendarConfig struct {
	CalendarID string `json:"calendar_id"`
	APIKey     string `json:"api_key,omitempty"`
	Timezone   string `json:"timezone,omitempty"`
}

// TransferConfig configures the transfer-call tool.
type TransferConfig struct {
	Number string `json:"number"`
}

// HandoffConfig configures the agent-handoff tool.
type HandoffConfig struct {
	AgentID string `json:"agent_id"`
}

// DigitConfig configures the press-digit tool.
type DigitConfig struct {
	Digit   string `json:"digit"`
	DelayMS int    `json:"delay_ms,omitempty"`
}

// ExtractVarConfig configures the extract-variable tool.
type ExtractVarConfig struct {
	Variables []Variable `json:"variables"`
}

// Tool is one entry in the document's flat tool registry. Exactly one of
// the config pointers matching Type is set; the rest stay nil. Nodes refer
// to tools by the (ID, Type) pair, never by list position.
type Tool struct {
	ID          string   `json:"tool_id,omitempty"`
	Type        ToolType `json:"type"`
	Name        string   `json:"name,omitempty"`
	Description string   `json:"description,omitempty"`

	Webhook  *WebhookConfig    `json:"webhook,omitempty"`
	Calendar *CalendarConfig   `json:"calendar,omitempty"`
	Transfer *TransferConfig   `json:"transfer,omitempty"`
	Handoff  *HandoffConfig    `json:"handoff,omitempty"`
	Digit    *DigitConfig      `json:"digit,omitempty"`
	Extract  *ExtractVarConfig `json:"extract,omitempty"`
}

// The tool list is order-significant and edited by index because the dialog
// that edits a tool captures its index when it opens and commits against it.
// The list may have changed length in between, so a stale index degrades to
// append rather than failing the commit.

// AddTool appends t to the registry.
func (d *Document) AddTool(t Tool) {
	d.Tools = append(d.Tools, t)
}

// ReplaceTool replaces the tool at index i with t. An out-of-range index
// (including the -1 used for "new tool") appends instead.
func (d *Document) ReplaceTool(i int, t Tool) {
	if i < 0 || i >= len(d.Tools) {
		d.Tools = append(d.Tools, t)
		return
	}
	d.Tools[i] = t
}

// RemoveTool deletes the tool at index i. Node data referring to the removed
// tool keeps its (tool_id, tool_type) pair; references are not cascaded.
// An out-of-range index is a no-op.
func (d *Document) RemoveTool(i int) {
	if i < 0 || i >= len(d.Tools) {
		return
	}
	d.Tools = append(d.Tools[:i], d.Tools[i+1:]...)
}

// ToolByRef finds a tool by its (id, type) reference pair, or nil.
func (d *Document) ToolByRef(id string, typ ToolType) *Tool {
	for i := range d.Tools {
		if d.Tools[i].ID == id && d.Tools[i].Type == typ {
			return &d.Tools[i]
		}
	}
	return nil
}
