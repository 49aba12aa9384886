package editor

import "github.com/google/uuid"

// newID mints an opaque identifier for nodes created on the canvas. The
// server may replace these on save; the layout cache handles the churn.
func newID() string {
	return uuid.NewString()
}
