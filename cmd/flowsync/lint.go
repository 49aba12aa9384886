package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/voxkit/flowsync/pkg/flow"
)

// ─── lint ─────────────────────────────────────────────────────────────────────

func lintCmd() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "lint <flow.json>",
		Short: "Validate a flow document without serving it",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			doc, err := readDocument(args[0])
			if err != nil {
				return err
			}

			issues := flow.Validate(doc)
			var errCount int
			for _, issue := range issues {
				severity := "error"
				if issue.Warning {
					severity = "warning"
				} else {
					errCount++
				}
				fmt.Printf("%s: node %q: %s\n", severity, issue.NodeID, issue.Message)
			}
			if errCount > 0 || (strict && len(issues) > 0) {
				return fmt.Errorf("%d issue(s) found", len(issues))
			}
			fmt.Printf("OK: flow is valid (%d nodes)\n", len(doc.Nodes))
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "treat warnings as errors")
	return cmd
}

// readDocument loads and decodes a flow document from disk.
func readDocument(path string) (*flow.Document, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	var doc flow.Document
	if err := json.Unmarshal(src, &doc); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	return &doc, nil
}
