package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/voxkit/flowsync/pkg/llm"
	"github.com/voxkit/flowsync/pkg/suggest"
)

// ─── suggest ──────────────────────────────────────────────────────────────────

func suggestCmd() *cobra.Command {
	var (
		model string
		write bool
	)

	cmd := &cobra.Command{
		Use:   "suggest <flow.json>",
		Short: "Draft condition labels for unlabeled transitions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(args[0])
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("model") && doc.ModelChoice != "" {
				model = doc.ModelChoice
			}
			c, err := llm.NewClient(model)
			if err != nil {
				return err
			}

			ctx := signalContext(cmd.Context())
			suggestions, err := suggest.Conditions(ctx, c, doc)
			if err != nil {
				return err
			}
			if len(suggestions) == 0 {
				fmt.Println("no unlabeled transitions")
				return nil
			}
			for _, s := range suggestions {
				fmt.Printf("%s → %q\n", s.EdgeID, s.Prompt)
			}

			if !write {
				return nil
			}
			suggest.Apply(doc, suggestions)
			out, err := json.MarshalIndent(doc, "", "  ")
			if err != nil {
				return fmt.Errorf("encode: %w", err)
			}
			if err := os.WriteFile(args[0], append(out, '\n'), 0o644); err != nil {
				return fmt.Errorf("write file: %w", err)
			}
			fmt.Printf("wrote %d label(s) to %s\n", len(suggestions), args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&model, "model", "anthropic:claude-sonnet-4-6", "LLM model (provider:model-id)")
	cmd.Flags().BoolVar(&write, "write", false, "apply suggestions back to the file")
	return cmd
}
