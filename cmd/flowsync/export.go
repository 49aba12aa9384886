package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/voxkit/flowsync/pkg/dot"
)

// ─── export ───────────────────────────────────────────────────────────────────

func exportCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "export <flow.json>",
		Short: "Render a flow document as a Graphviz digraph",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			doc, err := readDocument(args[0])
			if err != nil {
				return err
			}
			if name == "" {
				name = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			}
			out, err := dot.Export(doc, name)
			if err != nil {
				return err
			}
			fmt.Print(out)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "digraph name (defaults to the file name)")
	return cmd
}
