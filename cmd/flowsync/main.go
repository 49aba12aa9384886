package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	// Register all LLM providers via their init() functions.
	_ "github.com/voxkit/flowsync/pkg/llm/providers"
)

func main() {
	// Optional .env for API keys and DATABASE_URL; absence is fine.
	_ = godotenv.Load()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "flowsync",
		Short: "flowsync — conversation flow sync engine",
		Long: `Flowsync keeps phone-agent conversation flows in sync between the
canvas representation editors draw and the document the runtime executes.

It serves the persistence endpoint, lints flow documents, renders them
as Graphviz digraphs, and drafts condition labels for unlabeled
transitions.`,
	}
	root.AddCommand(serveCmd())
	root.AddCommand(lintCmd())
	root.AddCommand(exportCmd())
	root.AddCommand(suggestCmd())
	return root
}

// signalContext returns a context that is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) context.Context {
	ctx, cancel := context.WithCancel(parent)
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-ch:
			fmt.Fprintln(os.Stderr, "\n[flowsync] interrupted — shutting down")
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx
}
