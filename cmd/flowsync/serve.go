package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/voxkit/flowsync/pkg/client"
	"github.com/voxkit/flowsync/pkg/flow"
	"github.com/voxkit/flowsync/pkg/store"
	"github.com/voxkit/flowsync/pkg/store/postgres"
)

// ─── serve ────────────────────────────────────────────────────────────────────

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the flow persistence endpoint",
		Long: `Serves GET and PUT /agents/:id/flow. With DATABASE_URL set, flows are
stored in PostgreSQL; otherwise an in-memory store is used and state is
lost on exit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := signalContext(cmd.Context())

			var st store.Store
			if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
				pool, err := pgxpool.New(ctx, dbURL)
				if err != nil {
					return err
				}
				defer pool.Close()
				pg := postgres.New(pool)
				if err := pg.CreateSchema(ctx); err != nil {
					return err
				}
				st = pg
				slog.Info("using postgres store")
			} else {
				st = store.NewMemory()
				slog.Info("DATABASE_URL not set, using in-memory store")
			}

			app := newServer(st)
			go func() {
				<-ctx.Done()
				_ = app.Shutdown()
			}()
			slog.Info("listening", "addr", addr)
			return app.Listen(addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", envOr("FLOWSYNC_ADDR", ":3000"), "listen address")
	return cmd
}

// newServer builds the fiber app serving the flow envelope.
func newServer(st store.Store) *fiber.App {
	app := fiber.New()

	app.Get("/agents/:id/flow", func(c fiber.Ctx) error {
		rec, err := st.Get(c.Context(), c.Params("id"))
		if errors.Is(err, store.ErrNotFound) {
			// Absence is a normal state: the editor seeds a template.
			return c.JSON(client.EngineState{Exists: false})
		}
		if err != nil {
			slog.Warn("flow get failed", "agent", c.Params("id"), "err", err)
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(stateEnvelope(rec))
	})

	app.Put("/agents/:id/flow", func(c fiber.Ctx) error {
		var sr client.SaveRequest
		if err := c.Bind().JSON(&sr); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		rec, err := st.Put(c.Context(), c.Params("id"), store.State{
			EngineType:       sr.EngineType,
			LLMID:            sr.LLMID,
			LegacyEngineData: sr.LegacyEngineData,
			Doc:              sr.Flow,
		})
		if err != nil {
			slog.Warn("flow put failed", "agent", c.Params("id"), "err", err)
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(stateEnvelope(rec))
	})

	return app
}

func stateEnvelope(rec *store.State) client.EngineState {
	st := client.EngineState{
		Exists:           true,
		EngineType:       rec.EngineType,
		LLMID:            rec.LLMID,
		LegacyEngineData: rec.LegacyEngineData,
	}
	// A legacy agent stays legacy on the wire: the editor lifts the payload
	// itself, and answering with a flow document would flip the session out
	// of legacy mode on its post-save reload.
	if rec.EngineType != flow.EngineLegacy || len(rec.LegacyEngineData) == 0 {
		st.Flow = rec.Doc
	}
	return st
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
