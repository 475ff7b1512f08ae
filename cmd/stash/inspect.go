package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/stash"
	"github.com/aretw0/stash/internal/presentation/tui"
	"github.com/aretw0/stash/pkg/hostsession"
	"github.com/aretw0/stash/pkg/persistence/middleware"
	"github.com/aretw0/stash/pkg/ports"
	"github.com/aretw0/stash/pkg/registry"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [session-id]",
	Short: "List stored sessions or show the namespaces of one session",
	Long: `Without arguments, lists the stored session IDs. With a session ID, shows each
namespace with its lock state and data. Keys matching the configured redact
patterns are masked. Output is rendered markdown on a terminal and JSON otherwise.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		backend, closeBackend, err := stash.OpenBackend(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer closeBackend()

		redact, err := middleware.NewRedactMiddleware(cfg.Redact)
		if err != nil {
			return fmt.Errorf("invalid redact pattern: %w", err)
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		if !asJSON {
			asJSON = !term.IsTerminal(int(os.Stdout.Fd()))
		}
		return runInspect(cmd.Context(), cmd.OutOrStdout(), redact(backend), args, asJSON)
	},
}

func runInspect(ctx context.Context, w io.Writer, view ports.Backend, args []string, asJSON bool) error {
	if len(args) == 0 {
		ids, err := view.List(ctx)
		if err != nil {
			return fmt.Errorf("failed to list sessions: %w", err)
		}
		if asJSON {
			return writeJSON(w, map[string]any{"sessions": ids})
		}
		return writeMarkdown(w, tui.SessionList(ids))
	}

	id := args[0]
	snap, err := view.Load(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load session %s: %w", id, err)
	}
	hs := hostsession.New(id, snap)
	if err := hs.EnsureActive(ctx); err != nil {
		return err
	}
	infos := registry.New(hs).Describe()

	if asJSON {
		return writeJSON(w, map[string]any{"session_id": id, "namespaces": infos})
	}
	return writeMarkdown(w, tui.SessionReport(id, infos))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeMarkdown(w io.Writer, markdown string) error {
	out, err := tui.NewRenderer()(markdown)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().Bool("json", false, "Force JSON output")
}
