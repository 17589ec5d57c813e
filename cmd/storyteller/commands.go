package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/jwebster45206/storyteller/internal/app"
	"github.com/jwebster45206/storyteller/internal/config"
	"github.com/jwebster45206/storyteller/internal/console"
	"github.com/jwebster45206/storyteller/internal/continuity"
	"github.com/jwebster45206/storyteller/internal/logger"
	"github.com/jwebster45206/storyteller/internal/storage"
)

// openApp is replaced in tests to inject a scripted model.
var openApp = func(ctx context.Context, cfg *config.Config, log *slog.Logger) (*app.App, error) {
	return app.New(ctx, cfg, nil, log)
}

func withApp(cmd *cobra.Command, fn func(a *app.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.SetupTo(cmd.ErrOrStderr(), cfg)

	a, err := openApp(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(context.Background()); err != nil {
			log.Warn("Error during shutdown", "error", err)
		}
	}()
	return fn(a)
}

// --- tell ---

func newTellCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tell",
		Short: "Tell a new story or continue a saved one",
		RunE: func(cmd *cobra.Command, args []string) error {
			plain, _ := cmd.Flags().GetBool("plain")
			prompt, _ := cmd.Flags().GetString("prompt")

			return withApp(cmd, func(a *app.App) error {
				in, out := cmd.InOrStdin(), cmd.OutOrStdout()

				var (
					prompter console.Prompter
					chooser  continuity.Chooser
				)
				if plain {
					lp := console.NewLinePrompter(in, out)
					prompter, chooser = lp, lp
				} else {
					prompter = console.TUIPrompter{Ctx: cmd.Context(), In: in, Out: out}
					chooser = console.TUIChooser{In: in, Out: out}
				}

				session := &console.Session{
					Teller:   a.Service,
					Prompter: prompter,
					Chooser:  chooser,
					Renderer: console.Renderer{Plain: plain},
					Out:      out,
				}
				return session.Run(cmd.Context(), prompt)
			})
		},
	}
	cmd.Flags().Bool("plain", false, "use line prompts without colors or full-screen menus")
	cmd.Flags().String("prompt", "", "story request; skips the interactive questions")
	return cmd
}

// --- clear ---

func newClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every saved story session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app.App) error {
				if err := a.Service.ClearSessions(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Previous sessions cleared.")
				return nil
			})
		},
	}
}

// --- sessions ---

func newSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List saved story sessions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			plain, _ := cmd.Flags().GetBool("plain")
			return withApp(cmd, func(a *app.App) error {
				sessions, err := a.Service.ListSessions(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), console.Renderer{Plain: plain}.Sessions(sessions))
				return nil
			})
		},
	}
	cmd.Flags().Bool("plain", false, "disable colors")
	return cmd
}

// --- arcs ---

var validArcIDRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

func newArcsCmd() *cobra.Command {
	arcs := &cobra.Command{
		Use:   "arcs",
		Short: "List the story arcs in the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			plain, _ := cmd.Flags().GetBool("plain")
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			catalog, err := storage.LoadCatalog(cfg.ArcsFile)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), console.Renderer{Plain: plain}.Arcs(catalog.Arcs()))
			return nil
		},
	}
	arcs.Flags().Bool("plain", false, "disable colors")

	validate := &cobra.Command{
		Use:   "validate <file>",
		Short: "Check an arc catalog file (.json, .yaml or .yml)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return validateCatalogFile(cmd, args[0])
		},
	}
	arcs.AddCommand(validate)
	return arcs
}

func validateCatalogFile(cmd *cobra.Command, filename string) error {
	fmt.Fprintf(cmd.OutOrStdout(), "Validating %s...\n", filename)

	catalog, err := storage.LoadCatalog(filename)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	for _, id := range catalog.IDs() {
		if !validArcIDRegex.MatchString(id) {
			return fmt.Errorf("validation failed: arc id '%s' should be lowercase snake_case", id)
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Catalog %s is valid! (%d arcs)\n", filepath.Base(filename), catalog.Len())
	return nil
}
