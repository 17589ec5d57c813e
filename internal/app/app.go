// Package app wires configuration into a running story service.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/jwebster45206/storyteller/internal/config"
	"github.com/jwebster45206/storyteller/internal/services"
	"github.com/jwebster45206/storyteller/internal/storage"
	"github.com/jwebster45206/storyteller/internal/telemetry"
	"github.com/jwebster45206/storyteller/internal/teller"
	"github.com/jwebster45206/storyteller/pkg/prompts"
)

// App holds the long-lived pieces a binary needs.
type App struct {
	Service *teller.Service
	Store   storage.SessionStore

	shutdownTracing func(context.Context) error
}

// Options turns configuration into service options.
func Options(cfg *config.Config, set *prompts.Set) teller.Options {
	return teller.Options{
		Prompts:           set,
		MaxAttempts:       cfg.MaxAttempts,
		RetryOnParseError: cfg.RetryOnParseError,
		Story:             teller.CallSettings{MaxTokens: cfg.StoryMaxTokens, Temperature: cfg.StoryTemperature},
		Judge:             teller.CallSettings{MaxTokens: cfg.JudgeMaxTokens, Temperature: cfg.JudgeTemperature},
		Summary:           teller.CallSettings{MaxTokens: cfg.SummaryMaxTokens, Temperature: cfg.SummaryTemperature},
	}
}

// New builds the service described by cfg. llm may be nil, in which case the
// configured provider is used.
func New(ctx context.Context, cfg *config.Config, llm services.TextCompleter, logger *slog.Logger) (*App, error) {
	shutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:     cfg.OTelEnabled,
		Environment: cfg.Environment,
		Writer:      os.Stderr,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to start tracing: %w", err)
	}

	if llm == nil {
		llm, err = services.NewTextCompleter(services.ProviderSettings{
			Provider:  cfg.LLMProvider,
			ModelName: cfg.ModelName,
			APIKey:    cfg.APIKey(),
			BaseURL:   cfg.LLMBaseURL,
		}, logger)
		if err != nil {
			_ = shutdown(ctx)
			return nil, err
		}
	}
	if initializer, ok := llm.(services.ModelInitializer); ok {
		if err := initializer.InitModel(ctx); err != nil {
			_ = shutdown(ctx)
			return nil, fmt.Errorf("failed to initialize model %q: %w", cfg.ModelName, err)
		}
	}
	llm = services.NewRateLimited(llm, cfg.LLMRatePerMin)

	catalog, err := storage.LoadCatalog(cfg.ArcsFile)
	if err != nil {
		_ = shutdown(ctx)
		return nil, err
	}
	logger.Debug("Arc catalog loaded", "path", cfg.ArcsFile, "arcs", catalog.IDs())

	set := prompts.Default()
	if cfg.PromptsDir != "" {
		if set, err = prompts.Load(cfg.PromptsDir); err != nil {
			_ = shutdown(ctx)
			return nil, fmt.Errorf("failed to load prompts: %w", err)
		}
	}

	store, err := storage.Open(ctx, storage.Options{
		Backend:      cfg.SessionStore,
		SessionsFile: cfg.SessionsFile,
		RedisURL:     cfg.RedisURL,
		SQLitePath:   cfg.SQLitePath,
	}, logger)
	if err != nil {
		_ = shutdown(ctx)
		return nil, err
	}

	return &App{
		Service:         teller.NewService(llm, store, catalog, Options(cfg, set), logger),
		Store:           store,
		shutdownTracing: shutdown,
	}, nil
}

// Close releases the store and flushes traces.
func (a *App) Close(ctx context.Context) error {
	return errors.Join(a.Store.Close(), a.shutdownTracing(ctx))
}
