package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// TextCompleter sends a single prompt to a model and returns its raw text.
// Implementations do not retry; callers decide what a bad reply means.
type TextCompleter interface {
	Complete(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error)
}

// Provider names accepted by NewTextCompleter.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderVenice    = "venice"
	ProviderOllama    = "ollama"
)

// ProviderSettings selects and configures a completion provider.
type ProviderSettings struct {
	Provider  string
	ModelName string
	APIKey    string
	BaseURL   string // ollama only
}

// NewTextCompleter builds the completer for the configured provider.
func NewTextCompleter(s ProviderSettings, logger *slog.Logger) (TextCompleter, error) {
	switch strings.ToLower(s.Provider) {
	case ProviderOpenAI, "":
		return NewOpenAIService(s.APIKey, s.ModelName, logger), nil
	case ProviderAnthropic:
		return NewAnthropicService(s.APIKey, s.ModelName, logger), nil
	case ProviderVenice:
		return NewVeniceService(s.APIKey, s.ModelName), nil
	case ProviderOllama:
		return NewOllamaService(s.BaseURL, s.ModelName, logger), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", s.Provider)
	}
}
