package teller

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/jwebster45206/storyteller/internal/services"
	"github.com/jwebster45206/storyteller/internal/telemetry"
	"github.com/jwebster45206/storyteller/pkg/prompts"
	"github.com/jwebster45206/storyteller/pkg/story"
)

// CallSettings are the model parameters for one kind of call.
type CallSettings struct {
	MaxTokens   int
	Temperature float64
}

// DefaultCall matches the parameters used for every call unless configured.
var DefaultCall = CallSettings{MaxTokens: 3000, Temperature: 0.3}

// complete sends prompt to the model inside a span named name.
func complete(ctx context.Context, llm services.TextCompleter, name, prompt string, call CallSettings) (string, error) {
	ctx, span := telemetry.Tracer().Start(ctx, name)
	defer span.End()
	span.SetAttributes(
		attribute.Int("llm.max_tokens", call.MaxTokens),
		attribute.Float64("llm.temperature", call.Temperature),
		attribute.Int("llm.prompt_length", len(prompt)),
	)

	raw, err := llm.Complete(ctx, prompt, call.MaxTokens, call.Temperature)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	span.SetAttributes(attribute.Int("llm.response_length", len(raw)))
	return raw, nil
}

// Generator produces one story attempt per call.
type Generator struct {
	llm     services.TextCompleter
	prompts *prompts.Set
	call    CallSettings
	logger  *slog.Logger
}

// NewGenerator creates a story generator. A nil set uses the embedded templates.
func NewGenerator(llm services.TextCompleter, set *prompts.Set, call CallSettings, logger *slog.Logger) *Generator {
	if set == nil {
		set = prompts.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{llm: llm, prompts: set, call: call, logger: logger}
}

// Generate renders the storyteller prompt for gc, calls the model and parses
// the reply. Invalid replies come back as *story.GenerationError.
func (g *Generator) Generate(ctx context.Context, gc story.GenerationContext) (story.GeneratedStory, error) {
	prompt, err := prompts.NewBuilder(g.prompts).FromContext(gc).Build()
	if err != nil {
		return story.GeneratedStory{}, fmt.Errorf("failed to build story prompt: %w", err)
	}

	g.logger.Debug("Requesting story", "mode", gc.Mode, "arc", gc.Arc.ID, "has_feedback", gc.Feedback != "")
	raw, err := complete(ctx, g.llm, "story.generate", prompt, g.call)
	if err != nil {
		return story.GeneratedStory{}, fmt.Errorf("storyteller call failed: %w", err)
	}

	gs, err := story.ParseGeneratedStory(raw)
	if err != nil {
		g.logger.Warn("Storyteller reply rejected", "error", err)
		return story.GeneratedStory{}, err
	}
	return gs, nil
}

// Judge scores a generated story against its arc.
type Judge struct {
	llm     services.TextCompleter
	prompts *prompts.Set
	call    CallSettings
	logger  *slog.Logger
}

func NewJudge(llm services.TextCompleter, set *prompts.Set, call CallSettings, logger *slog.Logger) *Judge {
	if set == nil {
		set = prompts.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Judge{llm: llm, prompts: set, call: call, logger: logger}
}

// Judge returns the normalized judgment. Invalid replies come back as
// *story.JudgmentParseError.
func (j *Judge) Judge(ctx context.Context, gs story.GeneratedStory, arc story.Arc) (story.Judgment, error) {
	prompt, err := j.prompts.Judge(gs, arc)
	if err != nil {
		return story.Judgment{}, fmt.Errorf("failed to build judge prompt: %w", err)
	}

	raw, err := complete(ctx, j.llm, "story.judge", prompt, j.call)
	if err != nil {
		return story.Judgment{}, fmt.Errorf("judge call failed: %w", err)
	}

	judgment, err := story.ParseJudgment(raw)
	if err != nil {
		j.logger.Warn("Judge reply rejected", "error", err)
		return story.Judgment{}, err
	}
	return judgment, nil
}

// Summarizer condenses an accepted story for the session record.
type Summarizer struct {
	llm     services.TextCompleter
	prompts *prompts.Set
	call    CallSettings
}

func NewSummarizer(llm services.TextCompleter, set *prompts.Set, call CallSettings) *Summarizer {
	if set == nil {
		set = prompts.Default()
	}
	return &Summarizer{llm: llm, prompts: set, call: call}
}

// Summarize returns the summary, or a *story.SummaryParseError when the reply
// has no usable summary.
func (s *Summarizer) Summarize(ctx context.Context, storyText string) (string, error) {
	prompt, err := s.prompts.Summary(storyText)
	if err != nil {
		return "", fmt.Errorf("failed to build summary prompt: %w", err)
	}

	raw, err := complete(ctx, s.llm, "story.summarize", prompt, s.call)
	if err != nil {
		return "", fmt.Errorf("summarizer call failed: %w", err)
	}
	return story.ParseSummary(raw)
}
