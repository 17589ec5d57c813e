package teller

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jwebster45206/storyteller/internal/arcs"
	"github.com/jwebster45206/storyteller/internal/continuity"
	"github.com/jwebster45206/storyteller/internal/guardrails"
	"github.com/jwebster45206/storyteller/internal/services"
	"github.com/jwebster45206/storyteller/internal/storage"
	"github.com/jwebster45206/storyteller/internal/telemetry"
	"github.com/jwebster45206/storyteller/pkg/prompts"
	"github.com/jwebster45206/storyteller/pkg/story"
)

// StorySummarizer condenses an accepted story.
type StorySummarizer interface {
	Summarize(ctx context.Context, storyText string) (string, error)
}

// Options configures NewService. Zero values fall back to defaults.
type Options struct {
	Prompts           *prompts.Set
	MaxAttempts       int
	RetryOnParseError bool
	Story             CallSettings
	Judge             CallSettings
	Summary           CallSettings
}

// DefaultOptions returns the settings used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		MaxAttempts:       DefaultMaxAttempts,
		RetryOnParseError: true,
		Story:             DefaultCall,
		Judge:             DefaultCall,
		Summary:           DefaultCall,
	}
}

// Outcome is the result of one Tell call.
type Outcome struct {
	Session   *story.Session
	Arc       story.Arc
	Story     story.GeneratedStory
	Judgment  story.Judgment
	Attempts  int
	Continued bool
}

// Service runs a story request end to end: guardrails, continuity, arc
// choice, the generate/judge loop, summary and persistence.
type Service struct {
	store        storage.SessionStore
	catalog      *story.Catalog
	resolver     *continuity.Resolver
	orchestrator *Orchestrator
	summarizer   StorySummarizer
	logger       *slog.Logger
	now          func() time.Time
}

// NewService wires the pipeline over one text completer.
func NewService(llm services.TextCompleter, store storage.SessionStore, catalog *story.Catalog, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Story.MaxTokens <= 0 {
		opts.Story = DefaultCall
	}
	if opts.Judge.MaxTokens <= 0 {
		opts.Judge = DefaultCall
	}
	if opts.Summary.MaxTokens <= 0 {
		opts.Summary = DefaultCall
	}

	orchestrator := NewOrchestrator(
		NewGenerator(llm, opts.Prompts, opts.Story, logger),
		NewJudge(llm, opts.Prompts, opts.Judge, logger),
		logger,
	).WithMaxAttempts(opts.MaxAttempts).WithRetryOnParseError(opts.RetryOnParseError)

	return &Service{
		store:        store,
		catalog:      catalog,
		resolver:     continuity.NewResolver(store, logger),
		orchestrator: orchestrator,
		summarizer:   NewSummarizer(llm, opts.Prompts, opts.Summary),
		logger:       logger,
		now:          time.Now,
	}
}

// WithClock replaces the time source for sessions and updates.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	s.resolver.WithClock(now)
	return s
}

// WithIDGenerator replaces the session id source.
func (s *Service) WithIDGenerator(newID func() string) *Service {
	s.resolver.WithIDGenerator(newID)
	return s
}

// Tell answers one story request. Rejections by every attempt return an
// *ExhaustedError and nothing is stored. When only the summary fails, the
// accepted story is returned together with the *story.SummaryParseError and
// the session is left unchanged.
func (s *Service) Tell(ctx context.Context, userInput string, chooser continuity.Chooser) (*Outcome, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "story.tell")
	defer span.End()

	if err := guardrails.CheckStoryPrompt(userInput); err != nil {
		return nil, err
	}

	session, continued, err := s.resolver.Resolve(ctx, userInput, chooser)
	if err != nil {
		return nil, err
	}
	log := s.logger.With("session_id", session.ID, "continued", continued)

	var arc story.Arc
	if continued {
		arc, err = arcs.ArcForSession(s.catalog, session, userInput)
	} else {
		arc, err = arcs.SelectArc(s.catalog, userInput)
	}
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("story.arc", arc.ID),
		attribute.Bool("story.continued", continued),
	)
	log.Info("Arc chosen", "arc", arc.ID)

	gc := story.BuildContext(session, arc, userInput, continued)
	result, err := s.orchestrator.Run(ctx, &gc)
	if err != nil {
		return nil, err
	}

	outcome := &Outcome{
		Session:   session,
		Arc:       arc,
		Story:     result.Story,
		Judgment:  result.Judgment,
		Attempts:  result.Attempts,
		Continued: continued,
	}
	outcome.Story.StoryText = guardrails.SoftenStory(outcome.Story.StoryText)

	summary, err := s.summarizer.Summarize(ctx, result.Story.StoryText)
	if err != nil {
		log.Error("Summary failed; session not saved", "error", err)
		return outcome, err
	}

	next := session.NextTurn(arc.ID, result.Story, summary, s.now())
	if err := s.store.SaveSession(ctx, next); err != nil {
		return outcome, fmt.Errorf("failed to save session: %w", err)
	}
	outcome.Session = next

	log.Info("Story accepted", "attempts", result.Attempts, "stage", next.ArcStageOrEmpty())
	return outcome, nil
}

// ClearSessions removes every stored session.
func (s *Service) ClearSessions(ctx context.Context) error {
	return s.store.ClearSessions(ctx)
}

// ListSessions returns stored sessions, most recently updated first.
func (s *Service) ListSessions(ctx context.Context) ([]*story.Session, error) {
	all, err := s.store.LoadSessions(ctx)
	if err != nil {
		return nil, err
	}
	out := slices.Collect(maps.Values(all))
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Arcs returns the catalog arcs in catalog order.
func (s *Service) Arcs() []story.Arc {
	return s.catalog.Arcs()
}

// Ping checks the session store.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
