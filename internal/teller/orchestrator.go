package teller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jwebster45206/storyteller/internal/telemetry"
	"github.com/jwebster45206/storyteller/pkg/story"
)

// DefaultMaxAttempts is one first try plus three retries.
const DefaultMaxAttempts = 4

// StoryGenerator produces a story attempt for a generation context.
type StoryGenerator interface {
	Generate(ctx context.Context, gc story.GenerationContext) (story.GeneratedStory, error)
}

// StoryJudge scores a story attempt.
type StoryJudge interface {
	Judge(ctx context.Context, gs story.GeneratedStory, arc story.Arc) (story.Judgment, error)
}

// State names a step of the generate/judge loop. Used in logs.
type State string

const (
	StateGenerating State = "generating"
	StateJudging    State = "judging"
	StateAccepted   State = "accepted"
	StateRetrying   State = "retrying"
	StateExhausted  State = "exhausted"
)

// ExhaustedError is returned when every attempt was rejected by the judge.
type ExhaustedError struct {
	Attempts int
	Judgment story.Judgment
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("no acceptable story after %d attempts due to %s", e.Attempts, e.Reason())
}

// Reason is the last judgment's failure reason, or "unspecified".
func (e *ExhaustedError) Reason() string {
	return e.Judgment.FailureReason.String()
}

// Result is an accepted story and how it got there.
type Result struct {
	Story    story.GeneratedStory
	Judgment story.Judgment
	Attempts int
}

// Orchestrator runs generate then judge until a story is accepted or the
// attempt bound is reached.
type Orchestrator struct {
	generator    StoryGenerator
	judge        StoryJudge
	maxAttempts  int
	retryOnParse bool
	logger       *slog.Logger
}

// NewOrchestrator creates a loop with DefaultMaxAttempts that retries on
// unparseable model output.
func NewOrchestrator(generator StoryGenerator, judge StoryJudge, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		generator:    generator,
		judge:        judge,
		maxAttempts:  DefaultMaxAttempts,
		retryOnParse: true,
		logger:       logger,
	}
}

// WithMaxAttempts sets the attempt bound. Values below 1 are ignored.
func (o *Orchestrator) WithMaxAttempts(n int) *Orchestrator {
	if n >= 1 {
		o.maxAttempts = n
	}
	return o
}

// WithRetryOnParseError controls whether unparseable output uses up an
// attempt (true) or ends the loop at once (false).
func (o *Orchestrator) WithRetryOnParseError(retry bool) *Orchestrator {
	o.retryOnParse = retry
	return o
}

func (o *Orchestrator) MaxAttempts() int {
	return o.maxAttempts
}

func isParseError(err error) bool {
	var genErr *story.GenerationError
	var judgeErr *story.JudgmentParseError
	return errors.As(err, &genErr) || errors.As(err, &judgeErr)
}

// Run executes the loop. gc.Feedback is overwritten with the latest judge
// feedback after each rejection; nothing else in gc changes.
func (o *Orchestrator) Run(ctx context.Context, gc *story.GenerationContext) (*Result, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "story.orchestrate")
	defer span.End()

	var last *story.Judgment
	for attempt := 1; attempt <= o.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		span.SetAttributes(attribute.Int("story.attempts", attempt))
		log := o.logger.With("attempt", attempt, "max_attempts", o.maxAttempts)

		log.Debug("Story loop transition", "state", StateGenerating)
		gs, err := o.generator.Generate(ctx, *gc)
		if err != nil {
			if o.retryable(err, attempt) {
				log.Warn("Story loop transition", "state", StateRetrying, "error", err)
				continue
			}
			return nil, err
		}

		log.Debug("Story loop transition", "state", StateJudging, "stage", gs.Metadata.CurrentStage)
		judgment, err := o.judge.Judge(ctx, gs, gc.Arc)
		if err != nil {
			if o.retryable(err, attempt) {
				log.Warn("Story loop transition", "state", StateRetrying, "error", err)
				continue
			}
			return nil, err
		}
		last = &judgment

		log = log.With(
			"age_appropriateness", judgment.Scores.AgeAppropriateness,
			"arc_alignment", judgment.Scores.ArcAlignment,
			"creativity", judgment.Scores.Creativity,
		)
		if judgment.Accept {
			log.Info("Story loop transition", "state", StateAccepted)
			span.SetAttributes(attribute.Bool("story.accepted", true))
			return &Result{Story: gs, Judgment: judgment, Attempts: attempt}, nil
		}

		if attempt == o.maxAttempts {
			log.Warn("Story loop transition", "state", StateExhausted, "failure_reason", judgment.FailureReason.String())
			break
		}

		log.Info("Story loop transition", "state", StateRetrying, "failure_reason", judgment.FailureReason.String())
		gc.Feedback = judgment.Feedback
	}

	span.SetAttributes(attribute.Bool("story.accepted", false))
	if last == nil {
		// unreachable: the final attempt either returns or records a judgment
		return nil, fmt.Errorf("story loop ended without a judgment")
	}
	return nil, &ExhaustedError{Attempts: o.maxAttempts, Judgment: *last}
}

// retryable reports whether err may consume this attempt and continue.
func (o *Orchestrator) retryable(err error, attempt int) bool {
	return o.retryOnParse && attempt < o.maxAttempts && isParseError(err)
}
