package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jwebster45206/storyteller/internal/continuity"
	"github.com/jwebster45206/storyteller/internal/guardrails"
	"github.com/jwebster45206/storyteller/internal/teller"
	"github.com/jwebster45206/storyteller/pkg/chat"
	"github.com/jwebster45206/storyteller/pkg/story"
)

// StoryService is the pipeline surface the api exposes.
type StoryService interface {
	Tell(ctx context.Context, userInput string, chooser continuity.Chooser) (*teller.Outcome, error)
	ClearSessions(ctx context.Context) error
	ListSessions(ctx context.Context) ([]*story.Session, error)
	Arcs() []story.Arc
	Ping(ctx context.Context) error
}

// SessionChooser continues sessionID when it is one of the candidates and
// starts a new story otherwise.
func SessionChooser(sessionID string) continuity.Chooser {
	return continuity.ChooserFunc(func(_ context.Context, candidates []continuity.Candidate) (string, bool, error) {
		if sessionID == "" {
			return "", false, nil
		}
		for _, c := range candidates {
			if c.SessionID == sessionID {
				return sessionID, true, nil
			}
		}
		return "", false, nil
	})
}

// StoryHandler handles POST /v1/stories.
type StoryHandler struct {
	service StoryService
	logger  *slog.Logger
}

func NewStoryHandler(service StoryService, logger *slog.Logger) *StoryHandler {
	return &StoryHandler{service: service, logger: logger}
}

func (h *StoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer r.Body.Close()

	var request chat.StoryRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, chat.ErrorResponse{
			Error: "Invalid request body. Expected JSON with 'message' field.",
		})
		return
	}
	if err := request.Validate(); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, chat.ErrorResponse{Error: err.Error()})
		return
	}

	out, err := h.service.Tell(r.Context(), request.Message, SessionChooser(request.SessionID))
	if err != nil {
		h.writeTellError(w, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, chat.StoryResponse{
		SessionID:  out.Session.ID,
		Continued:  out.Continued,
		ArcID:      out.Arc.ID,
		ArcStage:   out.Session.ArcStageOrEmpty(),
		Story:      out.Story.StoryText,
		Characters: out.Session.Characters,
		Setting:    out.Session.Setting,
		Summary:    out.Session.Summary,
		Attempts:   out.Attempts,
	})
}

func (h *StoryHandler) writeTellError(w http.ResponseWriter, err error) {
	var (
		exhausted *teller.ExhaustedError
		genErr    *story.GenerationError
		judgeErr  *story.JudgmentParseError
		sumErr    *story.SummaryParseError
		cfgErr    *story.ConfigurationError
	)

	switch {
	case errors.Is(err, guardrails.ErrNotStoryPrompt), errors.Is(err, guardrails.ErrInappropriate):
		writeError(w, h.logger, http.StatusBadRequest, chat.ErrorResponse{Error: err.Error()})
	case errors.As(err, &exhausted):
		h.logger.Info("Story request exhausted", "attempts", exhausted.Attempts, "failure_reason", exhausted.Reason())
		writeError(w, h.logger, http.StatusUnprocessableEntity, chat.ErrorResponse{
			Error:         "Sorry, we couldn't generate a satisfactory story due to " + exhausted.Reason(),
			FailureReason: exhausted.Reason(),
			Attempts:      exhausted.Attempts,
		})
	case errors.As(err, &genErr), errors.As(err, &judgeErr), errors.As(err, &sumErr):
		h.logger.Error("Model returned unusable output", "error", err)
		writeError(w, h.logger, http.StatusBadGateway, chat.ErrorResponse{Error: err.Error()})
	case errors.As(err, &cfgErr):
		h.logger.Error("Arc catalog error", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, chat.ErrorResponse{Error: err.Error()})
	default:
		h.logger.Error("Error generating story", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, chat.ErrorResponse{
			Error: "Failed to generate story. Please try again.",
		})
	}
}
