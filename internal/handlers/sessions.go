package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/jwebster45206/storyteller/pkg/chat"
)

// SessionSummary is one entry of GET /v1/sessions.
type SessionSummary struct {
	ID         string            `json:"id"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
	ArcID      *string           `json:"arc_id"`
	ArcStage   *string           `json:"arc_stage"`
	Characters map[string]string `json:"characters"`
	Setting    string            `json:"setting"`
	Summary    string            `json:"summary"`
}

// SessionsHandler lists (GET) and clears (DELETE) stored sessions.
type SessionsHandler struct {
	service StoryService
	logger  *slog.Logger
}

func NewSessionsHandler(service StoryService, logger *slog.Logger) *SessionsHandler {
	return &SessionsHandler{service: service, logger: logger}
}

func (h *SessionsHandler) List(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.service.ListSessions(r.Context())
	if err != nil {
		h.logger.Error("Failed to list sessions", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, chat.ErrorResponse{Error: "Failed to list sessions."})
		return
	}

	out := make([]SessionSummary, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, SessionSummary{
			ID:         s.ID,
			CreatedAt:  s.CreatedAt,
			UpdatedAt:  s.UpdatedAt,
			ArcID:      s.ArcID,
			ArcStage:   s.ArcStage,
			Characters: s.Characters,
			Setting:    s.Setting,
			Summary:    s.Summary,
		})
	}
	writeJSON(w, h.logger, http.StatusOK, out)
}

func (h *SessionsHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ClearSessions(r.Context()); err != nil {
		h.logger.Error("Failed to clear sessions", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, chat.ErrorResponse{Error: "Failed to clear sessions."})
		return
	}
	h.logger.Info("Sessions cleared via api")
	w.WriteHeader(http.StatusNoContent)
}

// ArcsHandler lists the arc catalog.
type ArcsHandler struct {
	service StoryService
	logger  *slog.Logger
}

func NewArcsHandler(service StoryService, logger *slog.Logger) *ArcsHandler {
	return &ArcsHandler{service: service, logger: logger}
}

func (h *ArcsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.logger, http.StatusOK, h.service.Arcs())
}
