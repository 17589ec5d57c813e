package chat

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// StoryRequest is a story request made to the storyteller api.
// SessionID names a stored story the caller wants to continue.
type StoryRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

// StoryResponse is returned by the storyteller api for an accepted story.
type StoryResponse struct {
	SessionID  string            `json:"session_id"`
	Continued  bool              `json:"continued"`
	ArcID      string            `json:"arc_id"`
	ArcStage   string            `json:"arc_stage"`
	Story      string            `json:"story"`
	Characters map[string]string `json:"characters"`
	Setting    string            `json:"setting"`
	Summary    string            `json:"summary,omitempty"`
	Attempts   int               `json:"attempts"`
}

// ErrorResponse is the body of every non-2xx api response.
type ErrorResponse struct {
	Error         string `json:"error"`
	FailureReason string `json:"failure_reason,omitempty"`
	Attempts      int    `json:"attempts,omitempty"`
}

const (
	ChatRoleUser   = "user"
	ChatRoleAgent  = "assistant"
	ChatRoleSystem = "system"
)

// ChatMessage is a single message sent to a chat-completion model.
type ChatMessage struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// UserMessage wraps a prompt as the only user turn of a conversation.
func UserMessage(prompt string) []ChatMessage {
	return []ChatMessage{{Role: ChatRoleUser, Content: prompt}}
}

func (sr *StoryRequest) Validate() error {
	if strings.TrimSpace(sr.Message) == "" {
		return fmt.Errorf("message cannot be empty")
	}
	if sr.SessionID != "" {
		if _, err := uuid.Parse(sr.SessionID); err != nil {
			return fmt.Errorf("session_id must be a UUID: %w", err)
		}
	}
	return nil
}
