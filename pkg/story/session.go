package story

import (
	"maps"
	"time"
)

// Session is the persisted state of one ongoing story. The store key is ID;
// the remaining fields form the record that is replaced wholesale on each turn.
type Session struct {
	ID         string            `json:"-"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
	ArcID      *string           `json:"arc_id"`
	ArcStage   *string           `json:"arc_stage"`
	Characters map[string]string `json:"characters"`
	Setting    string            `json:"setting"`
	Summary    string            `json:"summary"`
}

// NewSession returns an empty session stamped with now.
func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:         id,
		CreatedAt:  now,
		UpdatedAt:  now,
		Characters: make(map[string]string),
	}
}

// NextTurn builds the record that replaces s after an accepted story.
// Creation time and id carry over; everything else comes from the new turn.
func (s *Session) NextTurn(arcID string, gs GeneratedStory, summary string, now time.Time) *Session {
	stage := gs.Metadata.CurrentStage
	id := arcID
	characters := maps.Clone(gs.Metadata.Characters)
	if characters == nil {
		characters = make(map[string]string)
	}
	return &Session{
		ID:         s.ID,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  now,
		ArcID:      &id,
		ArcStage:   &stage,
		Characters: characters,
		Setting:    gs.Metadata.Setting,
		Summary:    summary,
	}
}

// ArcStageOrEmpty dereferences ArcStage.
func (s *Session) ArcStageOrEmpty() string {
	if s.ArcStage == nil {
		return ""
	}
	return *s.ArcStage
}
