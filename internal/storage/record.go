package storage

import (
	"encoding/json"
	"fmt"

	"github.com/jwebster45206/storyteller/pkg/story"
)

// decodeRecord unmarshals a stored session record and stamps it with id.
func decodeRecord(id string, data []byte) (*story.Session, error) {
	var s story.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session %s: %w", id, err)
	}
	s.ID = id
	if s.Characters == nil {
		s.Characters = make(map[string]string)
	}
	return &s, nil
}

func encodeRecord(s *story.Session) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session %s: %w", s.ID, err)
	}
	return data, nil
}
