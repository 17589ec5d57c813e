package story

import (
	"strings"
)

// Metadata is the structured state the storyteller returns next to the story.
type Metadata struct {
	Characters   map[string]string `json:"characters"`
	Setting      string            `json:"setting"`
	Summary      string            `json:"summary"`
	CurrentStage string            `json:"current_stage"`
}

// GeneratedStory is one generation attempt. A later attempt replaces an
// earlier one wholesale; attempts are never merged.
type GeneratedStory struct {
	StoryText string   `json:"story_text"`
	Metadata  Metadata `json:"metadata"`
}

// ParseGeneratedStory validates the storyteller's raw reply. Every failure is
// a *GenerationError wrapping a field-level error.
func ParseGeneratedStory(raw string) (GeneratedStory, error) {
	gs, err := parseGeneratedStory(raw)
	if err != nil {
		return GeneratedStory{}, &GenerationError{Err: err}
	}
	return gs, nil
}

func parseGeneratedStory(raw string) (GeneratedStory, error) {
	top, err := decodeObject(extractJSON(raw), "")
	if err != nil {
		return GeneratedStory{}, err
	}

	text, err := top.requireString("story_text")
	if err != nil {
		return GeneratedStory{}, err
	}
	meta, err := top.requireObject("metadata")
	if err != nil {
		return GeneratedStory{}, err
	}

	characters, err := meta.requireStringMap("characters")
	if err != nil {
		return GeneratedStory{}, err
	}
	setting, err := meta.requireString("setting")
	if err != nil {
		return GeneratedStory{}, err
	}
	summary, err := meta.requireString("summary")
	if err != nil {
		return GeneratedStory{}, err
	}
	stage, err := meta.requireString("current_stage")
	if err != nil {
		return GeneratedStory{}, err
	}

	return GeneratedStory{
		StoryText: text,
		Metadata: Metadata{
			Characters:   characters,
			Setting:      setting,
			Summary:      summary,
			CurrentStage: stage,
		},
	}, nil
}

// ParseSummary extracts the non-empty "summary" string from the summarizer's reply.
func ParseSummary(raw string) (string, error) {
	top, err := decodeObject(extractJSON(raw), "")
	if err != nil {
		return "", &SummaryParseError{Err: err}
	}
	s, err := top.requireString("summary")
	if err != nil {
		return "", &SummaryParseError{Err: err}
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", &SummaryParseError{Err: &InvalidValueError{Field: "summary", Reason: "cannot be empty"}}
	}
	return s, nil
}
