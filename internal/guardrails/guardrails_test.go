package guardrails

import (
	"errors"
	"testing"
)

func TestCheckStoryPrompt(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"plain request", "Tell me a story about a brave knight", nil},
		{"animal only", "a dog on the moon", nil},
		{"once upon", "Once upon a time a robot", nil},
		{"empty", "", ErrNotStoryPrompt},
		{"too short", "  cat ", ErrNotStoryPrompt},
		{"no indicator", "what is the weather today", ErrNotStoryPrompt},
		{"substring indicator", "my kids want something fun", nil},
		{"profanity", "tell me a damn story", ErrInappropriate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckStoryPrompt(tt.input)
			if !errors.Is(err, tt.want) {
				t.Errorf("CheckStoryPrompt(%q) = %v, want %v", tt.input, err, tt.want)
			}
		})
	}
}

func TestSoftenStory(t *testing.T) {
	got := SoftenStory("Pip said, \"Oh crap, the kite!\"")
	want := "Pip said, \"Oh crud, the kite!\""
	if got != want {
		t.Errorf("SoftenStory() = %q, want %q", got, want)
	}
}
