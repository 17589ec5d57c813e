package prompts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jwebster45206/storyteller/pkg/story"
)

func TestDefault_ParsesEmbedded(t *testing.T) {
	s := Default()
	if s.storyNew == nil || s.storyContinue == nil || s.judge == nil || s.summarize == nil {
		t.Fatal("Default() left a template unset")
	}
}

func TestFeedbackSection(t *testing.T) {
	if got := FeedbackSection(""); got != "" {
		t.Errorf("FeedbackSection(\"\") = %q, want empty", got)
	}
	want := "Judge Feedback (use this to improve the story):\nless thunder\n"
	if got := FeedbackSection("less thunder"); got != want {
		t.Errorf("FeedbackSection() = %q, want %q", got, want)
	}
}

func TestFormatCharacters(t *testing.T) {
	tests := []struct {
		name  string
		input map[string]string
		want  string
	}{
		{"nil", nil, "{}"},
		{"empty", map[string]string{}, "{}"},
		{"sorted keys", map[string]string{"Zed": "z", "Ann": "a"}, "{\n  \"Ann\": \"a\",\n  \"Zed\": \"z\"\n}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatCharacters(tt.input)
			if err != nil {
				t.Fatalf("FormatCharacters() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("FormatCharacters() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSet_Judge(t *testing.T) {
	gs := story.GeneratedStory{
		StoryText: "Pip and Mo shared their berries.",
		Metadata:  story.Metadata{CurrentStage: "Help"},
	}
	arc := story.Arc{Theme: "Kindness", Description: "Small kind acts."}

	prompt, err := Default().Judge(gs, arc)
	if err != nil {
		t.Fatalf("Judge() error = %v", err)
	}
	for _, want := range []string{
		"Arc theme: Kindness",
		"Arc description: Small kind acts.",
		"Stage the story claims to have reached: Help",
		"Pip and Mo shared their berries.",
		"age_inappropriate, arc_misalignment, low_creativity, unclear_prompt",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("judge prompt missing %q", want)
		}
	}
}

func TestSet_Summary(t *testing.T) {
	prompt, err := Default().Summary("Pip found a map.")
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if !strings.Contains(prompt, "Pip found a map.") {
		t.Error("summary prompt missing story text")
	}
}

func TestSet_Story_UsesMode(t *testing.T) {
	arc := story.Arc{Theme: "Adventure", Description: "d", Stages: []string{"Call"}}
	session := &story.Session{ID: "s"}

	newPrompt, err := Default().Story(story.BuildContext(session, arc, "a dog story", false))
	if err != nil {
		t.Fatalf("Story() error = %v", err)
	}
	contPrompt, err := Default().Story(story.BuildContext(session, arc, "a dog story", true))
	if err != nil {
		t.Fatalf("Story() error = %v", err)
	}
	if strings.Contains(newPrompt, "Stage reached last time") {
		t.Error("new story prompt used continuation template")
	}
	if !strings.Contains(contPrompt, "Stage reached last time") {
		t.Error("continuation prompt used new story template")
	}
}

func TestLoad_Override(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, SummarizeFile), []byte("SUMMARIZE: {{.StoryText}}"), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	got, err := s.Summary("hello")
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if got != "SUMMARIZE: hello" {
		t.Errorf("Summary() = %q", got)
	}

	// Files not present in the directory come from the embedded set.
	judge, err := s.Judge(story.GeneratedStory{StoryText: "x"}, story.Arc{Theme: "T"})
	if err != nil {
		t.Fatalf("Judge() error = %v", err)
	}
	if !strings.Contains(judge, "Arc theme: T") {
		t.Error("embedded judge template not used")
	}
}

func TestLoad_BadTemplate(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, JudgeFile), []byte("{{.Broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoad_UnknownPlaceholder(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, SummarizeFile), []byte("{{.Nope}}"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if _, err := s.Summary("x"); err == nil {
		t.Error("expected render error for unknown field")
	}
}
