package prompts

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/jwebster45206/storyteller/pkg/story"
)

// Template file names. A directory passed to Load may hold any subset of
// them; missing files fall back to the embedded copies.
const (
	StoryNewFile      = "story_new.tmpl"
	StoryContinueFile = "story_continue.tmpl"
	JudgeFile         = "judge.tmpl"
	SummarizeFile     = "summarize.tmpl"
)

//go:embed templates/*.tmpl
var embedded embed.FS

// FeedbackHeader introduces judge feedback in the storyteller prompt.
const FeedbackHeader = "Judge Feedback (use this to improve the story):"

// Set holds the parsed prompt templates.
type Set struct {
	storyNew      *template.Template
	storyContinue *template.Template
	judge         *template.Template
	summarize     *template.Template
}

// Load parses the prompt templates, preferring files in dir when dir is set.
func Load(dir string) (*Set, error) {
	var s Set
	targets := []struct {
		name string
		dst  **template.Template
	}{
		{StoryNewFile, &s.storyNew},
		{StoryContinueFile, &s.storyContinue},
		{JudgeFile, &s.judge},
		{SummarizeFile, &s.summarize},
	}
	for _, t := range targets {
		text, err := readTemplate(dir, t.name)
		if err != nil {
			return nil, err
		}
		tmpl, err := template.New(t.name).Option("missingkey=error").Parse(text)
		if err != nil {
			return nil, fmt.Errorf("failed to parse prompt %s: %w", t.name, err)
		}
		*t.dst = tmpl
	}
	return &s, nil
}

// Default returns the embedded templates. It panics only if the embedded
// files are broken, which the package tests rule out.
func Default() *Set {
	s, err := Load("")
	if err != nil {
		panic(err)
	}
	return s
}

func readTemplate(dir, name string) (string, error) {
	if dir != "" {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err == nil {
			return string(data), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("failed to read prompt %s: %w", name, err)
		}
	}
	data, err := embedded.ReadFile("templates/" + name)
	if err != nil {
		return "", fmt.Errorf("failed to read embedded prompt %s: %w", name, err)
	}
	return string(data), nil
}

// storyData carries the placeholders shared by both storyteller templates.
// The continuation-only fields are empty for new stories.
type storyData struct {
	ArcTheme        string
	ArcDescription  string
	ArcStages       string
	UserInput       string
	FeedbackSection string
	Characters      string
	Setting         string
	Summary         string
	ArcStage        string
}

type judgeData struct {
	ArcTheme              string
	ArcDescription        string
	ArcStage              string
	StoryText             string
	AllowedFailureReasons string
}

type summaryData struct {
	StoryText string
}

// FeedbackSection renders judge feedback for the storyteller, or "" when
// there is none.
func FeedbackSection(feedback string) string {
	if feedback == "" {
		return ""
	}
	return FeedbackHeader + "\n" + feedback + "\n"
}

// FormatCharacters renders the character map as indented JSON.
func FormatCharacters(characters map[string]string) (string, error) {
	if characters == nil {
		characters = map[string]string{}
	}
	data, err := json.MarshalIndent(characters, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Story renders the storyteller prompt for gc.
func (s *Set) Story(gc story.GenerationContext) (string, error) {
	return NewBuilder(s).FromContext(gc).Build()
}

// Judge renders the judge prompt. The stage is the one the storyteller claims.
func (s *Set) Judge(gs story.GeneratedStory, arc story.Arc) (string, error) {
	return render(s.judge, judgeData{
		ArcTheme:              arc.Theme,
		ArcDescription:        arc.Description,
		ArcStage:              gs.Metadata.CurrentStage,
		StoryText:             gs.StoryText,
		AllowedFailureReasons: strings.Join(story.AllowedFailureReasons(), ", "),
	})
}

// Summary renders the summarizer prompt.
func (s *Set) Summary(storyText string) (string, error) {
	return render(s.summarize, summaryData{StoryText: storyText})
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render prompt %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}
