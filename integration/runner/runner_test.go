package runner

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/storyteller/internal/handlers"
	"github.com/jwebster45206/storyteller/internal/services"
	"github.com/jwebster45206/storyteller/internal/storage"
	"github.com/jwebster45206/storyteller/internal/teller"
	"github.com/jwebster45206/storyteller/pkg/story"
)

func storyReply(text, stage string) string {
	b, _ := json.Marshal(map[string]any{
		"story_text": text,
		"metadata": map[string]any{
			"characters":    map[string]string{"Pip": "a small brave puppy"},
			"setting":       "a sunny meadow",
			"summary":       "Pip looked for a ball.",
			"current_stage": stage,
		},
	})
	return string(b)
}

const (
	passReply = `{"scores": {"age_appropriateness": 5, "arc_alignment": 5, "creativity": 4}, "overall_pass": true, "failure_reason": null, "feedback": ""}`
	failReply = `{"scores": {"age_appropriateness": 4, "arc_alignment": 1, "creativity": 4}, "overall_pass": false, "failure_reason": "arc_misalignment", "feedback": "stay on theme"}`
	sumReply  = `{"summary": "Pip the puppy looked for his ball."}`
)

func newTestAPI(t *testing.T, llm *services.MockLLMAPI) string {
	t.Helper()
	mk := func(id string) story.Arc {
		return story.Arc{ID: id, Theme: id, Description: id, Stages: []string{"Beginning", "Middle", "End"}}
	}
	catalog := story.NewCatalog(mk("adventure"), mk("friendship"), mk("exploration"), mk("problem_solving"), mk("kindness"))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := teller.NewService(llm, storage.NewMockStorage(), catalog, teller.DefaultOptions(), logger)

	srv := httptest.NewServer(handlers.NewRouter(svc, logger))
	t.Cleanup(srv.Close)
	return srv.URL
}

func ptr[T any](v T) *T { return &v }

func TestRunSuite_NewThenContinue(t *testing.T) {
	llm := services.NewMockLLMAPI(
		storyReply("Pip the puppy ran into the meadow to look for his ball.", "Beginning"), passReply, sumReply,
		storyReply("Pip found the ball by the old oak tree.", "Middle"), passReply, sumReply,
	)
	baseURL := newTestAPI(t, llm)
	require.NoError(t, CheckHealth(context.Background(), NewRunner(baseURL).Client, baseURL))

	suite := TestSuite{
		Name: "continue a puppy story",
		Steps: []TestStep{
			{Name: "clear", UserPrompt: ClearSessionsPrompt},
			{
				Name:       "new story",
				UserPrompt: "Tell me a story about a puppy named Pip",
				Expectations: Expectations{
					Continued:        ptr(false),
					ArcStageIn:       []string{"Beginning", "Middle"},
					Characters:       []string{"Pip"},
					ResponseContains: []string{"meadow"},
				},
			},
			{
				Name:             "continue",
				UserPrompt:       "Tell me what Pip does next",
				ContinuePrevious: true,
				Expectations: Expectations{
					Continued:         ptr(true),
					SameSession:       true,
					ResponseRegex:     `oak tree`,
					ResponseMinLength: ptr(10),
					MaxAttempts:       ptr(1),
				},
			},
		},
	}

	r := NewRunner(baseURL)
	r.ErrorHandlingMode = ErrorHandlingExit
	result, err := r.RunSuite(context.Background(), suite)
	require.NoError(t, err)
	require.Len(t, result.Results, 3)
	assert.True(t, result.Results[0].IsReset)
	assert.Equal(t, result.Results[1].SessionID, result.Results[2].SessionID)
}

func TestRunSuite_Exhausted(t *testing.T) {
	llm := services.NewMockLLMAPI()
	for i := 0; i < teller.DefaultMaxAttempts; i++ {
		llm.QueueResponses(storyReply("Pip ate a sandwich.", "Beginning"), failReply)
	}
	baseURL := newTestAPI(t, llm)

	suite := TestSuite{
		Name: "judge never accepts",
		Steps: []TestStep{{
			Name:       "exhausted",
			UserPrompt: "Tell me a story about a dragon",
			Expectations: Expectations{
				Status:           ptr(422),
				FailureReason:    ptr("arc_misalignment"),
				ResponseContains: []string{"couldn't generate a satisfactory story"},
			},
		}},
	}

	result, err := NewRunner(baseURL).RunSuite(context.Background(), suite)
	require.NoError(t, err)
	assert.Equal(t, teller.DefaultMaxAttempts, result.Results[0].Attempts)
}

func TestRunSuite_ExpectationFailures(t *testing.T) {
	llm := services.NewMockLLMAPI(storyReply("Pip rolled in the grass.", "Beginning"), passReply, sumReply)
	baseURL := newTestAPI(t, llm)

	suite := TestSuite{
		Name: "wrong expectations",
		Steps: []TestStep{
			{Name: "orphan continue", UserPrompt: "Tell me more", ContinuePrevious: true},
			{
				Name:       "wrong arc",
				UserPrompt: "Tell me a story about a puppy",
				Expectations: Expectations{
					ArcID: ptr("kindness"),
				},
			},
		},
	}

	result, err := NewRunner(baseURL).RunSuite(context.Background(), suite)
	require.Error(t, err)
	require.Len(t, result.Results, 2, "continue mode runs every step")
	assert.ErrorContains(t, result.Results[0].Error, "no earlier step produced a session")
	assert.ErrorContains(t, result.Results[1].Error, "expected arc kindness, got exploration")
}

func TestCheckResponseText(t *testing.T) {
	tests := []struct {
		name    string
		exp     Expectations
		text    string
		wantErr bool
	}{
		{"contains is case insensitive", Expectations{ResponseContains: []string{"PIP"}}, "pip ran", false},
		{"missing", Expectations{ResponseContains: []string{"cat"}}, "pip ran", true},
		{"not contains", Expectations{ResponseNotContains: []string{"ran"}}, "pip ran", true},
		{"regex", Expectations{ResponseRegex: `^pip`}, "pip ran", false},
		{"bad regex", Expectations{ResponseRegex: `(`}, "pip ran", true},
		{"too short", Expectations{ResponseMinLength: ptr(100)}, "pip ran", true},
		{"too long", Expectations{ResponseMaxLength: ptr(3)}, "pip ran", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkResponseText(tt.exp, tt.text)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadTestSuiteWithExpansion(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	write("a.json", `{"name": "a", "steps": [{"user_prompt": "Tell me a story about a cat", "expect": {"continued": false}}]}`)
	write("b.yaml", "name: b\nsteps:\n  - name: clear\n    user_prompt: CLEAR_SESSIONS\n  - user_prompt: a story about a dog\n    expect:\n      status: 200\n      arc_stage_in: [Beginning]\n")
	write("all.json", `{"name": "all", "cases": ["a.json", "b.yaml"]}`)

	jobs, err := LoadTestSuiteWithExpansion(filepath.Join(dir, "all.json"), dir)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "a", jobs[0].Name)
	assert.False(t, *jobs[0].Suite.Steps[0].Expectations.Continued)
	assert.Equal(t, "b", jobs[1].Name)
	require.Len(t, jobs[1].Suite.Steps, 2)
	assert.Equal(t, ClearSessionsPrompt, jobs[1].Suite.Steps[0].UserPrompt)
	assert.Equal(t, 200, *jobs[1].Suite.Steps[1].Expectations.Status)
	assert.Equal(t, []string{"Beginning"}, jobs[1].Suite.Steps[1].Expectations.ArcStageIn)

	write("broken.json", `{"name": "broken", "cases": ["missing.json"]}`)
	_, err = LoadTestSuiteWithExpansion(filepath.Join(dir, "broken.json"), dir)
	assert.Error(t, err)
}
