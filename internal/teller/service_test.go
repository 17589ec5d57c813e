package teller

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/storyteller/internal/continuity"
	"github.com/jwebster45206/storyteller/internal/guardrails"
	"github.com/jwebster45206/storyteller/internal/services"
	"github.com/jwebster45206/storyteller/internal/storage"
	"github.com/jwebster45206/storyteller/pkg/story"
)

var (
	created = time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	now     = time.Date(2026, 4, 2, 19, 30, 0, 0, time.UTC)
)

func testCatalog() *story.Catalog {
	mk := func(id, theme string) story.Arc {
		return story.Arc{
			ID:          id,
			Theme:       theme,
			Description: theme + " for little ones.",
			Stages:      []string{"Beginning", "Middle", "End"},
		}
	}
	return story.NewCatalog(
		mk("adventure", "Adventure"),
		mk("friendship", "Friendship"),
		mk("exploration", "Exploration"),
		mk("problem_solving", "Problem Solving"),
		mk("kindness", "Kindness"),
	)
}

func newTestService(t *testing.T, llm *services.MockLLMAPI, store storage.SessionStore, opts Options) *Service {
	t.Helper()
	return NewService(llm, store, testCatalog(), opts, nil).
		WithClock(func() time.Time { return now }).
		WithIDGenerator(func() string { return "fresh-id" })
}

func TestTell_NewStory(t *testing.T) {
	llm := services.NewMockLLMAPI(
		storyJSON("Sir Pip rode out to find the treasure.", "Middle", map[string]string{"Sir Pip": "a brave knight"}),
		passJSON,
		summaryJSON("Sir Pip set out on a quest for treasure."),
	)
	store := storage.NewMockStorage()

	out, err := newTestService(t, llm, store, DefaultOptions()).
		Tell(context.Background(), "Tell me about a brave knight on a quest for treasure", continuity.NewStoryChooser)
	require.NoError(t, err)

	assert.False(t, out.Continued)
	assert.Equal(t, "adventure", out.Arc.ID)
	assert.Equal(t, 1, out.Attempts)
	assert.True(t, out.Judgment.Accept)

	saved, err := store.LoadSession(context.Background(), "fresh-id")
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "adventure", *saved.ArcID)
	assert.Equal(t, "Middle", *saved.ArcStage)
	assert.Equal(t, map[string]string{"Sir Pip": "a brave knight"}, saved.Characters)
	assert.Equal(t, "a sunny meadow", saved.Setting)
	assert.Equal(t, "Sir Pip set out on a quest for treasure.", saved.Summary)
	assert.Equal(t, now, saved.CreatedAt)
	assert.Equal(t, now, saved.UpdatedAt)
	assert.Equal(t, saved, out.Session)

	calls := llm.GetCalls()
	require.Len(t, calls, 3)
	assert.Contains(t, calls[0].Prompt, "Arc theme: Adventure")
	assert.NotContains(t, calls[0].Prompt, "Judge Feedback")
	assert.Contains(t, calls[1].Prompt, "Sir Pip rode out to find the treasure.")
	assert.Contains(t, calls[2].Prompt, "Sir Pip rode out to find the treasure.")
}

func TestTell_Continuation(t *testing.T) {
	store := storage.NewMockStorage()
	kindness, stage := "kindness", "Beginning"
	require.NoError(t, store.SaveSession(context.Background(), &story.Session{
		ID:         "pip-story",
		CreatedAt:  created,
		UpdatedAt:  created,
		ArcID:      &kindness,
		ArcStage:   &stage,
		Characters: map[string]string{"Pip": "a small brave puppy"},
		Setting:    "a farm",
		Summary:    "Pip shared his bone.",
	}))

	llm := services.NewMockLLMAPI(
		storyJSON("Pip helped the duck home.", "Middle", nil),
		passJSON,
		summaryJSON("Pip helped a lost duck."),
	)
	chooser := continuity.ChooserFunc(func(_ context.Context, c []continuity.Candidate) (string, bool, error) {
		return c[0].SessionID, true, nil
	})

	// "brave knight" would pick adventure; the stored arc wins.
	out, err := newTestService(t, llm, store, DefaultOptions()).
		Tell(context.Background(), "Tell me what Pip the brave knight does next", chooser)
	require.NoError(t, err)

	assert.True(t, out.Continued)
	assert.Equal(t, "kindness", out.Arc.ID)
	assert.Equal(t, "pip-story", out.Session.ID)
	assert.Equal(t, created, out.Session.CreatedAt)
	assert.Equal(t, now, out.Session.UpdatedAt)
	assert.Equal(t, "Middle", *out.Session.ArcStage)

	prompt := llm.GetCalls()[0].Prompt
	assert.Contains(t, prompt, "Stage reached last time: Beginning")
	assert.Contains(t, prompt, "Pip shared his bone.")
	assert.Contains(t, prompt, "Setting: a farm")
}

func TestTell_RetryCarriesFeedback(t *testing.T) {
	llm := services.NewMockLLMAPI(
		storyJSON("A dark and stormy night.", "Beginning", nil),
		failJSON("age_inappropriate", "Make it less scary."),
		storyJSON("A sunny morning.", "Beginning", nil),
		passJSON,
		summaryJSON("A dog had a sunny morning."),
	)
	store := storage.NewMockStorage()

	out, err := newTestService(t, llm, store, DefaultOptions()).
		Tell(context.Background(), "a story about a dog", continuity.NewStoryChooser)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Attempts)
	assert.Equal(t, "exploration", out.Arc.ID)

	calls := llm.GetCalls()
	require.Len(t, calls, 5)
	assert.Contains(t, calls[2].Prompt, "Judge Feedback (use this to improve the story):\nMake it less scary.")
}

func TestTell_Exhausted(t *testing.T) {
	llm := services.NewMockLLMAPI()
	for i := 0; i < 4; i++ {
		llm.QueueResponses(storyJSON("story", "Beginning", nil), failJSON("arc_misalignment", "follow the arc"))
	}
	store := storage.NewMockStorage()

	out, err := newTestService(t, llm, store, DefaultOptions()).
		Tell(context.Background(), "a story about a cat", continuity.NewStoryChooser)
	assert.Nil(t, out)

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, "arc_misalignment", exhausted.Reason())
	assert.Len(t, llm.GetCalls(), 8)
	assert.Equal(t, 0, store.SaveCount())
}

func TestTell_SummaryFailureKeepsStory(t *testing.T) {
	llm := services.NewMockLLMAPI(
		storyJSON("Pip found the ball.", "End", nil),
		passJSON,
		`{"summary": "   "}`,
	)
	store := storage.NewMockStorage()

	out, err := newTestService(t, llm, store, DefaultOptions()).
		Tell(context.Background(), "a story about a dog and a ball", continuity.NewStoryChooser)

	var summaryErr *story.SummaryParseError
	require.ErrorAs(t, err, &summaryErr)
	require.NotNil(t, out)
	assert.Equal(t, "Pip found the ball.", out.Story.StoryText)
	assert.Equal(t, 0, store.SaveCount())
}

func TestTell_Guardrails(t *testing.T) {
	llm := services.NewMockLLMAPI()
	svc := newTestService(t, llm, storage.NewMockStorage(), DefaultOptions())

	_, err := svc.Tell(context.Background(), "hi", continuity.NewStoryChooser)
	assert.ErrorIs(t, err, guardrails.ErrNotStoryPrompt)
	assert.Empty(t, llm.GetCalls())
}

func TestTell_CallSettings(t *testing.T) {
	llm := services.NewMockLLMAPI(storyJSON("s", "Beginning", nil), passJSON, summaryJSON("s"))
	opts := DefaultOptions()
	opts.Story = CallSettings{MaxTokens: 2000, Temperature: 0.7}
	opts.Judge = CallSettings{MaxTokens: 400, Temperature: 0}
	opts.Summary = CallSettings{MaxTokens: 200, Temperature: 0.2}

	_, err := newTestService(t, llm, storage.NewMockStorage(), opts).
		Tell(context.Background(), "tell me a story", continuity.NewStoryChooser)
	require.NoError(t, err)

	calls := llm.GetCalls()
	require.Len(t, calls, 3)
	assert.Equal(t, 2000, calls[0].MaxTokens)
	assert.Equal(t, 0.7, calls[0].Temperature)
	assert.Equal(t, 400, calls[1].MaxTokens)
	assert.Equal(t, 200, calls[2].MaxTokens)
}

func TestTell_SoftensStoryText(t *testing.T) {
	llm := services.NewMockLLMAPI(storyJSON("Oh crap, said the crab.", "Beginning", nil), passJSON, summaryJSON("A crab spoke."))

	out, err := newTestService(t, llm, storage.NewMockStorage(), DefaultOptions()).
		Tell(context.Background(), "a story about a crab", continuity.NewStoryChooser)
	require.NoError(t, err)
	assert.Equal(t, "Oh crud, said the crab.", out.Story.StoryText)
}

func TestTell_StoreErrors(t *testing.T) {
	boom := errors.New("disk full")

	store := storage.NewMockStorage()
	store.SetLoadError(boom)
	_, err := newTestService(t, services.NewMockLLMAPI(), store, DefaultOptions()).
		Tell(context.Background(), "a story about a dog", continuity.NewStoryChooser)
	assert.ErrorIs(t, err, boom)

	store = storage.NewMockStorage()
	store.SetSaveError(boom)
	llm := services.NewMockLLMAPI(storyJSON("s", "Beginning", nil), passJSON, summaryJSON("s"))
	out, err := newTestService(t, llm, store, DefaultOptions()).
		Tell(context.Background(), "a story about a dog", continuity.NewStoryChooser)
	assert.ErrorIs(t, err, boom)
	assert.NotNil(t, out)
}

func TestListSessions(t *testing.T) {
	store := storage.NewMockStorage()
	ctx := context.Background()
	for i, id := range []string{"b", "a", "c"} {
		s := story.NewSession(id, created)
		s.UpdatedAt = created.Add(time.Duration(i%2) * time.Hour)
		require.NoError(t, store.SaveSession(ctx, s))
	}

	svc := newTestService(t, services.NewMockLLMAPI(), store, DefaultOptions())
	list, err := svc.ListSessions(ctx)
	require.NoError(t, err)

	ids := make([]string, 0, len(list))
	for _, s := range list {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)

	require.NoError(t, svc.ClearSessions(ctx))
	list, err = svc.ListSessions(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	assert.Equal(t, 5, len(svc.Arcs()))
	assert.True(t, strings.HasPrefix(svc.Arcs()[0].ID, "adv"))
}
