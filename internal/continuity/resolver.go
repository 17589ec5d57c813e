package continuity

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/jwebster45206/storyteller/pkg/story"
)

// SessionLoader is the part of the session store the resolver reads.
type SessionLoader interface {
	LoadSessions(ctx context.Context) (map[string]*story.Session, error)
}

// Candidate is a stored session whose characters were named in the request.
type Candidate struct {
	SessionID  string    `json:"session_id"`
	Summary    string    `json:"summary"`
	Characters []string  `json:"characters"`
	Matched    []string  `json:"matched"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Chooser asks the user which candidate to continue. ok is false when the
// user wants a new story instead.
type Chooser interface {
	Choose(ctx context.Context, candidates []Candidate) (sessionID string, ok bool, err error)
}

// ChooserFunc adapts a function to Chooser.
type ChooserFunc func(ctx context.Context, candidates []Candidate) (string, bool, error)

func (f ChooserFunc) Choose(ctx context.Context, candidates []Candidate) (string, bool, error) {
	return f(ctx, candidates)
}

// NewStoryChooser always starts a new story.
var NewStoryChooser = ChooserFunc(func(context.Context, []Candidate) (string, bool, error) {
	return "", false, nil
})

// Resolver decides whether a request continues a stored story.
type Resolver struct {
	store  SessionLoader
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

// NewResolver creates a resolver over store.
func NewResolver(store SessionLoader, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		store:  store,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// WithClock replaces the time source used for new sessions.
func (r *Resolver) WithClock(now func() time.Time) *Resolver {
	r.now = now
	return r
}

// WithIDGenerator replaces the id source used for new sessions.
func (r *Resolver) WithIDGenerator(newID func() string) *Resolver {
	r.newID = newID
	return r
}

// Resolve returns the session the request belongs to. When stored sessions
// name a character from the input, chooser picks one of them or opts for a
// new story. The returned bool reports whether the session is a continuation.
func (r *Resolver) Resolve(ctx context.Context, userInput string, chooser Chooser) (*story.Session, bool, error) {
	sessions, err := r.store.LoadSessions(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load sessions: %w", err)
	}

	candidates := Candidates(sessions, userInput)
	if len(candidates) > 0 && chooser != nil {
		r.logger.Debug("Continuity candidates found", "count", len(candidates))

		id, ok, err := chooser.Choose(ctx, candidates)
		if err != nil {
			return nil, false, fmt.Errorf("failed to choose session: %w", err)
		}
		if ok {
			if !slices.ContainsFunc(candidates, func(c Candidate) bool { return c.SessionID == id }) {
				return nil, false, fmt.Errorf("chosen session %q is not a candidate", id)
			}
			session := sessions[id]
			session.ID = id
			r.logger.Info("Continuing story", "session_id", id)
			return session, true, nil
		}
	}

	session := story.NewSession(r.newID(), r.now())
	r.logger.Info("Starting new story", "session_id", session.ID)
	return session, false, nil
}

// BuildIndex maps each lowercased character name to the ids of the sessions
// that contain it.
func BuildIndex(sessions map[string]*story.Session) map[string]map[string]struct{} {
	index := make(map[string]map[string]struct{})
	for id, s := range sessions {
		if s == nil {
			continue
		}
		for name := range s.Characters {
			key := strings.ToLower(strings.TrimSpace(name))
			if key == "" {
				continue
			}
			if index[key] == nil {
				index[key] = make(map[string]struct{})
			}
			index[key][id] = struct{}{}
		}
	}
	return index
}

// MentionsName reports whether name appears in text as a whole word.
// Both arguments are expected lowercased. Word edges follow \b but count
// every Unicode letter and digit as a word character, so "zoë" does not
// match inside "zoëlla".
func MentionsName(text, name string) bool {
	if name == "" {
		return false
	}
	for start := 0; start < len(text); {
		idx := strings.Index(text[start:], name)
		if idx < 0 {
			return false
		}
		i := start + idx
		if isWordBoundary(text, i) && isWordBoundary(text, i+len(name)) {
			return true
		}
		_, size := utf8.DecodeRuneInString(text[i:])
		start = i + size
	}
	return false
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// isWordBoundary reports whether byte offset i sits between a word rune and
// a non-word rune (or the ends of text).
func isWordBoundary(text string, i int) bool {
	before, after := false, false
	if i > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:i])
		before = isWordRune(r)
	}
	if i < len(text) {
		r, _ := utf8.DecodeRuneInString(text[i:])
		after = isWordRune(r)
	}
	return before != after
}

// FindCandidateIDs returns the ids of sessions whose indexed character names
// occur as whole words in the input, along with the names that matched.
func FindCandidateIDs(userInput string, index map[string]map[string]struct{}) map[string][]string {
	text := strings.ToLower(userInput)
	matched := make(map[string][]string)
	for name, ids := range index {
		if !MentionsName(text, name) {
			continue
		}
		for id := range ids {
			matched[id] = append(matched[id], name)
		}
	}
	for id := range matched {
		sort.Strings(matched[id])
	}
	return matched
}

// Candidates lists the sessions that match the input, most recently updated
// first and then by id.
func Candidates(sessions map[string]*story.Session, userInput string) []Candidate {
	matched := FindCandidateIDs(userInput, BuildIndex(sessions))
	out := make([]Candidate, 0, len(matched))
	for id, names := range matched {
		s := sessions[id]
		characters := slices.Sorted(maps.Keys(s.Characters))
		out = append(out, Candidate{
			SessionID:  id,
			Summary:    s.Summary,
			Characters: characters,
			Matched:    names,
			UpdatedAt:  s.UpdatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].SessionID < out[j].SessionID
	})
	return out
}
