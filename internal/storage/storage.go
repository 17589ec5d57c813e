package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jwebster45206/storyteller/pkg/story"
)

// SessionStore persists story sessions keyed by session id.
type SessionStore interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// LoadSessions returns every stored session with ID set.
	LoadSessions(ctx context.Context) (map[string]*story.Session, error)

	// LoadSession returns nil, nil when the session does not exist.
	LoadSession(ctx context.Context, id string) (*story.Session, error)

	// SaveSession replaces the whole record for s.ID.
	SaveSession(ctx context.Context, s *story.Session) error

	// ClearSessions removes every session. Clearing an empty store is not an error.
	ClearSessions(ctx context.Context) error
}

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// Options selects and configures a session store backend.
type Options struct {
	Backend      string
	SessionsFile string
	RedisURL     string
	SQLitePath   string
}

// Open creates the configured session store.
func Open(ctx context.Context, opts Options, logger *slog.Logger) (SessionStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch opts.Backend {
	case BackendFile, "":
		return NewFileStore(opts.SessionsFile, logger), nil
	case BackendRedis:
		r, err := NewRedisStore(opts.RedisURL, logger)
		if err != nil {
			return nil, err
		}
		if err := r.WaitForConnection(ctx); err != nil {
			_ = r.Close()
			return nil, err
		}
		return r, nil
	case BackendSQLite:
		return OpenSQLiteStore(opts.SQLitePath, logger)
	default:
		return nil, fmt.Errorf("unknown session store %q", opts.Backend)
	}
}

func validateSession(s *story.Session) error {
	if s == nil {
		return fmt.Errorf("session cannot be nil")
	}
	if s.ID == "" {
		return fmt.Errorf("session id cannot be empty")
	}
	return nil
}
