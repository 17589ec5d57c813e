package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/storyteller/pkg/story"
)

// SessionsKey is the Redis hash holding every session record, keyed by id.
const SessionsKey = "storyteller:sessions"

// RedisStore keeps sessions in a single Redis hash.
type RedisStore struct {
	client *redis.Client
	logger *slog.Logger

	maxRetries int
	retryDelay time.Duration
}

var _ SessionStore = (*RedisStore)(nil)

// NewRedisStore creates a Redis-backed session store. redisURL may be a
// redis:// URL or a bare host:port address.
func NewRedisStore(redisURL string, logger *slog.Logger) (*RedisStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if redisURL == "" {
		return nil, fmt.Errorf("redis url cannot be empty")
	}

	var opts *redis.Options
	if strings.Contains(redisURL, "://") {
		parsed, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: redisURL}
	}

	return &RedisStore{
		client:     redis.NewClient(opts),
		logger:     logger,
		maxRetries: 30,
		retryDelay: 2 * time.Second,
	}, nil
}

// Health and lifecycle methods

func (r *RedisStore) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available (used during startup)
func (r *RedisStore) WaitForConnection(ctx context.Context) error {
	for i := 0; i < r.maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(r.retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", r.maxRetries)
}

// Session operations

func (r *RedisStore) LoadSessions(ctx context.Context) (map[string]*story.Session, error) {
	records, err := r.client.HGetAll(ctx, SessionsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}

	out := make(map[string]*story.Session, len(records))
	for id, data := range records {
		s, err := decodeRecord(id, []byte(data))
		if err != nil {
			return nil, err
		}
		out[id] = s
	}
	return out, nil
}

func (r *RedisStore) LoadSession(ctx context.Context, id string) (*story.Session, error) {
	data, err := r.client.HGet(ctx, SessionsKey, id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		r.logger.Error("Failed to load session", "session_id", id, "error", err)
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return decodeRecord(id, []byte(data))
}

func (r *RedisStore) SaveSession(ctx context.Context, s *story.Session) error {
	if err := validateSession(s); err != nil {
		return err
	}
	data, err := encodeRecord(s)
	if err != nil {
		return err
	}
	if err := r.client.HSet(ctx, SessionsKey, s.ID, string(data)).Err(); err != nil {
		r.logger.Error("Failed to save session", "session_id", s.ID, "error", err)
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (r *RedisStore) ClearSessions(ctx context.Context) error {
	if err := r.client.Del(ctx, SessionsKey).Err(); err != nil {
		return fmt.Errorf("failed to clear sessions: %w", err)
	}
	r.logger.Info("Sessions cleared")
	return nil
}
