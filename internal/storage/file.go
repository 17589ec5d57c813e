package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jwebster45206/storyteller/pkg/story"
)

// DefaultSessionsFile is used when no path is configured.
const DefaultSessionsFile = "./data/sessions.json"

// FileStore keeps every session in one JSON document:
//
//	{"sessions": {"<id>": {...record...}}}
//
// Each write reads the whole document, changes it and writes it back. There
// is no locking; one process owns the file.
type FileStore struct {
	path   string
	logger *slog.Logger
}

var _ SessionStore = (*FileStore)(nil)

type sessionsDocument struct {
	Sessions map[string]json.RawMessage `json:"sessions"`
}

// NewFileStore creates a file-backed session store at path.
func NewFileStore(path string, logger *slog.Logger) *FileStore {
	if path == "" {
		path = DefaultSessionsFile
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{path: path, logger: logger}
}

// Path returns the sessions file location.
func (f *FileStore) Path() string {
	return f.path
}

// Ping checks that the sessions directory is usable.
func (f *FileStore) Ping(ctx context.Context) error {
	dir := filepath.Dir(f.path)
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil // created on first write
		}
		return fmt.Errorf("sessions directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("sessions directory %s is not a directory", dir)
	}
	return nil
}

func (f *FileStore) Close() error {
	return nil
}

func (f *FileStore) read() (sessionsDocument, error) {
	doc := sessionsDocument{Sessions: make(map[string]json.RawMessage)}

	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return doc, nil
		}
		return doc, fmt.Errorf("failed to read sessions file: %w", err)
	}

	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("failed to parse sessions file %s: %w", f.path, err)
	}
	if doc.Sessions == nil {
		doc.Sessions = make(map[string]json.RawMessage)
	}
	return doc, nil
}

// write replaces the sessions file atomically via a temp file and rename.
func (f *FileStore) write(doc sessionsDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal sessions: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create sessions directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".sessions-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write sessions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("failed to replace sessions file: %w", err)
	}
	return nil
}

func (f *FileStore) LoadSessions(ctx context.Context) (map[string]*story.Session, error) {
	doc, err := f.read()
	if err != nil {
		return nil, err
	}

	out := make(map[string]*story.Session, len(doc.Sessions))
	for id, raw := range doc.Sessions {
		s, err := decodeRecord(id, raw)
		if err != nil {
			return nil, err
		}
		out[id] = s
	}
	return out, nil
}

func (f *FileStore) LoadSession(ctx context.Context, id string) (*story.Session, error) {
	doc, err := f.read()
	if err != nil {
		return nil, err
	}
	raw, ok := doc.Sessions[id]
	if !ok {
		return nil, nil
	}
	return decodeRecord(id, raw)
}

func (f *FileStore) SaveSession(ctx context.Context, s *story.Session) error {
	if err := validateSession(s); err != nil {
		return err
	}

	doc, err := f.read()
	if err != nil {
		return err
	}

	record, err := encodeRecord(s)
	if err != nil {
		return err
	}
	doc.Sessions[s.ID] = record

	if err := f.write(doc); err != nil {
		f.logger.Error("Failed to save session", "session_id", s.ID, "error", err)
		return err
	}
	f.logger.Debug("Session saved", "session_id", s.ID, "path", f.path)
	return nil
}

func (f *FileStore) ClearSessions(ctx context.Context) error {
	if err := f.write(sessionsDocument{Sessions: map[string]json.RawMessage{}}); err != nil {
		return err
	}
	f.logger.Info("Sessions cleared", "path", f.path)
	return nil
}
