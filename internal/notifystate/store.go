package notifystate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"hbstatus/internal/fileutil"
	"hbstatus/internal/logging"
	"hbstatus/internal/signals"
)

// DeprecatedPrefix is prepended to the state file name when an outdated
// schema is archived.
const DeprecatedPrefix = "DEPRECATED_"

const (
	defaultLockTimeout    = 5 * time.Second
	defaultLockRetryDelay = 50 * time.Millisecond
)

// ErrLocked indicates another process held the state lock past the timeout.
var ErrLocked = errors.New("notification state is locked by another process")

// FileStore loads and saves State as a JSON file.
type FileStore struct {
	path        string
	logger      *slog.Logger
	lockTimeout time.Duration
}

// Option configures a FileStore.
type Option func(*FileStore)

// WithLockTimeout bounds how long Lock waits for a competing process.
func WithLockTimeout(timeout time.Duration) Option {
	return func(s *FileStore) {
		if timeout > 0 {
			s.lockTimeout = timeout
		}
	}
}

// NewFileStore creates a store backed by the file at path.
func NewFileStore(path string, logger *slog.Logger, opts ...Option) *FileStore {
	s := &FileStore{
		path:        path,
		logger:      logging.NewComponentLogger(logger, "notifystate"),
		lockTimeout: defaultLockTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the state file location.
func (s *FileStore) Path() string {
	return s.path
}

// DeprecatedPath returns where an outdated state file is archived.
func (s *FileStore) DeprecatedPath() string {
	return filepath.Join(filepath.Dir(s.path), DeprecatedPrefix+filepath.Base(s.path))
}

func (s *FileStore) lockPath() string {
	return s.path + ".lock"
}

// Lock takes the advisory lock guarding the load, decide, save window.
// The returned function releases it.
func (s *FileStore) Lock(ctx context.Context) (func() error, error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}

	lock := flock.New(s.lockPath())
	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()

	locked, err := lock.TryLockContext(lockCtx, defaultLockRetryDelay)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrLocked
		}
		return nil, fmt.Errorf("acquire state lock: %w", err)
	}
	if !locked {
		return nil, ErrLocked
	}
	return lock.Unlock, nil
}

// Load returns the persisted state, creating, repairing, or migrating the
// file as needed. A missing or corrupt file yields Initial().
func (s *FileStore) Load() (State, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Info("no notification state found, starting fresh",
				logging.String(logging.FieldEventType, "state_created"),
				logging.String("path", s.path))
			return s.persistInitial()
		}
		return State{}, fmt.Errorf("read state file: %w", err)
	}

	doc, version, err := decodeDocument(raw)
	if err != nil {
		s.logger.Info("notification state unreadable, resetting",
			logging.String(logging.FieldEventType, "state_corrupt"),
			logging.String("path", s.path),
			logging.Error(err))
		if rmErr := os.Remove(s.path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			return State{}, fmt.Errorf("remove corrupt state file: %w", rmErr)
		}
		return s.persistInitial()
	}

	state := s.merge(doc)
	if version == nil || *version < CurrentVersion {
		return s.migrate(raw, state, version)
	}

	state.JSONVersion = *version
	return state, nil
}

// Save writes the whole state atomically.
func (s *FileStore) Save(state State) error {
	state = state.normalized()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	data = append(data, '\n')
	if err := fileutil.WriteFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	return nil
}

// Reset overwrites the file with Initial().
func (s *FileStore) Reset() (State, error) {
	state := Initial()
	if err := s.Save(state); err != nil {
		return State{}, err
	}
	s.logger.Info("notification state reset",
		logging.String(logging.FieldEventType, "state_reset"),
		logging.String("path", s.path))
	return state, nil
}

func (s *FileStore) persistInitial() (State, error) {
	state := Initial()
	if err := s.Save(state); err != nil {
		return State{}, err
	}
	return state, nil
}

func (s *FileStore) migrate(raw []byte, state State, from *int) (State, error) {
	archive := s.DeprecatedPath()
	if err := fileutil.CopyFile(s.path, archive); err != nil {
		// The original bytes are already in memory; fall back to writing them.
		if writeErr := fileutil.WriteFileAtomic(archive, raw, 0o644); writeErr != nil {
			return State{}, fmt.Errorf("archive outdated state: %w", errors.Join(err, writeErr))
		}
	}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return State{}, fmt.Errorf("remove outdated state file: %w", err)
	}

	state.JSONVersion = CurrentVersion
	if err := s.Save(state); err != nil {
		return State{}, err
	}

	fromLabel := "missing"
	if from != nil {
		fromLabel = fmt.Sprintf("%d", *from)
	}
	s.logger.Info("notification state schema outdated, migrated",
		logging.String(logging.FieldEventType, "state_migrated"),
		logging.String("from_version", fromLabel),
		logging.Int("to_version", CurrentVersion),
		logging.String("archive", archive))
	return state, nil
}

// merge overlays every entry that decodes onto Initial(). A present entry
// replaces the default wholesale; one that fails to decode keeps the default.
func (s *FileStore) merge(doc map[string]json.RawMessage) State {
	state := Initial()
	for _, kind := range signals.Kinds() {
		payload, ok := doc[kind.Key()]
		if !ok {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(payload, &entry); err != nil {
			logging.WarnWithContext(s.logger, "ignoring unreadable state entry", "state_entry_invalid",
				logging.String(logging.FieldSignal, kind.Key()),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "run 'hbstatus state reset' if this persists"),
				logging.String(logging.FieldImpact, "signal treated as previously good"))
			continue
		}
		state = state.WithEntry(kind, entry)
	}
	return state
}

func decodeDocument(raw []byte) (map[string]json.RawMessage, *int, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil, errors.New("state file is empty")
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, nil, fmt.Errorf("decode state: %w", err)
	}
	if doc == nil {
		return nil, nil, errors.New("state document is null")
	}
	return doc, decodeVersion(doc["jsonVersion"]), nil
}

// decodeVersion reads jsonVersion as a number so hand-edited values such as
// 1.0 compare like 1. Fractions are truncated; non-numbers read as missing.
func decodeVersion(payload json.RawMessage) *int {
	if len(payload) == 0 {
		return nil
	}
	var f float64
	if err := json.Unmarshal(payload, &f); err != nil {
		return nil
	}
	v := int(f)
	return &v
}
