// Package cache persists decoded resource collections as JSON files, one
// per resource key. Writes replace files atomically and are best-effort:
// a failed write is logged, never returned.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/ganot/sitesync/internal/repository"
	"github.com/ganot/sitesync/internal/resource"
	"github.com/tidwall/gjson"
)

// envelope is the on-disk form of an entry.
type envelope struct {
	StoredAt time.Time       `json:"stored_at"`
	Payload  json.RawMessage `json:"payload"`
}

// EntryInfo describes one cached entry.
type EntryInfo struct {
	Key      resource.Key
	StoredAt time.Time
	Size     int64
}

// Store is a directory of cache entries.
type Store struct {
	dir       string
	legacyDir string
	flags     repository.PreferenceRepository
	logger    *slog.Logger
	now       func() time.Time

	mu    sync.Mutex
	locks map[resource.Key]*sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithLegacyDir enables MigrateLegacy from dir, guarded by a flag in flags.
func WithLegacyDir(dir string, flags repository.PreferenceRepository) Option {
	return func(s *Store) {
		s.legacyDir = dir
		s.flags = flags
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New opens (creating if needed) a store rooted at dir.
func New(dir string, opts ...Option) (*Store, error) {
	s := &Store{
		dir:    dir,
		logger: slog.New(slog.DiscardHandler),
		now:    time.Now,
		locks:  make(map[resource.Key]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}
	return s, nil
}

// Dir returns the directory entries are stored in.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) path(key resource.Key) string {
	return filepath.Join(s.dir, key.FileName())
}

func (s *Store) lock(key resource.Key) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	return l
}

// Write stores payload under key and returns the entry's storedAt. The new
// storedAt is always later than the one it replaces. Nothing is written if
// ctx is already done.
func (s *Store) Write(ctx context.Context, key resource.Key, payload any) (time.Time, bool) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Warn("cache encode failed", "key", key.String(), "error", err)
		return time.Time{}, false
	}

	l := s.lock(key)
	l.Lock()
	defer l.Unlock()

	if ctx.Err() != nil {
		return time.Time{}, false
	}

	storedAt := s.now().UTC()
	if prev, ok := s.LastModified(key); ok && !storedAt.After(prev) {
		storedAt = prev.Add(time.Nanosecond)
	}

	if err := s.writeEnvelope(s.path(key), envelope{StoredAt: storedAt, Payload: data}); err != nil {
		s.logger.Warn("cache write failed", "key", key.String(), "error", err)
		return time.Time{}, false
	}
	s.logger.Debug("cache write", "key", key.String(), "bytes", len(data))
	return storedAt, true
}

// writeEnvelope writes to a temp file in the same directory and renames
// it into place so readers never see a partial file.
func (s *Store) writeEnvelope(path string, env envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encoding envelope: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// Read decodes the entry for key into out. A missing file, corrupt JSON,
// and a payload that doesn't fit out all report false.
func (s *Store) Read(key resource.Key, out any) (time.Time, bool) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("cache read failed", "key", key.String(), "error", err)
		}
		return time.Time{}, false
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil || len(env.Payload) == 0 {
		s.logger.Debug("cache entry unreadable", "key", key.String(), "error", err)
		return time.Time{}, false
	}
	if err := json.Unmarshal(env.Payload, out); err != nil {
		s.logger.Debug("cache entry does not decode", "key", key.String(), "error", err)
		return time.Time{}, false
	}
	return env.StoredAt, true
}

// Exists reports whether an entry file is present, without reading it.
func (s *Store) Exists(key resource.Key) bool {
	info, err := os.Stat(s.path(key))
	return err == nil && info.Mode().IsRegular()
}

// LastModified returns the entry's storedAt without decoding the payload.
func (s *Store) LastModified(key resource.Key) (time.Time, bool) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		return time.Time{}, false
	}
	return peekStoredAt(data)
}

func peekStoredAt(data []byte) (time.Time, bool) {
	if !gjson.ValidBytes(data) {
		return time.Time{}, false
	}
	v := gjson.GetBytes(data, "stored_at")
	if v.Type != gjson.String {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, v.Str)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Clear removes the entry for key. Removing a missing entry is not an error.
func (s *Store) Clear(key resource.Key) error {
	l := s.lock(key)
	l.Lock()
	defer l.Unlock()
	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("clearing %s: %w", key, err)
	}
	return nil
}

// ClearAll removes every entry. Unrecognised files are left alone.
func (s *Store) ClearAll() error {
	entries, err := s.Entries()
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := s.Clear(e.Key); err != nil {
			return err
		}
	}
	return nil
}

// Entries lists the cached entries ordered by key.
func (s *Store) Entries() ([]EntryInfo, error) {
	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("listing cache dir: %w", err)
	}
	var out []EntryInfo
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		key, ok := resource.ParseFileName(de.Name())
		if !ok {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		storedAt, _ := s.LastModified(key)
		out = append(out, EntryInfo{Key: key, StoredAt: storedAt, Size: info.Size()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.String() < out[j].Key.String() })
	return out, nil
}
