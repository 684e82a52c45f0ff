package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ganot/sitesync/internal/resource"
	"github.com/tidwall/gjson"
)

// LegacyMigratedKey is the preference flag set once the legacy cache has
// been copied.
const LegacyMigratedKey = "cache.legacy_migrated"

// MigrateLegacy copies entries from the legacy cache directory into the
// store, once per install. Existing entries win over legacy ones. Legacy
// files without an envelope are wrapped, using their mtime as storedAt.
func (s *Store) MigrateLegacy(ctx context.Context) (int, error) {
	if s.legacyDir == "" || s.flags == nil {
		return 0, nil
	}
	done, err := s.flags.Bool(ctx, LegacyMigratedKey)
	if err != nil {
		return 0, fmt.Errorf("reading migration flag: %w", err)
	}
	if done {
		return 0, nil
	}

	entries, err := os.ReadDir(s.legacyDir)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return 0, fmt.Errorf("listing legacy cache: %w", err)
	}

	copied := 0
	for _, de := range entries {
		if err := ctx.Err(); err != nil {
			return copied, err
		}
		if de.IsDir() {
			continue
		}
		key, ok := resource.ParseFileName(de.Name())
		if !ok {
			continue
		}
		moved, err := s.migrateFile(key, filepath.Join(s.legacyDir, de.Name()))
		if err != nil {
			s.logger.Warn("legacy cache entry skipped", "key", key.String(), "error", err)
			continue
		}
		if moved {
			copied++
		}
	}

	if err := s.flags.SetBool(ctx, LegacyMigratedKey, true); err != nil {
		return copied, fmt.Errorf("setting migration flag: %w", err)
	}
	s.logger.Info("legacy cache migrated", "entries", copied)
	return copied, nil
}

func (s *Store) migrateFile(key resource.Key, src string) (bool, error) {
	l := s.lock(key)
	l.Lock()
	defer l.Unlock()

	if s.Exists(key) {
		return false, nil
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return false, err
	}
	if !gjson.ValidBytes(data) {
		return false, errors.New("not valid JSON")
	}

	env := envelope{Payload: data}
	if storedAt, ok := peekStoredAt(data); ok && gjson.GetBytes(data, "payload").Exists() {
		env = envelope{StoredAt: storedAt, Payload: json.RawMessage(gjson.GetBytes(data, "payload").Raw)}
	} else {
		info, err := os.Stat(src)
		if err != nil {
			return false, err
		}
		env.StoredAt = info.ModTime().UTC()
	}
	if err := s.writeEnvelope(s.path(key), env); err != nil {
		return false, err
	}
	return true, nil
}
