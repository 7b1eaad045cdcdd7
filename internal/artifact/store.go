// Package artifact manages the on-disk audio artifacts produced by speech
// synthesis: unique-name persistence, existence checks, idempotent removal
// and age-based sweeping of the artifact directory.
package artifact

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/book-expert/logger"
	"github.com/google/uuid"
)

// File and directory permissions.
const (
	filePermissions = 0o600
	dirPermissions  = 0o750
)

// Extension is the on-disk artifact extension. The remote synthesis call is
// configured for a compressed voice container (OGG/Opus).
const Extension = ".ogg"

const timestampLayout = "20060102T150405.000000000"

// ErrEmptyAudio indicates that synthesis produced no bytes to persist.
var ErrEmptyAudio = errors.New("no audio data to persist")

// Store persists audio artifacts under a single directory. Names are unique
// per generation, so concurrent writers never collide and no locking is
// needed here.
type Store struct {
	dir string
	log *logger.Logger
}

// NewStore creates the artifact directory if needed and returns a store
// rooted there.
func NewStore(dir string, log *logger.Logger) (*Store, error) {
	err := os.MkdirAll(dir, dirPermissions)
	if err != nil {
		return nil, fmt.Errorf("failed to create artifact directory %s: %w", dir, err)
	}

	return &Store{dir: dir, log: log}, nil
}

// Dir returns the artifact directory.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes audio bytes to a uniquely named artifact encoding the language
// tag and a fine-grained generation timestamp, and returns its path.
func (s *Store) Save(language string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyAudio
	}

	name := fmt.Sprintf("%s_%s_%s%s",
		sanitizeTag(language),
		time.Now().UTC().Format(timestampLayout),
		uuid.NewString(),
		Extension,
	)
	path := filepath.Join(s.dir, name)

	err := os.WriteFile(path, data, filePermissions)
	if err != nil {
		return "", fmt.Errorf("failed to write artifact %s: %w", path, err)
	}

	return path, nil
}

// Exists reports whether the artifact at path is still on disk.
func (s *Store) Exists(path string) bool {
	if path == "" {
		return false
	}

	_, err := os.Stat(path)

	return err == nil
}

// Remove deletes an artifact. Removal is idempotent: an already-gone file is
// not an error.
func (s *Store) Remove(path string) error {
	if path == "" {
		return nil
	}

	err := os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove artifact %s: %w", path, err)
	}

	return nil
}

// SweepOlderThan removes every artifact in the store directory whose
// modification time predates the TTL, regardless of any cache or record
// linkage. It returns the number of files removed; individual failures are
// logged and do not stop the sweep.
func (s *Store) SweepOlderThan(ttl time.Duration) int {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if s.log != nil {
			s.log.Warn("Failed to read artifact directory %s: %v", s.dir, err)
		}

		return 0
	}

	cutoff := time.Now().Add(-ttl)
	removed := 0

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), Extension) {
			continue
		}

		info, infoErr := entry.Info()
		if infoErr != nil {
			continue
		}

		if info.ModTime().After(cutoff) {
			continue
		}

		path := filepath.Join(s.dir, entry.Name())

		removeErr := os.Remove(path)
		if removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
			if s.log != nil {
				s.log.Warn("Failed to remove stale artifact %s: %v", path, removeErr)
			}

			continue
		}

		removed++
	}

	return removed
}

// sanitizeTag keeps artifact names filesystem-safe.
func sanitizeTag(tag string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", " ", "_", "..", "_")

	return replacer.Replace(tag)
}
