// Package pristine implements the per-working-copy content-addressed
// store described in spec.md §4.5: files are named by the lowercase hex
// of their SHA-1, sharded by the first two hex characters, with
// reference-counted lifetime tracked by the caller (internal/wcdb) rather
// than by this package.
//
// The sharded layout here is the same technique the teacher's
// getBlobIDPath/writeBlob pair uses to keep any one directory from
// accumulating too many entries, adapted from a sequential-integer key to
// a content hash.
package pristine

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/ardentvc/wcengine/internal/checksum"
)

// ErrNotFound is returned by Read when no file exists for a SHA-1; rows
// are tracked by the caller and not consulted here.
var ErrNotFound = errors.New("pristine: not found")

// CorruptionError signals that the row-tracked presence and the on-disk
// presence disagree for a given SHA-1 (spec.md §4.5 Check).
type CorruptionError struct {
	SHA1 checksum.SHA1
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("pristine: corruption detected for %s: row/file presence disagree", e.SHA1)
}

// Store is the on-disk pristine file area rooted at <wc-root>/<admin-dir>/pristine.
type Store struct {
	root   string
	logger *logrus.Logger
}

// NewStore opens (creating if absent) the pristine area at root.
func NewStore(logger *logrus.Logger, root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("pristine: failed to create %s: %w", root, err)
	}
	return &Store{root: root, logger: logger}, nil
}

// PathFor returns the on-disk path a given SHA-1 is stored at, whether or
// not it currently exists.
func (s *Store) PathFor(sha1 checksum.SHA1) string {
	return filepath.Join(s.root, sha1.ShardPrefix(), string(sha1))
}

// Install atomically renames tempfile into the store at sha1's path and
// returns only an error; the caller (WCDB) inserts/updates its PRISTINE
// row from the digests it already holds. If the target already exists, the rename still proceeds — the
// bytes are identical by definition of content-addressing — and the
// caller's row upsert is idempotent (spec.md §4.5, §8 round-trip law).
func (s *Store) Install(tempfile string, sha1 checksum.SHA1) error {
	dir := filepath.Join(s.root, sha1.ShardPrefix())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("pristine: failed to create %s: %w", dir, err)
	}
	dest := s.PathFor(sha1)
	if err := os.Rename(tempfile, dest); err != nil {
		return fmt.Errorf("pristine: failed to install %s: %w", sha1, err)
	}
	if err := os.Chmod(dest, 0o444); err != nil {
		s.logger.Warnf("pristine: failed to mark %s read-only: %v", dest, err)
	}
	return nil
}

// Exists reports whether a file is present for sha1, independent of any
// row bookkeeping.
func (s *Store) Exists(sha1 checksum.SHA1) bool {
	_, err := os.Stat(s.PathFor(sha1))
	return err == nil
}

// Read opens sha1's content for reading. Returns ErrNotFound if the file
// is absent; callers are expected to have already checked the row exists.
func (s *Store) Read(sha1 checksum.SHA1) (io.ReadCloser, error) {
	f, err := os.Open(s.PathFor(sha1))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("pristine: failed to read %s: %w", sha1, err)
	}
	return f, nil
}

// Remove deletes the on-disk file for sha1. The caller must have already
// verified no BASE/WORKING/ACTUAL row references it (spec.md §4.5's "only
// caller that removes files from the store").
func (s *Store) Remove(sha1 checksum.SHA1) error {
	err := os.Remove(s.PathFor(sha1))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("pristine: failed to remove %s: %w", sha1, err)
	}
	return nil
}
