package pristine

import "github.com/ardentvc/wcengine/internal/checksum"

// Presence is the result of reconciling a PRISTINE row against the
// on-disk file for the same SHA-1 (spec.md §4.5 Check).
type Presence int

const (
	Absent Presence = iota
	Present
)

// Check reconciles rowExists (the caller's PRISTINE row bookkeeping)
// against the on-disk file for sha1. Agreement yields Present/Absent;
// disagreement is reported as a *CorruptionError naming the SHA-1.
func (s *Store) Check(sha1 checksum.SHA1, rowExists bool) (Presence, error) {
	fileExists := s.Exists(sha1)
	if rowExists != fileExists {
		return Absent, &CorruptionError{SHA1: sha1}
	}
	if rowExists {
		return Present, nil
	}
	return Absent, nil
}
