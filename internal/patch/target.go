package patch

import (
	"fmt"
	"strings"

	"github.com/ardentvc/wcengine/internal/pathmodel"
	"github.com/ardentvc/wcengine/internal/wcerrors"
)

// ResolveTarget implements spec.md §4.7.1 steps 1-4: canonicalize,
// strip leading components, require an absolute stripped path be inside
// root, then resolve via the secure IsUnderRoot predicate. Returns
// ("", false, nil) when the target should be skipped (empty filename or
// an is_under_root failure), never an error for those cases — only a
// bad strip-count is reported as an error, per spec.md §4.7.1 step 2's
// "fail loudly".
func ResolveTarget(root pathmodel.Dirent, newFilename string, stripCount int) (pathmodel.Dirent, bool, error) {
	if strings.TrimSpace(newFilename) == "" {
		return "", false, nil
	}

	name := strings.ReplaceAll(newFilename, "\\", "/")
	abs := strings.HasPrefix(name, "/")
	trimmed := strings.TrimPrefix(name, "/")
	parts := strings.Split(trimmed, "/")

	if stripCount > 0 {
		if stripCount > len(parts) {
			return "", false, wcerrors.New(wcerrors.ClientPatchBadStripCount,
				"strip count %d exceeds %d available components in %q", stripCount, len(parts), newFilename)
		}
		parts = parts[stripCount:]
	}
	stripped := strings.Join(parts, "/")

	if abs {
		// An absolute stripped path must lie inside root; it is reduced to
		// its root-relative remainder before the IsUnderRoot resolution.
		rel, inside := root.SkipAncestor(pathmodel.CanonicalizeDirent("/" + stripped))
		if !inside {
			return "", false, nil
		}
		stripped = rel
	}

	resolved, ok := pathmodel.IsUnderRoot(root, stripped)
	if !ok {
		return "", false, nil
	}
	return resolved, true, nil
}

// TargetStatus is the WCDB-derived disposition of a resolved target,
// queried per spec.md §4.7.1 step 5.
type TargetStatus int

const (
	TargetVersioned TargetStatus = iota
	TargetIgnored
	TargetUnversioned
	TargetMissing
	TargetObstructed
	TargetIsDirectory
	TargetLocallyDeleted
	TargetAbsent
)

// ShouldSkip reports whether step 5 requires skipping this target
// outright, before any hunk placement is attempted.
func (s TargetStatus) ShouldSkip() bool {
	switch s {
	case TargetIgnored, TargetUnversioned, TargetMissing, TargetObstructed, TargetIsDirectory:
		return true
	default:
		return false
	}
}

func (s TargetStatus) String() string {
	switch s {
	case TargetVersioned:
		return "versioned"
	case TargetIgnored:
		return "ignored"
	case TargetUnversioned:
		return "unversioned"
	case TargetMissing:
		return "missing"
	case TargetObstructed:
		return "obstructed"
	case TargetIsDirectory:
		return "directory"
	case TargetLocallyDeleted:
		return "locally-deleted"
	case TargetAbsent:
		return "absent"
	default:
		return fmt.Sprintf("TargetStatus(%d)", int(s))
	}
}

// Outcome classifies a processed target's end state per the
// (W, P) table of spec.md §4.7.4, where W is the original working-file
// size and P the patched-file size.
type Outcome int

const (
	OutcomeSkip Outcome = iota
	OutcomeScheduleDelete
	OutcomeReplacement
	OutcomeAddition
	OutcomeModification
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkip:
		return "skip"
	case OutcomeScheduleDelete:
		return "schedule-delete"
	case OutcomeReplacement:
		return "replacement"
	case OutcomeAddition:
		return "addition"
	case OutcomeModification:
		return "modification"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// ClassifyOutcome applies the spec.md §4.7.4 (W, P) table. existed
// reports whether the target had any on-disk content before patching;
// status carries the locally-deleted/absent distinction the table
// requires for the P>0,W==0 cases.
func ClassifyOutcome(workingSize, patchedSize int, existed bool, status TargetStatus) Outcome {
	switch {
	case workingSize > 0 && patchedSize == 0:
		return OutcomeScheduleDelete
	case workingSize == 0 && patchedSize == 0 && !existed:
		return OutcomeSkip
	case workingSize == 0 && patchedSize > 0 && status == TargetLocallyDeleted:
		return OutcomeReplacement
	case workingSize == 0 && patchedSize > 0 && status == TargetAbsent:
		return OutcomeAddition
	default:
		return OutcomeModification
	}
}
