package patch

import (
	"fmt"
	"strings"

	"github.com/ardentvc/wcengine/internal/notify"
	"github.com/ardentvc/wcengine/internal/translate"
)

// ApplyResult is the outcome of applying one target's hunks against its
// current content (spec.md §4.7.3).
type ApplyResult struct {
	PatchedLines []string
	RejectText   string
	HasRejects   bool
	AppliedHunks []HunkOutcome
	AllHunks     []HunkOutcome // every hunk's placement decision, accepted or rejected
}

// HunkOutcome records one hunk's placement/application outcome, used to
// drive notify() calls (spec.md §6).
type HunkOutcome struct {
	Hunk     Hunk
	Accepted bool
	Placement
}

// ApplyTarget places and applies every hunk in target against current
// (the target's existing lines, already loaded from disk), in patch
// order, maintaining a virtual cursor (spec.md §4.7.3). current may be
// nil/empty when the target does not yet exist (file-creation hunks).
// binary marks that current's on-disk bytes sniffed as binary content
// (translate.IsBinary): every hunk rejects outright rather than being
// placed, per spec.md §4.7.1 step 5's "obstructed" family of skips,
// extended to binary content.
func ApplyTarget(target Target, current []string, opts Options, keywords map[translate.Keyword]bool, binary bool) ApplyResult {
	cmp := comparer{keywords: keywords, ignoreWhitespace: opts.IgnoreWhitespace}
	fileExists := len(current) > 0

	hunks := target.Hunks
	if opts.Reverse {
		reversedHunks := make([]Hunk, len(hunks))
		for i, h := range hunks {
			reversedHunks[i] = reversed(h)
		}
		hunks = reversedHunks
	}

	var result ApplyResult
	var accepted []placedRange
	placements := make([]HunkOutcome, len(hunks))

	for i, h := range hunks {
		if opts.isCancelled() {
			break
		}
		if binary {
			placements[i] = HunkOutcome{Hunk: h, Accepted: false}
			continue
		}
		placement, ok := place(h, current, cmp, accepted, fileExists)
		placements[i] = HunkOutcome{Hunk: h, Accepted: ok, Placement: placement}
		if ok {
			length := len(h.contextLines())
			accepted = append(accepted, placedRange{start: placement.MatchedLine - 1, end: placement.MatchedLine - 1 + length})
		}
	}

	cursor := 0
	var rejectBuilder strings.Builder
	for _, outcome := range placements {
		h := outcome.Hunk
		if !outcome.Accepted {
			result.HasRejects = true
			fmt.Fprintf(&rejectBuilder, "@@ -%d,%d +%d,%d @@\n", h.OriginalStart, h.OriginalLength, h.ModifiedStart, h.ModifiedLength)
			rejectBuilder.WriteString(h.RawText())
			continue
		}
		f := outcome.Fuzz
		matchStart := outcome.MatchedLine - 1 // 0-based

		// Copy unmodified target lines up to L+f.
		copyUpTo := matchStart + f
		if copyUpTo > len(current) {
			copyUpTo = len(current)
		}
		for cursor < copyUpTo {
			result.PatchedLines = append(result.PatchedLines, current[cursor])
			cursor++
		}

		// Skip original-length - 2f lines of the target body being replaced.
		skip := h.OriginalLength - 2*f
		if skip < 0 {
			skip = 0
		}
		cursor += skip
		if cursor > len(current) {
			cursor = len(current)
		}

		// Write the modified body, omitting its first/last f lines.
		mod := h.modifiedLines()
		lo, hi := f, len(mod)-f
		if lo > hi {
			lo, hi = 0, 0
		}
		result.PatchedLines = append(result.PatchedLines, mod[lo:hi]...)

		result.AppliedHunks = append(result.AppliedHunks, outcome)
	}

	if cursor <= len(current) {
		result.PatchedLines = append(result.PatchedLines, current[cursor:]...)
	}
	result.RejectText = rejectBuilder.String()
	result.AllHunks = placements
	return result
}

// NotifyHunks emits a per-hunk notification for every placement decision
// made during ApplyTarget, per spec.md §6's per-hunk notification shape.
func NotifyHunks(fn notify.Func, abspath string, placements []HunkOutcome) {
	for _, p := range placements {
		action := notify.ActionPatchRejectedHunk
		if p.Accepted {
			action = notify.ActionPatchAppliedHunk
		}
		fn(notify.Event{
			AbsPath: abspath,
			Action:  action,
			Hunk: &notify.HunkDetail{
				OriginalStart: p.Hunk.OriginalStart, OriginalLength: p.Hunk.OriginalLength,
				ModifiedStart: p.Hunk.ModifiedStart, ModifiedLength: p.Hunk.ModifiedLength,
				MatchedLine: p.MatchedLine, Fuzz: p.Fuzz,
			},
		})
	}
}
