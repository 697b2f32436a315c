package patch

import (
	"strings"

	"github.com/ardentvc/wcengine/internal/translate"
)

// comparer normalizes a line before comparison, per spec.md §4.7.2:
// hunk lines are keyword-contracted against the target's keywords, and
// (when ignoreWhitespace is set) whitespace runs collapse to a single
// space on both sides.
type comparer struct {
	keywords         map[translate.Keyword]bool
	ignoreWhitespace bool
}

func (c comparer) normalize(s string) string {
	s = translate.ContractKeywords(s, c.keywords)
	if c.ignoreWhitespace {
		s = collapseWhitespace(s)
	}
	return s
}

func collapseWhitespace(s string) string {
	var b strings.Builder
	inRun := false
	for _, r := range s {
		if r == ' ' || r == '\t' {
			if !inRun {
				b.WriteByte(' ')
				inRun = true
			}
			continue
		}
		inRun = false
		b.WriteRune(r)
	}
	return b.String()
}

func (c comparer) equal(a, b string) bool {
	return c.normalize(a) == c.normalize(b)
}

// placedRange is an already-accepted hunk's occupied line range in the
// target, in 0-based [start, end) form.
type placedRange struct{ start, end int }

func overlaps(a, b placedRange) bool {
	return a.start < b.end && b.start < a.end
}

// Placement is the result of successfully placing one hunk.
type Placement struct {
	MatchedLine int // 1-based line in the target where the hunk starts
	Fuzz        int
}

// place finds where hunk belongs in target (a slice of target lines,
// already keyword-contracted/whitespace-collapsed per cmp), avoiding any
// line range in accepted. Returns (Placement, true) on success, or
// (Placement{}, false) if the hunk rejects at every fuzz level up to
// MaxFuzz (spec.md §4.7.2).
func place(hunk Hunk, target []string, cmp comparer, accepted []placedRange, fileExists bool) (Placement, bool) {
	if hunk.OriginalStart == 0 {
		if fileExists {
			return Placement{}, false
		}
		return Placement{MatchedLine: 1, Fuzz: 0}, true
	}

	ctx := hunk.contextLines()
	for fuzz := 0; fuzz <= MaxFuzz; fuzz++ {
		pattern := fuzzedPattern(hunk, fuzz)
		if line, ok := tryPlaceAtFuzz(pattern, hunk.OriginalStart, target, cmp, accepted, len(ctx)); ok {
			return Placement{MatchedLine: line, Fuzz: fuzz}, true
		}
	}
	return Placement{}, false
}

// fuzzedPattern returns the hunk's original-side lines (contextLines)
// with up to fuzz lines of leading context (the context lines before the
// first change) and up to fuzz lines of trailing context (the context
// lines after the last change) marked as wildcards that match anything.
// Removed lines are never wildcards.
type fuzzyLine struct {
	text      string
	wildcard  bool
}

func fuzzedPattern(hunk Hunk, fuzz int) []fuzzyLine {
	ctx := hunk.contextLines()
	out := make([]fuzzyLine, len(ctx))
	for i, s := range ctx {
		out[i] = fuzzyLine{text: s}
	}
	leading, trailing, changed := 0, 0, false
	for _, l := range hunk.Lines {
		switch {
		case l.Marker != ' ':
			changed, trailing = true, 0
		case changed:
			trailing++
		default:
			leading++
		}
	}
	for i := 0; i < fuzz && i < leading; i++ {
		out[i].wildcard = true
	}
	for i := 0; i < fuzz && i < trailing; i++ {
		out[len(out)-1-i].wildcard = true
	}
	return out
}

func matchesAt(pattern []fuzzyLine, target []string, start int, cmp comparer) bool {
	if start < 0 || start+len(pattern) > len(target) {
		return false
	}
	for i, p := range pattern {
		if p.wildcard {
			continue
		}
		if !cmp.equal(p.text, target[start+i]) {
			return false
		}
	}
	return true
}

func rangeFree(start, length int, accepted []placedRange) bool {
	cand := placedRange{start: start, end: start + length}
	for _, a := range accepted {
		if overlaps(cand, a) {
			return false
		}
	}
	return true
}

// tryPlaceAtFuzz runs the four-step placement procedure of spec.md
// §4.7.2 steps 2-4 at a single fuzz level. originalStart is 1-based.
func tryPlaceAtFuzz(pattern []fuzzyLine, originalStart int, target []string, cmp comparer, accepted []placedRange, patternLen int) (int, bool) {
	declared := originalStart - 1 // 0-based

	// Step 2: exact one-line-window match at the declared position.
	if matchesAt(pattern, target, declared, cmp) && rangeFree(declared, patternLen, accepted) {
		return declared + 1, true
	}

	// Step 3: scan forward from line 1 toward original-start (exclusive),
	// take the last match in range.
	lastMatch := -1
	for start := 0; start < declared; start++ {
		if matchesAt(pattern, target, start, cmp) && rangeFree(start, patternLen, accepted) {
			lastMatch = start
		}
	}
	if lastMatch >= 0 {
		return lastMatch + 1, true
	}

	// Step 4: scan from original-start to EOF, take the first match.
	for start := declared; start < len(target); start++ {
		if matchesAt(pattern, target, start, cmp) && rangeFree(start, patternLen, accepted) {
			return start + 1, true
		}
	}

	return 0, false
}
