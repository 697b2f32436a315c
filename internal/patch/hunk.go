// Package patch implements the unified-diff hunk placement and
// application engine described in spec.md §4.7: fuzzy context matching,
// patched-output generation, reject-file writing, and the
// addition/deletion/modification post-processing classification.
package patch

// MaxFuzz bounds how many leading/trailing context lines may be treated
// as wildcards before a hunk is rejected outright (spec.md §4.7.2).
const MaxFuzz = 2

// Hunk is one unified-diff hunk: a contiguous original/modified line
// range plus its leading and trailing context (spec.md §4.7).
type Hunk struct {
	OriginalStart  int // 1-based; 0 means "file creation"
	OriginalLength int
	ModifiedStart  int
	ModifiedLength int

	// Lines holds every line of the hunk body in patch order, prefixed by
	// its unified-diff marker: ' ' (context), '-' (removed), '+' (added).
	Lines []HunkLine
}

// HunkLine is one line of a hunk body.
type HunkLine struct {
	Marker byte // ' ', '-', or '+'
	Text   string
}

// contextLines returns the hunk's original-side lines (context and
// removed), which is what gets matched against the target file.
func (h Hunk) contextLines() []string {
	out := make([]string, 0, len(h.Lines))
	for _, l := range h.Lines {
		if l.Marker == ' ' || l.Marker == '-' {
			out = append(out, l.Text)
		}
	}
	return out
}

// modifiedLines returns the hunk's modified-side lines (context and
// added), which is what gets written into the patched output.
func (h Hunk) modifiedLines() []string {
	out := make([]string, 0, len(h.Lines))
	for _, l := range h.Lines {
		if l.Marker == ' ' || l.Marker == '+' {
			out = append(out, l.Text)
		}
	}
	return out
}

// RawText reconstructs the hunk's verbatim unified-diff body text, used
// when writing a rejected hunk to the .rej stream (spec.md §4.7.3).
func (h Hunk) RawText() string {
	var out []byte
	for _, l := range h.Lines {
		out = append(out, l.Marker)
		out = append(out, l.Text...)
		out = append(out, '\n')
	}
	return string(out)
}

// Target is one file entry of a parsed patch: an old/new filename pair
// plus its ordered hunks (spec.md §4.7).
type Target struct {
	OldFilename string
	NewFilename string
	Hunks       []Hunk
}

// Patch is a full parsed patch: an ordered list of targets.
type Patch struct {
	Targets []Target
}

// Options controls one patch application session (spec.md §4.7).
type Options struct {
	StripCount       int
	Reverse          bool
	IgnoreWhitespace bool
	DryRun           bool
	// RedirectTarget optionally remaps a resolved relpath before WCDB
	// lookup/filesystem access, mirroring the "optional callback to
	// filter or redirect targets" input.
	RedirectTarget func(relpath string) (string, bool)
	// Cancelled is polled before each target and once per hunk (spec.md
	// §5); a nil Cancelled is treated as never-cancelled.
	Cancelled func() bool
}

func (o Options) isCancelled() bool {
	return o.Cancelled != nil && o.Cancelled()
}

// reversed swaps a hunk's original/modified sides, used when
// Options.Reverse applies a patch backwards.
func reversed(h Hunk) Hunk {
	out := Hunk{
		OriginalStart: h.ModifiedStart, OriginalLength: h.ModifiedLength,
		ModifiedStart: h.OriginalStart, ModifiedLength: h.OriginalLength,
		Lines: make([]HunkLine, len(h.Lines)),
	}
	for i, l := range h.Lines {
		marker := l.Marker
		switch marker {
		case '-':
			marker = '+'
		case '+':
			marker = '-'
		}
		out.Lines[i] = HunkLine{Marker: marker, Text: l.Text}
	}
	return out
}
