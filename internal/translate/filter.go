package translate

import (
	"bytes"
	"io"

	"github.com/h2non/filetype"

	"github.com/ardentvc/wcengine/internal/stream"
)

// Filter bundles the EOL and keyword settings for one versioned file, as
// derived from its svn:eol-style/svn:keywords-shaped properties.
type Filter struct {
	EOL      EOLStyle
	Repair   bool
	Keywords map[Keyword]bool
	Metadata Metadata
}

// IsBinary sniffs the first bytes of content the way the patch engine must
// before attempting translation or hunk placement: a binary target is
// never translated and every hunk against it rejects outright (spec.md
// §4.7.1 step 5's "obstructed" family of skips, extended to content).
func IsBinary(content []byte) bool {
	head := content
	if len(head) > 8192 {
		head = head[:8192]
	}
	kind, err := filetype.Match(head)
	if err == nil && kind != filetype.Unknown {
		return true
	}
	return bytes.IndexByte(head, 0) >= 0
}

// ToNormalForm reads translated (working-copy) content and produces
// pristine-form lines: keywords contracted, EOL normalized to f.EOL. A
// line whose EOL differs from f.EOL is rewritten when f.Repair is set and
// rejected with an error otherwise (NormalizeEOL).
func (f Filter) ToNormalForm(r io.Reader) ([]stream.Line, error) {
	lines, err := stream.ReadAllLines(r)
	if err != nil {
		return nil, err
	}
	lines, err = NormalizeEOL(lines, f.EOL, f.Repair)
	if err != nil {
		return nil, err
	}
	for i, l := range lines {
		lines[i].Text = ContractKeywords(l.Text, f.Keywords)
	}
	return lines, nil
}

// FromNormalForm reads pristine-form content and produces translated
// (working-copy) lines: keywords expanded, EOL normalized to f.EOL.
func (f Filter) FromNormalForm(r io.Reader) ([]stream.Line, error) {
	lines, err := stream.ReadAllLines(r)
	if err != nil {
		return nil, err
	}
	lines, err = NormalizeEOL(lines, f.EOL, true)
	if err != nil {
		return nil, err
	}
	for i, l := range lines {
		lines[i].Text = ExpandKeywords(l.Text, f.Keywords, f.Metadata)
	}
	return lines, nil
}
