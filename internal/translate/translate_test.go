package translate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardentvc/wcengine/internal/stream"
)

func TestKeywordRoundTrip(t *testing.T) {
	enabled := ParseEnabledKeywords("Id Revision")
	md := Metadata{Revision: "42", ID: "file.txt 42 2024-01-01 alice"}

	original := "plain $Id$ and $Revision$ text"
	expanded := ExpandKeywords(original, enabled, md)
	assert.Contains(t, expanded, "$Id: file.txt 42 2024-01-01 alice $")
	assert.Contains(t, expanded, "$Revision: 42 $")

	contracted := ContractKeywords(expanded, enabled)
	assert.Equal(t, original, contracted)
}

func TestKeywordContractionIgnoresDisabled(t *testing.T) {
	enabled := ParseEnabledKeywords("Id")
	line := "$Author: bob $ and $Id: x $"
	got := ContractKeywords(line, enabled)
	assert.Equal(t, "$Author: bob $ and $Id$", got)
}

func TestNormalizeEOLRepair(t *testing.T) {
	lines := []stream.Line{
		{Text: "a", EOL: stream.EOLCRLF},
		{Text: "b", EOL: stream.EOLLF},
		{Text: "c", EOL: stream.EOLNone},
	}
	out, err := NormalizeEOL(lines, EOLStyleLF, true)
	require.NoError(t, err)
	for i := range out[:2] {
		assert.Equal(t, stream.EOLLF, out[i].EOL)
	}
	assert.Equal(t, stream.EOLNone, out[2].EOL)
}

func TestNormalizeEOLRejectsWithoutRepair(t *testing.T) {
	lines := []stream.Line{{Text: "a", EOL: stream.EOLCRLF}}
	_, err := NormalizeEOL(lines, EOLStyleLF, false)
	var target *UnknownEOLError
	require.ErrorAs(t, err, &target)
}

func TestFilterRoundTrip(t *testing.T) {
	f := Filter{
		EOL:      EOLStyleLF,
		Repair:   true,
		Keywords: ParseEnabledKeywords("Id"),
		Metadata: Metadata{ID: "foo.txt 7"},
	}
	pristine := "line one\n$Id$\r\nline three"
	workingLines, err := f.FromNormalForm(strings.NewReader(pristine))
	require.NoError(t, err)

	var buf strings.Builder
	require.NoError(t, stream.WriteLines(&buf, workingLines))

	backLines, err := f.ToNormalForm(strings.NewReader(buf.String()))
	require.NoError(t, err)

	var back strings.Builder
	require.NoError(t, stream.WriteLines(&back, backLines))
	assert.Equal(t, "line one\n$Id$\nline three", back.String())
}

func TestIsBinaryDetectsNulByte(t *testing.T) {
	assert.True(t, IsBinary([]byte{0x00, 0x01, 0x02}))
	assert.False(t, IsBinary([]byte("plain ascii text")))
}
