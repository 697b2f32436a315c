// Package translate implements the bidirectional EOL-normalization and
// keyword-expansion stream filters described in spec.md §4.3.
package translate

import (
	"fmt"
	"runtime"

	"github.com/ardentvc/wcengine/internal/stream"
)

// EOLStyle is the declared normalization target for a versioned file.
type EOLStyle string

const (
	EOLStyleNone   EOLStyle = "none"
	EOLStyleNative EOLStyle = "native"
	EOLStyleLF     EOLStyle = "fixed-LF"
	EOLStyleCR     EOLStyle = "fixed-CR"
	EOLStyleCRLF   EOLStyle = "fixed-CRLF"
)

// nativeEOL returns the host's EOL style, used when EOLStyleNative applies
// on write.
func nativeEOL() stream.EOLStyle {
	if runtime.GOOS == "windows" {
		return stream.EOLCRLF
	}
	return stream.EOLLF
}

// targetEOL resolves the EOLStyle to a concrete stream.EOLStyle for
// writing, or false if style is EOLStyleNone (no normalization applied).
func targetEOL(style EOLStyle) (stream.EOLStyle, bool) {
	switch style {
	case EOLStyleNative:
		return nativeEOL(), true
	case EOLStyleLF:
		return stream.EOLLF, true
	case EOLStyleCR:
		return stream.EOLCR, true
	case EOLStyleCRLF:
		return stream.EOLCRLF, true
	default:
		return stream.EOLNone, false
	}
}

// UnknownEOLError is reported when repair is false and a line's recorded
// EOL does not match the declared style.
type UnknownEOLError struct {
	Line int
	Got  stream.EOLStyle
	Want stream.EOLStyle
}

func (e *UnknownEOLError) Error() string {
	return fmt.Sprintf("translate: line %d has EOL %s, expected %s", e.Line, e.Got, e.Want)
}

// NormalizeEOL rewrites every line's EOL to match style. If repair is true,
// a contrary EOL found during read is silently converted; if false, it is
// reported as an *UnknownEOLError naming the offending line. The final
// line's EOLNone (missing terminator) is always preserved as-is, in either
// mode, since it carries no terminator to validate.
func NormalizeEOL(lines []stream.Line, style EOLStyle, repair bool) ([]stream.Line, error) {
	want, normalize := targetEOL(style)
	if !normalize {
		return lines, nil
	}
	out := make([]stream.Line, len(lines))
	for i, l := range lines {
		out[i] = l
		if l.EOL == stream.EOLNone {
			continue
		}
		if l.EOL != want {
			if !repair {
				return nil, &UnknownEOLError{Line: i + 1, Got: l.EOL, Want: want}
			}
		}
		out[i].EOL = want
	}
	return out, nil
}
