// Package parser reads a unified-diff patch file into the
// patch.Patch/patch.Hunk structures the placement engine operates on
// (spec.md §4.7). It understands plain unified diffs (diff -u /
// `git diff` output) only: no binary patches, no combined diffs.
package parser

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/ardentvc/wcengine/internal/patch"
)

var hunkHeader = func(s string) (origStart, origLen, modStart, modLen int, ok bool) {
	if !strings.HasPrefix(s, "@@ ") {
		return 0, 0, 0, 0, false
	}
	end := strings.Index(s[3:], " @@")
	if end < 0 {
		return 0, 0, 0, 0, false
	}
	body := s[3 : 3+end]
	fields := strings.Fields(body)
	if len(fields) != 2 {
		return 0, 0, 0, 0, false
	}
	a, aok := parseRange(fields[0], "-")
	b, bok := parseRange(fields[1], "+")
	if !aok || !bok {
		return 0, 0, 0, 0, false
	}
	return a[0], a[1], b[0], b[1], true
}

func parseRange(field, prefix string) ([2]int, bool) {
	if !strings.HasPrefix(field, prefix) {
		return [2]int{}, false
	}
	field = strings.TrimPrefix(field, prefix)
	parts := strings.SplitN(field, ",", 2)
	start, err := strconv.Atoi(parts[0])
	if err != nil {
		return [2]int{}, false
	}
	length := 1
	if len(parts) == 2 {
		length, err = strconv.Atoi(parts[1])
		if err != nil {
			return [2]int{}, false
		}
	}
	if start == 0 && length == 0 {
		return [2]int{0, 0}, true
	}
	return [2]int{start, length}, true
}

// ParseUnifiedDiff reads content as a sequence of unified-diff file
// sections (each introduced by a "--- a/..." / "+++ b/..." pair,
// followed by one or more "@@ ... @@" hunks) and returns the parsed
// patch.Patch.
func ParseUnifiedDiff(content []byte) (patch.Patch, error) {
	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var p patch.Patch
	var current *patch.Target
	var hunk *patch.Hunk

	flushHunk := func() {
		if hunk != nil && current != nil {
			current.Hunks = append(current.Hunks, *hunk)
			hunk = nil
		}
	}
	flushTarget := func() {
		flushHunk()
		if current != nil {
			p.Targets = append(p.Targets, *current)
			current = nil
		}
	}

	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "--- "):
			flushTarget()
			current = &patch.Target{OldFilename: stripDiffPrefix(line[4:])}
		case strings.HasPrefix(line, "+++ "):
			if current == nil {
				current = &patch.Target{}
			}
			current.NewFilename = stripDiffPrefix(line[4:])
		case strings.HasPrefix(line, "@@ "):
			if current == nil {
				return p, fmt.Errorf("parser: hunk header before any file header: %q", line)
			}
			flushHunk()
			origStart, origLen, modStart, modLen, ok := hunkHeader(line)
			if !ok {
				return p, fmt.Errorf("parser: malformed hunk header: %q", line)
			}
			hunk = &patch.Hunk{OriginalStart: origStart, OriginalLength: origLen, ModifiedStart: modStart, ModifiedLength: modLen}
		case hunk != nil && len(line) > 0 && (line[0] == ' ' || line[0] == '-' || line[0] == '+'):
			hunk.Lines = append(hunk.Lines, patch.HunkLine{Marker: line[0], Text: line[1:]})
		case hunk != nil && line == `\ No newline at end of file`:
			// Trailing marker: the previous line's terminator is absent.
			// Not modeled per-line here; ignored.
		case strings.HasPrefix(line, "diff ") || strings.HasPrefix(line, "index "):
			// git extended-header lines preceding a --- / +++ pair; ignored.
		default:
			// Blank/context noise between sections; ignored.
		}
	}
	if err := scanner.Err(); err != nil {
		return p, fmt.Errorf("parser: failed to scan patch: %w", err)
	}
	flushTarget()
	return p, nil
}

// stripDiffPrefix removes a git-style "a/" or "b/" prefix and any
// trailing tab-separated timestamp from a --- / +++ header's filename
// field.
func stripDiffPrefix(field string) string {
	if tab := strings.IndexByte(field, '\t'); tab >= 0 {
		field = field[:tab]
	}
	field = strings.TrimSpace(field)
	if field == "/dev/null" {
		return ""
	}
	if strings.HasPrefix(field, "a/") || strings.HasPrefix(field, "b/") {
		field = field[2:]
	}
	return field
}
