package patch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardentvc/wcengine/internal/pathmodel"
)

func ctxHunk(originalStart int, lines ...string) Hunk {
	h := Hunk{OriginalStart: originalStart, OriginalLength: len(lines)}
	for _, l := range lines {
		h.Lines = append(h.Lines, HunkLine{Marker: ' ', Text: l})
	}
	return h
}

func TestPlaceExactMatch(t *testing.T) {
	target := []string{"one", "two", "three", "four"}
	h := ctxHunk(2, "two", "three")
	cmp := comparer{}
	p, ok := place(h, target, cmp, nil, true)
	require.True(t, ok)
	assert.Equal(t, 2, p.MatchedLine)
	assert.Equal(t, 0, p.Fuzz)
}

func TestPlaceShiftedMatch(t *testing.T) {
	target := []string{"zero", "one", "two", "three", "four"}
	h := ctxHunk(2, "two", "three")
	cmp := comparer{}
	p, ok := place(h, target, cmp, nil, true)
	require.True(t, ok)
	assert.Equal(t, 3, p.MatchedLine)
}

func TestPlaceFuzzyMatch(t *testing.T) {
	target := []string{"ONE-changed", "two", "three", "four"}
	h := ctxHunk(1, "one", "two", "three")
	cmp := comparer{}
	p, ok := place(h, target, cmp, nil, true)
	require.True(t, ok)
	assert.Equal(t, 1, p.Fuzz)
}

func TestPlaceRejectsBeyondMaxFuzz(t *testing.T) {
	target := []string{"aaa", "bbb", "ccc"}
	h := ctxHunk(1, "xxx", "yyy", "zzz")
	cmp := comparer{}
	_, ok := place(h, target, cmp, nil, true)
	assert.False(t, ok)
}

func TestPlaceFileCreationMatchesWhenAbsent(t *testing.T) {
	h := Hunk{OriginalStart: 0}
	p, ok := place(h, nil, comparer{}, nil, false)
	require.True(t, ok)
	assert.Equal(t, 1, p.MatchedLine)
}

func TestPlaceFileCreationRejectsWhenPresent(t *testing.T) {
	h := Hunk{OriginalStart: 0}
	_, ok := place(h, []string{"existing"}, comparer{}, nil, true)
	assert.False(t, ok)
}

func TestPlaceRejectsOverlapWithAcceptedRange(t *testing.T) {
	target := []string{"one", "two", "three"}
	h := ctxHunk(1, "one", "two")
	cmp := comparer{}
	_, ok := place(h, target, cmp, []placedRange{{start: 0, end: 2}}, true)
	assert.False(t, ok)
}

func TestApplyTargetModifiesLine(t *testing.T) {
	current := []string{"one", "two", "three"}
	h := Hunk{
		OriginalStart: 2, OriginalLength: 1, ModifiedStart: 2, ModifiedLength: 1,
		Lines: []HunkLine{{Marker: '-', Text: "two"}, {Marker: '+', Text: "TWO"}},
	}
	result := ApplyTarget(Target{Hunks: []Hunk{h}}, current, Options{}, nil, false)
	assert.Equal(t, []string{"one", "TWO", "three"}, result.PatchedLines)
	assert.False(t, result.HasRejects)
}

func TestApplyTargetRejectsAndPassesThroughRest(t *testing.T) {
	current := []string{"aaa", "bbb", "ccc"}
	h := Hunk{
		OriginalStart: 1, OriginalLength: 3,
		Lines: []HunkLine{{Marker: '-', Text: "xxx"}, {Marker: '-', Text: "yyy"}, {Marker: '-', Text: "zzz"}},
	}
	result := ApplyTarget(Target{Hunks: []Hunk{h}}, current, Options{}, nil, false)
	assert.True(t, result.HasRejects)
	assert.Equal(t, current, result.PatchedLines)
	assert.Contains(t, result.RejectText, "@@ -1,3 +0,0 @@")
}

func TestApplyTargetRejectsEveryHunkWhenContentIsBinary(t *testing.T) {
	current := []string{"one", "two", "three"}
	h := Hunk{
		OriginalStart: 2, OriginalLength: 1, ModifiedStart: 2, ModifiedLength: 1,
		Lines: []HunkLine{{Marker: '-', Text: "two"}, {Marker: '+', Text: "TWO"}},
	}
	result := ApplyTarget(Target{Hunks: []Hunk{h}}, current, Options{}, nil, true)
	assert.True(t, result.HasRejects)
	assert.Equal(t, current, result.PatchedLines)
	assert.Empty(t, result.AppliedHunks)
}

func TestApplyTargetReverse(t *testing.T) {
	current := []string{"one", "TWO", "three"}
	h := Hunk{
		OriginalStart: 2, OriginalLength: 1, ModifiedStart: 2, ModifiedLength: 1,
		Lines: []HunkLine{{Marker: '-', Text: "two"}, {Marker: '+', Text: "TWO"}},
	}
	result := ApplyTarget(Target{Hunks: []Hunk{h}}, current, Options{Reverse: true}, nil, false)
	assert.Equal(t, []string{"one", "two", "three"}, result.PatchedLines)
}

func TestClassifyOutcomeTable(t *testing.T) {
	assert.Equal(t, OutcomeScheduleDelete, ClassifyOutcome(10, 0, true, TargetVersioned))
	assert.Equal(t, OutcomeSkip, ClassifyOutcome(0, 0, false, TargetVersioned))
	assert.Equal(t, OutcomeReplacement, ClassifyOutcome(0, 5, true, TargetLocallyDeleted))
	assert.Equal(t, OutcomeAddition, ClassifyOutcome(0, 5, false, TargetAbsent))
	assert.Equal(t, OutcomeModification, ClassifyOutcome(10, 12, true, TargetVersioned))
}

func TestResolveTargetStripsComponents(t *testing.T) {
	root := pathmodel.FromOSPath(t.TempDir())
	resolved, ok, err := ResolveTarget(root, "a/b/file.txt", 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, root.IsAncestor(resolved) || resolved == root.Join("b/file.txt"))
}

func TestResolveTargetFailsLoudlyOnBadStripCount(t *testing.T) {
	root := pathmodel.FromOSPath(t.TempDir())
	_, _, err := ResolveTarget(root, "file.txt", 5)
	assert.Error(t, err)
}

func TestResolveTargetSkipsEmptyFilename(t *testing.T) {
	root := pathmodel.FromOSPath(t.TempDir())
	_, ok, err := ResolveTarget(root, "", 0)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDirTreeFindsEmptyDirectories(t *testing.T) {
	tree := NewDirTree()
	tree.AddPath("a", true)
	tree.AddPath("a/b", true)
	tree.AddPath("a/b/only.txt", false)
	tree.AddPath("a/sibling.txt", false)

	tree.RemovePath("a/b/only.txt")
	empty := tree.EmptyDirectories()
	assert.Contains(t, empty, "a/b")
	assert.NotContains(t, empty, "a") // a/sibling.txt keeps a non-empty
}

func TestDirTreePromotesParentAfterChildRemoved(t *testing.T) {
	tree := NewDirTree()
	tree.AddPath("a", true)
	tree.AddPath("a/b", true)
	tree.AddPath("a/b/only.txt", false)

	tree.RemovePath("a/b/only.txt")
	empty := tree.EmptyDirectories()
	assert.Contains(t, empty, "a/b")
	assert.Contains(t, empty, "a")
}
