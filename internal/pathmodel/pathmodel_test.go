package pathmodel

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalizeRelpath(t *testing.T) {
	tests := []struct {
		in      string
		want    Relpath
		wantErr bool
	}{
		{"a/b/c", "a/b/c", false},
		{"/a/./b//c/", "a/b/c", false},
		{"", "", false},
		{"a/../b", "", true},
		{"./a/b", "a/b", false},
	}
	for _, tc := range tests {
		got, err := CanonicalizeRelpath(tc.in)
		if tc.wantErr {
			assert.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestCanonicalizeRelpathIdempotent(t *testing.T) {
	for _, in := range []string{"a/b/c", "/a/./b//c/", "x"} {
		once, err := CanonicalizeRelpath(in)
		require.NoError(t, err)
		twice, err := CanonicalizeRelpath(string(once))
		require.NoError(t, err)
		assert.Equal(t, once, twice)
	}
}

func TestCanonicalizeDirent(t *testing.T) {
	assert.Equal(t, Dirent("/a/b/c"), CanonicalizeDirent("/a/./b//c/"))
	assert.Equal(t, Dirent("x:/"), CanonicalizeDirent("X:\\"))
}

func TestRelpathAncestry(t *testing.T) {
	assert.True(t, Relpath("a/b").IsAncestor("a/b/c"))
	assert.False(t, Relpath("a/b").IsAncestor("a/b"))
	assert.False(t, Relpath("a/bc").IsAncestor("a/b/c"))

	rest, ok := Relpath("a/b").SkipAncestor("a/b/c")
	require.True(t, ok)
	assert.Equal(t, Relpath("c"), rest)
}

func TestGetLongestAncestor(t *testing.T) {
	assert.Equal(t, Relpath("a/b"), GetLongestAncestor("a/b/c", "a/b/d"))
	assert.Equal(t, Relpath(""), GetLongestAncestor("a/b", "c/d"))
}

func TestIsUnderRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "f.txt"), []byte("hi"), 0o644))

	base := FromOSPath(root)
	resolved, ok := IsUnderRoot(base, "sub/f.txt")
	require.True(t, ok)
	assert.Equal(t, base.Join("sub/f.txt"), resolved)

	_, ok = IsUnderRoot(base, "../../../etc/passwd")
	assert.False(t, ok)
}

func TestIsUnderRootRejectsEscapingSymlink(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outside, "secret.txt"), []byte("s"), 0o644))
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "escape")))

	base := FromOSPath(root)
	_, ok := IsUnderRoot(base, "escape/secret.txt")
	assert.False(t, ok)
}
