package pristine

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardentvc/wcengine/internal/checksum"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	s, err := NewStore(logger, filepath.Join(t.TempDir(), "pristine"))
	require.NoError(t, err)
	return s
}

func writeTemp(t *testing.T, dir, content string) string {
	t.Helper()
	f, err := os.CreateTemp(dir, "tmp-*")
	require.NoError(t, err)
	_, err = f.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return f.Name()
}

func TestInstallAndRead(t *testing.T) {
	s := newTestStore(t)
	tmpDir := t.TempDir()
	tmp := writeTemp(t, tmpDir, "hello world")
	digests, err := checksum.Compute(strings.NewReader("hello world"))
	require.NoError(t, err)

	require.NoError(t, s.Install(tmp, digests.SHA1))
	assert.True(t, s.Exists(digests.SHA1))

	rc, err := s.Read(digests.SHA1)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))
}

func TestInstallIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	tmpDir := t.TempDir()
	digests, err := checksum.Compute(strings.NewReader("dup"))
	require.NoError(t, err)

	tmp1 := writeTemp(t, tmpDir, "dup")
	require.NoError(t, s.Install(tmp1, digests.SHA1))
	tmp2 := writeTemp(t, tmpDir, "dup")
	require.NoError(t, s.Install(tmp2, digests.SHA1))

	assert.True(t, s.Exists(digests.SHA1))
}

func TestReadMissingReturnsNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Read(checksum.SHA1("deadbeef"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCheckDetectsCorruption(t *testing.T) {
	s := newTestStore(t)
	presence, err := s.Check(checksum.SHA1("deadbeef"), true)
	assert.Error(t, err)
	assert.Equal(t, Absent, presence)

	presence, err = s.Check(checksum.SHA1("deadbeef"), false)
	require.NoError(t, err)
	assert.Equal(t, Absent, presence)
}

func TestRemove(t *testing.T) {
	s := newTestStore(t)
	tmpDir := t.TempDir()
	digests, err := checksum.Compute(strings.NewReader("bye"))
	require.NoError(t, err)
	tmp := writeTemp(t, tmpDir, "bye")
	require.NoError(t, s.Install(tmp, digests.SHA1))

	require.NoError(t, s.Remove(digests.SHA1))
	assert.False(t, s.Exists(digests.SHA1))
	require.NoError(t, s.Remove(digests.SHA1))
}
