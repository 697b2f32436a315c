package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/ardentvc/wcengine/internal/config"
	"github.com/ardentvc/wcengine/internal/notify"
	"github.com/ardentvc/wcengine/internal/patch"
	"github.com/ardentvc/wcengine/internal/pathmodel"
	"github.com/ardentvc/wcengine/internal/wcdb"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.Out = os.Stderr
	logger.Level = logrus.ErrorLevel
	return logger
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Unmarshal(nil)
	require.NoError(t, err)
	return cfg
}

func initWorkingCopy(t *testing.T, root pathmodel.Dirent) {
	t.Helper()
	db, err := wcdb.Init(testLogger(), root, "", "file:///repo", "uuid-1", 1, wcdb.DepthInfinity)
	require.NoError(t, err)
	require.NoError(t, db.BaseAddFile("greeting.txt", 1, 1, "greeting.txt", wcdb.ChangedInfo{Rev: 1}, "", nil))
	require.NoError(t, db.Close())
}

func onePatch(t *testing.T) patch.Patch {
	t.Helper()
	return patch.Patch{Targets: []patch.Target{
		{
			OldFilename: "greeting.txt",
			NewFilename: "greeting.txt",
			Hunks: []patch.Hunk{
				{
					OriginalStart: 1, OriginalLength: 2,
					ModifiedStart: 1, ModifiedLength: 2,
					Lines: []patch.HunkLine{
						{Marker: '-', Text: "hello"},
						{Marker: '+', Text: "goodbye"},
						{Marker: ' ', Text: "world"},
					},
				},
			},
		},
	}}
}

func TestEngineApplyPatchModifiesFileAndDrains(t *testing.T) {
	dir := t.TempDir()
	root := pathmodel.FromOSPath(dir)
	initWorkingCopy(t, root)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "greeting.txt"), []byte("hello\nworld"), 0o644))

	eng, err := Open(testLogger(), root, testConfig(t), notify.Nop)
	require.NoError(t, err)
	defer eng.Close()

	results, err := eng.ApplyPatch("", -1, onePatch(t), patch.Options{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, patch.OutcomeModification, results[0].Outcome)

	content, err := os.ReadFile(filepath.Join(dir, "greeting.txt"))
	require.NoError(t, err)
	require.Equal(t, "goodbye\nworld", string(content))
}

func TestEngineApplyPatchDryRunLeavesFileUntouched(t *testing.T) {
	dir := t.TempDir()
	root := pathmodel.FromOSPath(dir)
	initWorkingCopy(t, root)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "greeting.txt"), []byte("hello\nworld"), 0o644))

	eng, err := Open(testLogger(), root, testConfig(t), notify.Nop)
	require.NoError(t, err)
	defer eng.Close()

	results, err := eng.ApplyPatch("", -1, onePatch(t), patch.Options{DryRun: true})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Empty(t, results[0].WorkItems)

	content, err := os.ReadFile(filepath.Join(dir, "greeting.txt"))
	require.NoError(t, err)
	require.Equal(t, "hello\nworld", string(content))
}

func TestEngineApplyPatchHoldsAndReleasesLock(t *testing.T) {
	dir := t.TempDir()
	root := pathmodel.FromOSPath(dir)
	initWorkingCopy(t, root)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "greeting.txt"), []byte("hello\nworld"), 0o644))

	eng, err := Open(testLogger(), root, testConfig(t), notify.Nop)
	require.NoError(t, err)
	defer eng.Close()

	_, err = eng.ApplyPatch("", -1, onePatch(t), patch.Options{})
	require.NoError(t, err)

	// The lock taken for the first call must have been released, so a
	// second ApplyPatch against the same working copy succeeds.
	_, err = eng.ApplyPatch("", -1, patch.Patch{}, patch.Options{})
	require.NoError(t, err)
}

func TestEngineDrainOnEmptyQueueIsANoop(t *testing.T) {
	dir := t.TempDir()
	root := pathmodel.FromOSPath(dir)
	initWorkingCopy(t, root)

	eng, err := Open(testLogger(), root, testConfig(t), notify.Nop)
	require.NoError(t, err)
	defer eng.Close()

	require.NoError(t, eng.Drain())
}
