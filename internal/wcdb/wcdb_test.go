package wcdb

import (
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardentvc/wcengine/internal/pathmodel"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	root := pathmodel.FromOSPath(t.TempDir())
	db, err := Init(logger, root, "trunk", "https://example.com/repo", "uuid-1234", 1, DepthInfinity)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestInitCreatesRootBaseRow(t *testing.T) {
	db := newTestDB(t)
	info, err := db.ReadInfo("")
	require.NoError(t, err)
	assert.Equal(t, StatusNormal, info.Status)
	assert.Equal(t, KindDirectory, info.Kind)
}

func TestOpAddFileAndReadInfo(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.OpAddDirectory("sub"))
	require.NoError(t, db.OpAddFile("sub/foo.txt", "deadbeef"))

	info, err := db.ReadInfo("sub/foo.txt")
	require.NoError(t, err)
	assert.Equal(t, StatusNormal, info.Status)
	assert.Equal(t, KindFile, info.Kind)
	assert.Equal(t, "deadbeef", info.Checksum)
	assert.False(t, info.BaseShadowed)
}

func TestOpAddFileHasNoParentRequirement(t *testing.T) {
	db := newTestDB(t)
	err := db.OpAddFile("missing-parent/foo.txt", "deadbeef")
	assert.NoError(t, err) // WORKING rows carry no parent-BASE-row requirement, unlike BASE rows
}

func TestBaseAddRequiresParentRow(t *testing.T) {
	db := newTestDB(t)
	changed := ChangedInfo{Rev: 1, Date: time.Now().Unix(), Author: "alice"}
	err := db.BaseAddFile("no/such/parent.txt", 1, 1, "no/such/parent.txt", changed, "abc123", nil)
	assert.Error(t, err)
}

func TestOpDeletePlainAddRevertsRow(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.OpAddFile("new.txt", "abc123"))
	require.NoError(t, db.OpDelete("new.txt"))

	_, err := db.ReadInfo("new.txt")
	assert.Error(t, err)
}

func TestOpDeleteBaseRowMarksBaseDeleted(t *testing.T) {
	db := newTestDB(t)
	changed := ChangedInfo{Rev: 1, Date: time.Now().Unix(), Author: "alice"}
	require.NoError(t, db.BaseAddFile("tracked.txt", 1, 1, "tracked.txt", changed, "abc123", nil))
	require.NoError(t, db.OpDelete("tracked.txt"))

	info, err := db.ReadInfo("tracked.txt")
	require.NoError(t, err)
	assert.Equal(t, StatusBaseDeleted, info.Status)
	assert.True(t, info.BaseShadowed)
}

func TestOpCopyPreservesCopyfrom(t *testing.T) {
	db := newTestDB(t)
	changed := ChangedInfo{Rev: 1, Date: time.Now().Unix(), Author: "alice"}
	require.NoError(t, db.BaseAddFile("orig.txt", 1, 1, "orig.txt", changed, "abc123", nil))
	require.NoError(t, db.OpCopy("orig.txt", "copy.txt", 1, 1))

	scan, err := db.ScanAddition("copy.txt")
	require.NoError(t, err)
	assert.Equal(t, "copy.txt", scan.OpRoot)
	assert.Equal(t, "orig.txt", scan.OrigReposRelpath)
}

func TestScanDeletionBaseReplacedFalseForPlainDelete(t *testing.T) {
	db := newTestDB(t)
	changed := ChangedInfo{Rev: 1, Date: time.Now().Unix(), Author: "alice"}
	require.NoError(t, db.BaseAddFile("plain.txt", 1, 1, "plain.txt", changed, "abc123", nil))
	require.NoError(t, db.OpDelete("plain.txt"))

	scan, err := db.ScanDeletion("plain.txt")
	require.NoError(t, err)
	assert.Equal(t, "plain.txt", scan.BaseDelOpRoot)
	assert.False(t, scan.BaseReplaced) // untouched BASE deleted outright, nothing added over it
}

func TestScanAdditionAndScanDeletionAgreeOnOperationRootAfterReplace(t *testing.T) {
	db := newTestDB(t)
	changed := ChangedInfo{Rev: 1, Date: time.Now().Unix(), Author: "alice"}
	require.NoError(t, db.BaseAddFile("orig.txt", 1, 1, "orig.txt", changed, "abc123", nil))
	require.NoError(t, db.BaseAddFile("target.txt", 1, 1, "target.txt", changed, "def456", nil))
	require.NoError(t, db.OpCopy("orig.txt", "target.txt", 1, 1))

	addScan, err := db.ScanAddition("target.txt")
	require.NoError(t, err)
	assert.Equal(t, "target.txt", addScan.OpRoot)

	require.NoError(t, db.OpDelete("target.txt"))

	delScan, err := db.ScanDeletion("target.txt")
	require.NoError(t, err)
	assert.Equal(t, addScan.OpRoot, delScan.BaseDelOpRoot) // same relpath as both operations' root
	assert.True(t, delScan.BaseReplaced)                   // the copy-over was replaced by this delete
}

func TestWCLockRejectsOtherOwner(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.WCLockSet("", -1, "owner-a"))

	err := db.WCLockSet("", -1, "owner-b")
	assert.Error(t, err)

	require.NoError(t, db.WCLockSet("", -1, "owner-a")) // same owner re-lock is a no-op
	locked, err := db.WCLocked("sub/child")
	require.NoError(t, err)
	assert.True(t, locked) // covered by the infinite-depth root lock
}

func TestWorkQueueFIFO(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.WQAdd([]byte("first")))
	require.NoError(t, db.WQAdd([]byte("second")))

	item, err := db.WQFetch()
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "first", string(item.Work))

	require.NoError(t, db.WQCompleted(item.ID))
	item, err = db.WQFetch()
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "second", string(item.Work))
}

func TestGlobalCommitPromotesWorkingToBase(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.OpAddFile("new.txt", "abc123"))
	require.NoError(t, db.OpSetChangelist("new.txt", "my-changes"))

	err := db.GlobalCommit("new.txt", 2, time.Now(), "alice", "abc123", nil, nil, true, nil)
	require.NoError(t, err)

	info, err := db.ReadInfo("new.txt")
	require.NoError(t, err)
	assert.Equal(t, StatusNormal, info.Status)
	assert.Equal(t, int64(2), info.Revision)
	assert.False(t, info.BaseShadowed)
}

func TestGlobalCommitDropsChangelistUnlessKept(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.OpAddFile("new.txt", "abc123"))
	require.NoError(t, db.OpSetChangelist("new.txt", "my-changes"))

	require.NoError(t, db.GlobalCommit("new.txt", 2, time.Now(), "alice", "abc123", nil, nil, false, nil))

	actual, err := db.getActualNonTx("new.txt")
	require.NoError(t, err)
	assert.Nil(t, actual)
}
