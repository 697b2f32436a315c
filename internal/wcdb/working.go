package wcdb

import (
	"context"
	"database/sql"

	"github.com/ardentvc/wcengine/internal/pathmodel"
	"github.com/ardentvc/wcengine/internal/wcerrors"
)

func workingExistsTx(tx *sql.Tx, wcID WCID, relpath string) (bool, Status, error) {
	var status string
	err := tx.QueryRow(`SELECT status FROM working_node WHERE wc_id = ? AND local_relpath = ?`, wcID, relpath).Scan(&status)
	if err == sql.ErrNoRows {
		return false, "", nil
	}
	if err != nil {
		return false, "", err
	}
	return true, Status(status), nil
}

func insertWorkingTx(tx *sql.Tx, wcID WCID, row WorkingRow) error {
	moved := 0
	if row.MovedHere {
		moved = 1
	}
	replaced := 0
	if row.Replaced {
		replaced = 1
	}
	_, err := tx.Exec(`INSERT OR REPLACE INTO working_node
		(wc_id, local_relpath, parent_relpath, status, kind, checksum, symlink_target,
		 copyfrom_repos_id, copyfrom_relpath, copyfrom_revision, moved_here, replaced)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		wcID, row.Relpath, nullableParent(row.Relpath), row.Status, row.Kind, row.Checksum, row.SymlinkTarget,
		int64(row.CopyfromReposID), row.CopyfromRelpath, row.CopyfromRevision, moved, replaced)
	return err
}

// OpAddFile creates a new WORKING row of kind file with status normal and
// empty copyfrom (spec.md §4.4 op_add_*).
func (db *DB) OpAddFile(relpath string, checksum string) error {
	return db.withTx(context.Background(), func(tx *sql.Tx) error {
		return insertWorkingTx(tx, db.wcID, WorkingRow{Relpath: relpath, Status: StatusNormal, Kind: KindFile, Checksum: checksum})
	})
}

// OpAddDirectory creates a new WORKING row of kind directory.
func (db *DB) OpAddDirectory(relpath string) error {
	return db.withTx(context.Background(), func(tx *sql.Tx) error {
		return insertWorkingTx(tx, db.wcID, WorkingRow{Relpath: relpath, Status: StatusNormal, Kind: KindDirectory})
	})
}

// OpAddSymlink creates a new WORKING row of kind symlink.
func (db *DB) OpAddSymlink(relpath, target string) error {
	return db.withTx(context.Background(), func(tx *sql.Tx) error {
		return insertWorkingTx(tx, db.wcID, WorkingRow{Relpath: relpath, Status: StatusNormal, Kind: KindSymlink, SymlinkTarget: target})
	})
}

// OpCopy records one WORKING row at dstRelpath with copyfrom pointing at
// srcRelpath (spec.md §4.4 op_copy). Kind and checksum come from
// srcRelpath's BASE row; a source with no BASE row is recorded as a file
// with no checksum. Rows below srcRelpath are not copied.
func (db *DB) OpCopy(srcRelpath, dstRelpath string, copyfromReposID RepositoryID, copyfromRevision int64) error {
	return db.withTx(context.Background(), func(tx *sql.Tx) error {
		kind := KindFile
		checksum := ""
		if base, err := baseGetInfoTx(tx, db.wcID, srcRelpath); err == nil {
			kind = base.Kind
			checksum = base.Checksum
		}
		return insertWorkingTx(tx, db.wcID, WorkingRow{
			Relpath: dstRelpath, Status: StatusNormal, Kind: kind, Checksum: checksum,
			CopyfromReposID: copyfromReposID, CopyfromRelpath: srcRelpath, CopyfromRevision: copyfromRevision,
		})
	})
}

// OpDelete computes and applies the delete state transition of spec.md
// §4.4.1 for relpath. Children of a copied root transition to
// not-present; the copy/add root itself transitions to base-deleted to
// re-expose the BASE node for future replay; a plain (uncopied) add is
// reverted by deleting its WORKING row outright.
func (db *DB) OpDelete(relpath string) error {
	return db.withTx(context.Background(), func(tx *sql.Tx) error {
		hasBase, err := baseExistsTx(tx, db.wcID, relpath)
		if err != nil {
			return err
		}
		hasWorking, workingStatus, err := workingExistsTx(tx, db.wcID, relpath)
		if err != nil {
			return err
		}

		var baseStatus Status
		var kind Kind = KindFile
		if hasBase {
			base, err := baseGetInfoTx(tx, db.wcID, relpath)
			if err != nil {
				return err
			}
			baseStatus = base.Status
			kind = base.Kind
		}

		switch {
		case hasBase && baseStatus == StatusAbsent:
			return wcerrors.New(wcerrors.PathUnexpectedStatus, "cannot delete unknown (absent) node at %s", relpath).WithPath(relpath)

		case hasBase && !hasWorking:
			// Untouched BASE: mark base-deleted.
			return insertWorkingTx(tx, db.wcID, WorkingRow{Relpath: relpath, Status: StatusBaseDeleted, Kind: kind})

		case hasBase && hasWorking && workingStatus == StatusNotPresent:
			return nil // already deleted, no-op

		case hasBase && hasWorking && workingStatus == StatusIncomplete:
			return insertWorkingTx(tx, db.wcID, WorkingRow{Relpath: relpath, Status: StatusBaseDeleted, Kind: kind})

		case hasBase && hasWorking:
			// Replacement (added/copied over a BASE node): operation root
			// becomes base-deleted, marked Replaced so scan_deletion can
			// still tell this apart from a plain delete of untouched BASE;
			// children become not-present.
			if err := insertWorkingTx(tx, db.wcID, WorkingRow{Relpath: relpath, Status: StatusBaseDeleted, Kind: kind, Replaced: true}); err != nil {
				return err
			}
			return markChildrenNotPresentTx(tx, db.wcID, relpath)

		case !hasBase && hasWorking:
			// Plain add with no BASE underneath: delete reverts it entirely.
			_, err := tx.Exec(`DELETE FROM working_node WHERE wc_id = ? AND local_relpath = ?`, db.wcID, relpath)
			return err

		default:
			// Neither a BASE nor a WORKING row at relpath itself: it may
			// already be covered by an ancestor's base-deleted/not-present
			// region (e.g. a directory delete that implicitly took this
			// child with it), which is a no-op rather than an error.
			if _, err := scanDeletionTx(tx, db.wcID, relpath); err == nil {
				return nil
			}
			return wcerrors.New(wcerrors.PathNotFound, "no node to delete at %s", relpath).WithPath(relpath)
		}
	})
}

// markChildrenNotPresentTx transitions every WORKING child of relpath to
// not-present, as required when the operation root itself transitions to
// base-deleted (spec.md §4.4.1).
func markChildrenNotPresentTx(tx *sql.Tx, wcID WCID, relpath string) error {
	prefix := string(relpath) + "/"
	rows, err := tx.Query(`SELECT local_relpath, kind FROM working_node WHERE wc_id = ? AND local_relpath LIKE ? ESCAPE '\'`,
		wcID, escapeLike(prefix)+"%")
	if err != nil {
		return err
	}
	defer rows.Close()
	var children []string
	var kinds []Kind
	for rows.Next() {
		var child string
		var kind string
		if err := rows.Scan(&child, &kind); err != nil {
			return err
		}
		if pathmodel.Relpath(relpath).IsAncestor(pathmodel.Relpath(child)) {
			children = append(children, child)
			kinds = append(kinds, Kind(kind))
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for i, child := range children {
		if _, err := tx.Exec(`UPDATE working_node SET status = ? WHERE wc_id = ? AND local_relpath = ?`,
			StatusNotPresent, wcID, child); err != nil {
			return err
		}
		_ = kinds[i]
	}
	return nil
}

func escapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
