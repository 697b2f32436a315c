package wcdb

import (
	"context"
	"database/sql"
	"time"
)

// NewChildInfo describes one child row whose BASE checksum global_commit
// rewrites; the child's revision is left as it is.
type NewChildInfo struct {
	Relpath  string
	Checksum string
}

// GlobalCommit promotes relpath's WORKING row into BASE at newRevision,
// clearing ACTUAL (retaining the changelist name iff keepChangelist),
// and enqueues workItems to run after the transaction commits
// (spec.md §4.4 global_commit).
func (db *DB) GlobalCommit(relpath string, newRevision int64, newDate time.Time, newAuthor string, newChecksum string, newChildren []NewChildInfo, newDavCache []byte, keepChangelist bool, workItems [][]byte) error {
	return db.withTx(context.Background(), func(tx *sql.Tx) error {
		w, ok, err := getWorkingRowTx(tx, db.wcID, relpath)
		if err != nil {
			return err
		}
		existingBase, baseErr := baseGetInfoTx(tx, db.wcID, relpath)

		kind := KindFile
		if ok {
			kind = w.Kind
		} else if baseErr == nil {
			kind = existingBase.Kind
		}

		reposID := RepositoryID(0)
		reposRelpath := ""
		if baseErr == nil {
			reposID = existingBase.ReposID
			reposRelpath = existingBase.ReposRelpath
		}

		if err := insertOrReplaceBaseTx(tx, db.wcID, BaseRow{
			Relpath: relpath, Status: StatusNormal, Kind: kind, Revision: newRevision,
			ReposID: reposID, ReposRelpath: reposRelpath,
			Changed:  ChangedInfo{Rev: newRevision, Date: newDate.Unix(), Author: newAuthor},
			Checksum: newChecksum, DavCache: newDavCache,
		}); err != nil {
			return err
		}
		if _, err := tx.Exec(`DELETE FROM working_node WHERE wc_id = ? AND local_relpath = ?`, db.wcID, relpath); err != nil {
			return err
		}

		var keptChangelist string
		if keepChangelist {
			actual, err := getActualTx(tx, db.wcID, relpath)
			if err != nil {
				return err
			}
			keptChangelist = actual.Changelist
		}
		if _, err := tx.Exec(`DELETE FROM actual_node WHERE wc_id = ? AND local_relpath = ?`, db.wcID, relpath); err != nil {
			return err
		}
		if keptChangelist != "" {
			if err := upsertActualTx(tx, db.wcID, relpath, func(r *ActualRow) { r.Changelist = keptChangelist }); err != nil {
				return err
			}
		}

		for _, child := range newChildren {
			if _, err := tx.Exec(`UPDATE base_node SET checksum = ? WHERE wc_id = ? AND local_relpath = ?`,
				child.Checksum, db.wcID, child.Relpath); err != nil {
				return err
			}
		}

		for _, item := range workItems {
			if err := WQAddTx(tx, item); err != nil {
				return err
			}
		}
		return nil
	})
}

// GlobalUpdate records a remote update's metadata onto relpath's BASE
// row in bulk (spec.md §4.4 global_update).
func (db *DB) GlobalUpdate(relpath string, revision int64, changed ChangedInfo, checksum string, davCache []byte) error {
	return db.withTx(context.Background(), func(tx *sql.Tx) error {
		base, err := baseGetInfoTx(tx, db.wcID, relpath)
		if err != nil {
			return err
		}
		base.Revision = revision
		base.Changed = changed
		base.Checksum = checksum
		base.DavCache = davCache
		return insertOrReplaceBaseTx(tx, db.wcID, base)
	})
}

// GlobalRelocate sets the root URL of the REPOSITORY row reposID to
// newRootURL. BASE rows refer to the repository by id and are not
// rewritten (spec.md §4.4 global_relocate).
func (db *DB) GlobalRelocate(reposID RepositoryID, newRootURL string) error {
	return db.withTx(context.Background(), func(tx *sql.Tx) error {
		_, err := tx.Exec(`UPDATE repository SET root_url = ? WHERE id = ?`, newRootURL, int64(reposID))
		return err
	})
}

// FileInfo is the on-disk size/mtime pair recorded by
// global_record_fileinfo.
type FileInfo struct {
	TranslatedSize int64
	LastModTime    time.Time
}

// GlobalRecordFileInfo records on-disk size/mtime for relpath into their
// own last_mod_time/translated_size columns, used by status scans to
// short-circuit a full pristine comparison when neither has changed
// since the last scan (spec.md §4.4 global_record_fileinfo). These are
// a local cache distinct from Changed.Date, which is the remote
// change-date carried by the BASE row.
func (db *DB) GlobalRecordFileInfo(relpath string, info FileInfo) error {
	return db.withTx(context.Background(), func(tx *sql.Tx) error {
		_, err := tx.Exec(`UPDATE base_node SET last_mod_time = ?, translated_size = ? WHERE wc_id = ? AND local_relpath = ?`,
			info.LastModTime.Unix(), info.TranslatedSize, db.wcID, relpath)
		return err
	})
}
