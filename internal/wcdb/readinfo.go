package wcdb

import (
	"database/sql"

	"github.com/ardentvc/wcengine/internal/wcerrors"
)

// ReadInfo computes the effective-node view of relpath per spec.md §3: a
// WORKING row wins when present; otherwise BASE; ACTUAL overlays
// conflict/property state on top of whichever wins. Returns
// wcerrors.PathNotFound if neither a BASE nor a WORKING row exists.
func (db *DB) ReadInfo(relpath string) (EffectiveInfo, error) {
	info := EffectiveInfo{Relpath: relpath}

	hasBase, err := baseExistsTx(db.sqldb, db.wcID, relpath)
	if err != nil {
		return info, wcerrors.Wrap(wcerrors.WCDBError, err, "read_info failed for %s", relpath).WithPath(relpath)
	}

	w, hasWorking, err := db.getWorkingRow(relpath)
	if err != nil {
		return info, err
	}

	switch {
	case hasWorking:
		info.Status = w.Status
		info.Kind = w.Kind
		info.Checksum = w.Checksum
		info.SymlinkTarget = w.SymlinkTarget
		info.BaseShadowed = hasBase
	case hasBase:
		base, err := db.BaseGetInfo(relpath)
		if err != nil {
			return info, err
		}
		info.Status = base.Status
		info.Kind = base.Kind
		info.Revision = base.Revision
		info.ReposRelpath = base.ReposRelpath
		info.Changed = base.Changed
		info.Depth = base.Depth
		info.Checksum = base.Checksum
		info.SymlinkTarget = base.SymlinkTarget
		info.Lock = base.Lock
		if base.ReposID != 0 {
			if repo, err := db.LookupRepository(base.ReposID); err == nil {
				info.ReposRootURL = repo.RootURL
				info.ReposUUID = repo.UUID
			}
		}
	default:
		return info, wcerrors.New(wcerrors.PathNotFound, "no BASE or WORKING row for %s", relpath).WithPath(relpath)
	}

	actual, err := db.getActualNonTx(relpath)
	if err != nil {
		return info, err
	}
	info.HasActual = actual != nil
	if actual != nil {
		info.Conflicted = actual.ConflictOld != "" || actual.ConflictNew != "" || actual.ConflictWorking != "" || actual.PropReject != ""
	}
	if !info.Conflicted {
		tcs, err := db.ReadConflicts(relpath)
		if err == nil && len(tcs) > 0 {
			info.Conflicted = true
		}
	}
	return info, nil
}

func (db *DB) getWorkingRow(relpath string) (WorkingRow, bool, error) {
	return getWorkingRowTx(db.sqldb, db.wcID, relpath)
}

// getWorkingRowTx is the read used both outside a transaction (via
// getWorkingRow, over db.sqldb) and from inside one (over the open
// *sql.Tx) — see baseGetInfoTx for why the distinction matters.
func getWorkingRowTx(q querier, wcID WCID, relpath string) (WorkingRow, bool, error) {
	var row WorkingRow
	row.Relpath = relpath
	var status, kind, checksum, symlink sql.NullString
	var copyfromReposID, copyfromRevision sql.NullInt64
	var copyfromRelpath sql.NullString
	var movedHere, replaced sql.NullInt64
	err := q.QueryRow(`SELECT status, kind, checksum, symlink_target, copyfrom_repos_id,
		copyfrom_relpath, copyfrom_revision, moved_here, replaced
		FROM working_node WHERE wc_id = ? AND local_relpath = ?`, wcID, relpath).
		Scan(&status, &kind, &checksum, &symlink, &copyfromReposID, &copyfromRelpath, &copyfromRevision, &movedHere, &replaced)
	if err == sql.ErrNoRows {
		return row, false, nil
	}
	if err != nil {
		return row, false, wcerrors.Wrap(wcerrors.WCDBError, err, "failed to read WORKING row for %s", relpath).WithPath(relpath)
	}
	row.Status = Status(status.String)
	row.Kind = Kind(kind.String)
	row.Checksum = checksum.String
	row.SymlinkTarget = symlink.String
	row.CopyfromReposID = RepositoryID(copyfromReposID.Int64)
	row.CopyfromRelpath = copyfromRelpath.String
	row.CopyfromRevision = copyfromRevision.Int64
	row.MovedHere = movedHere.Int64 != 0
	row.Replaced = replaced.Int64 != 0
	return row, true, nil
}

func (db *DB) getActualNonTx(relpath string) (*ActualRow, error) {
	row := ActualRow{Relpath: relpath}
	var properties []byte
	var changelist, co, cn, cw, pr sql.NullString
	err := db.sqldb.QueryRow(`SELECT properties, changelist, conflict_old, conflict_new, conflict_working, prop_reject
		FROM actual_node WHERE wc_id = ? AND local_relpath = ?`, db.wcID, relpath).
		Scan(&properties, &changelist, &co, &cn, &cw, &pr)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, wcerrors.Wrap(wcerrors.WCDBError, err, "failed to read ACTUAL row for %s", relpath).WithPath(relpath)
	}
	row.Properties = properties
	row.Changelist = changelist.String
	row.ConflictOld, row.ConflictNew, row.ConflictWorking, row.PropReject = co.String, cn.String, cw.String, pr.String
	return &row, nil
}
