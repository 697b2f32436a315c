package wcdb

import (
	"context"
	"database/sql"
	"time"

	"github.com/ardentvc/wcengine/internal/pathmodel"
	"github.com/ardentvc/wcengine/internal/wcerrors"
)

// baseParentExists reports whether relpath's parent has a BASE row, or
// whether relpath is the root (no parent required).
func baseParentExists(tx *sql.Tx, wcID WCID, relpath string) (bool, error) {
	if relpath == "" {
		return true, nil
	}
	parent := string(pathmodel.Relpath(relpath).Dirname())
	var count int
	err := tx.QueryRow(`SELECT COUNT(*) FROM base_node WHERE wc_id = ? AND local_relpath = ?`, wcID, parent).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func insertOrReplaceBaseTx(tx *sql.Tx, wcID WCID, row BaseRow) error {
	ok, err := baseParentExists(tx, wcID, row.Relpath)
	if err != nil {
		return err
	}
	if !ok {
		return wcerrors.New(wcerrors.IncorrectParams, "base_add: parent BASE row missing for %s", row.Relpath).WithPath(row.Relpath)
	}
	var lockToken, lockOwner, lockComment sql.NullString
	if row.Lock != nil {
		lockToken = sql.NullString{String: row.Lock.Token, Valid: true}
		lockOwner = sql.NullString{String: row.Lock.Owner, Valid: true}
		lockComment = sql.NullString{String: row.Lock.Comment, Valid: true}
	}
	var lastModTime sql.NullInt64
	if !row.LastModTime.IsZero() {
		lastModTime = sql.NullInt64{Int64: row.LastModTime.Unix(), Valid: true}
	}
	_, err = tx.Exec(`INSERT OR REPLACE INTO base_node
		(wc_id, local_relpath, parent_relpath, status, kind, revision, repos_id, repos_relpath,
		 changed_rev, changed_date, changed_author, depth, checksum, symlink_target, dav_cache,
		 lock_token, lock_owner, lock_comment, last_mod_time, translated_size)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		wcID, row.Relpath, nullableParent(row.Relpath), row.Status, row.Kind, row.Revision,
		int64(row.ReposID), row.ReposRelpath, row.Changed.Rev, row.Changed.Date, row.Changed.Author,
		row.Depth, row.Checksum, row.SymlinkTarget, row.DavCache, lockToken, lockOwner, lockComment,
		lastModTime, row.TranslatedSize)
	return err
}

func nullableParent(relpath string) any {
	if relpath == "" {
		return nil
	}
	return string(pathmodel.Relpath(relpath).Dirname())
}

// BaseAddDirectory replaces any prior row at relpath with a directory
// BASE row.
func (db *DB) BaseAddDirectory(relpath string, revision int64, reposID RepositoryID, reposRelpath string, changed ChangedInfo, depth Depth, davCache []byte) error {
	return db.withTx(context.Background(), func(tx *sql.Tx) error {
		return insertOrReplaceBaseTx(tx, db.wcID, BaseRow{
			Relpath: relpath, Status: StatusNormal, Kind: KindDirectory, Revision: revision,
			ReposID: reposID, ReposRelpath: reposRelpath, Changed: changed, Depth: depth, DavCache: davCache,
		})
	})
}

// BaseAddFile replaces any prior row at relpath with a file BASE row.
func (db *DB) BaseAddFile(relpath string, revision int64, reposID RepositoryID, reposRelpath string, changed ChangedInfo, checksum string, davCache []byte) error {
	return db.withTx(context.Background(), func(tx *sql.Tx) error {
		return insertOrReplaceBaseTx(tx, db.wcID, BaseRow{
			Relpath: relpath, Status: StatusNormal, Kind: KindFile, Revision: revision,
			ReposID: reposID, ReposRelpath: reposRelpath, Changed: changed, Checksum: checksum, DavCache: davCache,
		})
	})
}

// BaseAddSymlink replaces any prior row at relpath with a symlink BASE row.
func (db *DB) BaseAddSymlink(relpath string, revision int64, reposID RepositoryID, reposRelpath string, changed ChangedInfo, target string) error {
	return db.withTx(context.Background(), func(tx *sql.Tx) error {
		return insertOrReplaceBaseTx(tx, db.wcID, BaseRow{
			Relpath: relpath, Status: StatusNormal, Kind: KindSymlink, Revision: revision,
			ReposID: reposID, ReposRelpath: reposRelpath, Changed: changed, SymlinkTarget: target,
		})
	})
}

// BaseAddAbsentNode records relpath as absent: path and presence are
// authoritative, no local content is stored (spec.md §3 Lifecycle).
func (db *DB) BaseAddAbsentNode(relpath string, kind Kind, revision int64, reposID RepositoryID, reposRelpath string) error {
	return db.withTx(context.Background(), func(tx *sql.Tx) error {
		return insertOrReplaceBaseTx(tx, db.wcID, BaseRow{
			Relpath: relpath, Status: StatusAbsent, Kind: kind, Revision: revision,
			ReposID: reposID, ReposRelpath: reposRelpath,
		})
	})
}

// BaseRemove deletes the BASE row at relpath. Referenced pristine text is
// not removed here — PristineRemove handles reference counting
// separately (spec.md §4.4).
func (db *DB) BaseRemove(relpath string) error {
	return db.withTx(context.Background(), func(tx *sql.Tx) error {
		_, err := tx.Exec(`DELETE FROM base_node WHERE wc_id = ? AND local_relpath = ?`, db.wcID, relpath)
		return err
	})
}

// BaseGetInfo returns the BASE view of relpath even if a WORKING overlay
// exists at the same path.
func (db *DB) BaseGetInfo(relpath string) (BaseRow, error) {
	return baseGetInfoTx(db.sqldb, db.wcID, relpath)
}

// baseGetInfoTx is the read used both outside a transaction (via
// BaseGetInfo, over db.sqldb) and from inside one (over the open *sql.Tx)
// — calling BaseGetInfo itself from within a withTx callback would
// deadlock, since the pool's single connection is held by that
// transaction until it commits.
func baseGetInfoTx(q querier, wcID WCID, relpath string) (BaseRow, error) {
	var row BaseRow
	row.Relpath = relpath
	var reposID sql.NullInt64
	var reposRelpath, symlinkTarget, checksumStr, depth sql.NullString
	var lockToken, lockOwner, lockComment sql.NullString
	var davCache []byte
	var lastModTime sql.NullInt64
	var translatedSize sql.NullInt64
	err := q.QueryRow(`SELECT status, kind, revision, repos_id, repos_relpath,
		changed_rev, changed_date, changed_author, depth, checksum, symlink_target, dav_cache,
		lock_token, lock_owner, lock_comment, last_mod_time, translated_size
		FROM base_node WHERE wc_id = ? AND local_relpath = ?`, wcID, relpath).Scan(
		&row.Status, &row.Kind, &row.Revision, &reposID, &reposRelpath,
		&row.Changed.Rev, &row.Changed.Date, &row.Changed.Author, &depth, &checksumStr, &symlinkTarget, &davCache,
		&lockToken, &lockOwner, &lockComment, &lastModTime, &translatedSize)
	if err == sql.ErrNoRows {
		return BaseRow{}, wcerrors.New(wcerrors.PathNotFound, "no BASE row for %s", relpath).WithPath(relpath)
	}
	if err != nil {
		return BaseRow{}, wcerrors.Wrap(wcerrors.WCDBError, err, "base_get_info failed for %s", relpath).WithPath(relpath)
	}
	row.ReposID = RepositoryID(reposID.Int64)
	row.ReposRelpath = reposRelpath.String
	row.Depth = Depth(depth.String)
	row.Checksum = checksumStr.String
	row.SymlinkTarget = symlinkTarget.String
	row.DavCache = davCache
	if lockToken.Valid {
		row.Lock = &LockInfo{Token: lockToken.String, Owner: lockOwner.String, Comment: lockComment.String}
	}
	if lastModTime.Valid {
		row.LastModTime = time.Unix(lastModTime.Int64, 0)
	}
	row.TranslatedSize = translatedSize.Int64
	return row, nil
}

// AllRelpaths returns every relpath known to this working copy, BASE or
// WORKING, in lexical order, for a full-tree walk (e.g. graph export).
func (db *DB) AllRelpaths() ([]string, error) {
	rows, err := db.sqldb.Query(`SELECT local_relpath FROM base_node WHERE wc_id = ?
		UNION SELECT local_relpath FROM working_node WHERE wc_id = ?
		ORDER BY local_relpath`, db.wcID, db.wcID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var relpath string
		if err := rows.Scan(&relpath); err != nil {
			return nil, err
		}
		out = append(out, relpath)
	}
	return out, rows.Err()
}

// baseExistsTx reports whether a BASE row exists at relpath.
func baseExistsTx(q querier, wcID WCID, relpath string) (bool, error) {
	var count int
	err := q.QueryRow(`SELECT COUNT(*) FROM base_node WHERE wc_id = ? AND local_relpath = ?`, wcID, relpath).Scan(&count)
	return count > 0, err
}

// querier abstracts over *sql.DB and *sql.Tx for read helpers shared by
// both transactional and non-transactional callers.
type querier interface {
	QueryRow(query string, args ...any) *sql.Row
}
