package wcdb

import (
	"context"
	"database/sql"

	"github.com/ardentvc/wcengine/internal/pathmodel"
	"github.com/ardentvc/wcengine/internal/wcerrors"
)

// WCLockSet acquires a write lock on relpath's subtree (depth -1 means
// infinite) under ownerToken. A lock already held by the same
// ownerToken on an ancestor is permitted and does not double-lock; one
// held by a different owner is rejected with wcerrors.WCLocked
// (spec.md §5).
func (db *DB) WCLockSet(relpath string, depth int, ownerToken string) error {
	return db.withTx(context.Background(), func(tx *sql.Tx) error {
		rows, err := tx.Query(`SELECT local_relpath, depth, owner_token FROM wc_lock WHERE wc_id = ?`, db.wcID)
		if err != nil {
			return err
		}
		type existing struct {
			relpath string
			depth   int
			owner   string
		}
		var locks []existing
		for rows.Next() {
			var e existing
			if err := rows.Scan(&e.relpath, &e.depth, &e.owner); err != nil {
				rows.Close()
				return err
			}
			locks = append(locks, e)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		rows.Close()

		for _, e := range locks {
			covers := e.relpath == relpath ||
				(e.depth < 0 && (pathmodel.Relpath(e.relpath).IsAncestor(pathmodel.Relpath(relpath)) || e.relpath == "")) ||
				pathmodel.Relpath(relpath).IsAncestor(pathmodel.Relpath(e.relpath))
			if covers {
				if e.owner != ownerToken {
					return wcerrors.New(wcerrors.WCLocked, "path %s is locked by another process", relpath).WithPath(relpath)
				}
				return nil // same-process re-lock within an already-locked scope: no-op
			}
		}

		_, err = tx.Exec(`INSERT OR REPLACE INTO wc_lock(wc_id, local_relpath, depth, owner_token) VALUES (?, ?, ?, ?)`,
			db.wcID, relpath, depth, ownerToken)
		return err
	})
}

// WCLockRemove releases the lock at relpath, if any, held by ownerToken.
func (db *DB) WCLockRemove(relpath, ownerToken string) error {
	return db.withTx(context.Background(), func(tx *sql.Tx) error {
		_, err := tx.Exec(`DELETE FROM wc_lock WHERE wc_id = ? AND local_relpath = ? AND owner_token = ?`,
			db.wcID, relpath, ownerToken)
		return err
	})
}

// WCLocked reports whether relpath is currently covered by any lock.
func (db *DB) WCLocked(relpath string) (bool, error) {
	rows, err := db.sqldb.Query(`SELECT local_relpath, depth FROM wc_lock WHERE wc_id = ?`, db.wcID)
	if err != nil {
		return false, err
	}
	defer rows.Close()
	for rows.Next() {
		var lockedRelpath string
		var depth int
		if err := rows.Scan(&lockedRelpath, &depth); err != nil {
			return false, err
		}
		if lockedRelpath == relpath {
			return true, nil
		}
		if depth < 0 && (pathmodel.Relpath(lockedRelpath).IsAncestor(pathmodel.Relpath(relpath)) || lockedRelpath == "") {
			return true, nil
		}
	}
	return false, rows.Err()
}
