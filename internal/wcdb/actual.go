package wcdb

import (
	"context"
	"database/sql"
)

func upsertActualTx(tx *sql.Tx, wcID WCID, relpath string, mutate func(*ActualRow)) error {
	row, err := getActualTx(tx, wcID, relpath)
	if err != nil {
		return err
	}
	mutate(&row)
	_, err = tx.Exec(`INSERT OR REPLACE INTO actual_node
		(wc_id, local_relpath, parent_relpath, properties, changelist, conflict_old, conflict_new, conflict_working, prop_reject)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		wcID, relpath, nullableParent(relpath), row.Properties, row.Changelist,
		row.ConflictOld, row.ConflictNew, row.ConflictWorking, row.PropReject)
	return err
}

func getActualTx(tx *sql.Tx, wcID WCID, relpath string) (ActualRow, error) {
	row := ActualRow{Relpath: relpath}
	var properties []byte
	var changelist, co, cn, cw, pr sql.NullString
	err := tx.QueryRow(`SELECT properties, changelist, conflict_old, conflict_new, conflict_working, prop_reject
		FROM actual_node WHERE wc_id = ? AND local_relpath = ?`, wcID, relpath).
		Scan(&properties, &changelist, &co, &cn, &cw, &pr)
	if err == sql.ErrNoRows {
		return row, nil
	}
	if err != nil {
		return row, err
	}
	row.Properties = properties
	row.Changelist = changelist.String
	row.ConflictOld, row.ConflictNew, row.ConflictWorking, row.PropReject = co.String, cn.String, cw.String, pr.String
	return row, nil
}

// OpSetProps overlays a property-modification blob onto relpath's ACTUAL
// row.
func (db *DB) OpSetProps(relpath string, properties []byte) error {
	return db.withTx(context.Background(), func(tx *sql.Tx) error {
		return upsertActualTx(tx, db.wcID, relpath, func(r *ActualRow) { r.Properties = properties })
	})
}

// OpSetChangelist assigns (or clears, if name is "") a changelist name to
// relpath's ACTUAL row.
func (db *DB) OpSetChangelist(relpath, name string) error {
	return db.withTx(context.Background(), func(tx *sql.Tx) error {
		return upsertActualTx(tx, db.wcID, relpath, func(r *ActualRow) { r.Changelist = name })
	})
}

// OpSetTextConflict records the three conflict-marker paths for a text
// conflict at relpath.
func (db *DB) OpSetTextConflict(relpath, oldPath, newPath, workingPath string) error {
	return db.withTx(context.Background(), func(tx *sql.Tx) error {
		return upsertActualTx(tx, db.wcID, relpath, func(r *ActualRow) {
			r.ConflictOld, r.ConflictNew, r.ConflictWorking = oldPath, newPath, workingPath
		})
	})
}

// OpMarkResolved clears every conflict marker (text and property) on
// relpath's ACTUAL row. Tree-conflict rows are untouched, and no exported
// call removes them (spec.md §9 Open Question 2).
func (db *DB) OpMarkResolved(relpath string) error {
	return db.withTx(context.Background(), func(tx *sql.Tx) error {
		return upsertActualTx(tx, db.wcID, relpath, func(r *ActualRow) {
			r.ConflictOld, r.ConflictNew, r.ConflictWorking, r.PropReject = "", "", "", ""
		})
	})
}

// OpSetTreeConflict records a tree-conflict description for childName
// under parentRelpath, in the dedicated tree_conflict table rather than
// serialized in-band on the parent's ACTUAL row (spec.md §9 design note).
func (db *DB) OpSetTreeConflict(parentRelpath, childName, description string) error {
	return db.withTx(context.Background(), func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT OR REPLACE INTO tree_conflict(wc_id, parent_relpath, child_name, description)
			VALUES (?, ?, ?, ?)`, db.wcID, parentRelpath, childName, description)
		return err
	})
}

// ReadConflicts returns every tree-conflict recorded directly under
// parentRelpath. Text and property conflict markers are not reported.
func (db *DB) ReadConflicts(parentRelpath string) ([]TreeConflict, error) {
	rows, err := db.sqldb.Query(`SELECT child_name, description FROM tree_conflict
		WHERE wc_id = ? AND parent_relpath = ?`, db.wcID, parentRelpath)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TreeConflict
	for rows.Next() {
		var tc TreeConflict
		tc.ParentRelpath = parentRelpath
		if err := rows.Scan(&tc.ChildName, &tc.Description); err != nil {
			return nil, err
		}
		out = append(out, tc)
	}
	return out, rows.Err()
}

// clearTreeConflictTx removes one tree-conflict row. Nothing calls it:
// GlobalCommit retains tree-conflict rows (see SPEC_FULL.md).
func clearTreeConflictTx(tx *sql.Tx, wcID WCID, parentRelpath, childName string) error {
	_, err := tx.Exec(`DELETE FROM tree_conflict WHERE wc_id = ? AND parent_relpath = ? AND child_name = ?`,
		wcID, parentRelpath, childName)
	return err
}
