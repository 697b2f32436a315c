package wcdb

import (
	"context"
	"database/sql"
)

// WorkItemRow is one durable, opaque WORK-QUEUE entry (spec.md §3, §4.6).
type WorkItemRow struct {
	ID   int64
	Work []byte // serialized work item, opaque to this package
}

// WQAdd appends a work item to the queue. Intended to be called from
// inside the same transaction as the WCDB mutation it accompanies, so
// that filesystem mutation is guaranteed to happen only after commit
// (spec.md §4.4.2) — callers needing that pass the *sql.Tx via WQAddTx.
func (db *DB) WQAdd(work []byte) error {
	return db.withTx(context.Background(), func(tx *sql.Tx) error {
		return WQAddTx(tx, work)
	})
}

// WQAddTx appends a work item within an already-open transaction.
func WQAddTx(tx *sql.Tx, work []byte) error {
	_, err := tx.Exec(`INSERT INTO work_queue(work) VALUES (?)`, work)
	return err
}

// WQFetch returns the oldest pending work item, or (nil, nil) if the
// queue is empty.
func (db *DB) WQFetch() (*WorkItemRow, error) {
	var item WorkItemRow
	err := db.sqldb.QueryRow(`SELECT id, work FROM work_queue ORDER BY id ASC LIMIT 1`).Scan(&item.ID, &item.Work)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// WQCompleted acknowledges and removes the work item with the given id,
// called by the drain loop only after the item's filesystem effect has
// been fully (and idempotently) applied (spec.md §4.6).
func (db *DB) WQCompleted(id int64) error {
	return db.withTx(context.Background(), func(tx *sql.Tx) error {
		_, err := tx.Exec(`DELETE FROM work_queue WHERE id = ?`, id)
		return err
	})
}
