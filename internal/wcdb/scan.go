package wcdb

import (
	"github.com/ardentvc/wcengine/internal/pathmodel"
	"github.com/ardentvc/wcengine/internal/wcerrors"
)

// AdditionScan is the result of walking the WORKING ancestry upward from a
// relpath to find the top of its containing add/copy/move operation
// (spec.md §4.4 scan_addition).
type AdditionScan struct {
	Status       Status // normal (plain add) vs a copy/move status
	OpRoot       string
	OrigReposRelpath string
	OrigRootURL  string
	OrigUUID     string
	OrigRevision int64
}

// ScanAddition walks relpath's WORKING ancestry to find the operation
// root of the add/copy/move that introduced it.
func (db *DB) ScanAddition(relpath string) (AdditionScan, error) {
	cur := relpath
	var last WorkingRow
	foundAny := false
	for {
		w, ok, err := db.getWorkingRow(cur)
		if err != nil {
			return AdditionScan{}, err
		}
		if !ok || (w.Status != StatusNormal && w.Status != StatusIncomplete) {
			break
		}
		last = w
		foundAny = true
		if w.CopyfromRelpath != "" {
			break // copy/move root: stop here, this IS the operation root
		}
		parent := string(pathmodel.Relpath(cur).Dirname())
		if parent == cur || (cur == "" ) {
			break
		}
		parentHasBase, _ := baseExistsTx(db.sqldb, db.wcID, parent)
		if parentHasBase {
			break // parent is pristine BASE: cur is the add's operation root
		}
		cur = parent
	}
	if !foundAny {
		return AdditionScan{}, wcerrors.New(wcerrors.PathNotFound, "no addition found at or above %s", relpath).WithPath(relpath)
	}
	result := AdditionScan{Status: last.Status, OpRoot: cur}
	if last.CopyfromRelpath != "" {
		result.OrigReposRelpath = last.CopyfromRelpath
		result.OrigRevision = last.CopyfromRevision
		if repo, err := db.LookupRepository(last.CopyfromReposID); err == nil {
			result.OrigRootURL = repo.RootURL
			result.OrigUUID = repo.UUID
		}
	}
	return result, nil
}

// DeletionScan is the result of walking the ancestry to find the roots of
// a deletion and, if relocated, its move destination (spec.md §4.4
// scan_deletion).
type DeletionScan struct {
	BaseDelOpRoot  string
	BaseReplaced   bool
	MovedTo        string
	WorkDelOpRoot  string
}

// ScanDeletion walks relpath's ancestry to find the top of the
// base-deleted or not-present region containing it.
func (db *DB) ScanDeletion(relpath string) (DeletionScan, error) {
	return scanDeletionTx(db.sqldb, db.wcID, relpath)
}

// scanDeletionTx is the read used both outside a transaction (via
// ScanDeletion, over db.sqldb) and from inside one (e.g. from OpDelete,
// over the open *sql.Tx) — see baseGetInfoTx for why the distinction
// matters.
func scanDeletionTx(q querier, wcID WCID, relpath string) (DeletionScan, error) {
	cur := relpath
	var result DeletionScan
	found := false
	for {
		w, ok, err := getWorkingRowTx(q, wcID, cur)
		if err != nil {
			return DeletionScan{}, err
		}
		if !ok || (w.Status != StatusBaseDeleted && w.Status != StatusNotPresent) {
			break
		}
		found = true
		result.BaseDelOpRoot = cur
		result.WorkDelOpRoot = cur
		// Replaced marks that op_delete found an existing add/copy
		// WORKING row at this root and overwrote it (spec.md §4.4.1's
		// "replacement" case), as opposed to a plain delete of an
		// untouched BASE node.
		result.BaseReplaced = w.Replaced
		if parent := string(pathmodel.Relpath(cur).Dirname()); parent != cur && cur != "" {
			cur = parent
			continue
		}
		break
	}
	if !found {
		return DeletionScan{}, wcerrors.New(wcerrors.PathNotFound, "no deletion found at or above %s", relpath).WithPath(relpath)
	}
	return result, nil
}
