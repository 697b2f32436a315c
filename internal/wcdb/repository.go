package wcdb

import "database/sql"

// upsertRepositoryTx inserts a (root URL, UUID) pair if not already
// present and returns its repos-id; immutable once inserted within a
// session, reused across nodes rooted in the same repository
// (spec.md §3 REPOSITORY).
func upsertRepositoryTx(tx *sql.Tx, rootURL, uuid string) (RepositoryID, error) {
	var id int64
	err := tx.QueryRow(`SELECT id FROM repository WHERE root_url = ? AND uuid = ?`, rootURL, uuid).Scan(&id)
	if err == nil {
		return RepositoryID(id), nil
	}
	if err != sql.ErrNoRows {
		return 0, err
	}
	res, err := tx.Exec(`INSERT INTO repository(root_url, uuid) VALUES (?, ?)`, rootURL, uuid)
	if err != nil {
		return 0, err
	}
	newID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return RepositoryID(newID), nil
}

// RepositoryInfo identifies a registered repository.
type RepositoryInfo struct {
	ID      RepositoryID
	RootURL string
	UUID    string
}

// LookupRepository returns the registered repository for id.
func (db *DB) LookupRepository(id RepositoryID) (RepositoryInfo, error) {
	var info RepositoryInfo
	info.ID = id
	err := db.sqldb.QueryRow(`SELECT root_url, uuid FROM repository WHERE id = ?`, int64(id)).
		Scan(&info.RootURL, &info.UUID)
	return info, err
}
