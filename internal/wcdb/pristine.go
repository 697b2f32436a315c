package wcdb

import (
	"context"
	"database/sql"
	"io"

	"github.com/ardentvc/wcengine/internal/checksum"
	"github.com/ardentvc/wcengine/internal/pristine"
	"github.com/ardentvc/wcengine/internal/wcerrors"
)

// PristineInstall installs tempfile's content (already hashed as
// digests) into the pristine area and records/updates its PRISTINE row.
// Re-installing already-present content is a filesystem no-op and an
// idempotent row upsert (spec.md §4.5, §8 round-trip law).
func (db *DB) PristineInstall(tempfile string, digests checksum.Digests) error {
	if err := db.pristine.Install(tempfile, digests.SHA1); err != nil {
		return err
	}
	return db.withTx(context.Background(), func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT OR REPLACE INTO pristine(sha1, md5, size) VALUES (?, ?, ?)`,
			string(digests.SHA1), string(digests.MD5), digests.Size)
		return err
	})
}

// PristineGetPath returns the on-disk path for sha1 without opening it.
func (db *DB) PristineGetPath(sha1 checksum.SHA1) string {
	return db.pristine.PathFor(sha1)
}

// PristineRead opens sha1's content for reading.
func (db *DB) PristineRead(sha1 checksum.SHA1) (io.ReadCloser, error) {
	exists, err := db.pristineRowExists(sha1)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, wcerrors.New(wcerrors.PathNotFound, "no pristine row for %s", string(sha1)).WithSHA1(string(sha1))
	}
	rc, err := db.pristine.Read(sha1)
	if err != nil {
		return nil, wcerrors.Wrap(wcerrors.WCCorrupt, err, "pristine read failed for %s", string(sha1)).WithSHA1(string(sha1))
	}
	return rc, nil
}

// PristineCheck reconciles the PRISTINE row against the on-disk file.
func (db *DB) PristineCheck(sha1 checksum.SHA1) (pristine.Presence, error) {
	exists, err := db.pristineRowExists(sha1)
	if err != nil {
		return pristine.Absent, err
	}
	presence, err := db.pristine.Check(sha1, exists)
	if err != nil {
		return presence, wcerrors.Wrap(wcerrors.WCCorrupt, err, "pristine check failed for %s", string(sha1)).WithSHA1(string(sha1))
	}
	return presence, nil
}

// PristineGetMD5 returns the legacy MD5 recorded for sha1, for historical
// lookup paths only (spec.md §4.5).
func (db *DB) PristineGetMD5(sha1 checksum.SHA1) (checksum.MD5, error) {
	var md5 string
	err := db.sqldb.QueryRow(`SELECT md5 FROM pristine WHERE sha1 = ?`, string(sha1)).Scan(&md5)
	if err == sql.ErrNoRows {
		return "", wcerrors.New(wcerrors.PathNotFound, "no pristine row for %s", string(sha1)).WithSHA1(string(sha1))
	}
	return checksum.MD5(md5), err
}

// PristineGetSHA1ByMD5 resolves a legacy MD5 back to its SHA-1, for
// callers that only recorded an MD5 historically.
func (db *DB) PristineGetSHA1ByMD5(md5 checksum.MD5) (checksum.SHA1, error) {
	var sha1 string
	err := db.sqldb.QueryRow(`SELECT sha1 FROM pristine WHERE md5 = ?`, string(md5)).Scan(&sha1)
	if err == sql.ErrNoRows {
		return "", wcerrors.New(wcerrors.PathNotFound, "no pristine row for md5 %s", string(md5))
	}
	return checksum.SHA1(sha1), err
}

func (db *DB) pristineRowExists(sha1 checksum.SHA1) (bool, error) {
	var count int
	err := db.sqldb.QueryRow(`SELECT COUNT(*) FROM pristine WHERE sha1 = ?`, string(sha1)).Scan(&count)
	return count > 0, err
}

// PristineAllSHA1s lists every SHA-1 this working copy's PRISTINE table
// tracks, for a full-store consistency sweep (spec.md §4.5 Check).
func (db *DB) PristineAllSHA1s() ([]checksum.SHA1, error) {
	rows, err := db.sqldb.Query(`SELECT sha1 FROM pristine`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []checksum.SHA1
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, checksum.SHA1(s))
	}
	return out, rows.Err()
}

// PristineRemove deletes sha1's PRISTINE row and on-disk file, but only
// if no BASE or WORKING row still references it by SHA-1 (or by its
// recorded MD5, for the legacy lookup path); ACTUAL rows carry no
// checksum and are not consulted. Otherwise it is a no-op.
// This is the only path that removes files from the pristine store
// (spec.md §4.5).
func (db *DB) PristineRemove(sha1 checksum.SHA1) error {
	md5, err := db.PristineGetMD5(sha1)
	if err != nil {
		if wcErr, ok := err.(*wcerrors.Error); ok && wcErr.Kind == wcerrors.PathNotFound {
			return nil // already gone
		}
		return err
	}
	referenced, err := db.sha1Referenced(sha1, md5)
	if err != nil {
		return err
	}
	if referenced {
		return nil
	}
	if err := db.withTx(context.Background(), func(tx *sql.Tx) error {
		_, err := tx.Exec(`DELETE FROM pristine WHERE sha1 = ?`, string(sha1))
		return err
	}); err != nil {
		return err
	}
	return db.pristine.Remove(sha1)
}

func (db *DB) sha1Referenced(sha1 checksum.SHA1, md5 checksum.MD5) (bool, error) {
	var count int
	err := db.sqldb.QueryRow(`SELECT COUNT(*) FROM base_node WHERE wc_id = ? AND checksum IN (?, ?)`, db.wcID, string(sha1), string(md5)).Scan(&count)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return true, nil
	}
	err = db.sqldb.QueryRow(`SELECT COUNT(*) FROM working_node WHERE wc_id = ? AND checksum IN (?, ?)`, db.wcID, string(sha1), string(md5)).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
