// Package wcdb implements the working-copy metadata store: a relational
// node store (BASE, WORKING, ACTUAL rows), repository registry, locks,
// and durable work queue described in spec.md §4.4. Every mutator runs
// inside one transaction (spec.md §4.4.2).
//
// The backing engine is database/sql over github.com/mattn/go-sqlite3,
// giving every mutator a real *sql.Tx rather than a hand-rolled commit
// log — the "one SQL-like ACID engine" spec.md §4.4.2 calls for, and the
// same shape the pack's sqlite-backed stores use for schema setup and
// pragma tuning.
package wcdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"github.com/ardentvc/wcengine/internal/pathmodel"
	"github.com/ardentvc/wcengine/internal/pristine"
	"github.com/ardentvc/wcengine/internal/wcerrors"
)

// AdminDirName is the working copy's metadata directory, analogous to
// ".svn" — fixed at the root only (spec.md §9: no per-directory layout).
const AdminDirName = ".wcengine"

// DB is one working copy's metadata store plus its pristine area.
type DB struct {
	logger   *logrus.Logger
	sqldb    *sql.DB
	wcRoot   pathmodel.Dirent
	wcID     WCID
	pristine *pristine.Store
}

// dbFilePath returns the wc.db path under root's admin directory.
func dbFilePath(root pathmodel.Dirent) string {
	return filepath.Join(root.ToOSPath(), AdminDirName, "wc.db")
}

func pristineRootPath(root pathmodel.Dirent) string {
	return filepath.Join(root.ToOSPath(), AdminDirName, "pristine")
}

func tmpRootPath(root pathmodel.Dirent) string {
	return filepath.Join(root.ToOSPath(), AdminDirName, "tmp")
}

// TmpDir returns the per-working-copy temp-space dirent (spec.md §6).
func (db *DB) TmpDir() string { return tmpRootPath(db.wcRoot) }

// Pristine returns the underlying content-addressed store.
func (db *DB) Pristine() *pristine.Store { return db.pristine }

// WCRoot returns the working copy's root dirent.
func (db *DB) WCRoot() pathmodel.Dirent { return db.wcRoot }

// WCID returns this working copy's id.
func (db *DB) WCID() WCID { return db.wcID }

// openSQL opens (creating the admin directory tree as needed) the
// sqlite-backed store at root and applies the schema.
func openSQL(root pathmodel.Dirent) (*sql.DB, error) {
	adminDir := filepath.Join(root.ToOSPath(), AdminDirName)
	if err := os.MkdirAll(adminDir, 0o755); err != nil {
		return nil, fmt.Errorf("wcdb: failed to create %s: %w", adminDir, err)
	}
	if err := os.MkdirAll(tmpRootPath(root), 0o755); err != nil {
		return nil, fmt.Errorf("wcdb: failed to create %s: %w", tmpRootPath(root), err)
	}
	dsn := dbFilePath(root) + "?_foreign_keys=on&_busy_timeout=30000"
	sqldb, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("wcdb: failed to open %s: %w", dsn, err)
	}
	if err := sqldb.Ping(); err != nil {
		return nil, fmt.Errorf("wcdb: failed to ping %s: %w", dsn, err)
	}
	if _, err := sqldb.Exec(schema); err != nil {
		return nil, fmt.Errorf("wcdb: failed to apply schema: %w", err)
	}
	// A single writer connection avoids SQLITE_BUSY from this process's
	// own overlapping transactions; spec.md §5 forbids nested
	// transactions at this layer anyway.
	sqldb.SetMaxOpenConns(1)
	return sqldb, nil
}

// Open opens an existing working copy's WCDB at root. Fails with
// wcerrors.NotWorkingCopy if no wc_root row exists yet — callers must use
// Init to create a new working copy.
func Open(logger *logrus.Logger, root pathmodel.Dirent) (*DB, error) {
	sqldb, err := openSQL(root)
	if err != nil {
		return nil, err
	}
	var id int64
	err = sqldb.QueryRow(`SELECT id FROM wc_root WHERE root_abspath = ?`, string(root)).Scan(&id)
	if err == sql.ErrNoRows {
		sqldb.Close()
		return nil, wcerrors.New(wcerrors.NotWorkingCopy, "no working copy registered at %s", root)
	}
	if err != nil {
		sqldb.Close()
		return nil, wcerrors.Wrap(wcerrors.WCDBError, err, "failed to look up wc_root for %s", root)
	}
	pstore, err := pristine.NewStore(logger, pristineRootPath(root))
	if err != nil {
		sqldb.Close()
		return nil, err
	}
	return &DB{logger: logger, sqldb: sqldb, wcRoot: root, wcID: WCID(id), pristine: pstore}, nil
}

// Init creates a brand-new working copy's WCDB at root, registers the
// repository, and seeds the BASE root row (spec.md §4.4 init).
func Init(logger *logrus.Logger, root pathmodel.Dirent, reposRelpath string, reposRootURL pathmodel.URI, reposUUID string, initialRev int64, depth Depth) (*DB, error) {
	sqldb, err := openSQL(root)
	if err != nil {
		return nil, err
	}
	pstore, err := pristine.NewStore(logger, pristineRootPath(root))
	if err != nil {
		sqldb.Close()
		return nil, err
	}
	db := &DB{logger: logger, sqldb: sqldb, wcRoot: root, pristine: pstore}

	err = db.withTx(context.Background(), func(tx *sql.Tx) error {
		res, err := tx.Exec(`INSERT INTO wc_root(root_abspath) VALUES (?)`, string(root))
		if err != nil {
			return fmt.Errorf("failed to register working copy root: %w", err)
		}
		wcID, err := res.LastInsertId()
		if err != nil {
			return err
		}
		db.wcID = WCID(wcID)

		reposID, err := upsertRepositoryTx(tx, string(reposRootURL), reposUUID)
		if err != nil {
			return err
		}

		_, err = tx.Exec(`INSERT INTO base_node
			(wc_id, local_relpath, parent_relpath, status, kind, revision, repos_id, repos_relpath,
			 changed_rev, changed_date, changed_author, depth)
			VALUES (?, '', NULL, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			wcID, StatusNormal, KindDirectory, initialRev, reposID, reposRelpath,
			initialRev, 0, "", depth)
		return err
	})
	if err != nil {
		sqldb.Close()
		return nil, wcerrors.Wrap(wcerrors.WCDBError, err, "init failed for %s", root)
	}
	return db, nil
}

// Close releases the underlying sqlite connection.
func (db *DB) Close() error {
	return db.sqldb.Close()
}

// withTx runs fn inside one transaction spanning all of fn's WCDB
// mutations (spec.md §4.4.2); filesystem mutation must happen only after
// this commits. Nesting is forbidden at this layer per spec.md §5.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.sqldb.BeginTx(ctx, nil)
	if err != nil {
		return wcerrors.Wrap(wcerrors.WCDBError, err, "failed to begin transaction")
	}
	if err := fn(tx); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			db.logger.Errorf("wcdb: rollback failed: %v", rerr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return wcerrors.Wrap(wcerrors.WCDBError, err, "failed to commit transaction")
	}
	return nil
}
