package wcdb

// schema is the wc.db DDL. One database file per working copy
// (spec.md §6 "WCDB file"), centralized — no per-directory layout.
const schema = `
PRAGMA foreign_keys = ON;

CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS repository (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	root_url   TEXT NOT NULL,
	uuid       TEXT NOT NULL,
	UNIQUE(root_url, uuid)
);

CREATE TABLE IF NOT EXISTS base_node (
	wc_id            INTEGER NOT NULL,
	local_relpath    TEXT NOT NULL,
	parent_relpath   TEXT,
	status           TEXT NOT NULL,
	kind             TEXT NOT NULL,
	revision         INTEGER NOT NULL DEFAULT 0,
	repos_id         INTEGER,
	repos_relpath    TEXT,
	changed_rev      INTEGER,
	changed_date     INTEGER,
	changed_author   TEXT,
	depth            TEXT,
	checksum         TEXT,
	symlink_target   TEXT,
	dav_cache        BLOB,
	lock_token       TEXT,
	lock_owner       TEXT,
	lock_comment     TEXT,
	last_mod_time    INTEGER,
	translated_size  INTEGER,
	PRIMARY KEY (wc_id, local_relpath)
);

CREATE TABLE IF NOT EXISTS working_node (
	wc_id             INTEGER NOT NULL,
	local_relpath     TEXT NOT NULL,
	parent_relpath    TEXT,
	status            TEXT NOT NULL,
	kind              TEXT NOT NULL,
	checksum          TEXT,
	symlink_target    TEXT,
	copyfrom_repos_id INTEGER,
	copyfrom_relpath  TEXT,
	copyfrom_revision INTEGER,
	moved_here        INTEGER NOT NULL DEFAULT 0,
	replaced          INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (wc_id, local_relpath)
);

CREATE TABLE IF NOT EXISTS actual_node (
	wc_id            INTEGER NOT NULL,
	local_relpath    TEXT NOT NULL,
	parent_relpath   TEXT,
	properties       BLOB,
	changelist       TEXT,
	conflict_old     TEXT,
	conflict_new     TEXT,
	conflict_working TEXT,
	prop_reject      TEXT,
	PRIMARY KEY (wc_id, local_relpath)
);

CREATE TABLE IF NOT EXISTS tree_conflict (
	wc_id          INTEGER NOT NULL,
	parent_relpath TEXT NOT NULL,
	child_name     TEXT NOT NULL,
	description    TEXT NOT NULL,
	PRIMARY KEY (wc_id, parent_relpath, child_name)
);

CREATE TABLE IF NOT EXISTS wc_lock (
	wc_id         INTEGER NOT NULL,
	local_relpath TEXT NOT NULL,
	depth         INTEGER NOT NULL,
	owner_token   TEXT NOT NULL,
	PRIMARY KEY (wc_id, local_relpath)
);

CREATE TABLE IF NOT EXISTS work_queue (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	work BLOB NOT NULL
);

CREATE TABLE IF NOT EXISTS pristine (
	sha1 TEXT PRIMARY KEY,
	md5  TEXT NOT NULL,
	size INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS wc_root (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	root_abspath     TEXT NOT NULL UNIQUE
);
`

const currentSchemaVersion = 1
