package wcdb

import "time"

// Status is the presence/state value shared by BASE and WORKING rows,
// spec.md §3.
type Status string

const (
	StatusNormal      Status = "normal"
	StatusNotPresent  Status = "not-present"
	StatusAbsent      Status = "absent"
	StatusExcluded    Status = "excluded"
	StatusIncomplete  Status = "incomplete"
	StatusBaseDeleted Status = "base-deleted"
)

// Kind is a node's filesystem kind.
type Kind string

const (
	KindFile      Kind = "file"
	KindDirectory Kind = "directory"
	KindSymlink   Kind = "symlink"
)

// Depth mirrors the svn-style recursion depth used on directory BASE rows.
type Depth string

const (
	DepthEmpty    Depth = "empty"
	DepthFiles    Depth = "files"
	DepthImmediates Depth = "immediates"
	DepthInfinity Depth = "infinity"
)

// RepositoryID is the small integer key assigned to a (root URL, UUID) pair.
type RepositoryID int64

// WCID identifies one working copy (one row of wc_root / one wc.db file in
// this centralized design; kept explicit so a future multi-WC-per-process
// API is not precluded).
type WCID int64

// ChangedInfo is the last-known change metadata carried by a BASE row.
type ChangedInfo struct {
	Rev    int64
	Date   int64 // unix seconds
	Author string
}

// LockInfo is the optional lock record carried by a BASE row.
type LockInfo struct {
	Token   string
	Owner   string
	Comment string
}

// BaseRow is the node as last synchronized with the remote repository
// (spec.md §3 BASE).
type BaseRow struct {
	Relpath       string
	ParentRelpath string
	Status        Status
	Kind          Kind
	Revision      int64
	ReposID       RepositoryID
	ReposRelpath  string
	Changed       ChangedInfo
	Depth         Depth
	Checksum      string // SHA-1 hex, files only
	SymlinkTarget string
	DavCache      []byte
	Lock          *LockInfo

	// LastModTime and TranslatedSize cache the on-disk mtime/size last
	// observed by global_record_fileinfo, distinct from Changed.Date (the
	// remote change date): a status scan compares against these before
	// falling back to a full pristine comparison (spec.md §4.4).
	LastModTime    time.Time
	TranslatedSize int64
}

// WorkingRow is the local add/copy/move/replacement/deletion overlay
// (spec.md §3 WORKING).
type WorkingRow struct {
	Relpath          string
	ParentRelpath    string
	Status           Status
	Kind             Kind
	Checksum         string
	SymlinkTarget    string
	CopyfromReposID  RepositoryID
	CopyfromRelpath  string
	CopyfromRevision int64
	MovedHere        bool

	// Replaced marks a base-deleted row that supplanted a prior add/copy
	// WORKING row at the same relpath (op_delete's "replacement" case),
	// as opposed to a plain deletion of an untouched BASE node — the
	// distinction scan_deletion's base_replaced reports (spec.md §4.4).
	Replaced bool
}

// ActualRow is the local property/conflict overlay (spec.md §3 ACTUAL).
type ActualRow struct {
	Relpath         string
	ParentRelpath   string
	Properties      []byte
	Changelist      string
	ConflictOld     string
	ConflictNew     string
	ConflictWorking string
	PropReject      string
}

// TreeConflict is one child-level tree-conflict record, stored in its own
// table keyed by (WCID, parent-relpath, child-name) rather than
// serialized in-band on a parent row (spec.md §9 design note).
type TreeConflict struct {
	ParentRelpath string
	ChildName     string
	Description   string
}

// EffectiveInfo is the derived "status the user sees" for a relpath,
// per spec.md §3's effective-node derivation.
type EffectiveInfo struct {
	Relpath       string
	Status        Status
	Kind          Kind
	Revision      int64
	ReposRelpath  string
	ReposRootURL  string
	ReposUUID     string
	Changed       ChangedInfo
	Depth         Depth
	Checksum      string
	SymlinkTarget string
	Lock          *LockInfo

	BaseShadowed bool // both a BASE and a WORKING row exist
	Conflicted   bool // any conflict marker set on ACTUAL
	HasActual    bool
}
