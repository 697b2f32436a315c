// Package engine ties the working-copy pieces together: it opens a
// WCDB-backed working copy, takes its write lock for the duration of an
// operation, runs a patch.Session against it, and drains the resulting
// work queue so the filesystem catches up with the just-committed
// metadata (spec.md §2's data-flow model, §4.6, §4.7).
package engine

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ardentvc/wcengine/internal/config"
	"github.com/ardentvc/wcengine/internal/notify"
	"github.com/ardentvc/wcengine/internal/patch"
	"github.com/ardentvc/wcengine/internal/pathmodel"
	"github.com/ardentvc/wcengine/internal/translate"
	"github.com/ardentvc/wcengine/internal/wcdb"
	"github.com/ardentvc/wcengine/internal/workqueue"
)

// Engine is one open working copy plus the configuration governing how
// its patch sessions and drains behave.
type Engine struct {
	logger *logrus.Logger
	db     *wcdb.DB
	cfg    *config.Config
	notify notify.Func
}

// Open opens the working copy rooted at root (which must already have
// been created by Init) and returns an Engine ready to drive operations
// against it.
func Open(logger *logrus.Logger, root pathmodel.Dirent, cfg *config.Config, notifyFn notify.Func) (*Engine, error) {
	db, err := wcdb.Open(logger, root)
	if err != nil {
		return nil, fmt.Errorf("engine: failed to open working copy at %s: %w", root, err)
	}
	return &Engine{logger: logger, db: db, cfg: cfg, notify: notifyFn}, nil
}

// Close releases the underlying WCDB handle.
func (e *Engine) Close() error {
	return e.db.Close()
}

// DB exposes the underlying store for callers that need direct access
// (status queries, fsck, graph export).
func (e *Engine) DB() *wcdb.DB { return e.db }

// lockToken identifies this process's hold on the working-copy lock;
// a fresh token per call means two ApplyPatch calls from the same
// process never mistake each other's lock for a same-owner re-lock.
func (e *Engine) lockToken() string {
	var buf [8]byte
	rand.Read(buf[:])
	return fmt.Sprintf("pid-%d-%d-%s", os.Getpid(), time.Now().UnixNano(), hex.EncodeToString(buf[:]))
}

// ApplyPatch runs one patch session against relpath (depth -1 locks the
// whole working copy; pass a subtree relpath with depth 0 to scope the
// lock tighter), drains every work item the session enqueues, and
// returns each target's disposition.
func (e *Engine) ApplyPatch(lockRelpath string, lockDepth int, p patch.Patch, opts patch.Options) ([]patch.TargetResult, error) {
	token := e.lockToken()
	if err := e.db.WCLockSet(lockRelpath, lockDepth, token); err != nil {
		return nil, err
	}
	defer e.db.WCLockRemove(lockRelpath, token)

	tree := patch.NewDirTree()
	session := patch.Session{
		Root:    e.db.WCRoot(),
		DB:      e.db,
		Notify:  e.notify,
		Options: opts,
		Tree:    tree,
	}
	results, err := session.Run(p)
	if err != nil {
		return results, err
	}
	if opts.DryRun {
		return results, nil
	}

	for _, result := range results {
		for _, item := range result.WorkItems {
			if err := e.db.WQAdd(item); err != nil {
				return results, fmt.Errorf("engine: failed to enqueue work item for %s: %w", result.Relpath, err)
			}
		}
	}

	if err := e.Drain(); err != nil {
		return results, err
	}

	for _, empty := range tree.EmptyDirectories() {
		abspath := e.db.WCRoot().Join(empty).ToOSPath()
		if err := os.Remove(abspath); err != nil && !os.IsNotExist(err) {
			e.logger.Warnf("engine: failed to remove empty directory %s: %v", abspath, err)
		}
	}

	return results, nil
}

// Drain runs the work queue to completion, applying every pending item
// in FIFO order (spec.md §4.6).
func (e *Engine) Drain() error {
	drainer := workqueue.NewDrainer(e.logger, queueAdapter{e.db}, staticFilterer{cfg: e.cfg}, e.notify)
	return drainer.Drain()
}

// queueAdapter satisfies workqueue.Queue over *wcdb.DB: the two packages
// each define their own work-item-row type so workqueue never needs to
// import wcdb, so this adapter just copies the three fields across.
type queueAdapter struct{ db *wcdb.DB }

func (q queueAdapter) WQFetch() (*workqueue.Fetched, error) {
	row, err := q.db.WQFetch()
	if err != nil || row == nil {
		return nil, err
	}
	return &workqueue.Fetched{ID: row.ID, Work: row.Work}, nil
}

func (q queueAdapter) WQCompleted(id int64) error {
	return q.db.WQCompleted(id)
}

func (q queueAdapter) RecordFileInfo(relpath string, size int64, modTime time.Time) error {
	return q.db.GlobalRecordFileInfo(relpath, wcdb.FileInfo{TranslatedSize: size, LastModTime: modTime})
}

// staticFilterer adapts the static configuration into the
// translate.Filter the drain loop needs for translated installs; every
// file currently shares the working copy's one configured EOL/keyword
// policy since the per-property translation model is not yet wired
// through WCDB properties into this lookup.
type staticFilterer struct {
	cfg *config.Config
}

func (f staticFilterer) FilterFor(abspath string) translate.Filter {
	return translate.Filter{
		EOL:      f.cfg.EOLStyle(),
		Repair:   f.cfg.RepairEOL,
		Keywords: f.cfg.EnabledKeywords(),
	}
}
