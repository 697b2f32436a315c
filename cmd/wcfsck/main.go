// wcfsck verifies a working copy's pristine store: every SHA-1 the
// PRISTINE table tracks must have a matching on-disk file whose actual
// content hashes to that same SHA-1 (spec.md §4.5 Check). Verification
// runs across a worker pool since hashing is the dominant cost and
// pristine files are independent of one another.
package main

import (
	"fmt"
	"os"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/alitto/pond"
	"github.com/sirupsen/logrus"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/ardentvc/wcengine/internal/checksum"
	"github.com/ardentvc/wcengine/internal/pathmodel"
	"github.com/ardentvc/wcengine/internal/version"
	"github.com/ardentvc/wcengine/internal/wcdb"
)

func main() {
	var (
		app     = kingpin.New("wcfsck", "Verify a working copy's pristine store.")
		root    = app.Arg("root", "Working copy root directory.").Required().String()
		workers = app.Flag("workers", "Worker pool size (default: NumCPU).").Int()
		debug   = app.Flag("debug", "Enable debug-level logging.").Bool()
	)
	app.UsageTemplate(kingpin.CompactUsageTemplate).Version(version.Print("wcfsck")).Author("ardentvc")
	app.HelpFlag.Short('h')
	kingpin.MustParse(app.Parse(os.Args[1:]))

	logger := logrus.New()
	logger.Level = logrus.InfoLevel
	if *debug {
		logger.Level = logrus.DebugLevel
	}
	logger.Infof("%v", version.Print("wcfsck"))

	db, err := wcdb.Open(logger, pathmodel.FromOSPath(*root))
	if err != nil {
		logger.Fatalf("failed to open working copy at %s: %v", *root, err)
	}
	defer db.Close()

	sha1s, err := db.PristineAllSHA1s()
	if err != nil {
		logger.Fatalf("failed to list pristine entries: %v", err)
	}
	logger.Infof("checking %d pristine entries", len(sha1s))

	pondSize := runtime.NumCPU()
	if *workers > 0 {
		pondSize = *workers
	}
	pool := pond.New(pondSize, 0, pond.MinWorkers(2))

	var mu sync.Mutex
	var corrupt []string
	var checkedCount int64

	for _, sha1 := range sha1s {
		sha1 := sha1
		pool.Submit(func() {
			if err := verifyOne(db, sha1); err != nil {
				mu.Lock()
				corrupt = append(corrupt, fmt.Sprintf("%s: %v", sha1, err))
				mu.Unlock()
			}
			atomic.AddInt64(&checkedCount, 1)
		})
	}
	pool.StopAndWait()

	logger.Infof("checked %d entries", checkedCount)
	if len(corrupt) == 0 {
		logger.Infof("pristine store is consistent")
		return
	}
	for _, msg := range corrupt {
		logger.Errorf("corrupt: %s", msg)
	}
	os.Exit(1)
}

// verifyOne confirms sha1's on-disk presence agrees with its row
// (spec.md §4.5 Check) and, if present, that its actual content still
// hashes to sha1.
func verifyOne(db *wcdb.DB, sha1 checksum.SHA1) error {
	r, err := db.PristineRead(sha1)
	if err != nil {
		return err
	}
	defer r.Close()

	digests, err := checksum.Compute(r)
	if err != nil {
		return err
	}
	if digests.SHA1 != sha1 {
		return fmt.Errorf("on-disk content hashes to %s, expected %s", digests.SHA1, sha1)
	}
	return nil
}
