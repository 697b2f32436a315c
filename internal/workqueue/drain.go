package workqueue

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ardentvc/wcengine/internal/notify"
	"github.com/ardentvc/wcengine/internal/stream"
	"github.com/ardentvc/wcengine/internal/translate"
)

// Queue is the subset of *wcdb.DB the drain loop needs, kept narrow so
// this package never imports wcdb directly (wcdb already depends on
// pristine; workqueue stays a leaf the engine wires together).
type Queue interface {
	WQFetch() (*Fetched, error)
	WQCompleted(id int64) error
	// RecordFileInfo persists relpath's on-disk size/mtime, as observed
	// by a record-fileinfo item's own os.Stat, back into the BASE row's
	// cache columns (wcdb.GlobalRecordFileInfo).
	RecordFileInfo(relpath string, size int64, modTime time.Time) error
}

// Fetched mirrors wcdb.WorkItemRow without importing that package.
type Fetched struct {
	ID   int64
	Work []byte
}

// Filterer resolves the translation.Filter to apply for a given
// work-queue target path, used only by install-file items whose
// Translated flag is set.
type Filterer interface {
	FilterFor(abspath string) translate.Filter
}

// Drainer applies work-queue items to the filesystem, oldest first,
// until the queue is empty or an item fails non-transiently (spec.md
// §4.6). Every apply* method is idempotent with respect to repeated
// execution on any prefix of its intended effect.
type Drainer struct {
	logger   *logrus.Logger
	queue    Queue
	filterer Filterer
	notify   notify.Func
}

// NewDrainer builds a Drainer. notifyFn may be notify.Nop.
func NewDrainer(logger *logrus.Logger, queue Queue, filterer Filterer, notifyFn notify.Func) *Drainer {
	if notifyFn == nil {
		notifyFn = notify.Nop
	}
	return &Drainer{logger: logger, queue: queue, filterer: filterer, notify: notifyFn}
}

// Drain applies items until the queue is empty, returning the first
// non-transient error encountered (halting the drain, per spec.md §4.6).
func (d *Drainer) Drain() error {
	for {
		fetched, err := d.queue.WQFetch()
		if err != nil {
			return fmt.Errorf("workqueue: fetch failed: %w", err)
		}
		if fetched == nil {
			return nil
		}
		item, err := Decode(fetched.Work)
		if err != nil {
			return err
		}
		if err := d.apply(item); err != nil {
			return fmt.Errorf("workqueue: item %d (%s) failed: %w", fetched.ID, item.Tag, err)
		}
		if err := d.queue.WQCompleted(fetched.ID); err != nil {
			return fmt.Errorf("workqueue: failed to acknowledge item %d: %w", fetched.ID, err)
		}
	}
}

func (d *Drainer) apply(item Item) error {
	switch item.Tag {
	case TagInstallFile:
		var args InstallFileArgs
		if err := json.Unmarshal(item.Args, &args); err != nil {
			return err
		}
		return d.applyInstallFile(args)
	case TagRemoveFile:
		var args RemoveFileArgs
		if err := json.Unmarshal(item.Args, &args); err != nil {
			return err
		}
		return d.applyRemoveFile(args)
	case TagSetExecutable:
		var args SetExecutableArgs
		if err := json.Unmarshal(item.Args, &args); err != nil {
			return err
		}
		return d.applySetExecutable(args)
	case TagSetReadonly:
		var args SetReadonlyArgs
		if err := json.Unmarshal(item.Args, &args); err != nil {
			return err
		}
		return d.applySetReadonly(args)
	case TagRecordFileInfo:
		var args RecordFileInfoArgs
		if err := json.Unmarshal(item.Args, &args); err != nil {
			return err
		}
		return d.applyRecordFileInfo(args)
	case TagPostcommitRename:
		var args PostcommitRenameArgs
		if err := json.Unmarshal(item.Args, &args); err != nil {
			return err
		}
		return d.applyPostcommitRename(args)
	case TagPrejInstall:
		var args PrejInstallArgs
		if err := json.Unmarshal(item.Args, &args); err != nil {
			return err
		}
		return d.applyPrejInstall(args)
	case TagNotify:
		var args NotifyArgs
		if err := json.Unmarshal(item.Args, &args); err != nil {
			return err
		}
		d.notify(notify.Event{AbsPath: args.Abspath, Action: notify.ActionFromString(args.Action)})
		return nil
	default:
		return fmt.Errorf("workqueue: unknown tag %q", item.Tag)
	}
}

func (d *Drainer) applyInstallFile(args InstallFileArgs) error {
	if _, err := os.Stat(args.FromTmp); os.IsNotExist(err) {
		if _, destErr := os.Stat(args.ToAbspath); destErr == nil {
			return nil // already applied: source consumed, destination present
		}
		return fmt.Errorf("install-file: neither %s nor %s exist", args.FromTmp, args.ToAbspath)
	}

	if args.Translated && d.filterer != nil {
		if err := d.installTranslated(args); err != nil {
			return err
		}
	} else if err := os.Rename(args.FromTmp, args.ToAbspath); err != nil {
		return fmt.Errorf("install-file: rename failed: %w", err)
	}

	if args.ExecBit {
		if err := os.Chmod(args.ToAbspath, 0o755); err != nil {
			return fmt.Errorf("install-file: chmod +x failed: %w", err)
		}
	}
	return nil
}

func (d *Drainer) installTranslated(args InstallFileArgs) error {
	src, err := os.Open(args.FromTmp)
	if err != nil {
		return fmt.Errorf("install-file: open %s failed: %w", args.FromTmp, err)
	}
	defer src.Close()

	filter := d.filterer.FilterFor(args.ToAbspath)
	lines, err := filter.FromNormalForm(src)
	if err != nil {
		return fmt.Errorf("install-file: translation failed: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(args.ToAbspath), 0o755); err != nil {
		return err
	}
	tmp := args.ToAbspath + ".wcengine-tmp"
	dst, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("install-file: create %s failed: %w", tmp, err)
	}
	if err := stream.WriteLines(dst, lines); err != nil {
		dst.Close()
		os.Remove(tmp)
		return fmt.Errorf("install-file: write failed: %w", err)
	}
	if err := dst.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp, args.ToAbspath); err != nil {
		return fmt.Errorf("install-file: final rename failed: %w", err)
	}
	return os.Remove(args.FromTmp)
}

func (d *Drainer) applyRemoveFile(args RemoveFileArgs) error {
	err := os.Remove(args.Abspath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove-file: %w", err)
	}
	return nil
}

func (d *Drainer) applySetExecutable(args SetExecutableArgs) error {
	info, err := os.Stat(args.Abspath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	mode := info.Mode().Perm()
	if args.Bit {
		mode |= 0o111
	} else {
		mode &^= 0o111
	}
	return os.Chmod(args.Abspath, mode)
}

func (d *Drainer) applySetReadonly(args SetReadonlyArgs) error {
	info, err := os.Stat(args.Abspath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	mode := info.Mode().Perm()
	if args.Bit {
		mode &^= 0o222
	} else {
		mode |= 0o200
	}
	return os.Chmod(args.Abspath, mode)
}

func (d *Drainer) applyRecordFileInfo(args RecordFileInfoArgs) error {
	info, err := os.Stat(args.Abspath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return d.queue.RecordFileInfo(args.Relpath, info.Size(), info.ModTime())
}

func (d *Drainer) applyPostcommitRename(args PostcommitRenameArgs) error {
	if _, err := os.Stat(args.FromAbspath); os.IsNotExist(err) {
		return nil // already renamed
	}
	if err := os.MkdirAll(filepath.Dir(args.ToAbspath), 0o755); err != nil {
		return err
	}
	return os.Rename(args.FromAbspath, args.ToAbspath)
}

func (d *Drainer) applyPrejInstall(args PrejInstallArgs) error {
	if err := os.MkdirAll(filepath.Dir(args.Abspath), 0o755); err != nil {
		return err
	}
	f, err := os.Create(args.Abspath)
	if err != nil {
		return fmt.Errorf("prej-install: %w", err)
	}
	defer f.Close()
	if _, err := io.WriteString(f, string(args.Content)); err != nil {
		return err
	}
	return nil
}
