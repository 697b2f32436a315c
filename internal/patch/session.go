package patch

import (
	"errors"
	"os"

	"github.com/ardentvc/wcengine/internal/notify"
	"github.com/ardentvc/wcengine/internal/pathmodel"
	"github.com/ardentvc/wcengine/internal/translate"
	"github.com/ardentvc/wcengine/internal/wcdb"
	"github.com/ardentvc/wcengine/internal/wcerrors"
	"github.com/ardentvc/wcengine/internal/workqueue"
)

// StatusSource is the subset of *wcdb.DB a patch session needs to derive
// a target's disposition before hunk placement (spec.md §4.7.1 step 5).
type StatusSource interface {
	ReadInfo(relpath string) (wcdb.EffectiveInfo, error)
}

// Session drives one patch-file application against a working copy: for
// every target it resolves the on-disk path, consults the WCDB for
// status, applies the hunks, writes the patched content (or a .rej
// sibling), enqueues the durable work items that make the change visible,
// and finally collects any directories left empty by scheduled deletions
// (spec.md §4.7).
type Session struct {
	Root    pathmodel.Dirent
	DB      StatusSource
	Notify  notify.Func
	Options Options
	Tree    *DirTree // seeded by the caller with every known path before Run
}

// TargetResult is one target's disposition after Run.
type TargetResult struct {
	Relpath  string
	Outcome  Outcome
	// WorkItems holds every work-queue item this target produced: a
	// prej-install item when HasRejects (RejectPath set) and/or an
	// install-file/remove-file item for the outcome itself — both can
	// apply to the same target, since a multi-hunk patch can have some
	// hunks reject while others place (spec.md §4.7.3).
	WorkItems  [][]byte
	RejectPath string
}

// Run applies every target in p against the working copy rooted at
// s.Root, returning one TargetResult per target in patch order. It never
// returns an error for a single target's placement failure: per-target
// rejects surface as RejectPath, matching the "never abort the whole
// patch on one bad hunk" requirement of spec.md §4.7.3.
func (s Session) Run(p Patch) ([]TargetResult, error) {
	results := make([]TargetResult, 0, len(p.Targets))
	for _, target := range p.Targets {
		if s.Options.isCancelled() {
			break
		}
		result, err := s.runTarget(target)
		if err != nil {
			return results, err
		}
		results = append(results, result)
	}
	return results, nil
}

func (s Session) runTarget(target Target) (TargetResult, error) {
	filename := target.NewFilename
	if filename == "" {
		filename = target.OldFilename
	}

	resolved, ok, err := ResolveTarget(s.Root, filename, s.Options.StripCount)
	if err != nil {
		return TargetResult{}, err
	}
	if !ok {
		return TargetResult{Relpath: filename, Outcome: OutcomeSkip}, nil
	}
	relpath, _ := s.Root.SkipAncestor(resolved)
	if s.Options.RedirectTarget != nil {
		if redirected, keep := s.Options.RedirectTarget(relpath); keep {
			relpath = redirected
			resolved = s.Root.Join(redirected)
		} else {
			return TargetResult{Relpath: relpath, Outcome: OutcomeSkip}, nil
		}
	}

	status, existed, keywords := s.classifyStatus(relpath)
	if status.ShouldSkip() {
		if s.Notify != nil {
			state := notify.StateUnknown
			if status == TargetUnversioned || status == TargetObstructed {
				state = notify.StateObstructed
			}
			s.Notify(notify.Event{AbsPath: string(resolved), Action: notify.ActionSkip, State: state, Reason: status.String()})
		}
		return TargetResult{Relpath: relpath, Outcome: OutcomeSkip}, nil
	}

	current, binary, readErr := readLines(resolved, keywords)
	if readErr != nil {
		return TargetResult{}, readErr
	}

	applyResult := ApplyTarget(target, current, s.Options, keywords, binary)
	if s.Notify != nil {
		NotifyHunks(s.Notify, string(resolved), applyResult.AllHunks)
	}

	workingSize := len(current)
	patchedSize := len(applyResult.PatchedLines)
	outcome := ClassifyOutcome(workingSize, patchedSize, existed, status)

	result := TargetResult{Relpath: relpath, Outcome: outcome}

	if applyResult.HasRejects {
		rejectPath := string(resolved) + ".rej"
		result.RejectPath = rejectPath
		if !s.Options.DryRun {
			content := RejectFileContent(target.OldFilename, target.NewFilename, applyResult.RejectText)
			work, err := workqueue.EncodePrejInstall(workqueue.PrejInstallArgs{
				Abspath: rejectPath,
				Content: []byte(content),
			})
			if err != nil {
				return TargetResult{}, err
			}
			result.WorkItems = append(result.WorkItems, work)
		}
	}

	if outcome == OutcomeSkip || s.Options.DryRun {
		return result, nil
	}

	switch outcome {
	case OutcomeScheduleDelete:
		if s.Tree != nil {
			s.Tree.RemovePath(relpath)
		}
		work, err := workqueue.EncodeRemoveFile(workqueue.RemoveFileArgs{Abspath: string(resolved)})
		if err != nil {
			return TargetResult{}, err
		}
		result.WorkItems = append(result.WorkItems, work)
	case OutcomeAddition, OutcomeReplacement, OutcomeModification:
		if s.Tree != nil {
			s.Tree.AddPath(relpath, false)
		}
		body := joinLines(applyResult.PatchedLines)
		tmp, err := writeTemp(resolved, body)
		if err != nil {
			return TargetResult{}, err
		}
		work, err := workqueue.EncodeInstallFile(workqueue.InstallFileArgs{
			FromTmp:    tmp,
			ToAbspath:  string(resolved),
			Translated: !binary,
		})
		if err != nil {
			return TargetResult{}, err
		}
		result.WorkItems = append(result.WorkItems, work)

		recordWork, err := workqueue.EncodeRecordFileInfo(workqueue.RecordFileInfoArgs{
			Abspath: string(resolved),
			Relpath: relpath,
		})
		if err != nil {
			return TargetResult{}, err
		}
		result.WorkItems = append(result.WorkItems, recordWork)
	}

	return result, nil
}

// classifyStatus maps the WCDB effective-node status to a TargetStatus
// and reports whether the target had prior on-disk content, per the
// disposition table of spec.md §4.7.1 step 5. It always returns a nil
// keyword set: translating svn:keywords property values into an enabled
// map belongs to the property layer, not yet wired into this session.
func (s Session) classifyStatus(relpath string) (TargetStatus, bool, map[translate.Keyword]bool) {
	info, err := s.DB.ReadInfo(relpath)
	if err != nil {
		if errors.Is(err, wcerrors.OfKind(wcerrors.PathNotFound)) {
			// No WCDB row at all: a file already sitting on disk at this
			// path is an unversioned collision (spec.md's Open Question 1,
			// skip + notify(skip, obstructed)), not a fresh addition.
			if _, statErr := os.Stat(s.Root.Join(relpath).ToOSPath()); statErr == nil {
				return TargetUnversioned, true, nil
			}
			return TargetAbsent, false, nil
		}
		return TargetObstructed, false, nil
	}

	if info.Conflicted {
		return TargetObstructed, true, nil
	}
	switch info.Status {
	case wcdb.StatusExcluded:
		return TargetIgnored, false, nil
	case wcdb.StatusNotPresent, wcdb.StatusBaseDeleted:
		return TargetLocallyDeleted, false, nil
	case wcdb.StatusAbsent, wcdb.StatusIncomplete:
		return TargetMissing, false, nil
	}
	if info.Kind == wcdb.KindDirectory {
		return TargetIsDirectory, true, nil
	}
	return TargetVersioned, true, nil
}

// readLines loads resolved's current content as lines, along with
// whether that content sniffs as binary (translate.IsBinary) — checked
// here, before any placement or translation is attempted, so a binary
// target's hunks can be routed straight to rejection (spec.md §4.7.1
// step 5's "obstructed" family, extended to binary content).
func readLines(resolved pathmodel.Dirent, keywords map[translate.Keyword]bool) ([]string, bool, error) {
	content, err := os.ReadFile(resolved.ToOSPath())
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, wcerrors.Wrap(wcerrors.IOWriteError, err, "failed to read %s", resolved).WithPath(string(resolved))
	}
	return splitRaw(content), translate.IsBinary(content), nil
}

func splitRaw(content []byte) []string {
	var lines []string
	start := 0
	for i, b := range content {
		if b == '\n' {
			lines = append(lines, string(content[start:i]))
			start = i + 1
		}
	}
	if start < len(content) {
		lines = append(lines, string(content[start:]))
	}
	return lines
}

func joinLines(lines []string) []byte {
	var out []byte
	for i, l := range lines {
		out = append(out, l...)
		if i < len(lines)-1 {
			out = append(out, '\n')
		}
	}
	return out
}

func writeTemp(target pathmodel.Dirent, body []byte) (string, error) {
	dir := string(target.Dirname().ToOSPath())
	f, err := os.CreateTemp(dir, ".wcengine-patch-*")
	if err != nil {
		return "", wcerrors.Wrap(wcerrors.IOWriteError, err, "failed to create temp file for %s", target).WithPath(string(target))
	}
	defer f.Close()
	if _, err := f.Write(body); err != nil {
		return "", wcerrors.Wrap(wcerrors.IOWriteError, err, "failed to write temp file for %s", target).WithPath(string(target))
	}
	return f.Name(), nil
}
