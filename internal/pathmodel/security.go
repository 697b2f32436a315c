package pathmodel

import (
	"os"
	"strings"
)

// IsUnderRoot resolves untrustedRelpath against baseDirent component by
// component, rejecting any resolution that would traverse outside
// baseDirent — including via a symlink encountered mid-traversal. It
// returns the resolved Dirent and true on success, or ("", false) if the
// path cannot be safely resolved. It never returns a path outside the
// root: callers must treat a false result as "skip this target", per
// spec.md §4.7.1 step 4 and §8's boundary-behavior law.
func IsUnderRoot(baseDirent Dirent, untrustedRelpath string) (Dirent, bool) {
	rel, err := CanonicalizeRelpath(untrustedRelpath)
	if err != nil {
		return "", false
	}
	if rel == "" {
		return baseDirent, true
	}

	base := CanonicalizeDirent(string(baseDirent))
	cur := base
	parts := strings.Split(string(rel), "/")
	for i, part := range parts {
		next := cur.Join(part)
		if !base.IsAncestor(next) && next != base {
			return "", false
		}
		// A symlink at any but the final component must still resolve
		// inside base; a symlink at the final component is allowed to
		// exist (patch targets may themselves be symlinks) but must not
		// point itself outside root once dereferenced.
		info, lerr := os.Lstat(next.ToOSPath())
		if lerr == nil && info.Mode()&os.ModeSymlink != 0 {
			target, rerr := os.Readlink(next.ToOSPath())
			if rerr != nil {
				return "", false
			}
			resolved := resolveSymlink(next, target)
			if !base.IsAncestor(resolved) && resolved != base {
				return "", false
			}
			if i < len(parts)-1 {
				cur = resolved
				continue
			}
		}
		cur = next
	}
	return cur, true
}

func resolveSymlink(linkDirent Dirent, target string) Dirent {
	target = strings.ReplaceAll(target, "\\", "/")
	if strings.HasPrefix(target, "/") || (len(target) >= 2 && target[1] == ':') {
		return CanonicalizeDirent(target)
	}
	dir, _ := linkDirent.Split()
	return CanonicalizeDirent(string(dir) + "/" + target)
}
