package pathmodel

import (
	"path/filepath"
	"strings"
)

// Dirent is a canonical platform path to a file on this host. Internally it
// always uses forward slashes; platform-specific separators are applied
// only at the filesystem boundary (see ToOSPath).
type Dirent string

// CanonicalizeDirent collapses "./", duplicate and trailing separators and
// normalizes a leading drive/server component to lower case so that two
// dirents that differ only by drive-letter case compare equal on
// case-insensitive roots.
func CanonicalizeDirent(p string) Dirent {
	p = strings.ReplaceAll(p, "\\", "/")
	drive := ""
	if len(p) >= 2 && p[1] == ':' {
		drive = strings.ToLower(p[:2])
		p = p[2:]
	}
	parts := strings.Split(p, "/")
	out := make([]string, 0, len(parts))
	for i, part := range parts {
		if part == "." {
			continue
		}
		if part == "" && i != 0 {
			continue
		}
		out = append(out, part)
	}
	joined := strings.Join(out, "/")
	if joined == "" {
		joined = "/"
	}
	result := drive + joined
	if drive != "" && joined == "" {
		result = drive + "/"
	}
	return Dirent(result)
}

// IsCanonical reports whether d is already in canonical form.
func (d Dirent) IsCanonical() bool {
	return CanonicalizeDirent(string(d)) == d
}

// Basename returns the last path component.
func (d Dirent) Basename() string {
	s := strings.TrimSuffix(string(d), "/")
	if i := strings.LastIndexByte(s, '/'); i >= 0 {
		return s[i+1:]
	}
	return s
}

// Dirname returns the parent dirent.
func (d Dirent) Dirname() Dirent {
	s := strings.TrimSuffix(string(d), "/")
	i := strings.LastIndexByte(s, '/')
	if i < 0 {
		return "."
	}
	if i == 0 {
		return "/"
	}
	return Dirent(s[:i])
}

// Split returns (Dirname, Basename).
func (d Dirent) Split() (Dirent, string) {
	return d.Dirname(), d.Basename()
}

// Join appends a relative component to d.
func (d Dirent) Join(child string) Dirent {
	child = strings.Trim(strings.ReplaceAll(child, "\\", "/"), "/")
	if child == "" {
		return d
	}
	base := strings.TrimSuffix(string(d), "/")
	if base == "" {
		return Dirent(child)
	}
	return Dirent(base + "/" + child)
}

// IsAncestor reports whether d is a proper ancestor of other.
func (d Dirent) IsAncestor(other Dirent) bool {
	ds := strings.TrimSuffix(string(d), "/")
	os_ := strings.TrimSuffix(string(other), "/")
	if ds == os_ {
		return false
	}
	return strings.HasPrefix(os_, ds+"/")
}

// SkipAncestor removes the d prefix from other.
func (d Dirent) SkipAncestor(other Dirent) (string, bool) {
	ds := strings.TrimSuffix(string(d), "/")
	os_ := strings.TrimSuffix(string(other), "/")
	if ds == os_ {
		return "", true
	}
	if strings.HasPrefix(os_, ds+"/") {
		return os_[len(ds)+1:], true
	}
	return "", false
}

// ToOSPath converts a canonical (forward-slash) dirent to the host's native
// path separator for actual filesystem calls.
func (d Dirent) ToOSPath() string {
	return filepath.FromSlash(string(d))
}

// FromOSPath builds a canonical Dirent from a native OS path.
func FromOSPath(p string) Dirent {
	return CanonicalizeDirent(filepath.ToSlash(p))
}
