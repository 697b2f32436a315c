package pathmodel

import (
	"fmt"
	"net/url"
	"strings"
)

// URI is an absolute repository URL whose path component follows relpath
// canonicalization rules and whose percent-encoding is normalized.
type URI string

// CanonicalizeURI normalizes percent-encoding and collapses the path
// component the way a relpath would be collapsed, while keeping scheme,
// host and query untouched.
func CanonicalizeURI(raw string) (URI, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("pathmodel: %q is not a valid URI: %w", raw, err)
	}
	if u.Scheme == "" || (u.Host == "" && u.Scheme != "file") {
		return "", fmt.Errorf("pathmodel: %q is not an absolute URI", raw)
	}
	relpath, err := CanonicalizeRelpath(strings.TrimPrefix(u.Path, "/"))
	if err != nil {
		return "", fmt.Errorf("pathmodel: %q: %w", raw, err)
	}
	u.Path = "/" + string(relpath)
	u.RawPath = ""
	return URI(u.String()), nil
}

// IsAncestor reports whether u is a proper ancestor of other (same
// scheme+host, and u's path a proper ancestor of other's path).
func (u URI) IsAncestor(other URI) bool {
	up, uok := u.split()
	op, ook := other.split()
	if !uok || !ook {
		return false
	}
	return up.root == op.root && up.path.IsAncestor(op.path)
}

type uriParts struct {
	root string
	path Relpath
}

func (u URI) split() (uriParts, bool) {
	parsed, err := url.Parse(string(u))
	if err != nil {
		return uriParts{}, false
	}
	return uriParts{
		root: parsed.Scheme + "://" + parsed.Host,
		path: Relpath(strings.TrimPrefix(parsed.Path, "/")),
	}, true
}

// Join appends a relative path component to u's path.
func (u URI) Join(child string) URI {
	p, ok := u.split()
	if !ok {
		return u
	}
	joined := p.path.Join(child)
	return URI(p.root + "/" + string(joined))
}

// Basename returns the final path component.
func (u URI) Basename() string {
	p, ok := u.split()
	if !ok {
		return ""
	}
	return p.path.Basename()
}
