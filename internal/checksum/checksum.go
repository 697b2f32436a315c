// Package checksum computes and compares the MD5 and SHA-1 digests used to
// key and verify pristine content, per spec.md §4.5.
package checksum

import (
	"crypto/md5"
	"crypto/sha1"
	"encoding/hex"
	"io"
)

// SHA1 is a lowercase-hex SHA-1 digest, the authoritative PristineStore key.
type SHA1 string

// MD5 is a lowercase-hex MD5 digest, retained only for legacy lookups
// (spec.md §4.5, Open Question 3).
type MD5 string

// Digests bundles both digests plus the byte length, computed in a single
// pass over the content.
type Digests struct {
	SHA1 SHA1
	MD5  MD5
	Size int64
}

// Compute hashes r once, producing both digests and the size.
func Compute(r io.Reader) (Digests, error) {
	sh := sha1.New()
	md := md5.New()
	n, err := io.Copy(io.MultiWriter(sh, md), r)
	if err != nil {
		return Digests{}, err
	}
	return Digests{
		SHA1: SHA1(hex.EncodeToString(sh.Sum(nil))),
		MD5:  MD5(hex.EncodeToString(md.Sum(nil))),
		Size: n,
	}, nil
}

// Equal reports whether a and b name the same content.
func (a SHA1) Equal(b SHA1) bool { return a == b }

// ShardPrefix returns the first two hex characters used to shard the
// pristine store directory layout (spec.md §6).
func (s SHA1) ShardPrefix() string {
	if len(s) < 2 {
		return "00"
	}
	return string(s[:2])
}
