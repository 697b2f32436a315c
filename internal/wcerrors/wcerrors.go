// Package wcerrors defines the named error kinds exposed at the working
// copy engine's boundary (spec.md §6) and the structured error type that
// carries a kind, message, optional cause, and diagnostic context.
package wcerrors

import "fmt"

// Kind is one of the named error codes from spec.md §6.
type Kind string

const (
	PathNotFound            Kind = "path-not-found"
	NotWorkingCopy          Kind = "not-working-copy"
	PathUnexpectedStatus    Kind = "path-unexpected-status"
	BadFilename             Kind = "bad-filename"
	IOWriteError            Kind = "io-write-error"
	IOUnknownEOL            Kind = "io-unknown-eol"
	WCCorrupt               Kind = "wc-corrupt"
	WCDBError               Kind = "wc-db-error"
	WCLocked                Kind = "wc-locked"
	WCMissing               Kind = "wc-missing"
	ClientPatchBadStripCount Kind = "client-patch-bad-strip-count"
	IncorrectParams         Kind = "incorrect-params"
	Cancelled               Kind = "cancelled"
	AuthnFailed             Kind = "authn-failed"
)

// Error is the rich error type every operation returns: a kind, a
// message, an optional underlying cause, and context fields sufficient
// for a human operator to diagnose without re-deriving state (spec.md §7).
type Error struct {
	Kind    Kind
	Message string
	Cause   error

	Path string
	SHA1 string
	Key  string
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Kind, e.Message)
	if e.Path != "" {
		msg += fmt.Sprintf(" (path=%s)", e.Path)
	}
	if e.SHA1 != "" {
		msg += fmt.Sprintf(" (sha1=%s)", e.SHA1)
	}
	if e.Key != "" {
		msg += fmt.Sprintf(" (key=%s)", e.Key)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

// New constructs an *Error with the given kind and message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap constructs an *Error with the given kind, message, and cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// WithPath returns a copy of e with Path set, for fluent construction.
func (e *Error) WithPath(path string) *Error {
	c := *e
	c.Path = path
	return &c
}

// WithSHA1 returns a copy of e with SHA1 set.
func (e *Error) WithSHA1(sha1 string) *Error {
	c := *e
	c.SHA1 = sha1
	return &c
}

// WithKey returns a copy of e with Key set.
func (e *Error) WithKey(key string) *Error {
	c := *e
	c.Key = key
	return &c
}

// Is reports whether target is an *Error of the same Kind, so that
// errors.Is(err, wcerrors.OfKind(k)) matches by kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// OfKind constructs a zero-message sentinel usable with errors.Is, e.g.
// errors.Is(err, wcerrors.OfKind(wcerrors.Cancelled)).
func OfKind(k Kind) *Error {
	return &Error{Kind: k}
}
