// Package apperr defines the error taxonomy surfaced by a redirect walk.
package apperr

import "errors"

// Kind classifies a walk failure.
type Kind string

const (
	KindInvalidInput  Kind = "invalid_input"
	KindBlockedTarget Kind = "blocked_target"
	KindTimeout       Kind = "timeout"
	KindFetchFailed   Kind = "fetch_failed"
)

// Sentinels for errors.Is. Any *Error of the same kind matches.
var (
	ErrInvalidInput  = &Error{Kind: KindInvalidInput, Msg: "invalid input"}
	ErrBlockedTarget = &Error{Kind: KindBlockedTarget, Msg: "blocked target"}
	ErrTimeout       = &Error{Kind: KindTimeout, Msg: "timeout"}
	ErrFetchFailed   = &Error{Kind: KindFetchFailed, Msg: "fetch failed"}
)

// Error is a classified failure. Err carries the underlying cause, if any.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return e.Msg + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// InvalidInput returns a KindInvalidInput error.
func InvalidInput(msg string, cause error) *Error {
	return &Error{Kind: KindInvalidInput, Msg: msg, Err: cause}
}

// BlockedTarget returns a KindBlockedTarget error.
func BlockedTarget(msg string) *Error {
	return &Error{Kind: KindBlockedTarget, Msg: msg}
}

// Timeout returns a KindTimeout error.
func Timeout(msg string, cause error) *Error {
	return &Error{Kind: KindTimeout, Msg: msg, Err: cause}
}

// FetchFailed returns a KindFetchFailed error.
func FetchFailed(msg string, cause error) *Error {
	return &Error{Kind: KindFetchFailed, Msg: msg, Err: cause}
}

// KindOf returns the kind of err, or "" when err is not classified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
