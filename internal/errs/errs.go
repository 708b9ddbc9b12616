// Package errs defines the error taxonomy used across the service
// boundary-propagation rules described for the news engine: per-article,
// per-event and per-feed failures stay contained to their loop, store and
// startup failures are classified so callers can decide retry vs. fatal.
package errs

import (
	"errors"
	"fmt"
)

// Kind is one of the abstract error kinds the pipeline distinguishes.
type Kind string

const (
	KindTransientNetwork     Kind = "transient_network"
	KindParseFailure         Kind = "parse_failure"
	KindStoreUnavailable     Kind = "store_unavailable"
	KindStoreConstraint      Kind = "store_constraint_violated"
	KindStoreConflict        Kind = "store_conflict"
	KindMissingDependency    Kind = "missing_dependency"
	KindInvalidConfiguration Kind = "invalid_configuration"
	KindShutdownRequested    Kind = "shutdown_requested"
)

// Error wraps an underlying error with a Kind and the operation that
// produced it, following the %w-wrapping idiom used throughout the teacher
// codebase's auth and rss packages.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a classified error.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf extracts the Kind from err if it (or something it wraps) is an
// *Error, and ok=false otherwise.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// IsRetryable reports whether the error's kind warrants a backoff retry
// rather than aborting the enclosing unit of work (article/event/feed).
func IsRetryable(err error) bool {
	kind, ok := KindOf(err)
	if !ok {
		return false
	}
	switch kind {
	case KindTransientNetwork, KindStoreUnavailable:
		return true
	default:
		return false
	}
}

// IsFatal reports whether the error should abort service startup.
func IsFatal(err error) bool {
	kind, ok := KindOf(err)
	if !ok {
		return false
	}
	switch kind {
	case KindStoreUnavailable, KindInvalidConfiguration:
		return true
	default:
		return false
	}
}
