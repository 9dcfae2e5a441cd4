package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrInternal is returned when an internal error occurs
	ErrInternal = errors.New("internal error")
)

// Kind classifies a failure so callers can switch on it instead of
// inspecting message strings.
type Kind int

const (
	KindUnknown Kind = iota

	// KindTransientFetch: the store was unreachable or timed out on a read.
	// Read paths fall back to the last cached value, however stale.
	KindTransientFetch

	// KindWrite: a review write failed. Propagated to the caller untouched;
	// no cache is mutated and retry is the caller's responsibility.
	KindWrite

	// KindEnrichment: a per-record lookup (display name) failed. The record
	// gets a default label; the surrounding list is unaffected.
	KindEnrichment

	// KindNotFound: the requested resource does not exist in the store.
	KindNotFound

	// KindInvalidInput: the request failed validation.
	KindInvalidInput
)

func (k Kind) String() string {
	switch k {
	case KindTransientFetch:
		return "transient_fetch"
	case KindWrite:
		return "write"
	case KindEnrichment:
		return "enrichment"
	case KindNotFound:
		return "not_found"
	case KindInvalidInput:
		return "invalid_input"
	}
	return "unknown"
}

// Error carries a Kind alongside the underlying cause.
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

// Is maps kinds onto the package sentinels so existing errors.Is checks work.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrInvalidInput:
		return e.Kind == KindInvalidInput
	}
	return false
}

// E wraps err with a kind and the operation that produced it.
func E(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf extracts the Kind from an error chain.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	}
	return KindUnknown
}

// IsTransient reports whether err is a transient fetch failure.
func IsTransient(err error) bool {
	return KindOf(err) == KindTransientFetch
}
