// Package faults defines the closed error taxonomy shared by every upstream
// client in the gateway. Clients translate transport and HTTP failures into
// one of these kinds at their boundary; nothing above them should ever see a
// raw transport error.
package faults

import (
	"errors"
	"fmt"
)

// Kind classifies a gateway failure.
type Kind int

const (
	// Unknown covers ambiguous transport or parse failures. Callers treat
	// it as if the credential or request were invalid (fail closed).
	Unknown Kind = iota
	// InvalidToken means the session credential was rejected upstream.
	InvalidToken
	// NotFound means the requested entity does not exist. This is a
	// legitimate result for lookups, not a failure of the call itself.
	NotFound
	// ProviderRejected means the OAuth provider returned a non-2xx status.
	ProviderRejected
	// MalformedGrant means the provider returned 2xx but the token payload
	// was missing an access or refresh token.
	MalformedGrant
	// MalformedProfile means the provider returned 2xx but the user-info
	// payload did not contain a usable record.
	MalformedProfile
	// InvalidRequest means caller-supplied input failed validation before
	// any network call was made.
	InvalidRequest
	// InitFailed means the upload API rejected an upload initialisation.
	InitFailed
	// IncompleteParts means the upload API reported a mismatch between the
	// issued and completed parts of a multipart upload.
	IncompleteParts
)

// String returns a stable name for the kind.
func (k Kind) String() string {
	switch k {
	case InvalidToken:
		return "invalid_token"
	case NotFound:
		return "not_found"
	case ProviderRejected:
		return "provider_rejected"
	case MalformedGrant:
		return "malformed_grant"
	case MalformedProfile:
		return "malformed_profile"
	case InvalidRequest:
		return "invalid_request"
	case InitFailed:
		return "init_failed"
	case IncompleteParts:
		return "incomplete_parts"
	default:
		return "unknown"
	}
}

// Error is a classified gateway failure. Status carries the upstream HTTP
// status when one was observed, so callers can report which phase failed.
type Error struct {
	Kind   Kind
	Op     string
	Status int
	Err    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Status != 0:
		return fmt.Sprintf("%s: %s (status %d): %v", e.Op, e.Kind, e.Status, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("%s: %s (status %d)", e.Op, e.Kind, e.Status)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
}

// Unwrap exposes the underlying cause for errors.Is / errors.As chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// New wraps err with a classification for the named operation.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Upstream records a classified failure observed as an upstream HTTP status.
func Upstream(kind Kind, op string, status int) *Error {
	return &Error{Kind: kind, Op: op, Status: status}
}

// KindOf extracts the classification from err. Unclassified errors report
// Unknown, which keeps the fail-closed invariant for callers that only
// switch on the kind.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return Unknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind == kind
	}
	return err != nil && kind == Unknown
}

// StatusOf returns the upstream HTTP status recorded on err, or zero.
func StatusOf(err error) int {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Status
	}
	return 0
}
