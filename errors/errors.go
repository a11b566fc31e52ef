// Package errors provides error handling for the collaborative canvas engine.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - PII-safe error formatting
//   - Network portability for distributed systems
//   - Sentry integration
//
// Usage:
//
//	// Create new error
//	err := errors.New("something went wrong")
//
//	// Wrap with context
//	if err := doSomething(); err != nil {
//	    return errors.Wrap(err, "failed to do something")
//	}
//
//	// Add hints for users
//	return errors.WithHint(err, "try increasing the timeout")
//
//	// Check errors
//	if errors.Is(err, sql.ErrNoRows) {
//	    // handle not found
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint          = crdb.WithHint
	WithHintf         = crdb.WithHintf
	WithDetail        = crdb.WithDetail
	WithDetailf       = crdb.WithDetailf
	WithSafeDetails   = crdb.WithSafeDetails
	WithSecondaryError = crdb.WithSecondaryError
)

// Error inspection
var (
	Is        = crdb.Is
	IsAny     = crdb.IsAny
	As        = crdb.As
	Unwrap    = crdb.Unwrap
	UnwrapOnce = crdb.UnwrapOnce
	UnwrapAll = crdb.UnwrapAll
	GetAllHints = crdb.GetAllHints
	GetAllDetails = crdb.GetAllDetails
	FlattenHints = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// Advanced features
var (
	Handled            = crdb.Handled
	HandledWithMessage = crdb.HandledWithMessage
	WithDomain         = crdb.WithDomain
	GetDomain          = crdb.GetDomain
	WithContextTags    = crdb.WithContextTags
	EncodeError        = crdb.EncodeError
	DecodeError        = crdb.DecodeError
	GetReportableStackTrace = crdb.GetReportableStackTrace
)

// GetStack is an alias for GetReportableStackTrace for convenience.
var GetStack = crdb.GetReportableStackTrace

// Assertions and panics
var (
	AssertionFailedf  = crdb.AssertionFailedf
	NewAssertionErrorWithWrappedErrf = crdb.NewAssertionErrorWithWrappedErrf
)

// Taxonomy sentinels for the command/sync error classification: every error
// the pipeline surfaces to a caller or reconciler is wrapped with one of
// these via Mark so callers can classify with Is/As without string
// matching.
var (
	// ErrValidation marks a rejected command parameter; no state changed.
	ErrValidation = crdb.New("validation error")
	// ErrNodeNotFound marks a reference to a node id absent from the graph.
	ErrNodeNotFound = crdb.New("node not found")
	// ErrInvalidType marks a command applied to an incompatible node variant.
	ErrInvalidType = crdb.New("invalid node type")
	// ErrNetwork marks a transport failure; the pipeline leaves the op pending.
	ErrNetwork = crdb.New("network error")
	// ErrUpload marks an upload attempt failure, subject to retry.
	ErrUpload = crdb.New("upload error")
	// ErrAuth marks a rejected or expired credential on the transport.
	ErrAuth = crdb.New("auth error")
	// ErrReconciliation marks an unresolvable ACK, id remap conflict, or
	// missing node on a server broadcast; triggers a full sync.
	ErrReconciliation = crdb.New("reconciliation error")
	// ErrFatal marks corrupted local state requiring a full resync.
	ErrFatal = crdb.New("fatal error")
)

// Mark wraps err so that Is(result, sentinel) succeeds, while preserving
// err's own message and stack via Wrap semantics.
func Mark(err error, sentinel error) error {
	if err == nil {
		return nil
	}
	return crdb.Mark(err, sentinel)
}
