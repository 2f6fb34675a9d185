// Package errs holds the sentinel errors shared by the vault packages.
//
// Callers are expected to match with errors.Is, since every package wraps
// these with some context about where the failure happened.
package errs

import "errors"

var (
	// ErrInvalidParameters is returned when an operation is called with arguments
	// that violate its preconditions, such as a threshold larger than the number of servers.
	ErrInvalidParameters = errors.New("invalid parameters")
	// ErrSerialization is returned when decoding a value fails, or when a value
	// cannot be encoded canonically.
	ErrSerialization = errors.New("serialization error")
	// ErrIntegrityCheckFailed is returned when a reconstructed secret does not
	// match its commitment. A wrong password looks exactly like this.
	ErrIntegrityCheckFailed = errors.New("integrity check failed")
	// ErrInterpolation is returned when a set of shares cannot be interpolated.
	ErrInterpolation = errors.New("interpolation error")
	// ErrSignatureInvalid is returned when a signed message fails verification.
	ErrSignatureInvalid = errors.New("invalid signature")
)
