// Package errors defines custom error types for the qtransfer core.
// These errors provide detailed information for debugging while maintaining
// security by not leaking sensitive information in error messages.
//
// Every failure the pipeline can surface maps to exactly one ErrorKind; the
// transfer coordinator uses KindOf to build the terminal failure status it
// delivers through the completion port.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for simulation parameter validation
var (
	// ErrInvalidQubitCount indicates a non-positive qubit count
	ErrInvalidQubitCount = errors.New("qkd: qubit count must be positive")

	// ErrInvalidProbability indicates a probability outside [0, 1]
	ErrInvalidProbability = errors.New("qkd: probability must be in [0, 1]")

	// ErrUnsupportedNoiseModel indicates an unknown noise model value
	ErrUnsupportedNoiseModel = errors.New("qkd: unsupported noise model")

	// ErrUnsupportedEveStrategy indicates an unknown eavesdropping strategy
	ErrUnsupportedEveStrategy = errors.New("qkd: unsupported eavesdropping strategy")

	// ErrNilRandomSource indicates no random source was supplied
	ErrNilRandomSource = errors.New("qkd: nil random source")
)

// Sentinel errors for key derivation
var (
	// ErrMalformedHexKey indicates the stored sifted key is not valid hex
	ErrMalformedHexKey = errors.New("kdf: malformed hex key")

	// ErrEmptyKey indicates the stored sifted key decodes to zero bytes
	ErrEmptyKey = errors.New("kdf: empty key material")

	// ErrInvalidKeySize indicates a symmetric key of the wrong length
	ErrInvalidKeySize = errors.New("kdf: invalid key size")
)

// Sentinel errors for the streaming cipher engine
var (
	// ErrAuthenticationFailed indicates AEAD tag verification failed on a chunk
	ErrAuthenticationFailed = errors.New("stream: chunk authentication failed")

	// ErrIntegrityMismatch indicates the recomputed content hash differs from
	// the one recorded at encryption time, even though every AEAD tag verified
	ErrIntegrityMismatch = errors.New("stream: content hash mismatch")

	// ErrTruncatedContainer indicates the container ends mid-record
	ErrTruncatedContainer = errors.New("stream: truncated container")

	// ErrUnsupportedCipherSuite indicates an unsupported AEAD suite
	ErrUnsupportedCipherSuite = errors.New("stream: unsupported cipher suite")

	// ErrTooManyChunks indicates the chunk counter limit was exceeded
	ErrTooManyChunks = errors.New("stream: chunk count limit exceeded")
)

// Sentinel errors for the transfer coordinator
var (
	// ErrNilSource indicates a transfer request without a source stream
	ErrNilSource = errors.New("transfer: nil source stream")

	// ErrNilDestination indicates a transfer request without a destination
	ErrNilDestination = errors.New("transfer: nil destination stream")

	// ErrMissingSessionID indicates a transfer request without a session ID
	ErrMissingSessionID = errors.New("transfer: missing session identifier")
)

// ValidationError wraps a parameter validation failure with the offending
// parameter name. Validation errors are rejected before any randomness is
// consumed and are fully recoverable by retrying with corrected input.
type ValidationError struct {
	Param string // Parameter that failed validation
	Err   error  // Underlying error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Param, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a new ValidationError
func NewValidationError(param string, err error) *ValidationError {
	return &ValidationError{Param: param, Err: err}
}

// IOError wraps a stream read/write failure with the operation that failed.
// IO errors abort the whole operation; partial output must not be exposed.
type IOError struct {
	Op  string // Operation that failed (e.g. "read chunk", "write record")
	Err error  // Underlying error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// NewIOError creates a new IOError
func NewIOError(op string, err error) *IOError {
	return &IOError{Op: op, Err: err}
}

// ErrorKind classifies a pipeline failure for the terminal status payload.
type ErrorKind string

const (
	// KindValidation marks rejected simulation or transfer parameters.
	KindValidation ErrorKind = "validation"

	// KindDecoding marks malformed hex key input to key derivation.
	KindDecoding ErrorKind = "decoding"

	// KindIO marks a stream read/write failure mid-operation.
	KindIO ErrorKind = "io"

	// KindAuthentication marks AEAD tag verification failure (tampering).
	KindAuthentication ErrorKind = "authentication"

	// KindIntegrity marks a post-decrypt content hash mismatch.
	KindIntegrity ErrorKind = "integrity_mismatch"

	// KindInternal marks any failure that fits no other kind.
	KindInternal ErrorKind = "internal"
)

// KindOf maps an error to its ErrorKind. Wrapped errors are classified by
// their innermost recognized cause.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAuthenticationFailed):
		return KindAuthentication
	case errors.Is(err, ErrIntegrityMismatch):
		return KindIntegrity
	case errors.Is(err, ErrMalformedHexKey), errors.Is(err, ErrEmptyKey):
		return KindDecoding
	}

	var verr *ValidationError
	if errors.As(err, &verr) {
		return KindValidation
	}
	var ioerr *IOError
	if errors.As(err, &ioerr) {
		return KindIO
	}

	switch {
	case errors.Is(err, ErrInvalidQubitCount),
		errors.Is(err, ErrInvalidProbability),
		errors.Is(err, ErrUnsupportedNoiseModel),
		errors.Is(err, ErrUnsupportedEveStrategy),
		errors.Is(err, ErrNilSource),
		errors.Is(err, ErrNilDestination),
		errors.Is(err, ErrMissingSessionID):
		return KindValidation
	case errors.Is(err, ErrTruncatedContainer):
		return KindIO
	}

	return KindInternal
}

// Is reports whether any error in err's chain matches target.
// This is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// This is a convenience wrapper around errors.As.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
