package layer

import (
	"errors"
	"fmt"

	"github.com/muurk/stratum/internal/bytesutil"
)

// ErrorKind represents the category of codec failure
type ErrorKind int

const (
	// KindMalformedInput indicates the buffer is shorter than the protocol's
	// minimum size or a mandatory sub-field is empty
	KindMalformedInput ErrorKind = iota
	// KindTypeMismatch indicates a protocol-specific decoder was invoked on
	// bytes whose embedded type code disagrees with that protocol
	KindTypeMismatch
	// KindInconsistentLength indicates a declared or derived length field
	// violates the buffer size or the protocol's length-unit rule
	KindInconsistentLength
	// KindInvalidBuilderState indicates a required builder slot was missing
	// or malformed at build time
	KindInvalidBuilderState
)

// String returns a human-readable name for the error kind
func (k ErrorKind) String() string {
	switch k {
	case KindMalformedInput:
		return "malformed input"
	case KindTypeMismatch:
		return "type mismatch"
	case KindInconsistentLength:
		return "inconsistent length"
	case KindInvalidBuilderState:
		return "invalid builder state"
	default:
		return fmt.Sprintf("ErrorKind(%d)", k)
	}
}

// CodecError is the error value surfaced by decode and build operations.
// Failures are deterministic functions of the input; none are retryable.
type CodecError struct {
	Kind    ErrorKind // Category of failure
	Message string    // Human-readable description
	Data    []byte    // Offending bytes, rendered as hex in Error()
	Err     error     // Underlying error (if any)
}

// Error implements the error interface
func (e *CodecError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if len(e.Data) > 0 {
		msg += fmt.Sprintf(". data: %s", bytesutil.HexString(e.Data, " "))
	}
	if e.Err != nil {
		msg += fmt.Sprintf(" (caused by: %v)", e.Err)
	}
	return msg
}

// Unwrap returns the underlying error for error chain inspection
func (e *CodecError) Unwrap() error {
	return e.Err
}

// NewError constructs a CodecError. data holds the offending bytes and may be
// nil; it is copied, never aliased.
func NewError(kind ErrorKind, message string, data []byte) *CodecError {
	var cp []byte
	if data != nil {
		cp = bytesutil.Clone(data)
	}
	return &CodecError{Kind: kind, Message: message, Data: cp}
}

// KindOf extracts the ErrorKind from err's chain. The second return value is
// false when err carries no CodecError.
func KindOf(err error) (ErrorKind, bool) {
	var ce *CodecError
	if errors.As(err, &ce) {
		return ce.Kind, true
	}
	return 0, false
}

// IsKind reports whether err's chain carries a CodecError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
