package composer

import "fmt"

// ErrorKind classifies a composition failure.
type ErrorKind int

const (
	// ErrorKindStructural marks a collaborator/shape mismatch: a declared
	// field absent from the concrete value, an unresolvable type reference,
	// a list whose length disagrees with its declared shape. Indicates a
	// programming error outside the engine's remit to recover from.
	ErrorKindStructural ErrorKind = iota

	// ErrorKindNullViolation marks a null arriving at a position whose
	// type forbids it.
	ErrorKindNullViolation

	// ErrorKindProducer marks a failure of an individual field producer.
	ErrorKindProducer
)

// Error is a located composition failure. An Error terminates the stream of
// the subtree it occurred in; no partial composite is ever emitted in its
// place, and no retry is attempted.
type Error struct {
	Kind    ErrorKind
	Message string
	Path    Path

	cause error
}

func (e *Error) Error() string {
	if len(e.Path) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (at %s)", e.Message, e.Path)
}

func (e *Error) Unwrap() error { return e.cause }

func structuralf(path Path, format string, args ...any) *Error {
	return &Error{Kind: ErrorKindStructural, Message: fmt.Sprintf(format, args...), Path: path}
}

func nullViolation(path Path, typeName string) *Error {
	return &Error{
		Kind:    ErrorKindNullViolation,
		Message: fmt.Sprintf("cannot return null for non-nullable type %q", typeName),
		Path:    path,
	}
}

// ProducerFault wraps an external producer failure as a located error.
// The original error stays reachable through errors.Is/As.
func ProducerFault(path Path, err error) *Error {
	return &Error{Kind: ErrorKindProducer, Message: err.Error(), Path: path, cause: err}
}
