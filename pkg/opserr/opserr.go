// Package opserr defines the error kinds shared by the transcoder, signer
// and registrar client.
//
// Callers test for a kind with errors.Is:
//
//	if errors.Is(err, opserr.ErrInvalidArgument) {
//	    // caller bug, do not retry
//	}
//
// Business failures reported by the registrar (is_success=0) are not errors
// and never carry one of these kinds.
package opserr

import (
	"errors"
	"strings"
)

// Error kinds
var (
	// ErrInvalidArgument marks missing or malformed caller input. It is
	// returned before any network access.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrFormat marks a response document that is not well-formed XML or
	// does not have the OPS envelope shape.
	ErrFormat = errors.New("format error")

	// ErrConfiguration marks missing credentials or signing key.
	ErrConfiguration = errors.New("configuration error")
)

// Error carries the kind of failure plus where it happened.
type Error struct {
	Kind   error
	Op     string
	Path   []string
	Detail string
	Cause  error
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	if e.Kind != nil {
		b.WriteString(e.Kind.Error())
	} else {
		b.WriteString("error")
	}
	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is this error's kind
func (e *Error) Is(target error) bool {
	return e.Kind != nil && target == e.Kind
}

// InvalidArgument builds an ErrInvalidArgument error.
func InvalidArgument(op, detail string, path ...string) error {
	return &Error{Kind: ErrInvalidArgument, Op: op, Detail: detail, Path: path}
}

// Format builds an ErrFormat error wrapping cause (which may be nil).
func Format(op, detail string, cause error) error {
	return &Error{Kind: ErrFormat, Op: op, Detail: detail, Cause: cause}
}

// Configuration builds an ErrConfiguration error.
func Configuration(op, detail string) error {
	return &Error{Kind: ErrConfiguration, Op: op, Detail: detail}
}
