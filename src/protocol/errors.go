package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrMalformed   = errors.New("protocol: malformed message")
	ErrUnknownType = errors.New("protocol: unknown message type")
	ErrFieldType   = errors.New("protocol: field type mismatch")
)

// ErrorCode is the code carried by an error body.
type ErrorCode int

// Canonical error codes.
const (
	CodeTimeout          ErrorCode = 0
	CodeNotSupported     ErrorCode = 10
	CodeNotInitialized   ErrorCode = 11
	CodeMalformedRequest ErrorCode = 12
	CodeCrash            ErrorCode = 13
)

// String ...
func (c ErrorCode) String() string {
	switch c {
	case CodeTimeout:
		return "Timeout"
	case CodeNotSupported:
		return "NotSupported"
	case CodeNotInitialized:
		return "NotInitialized"
	case CodeMalformedRequest:
		return "MalformedRequest"
	case CodeCrash:
		return "Crash"
	default:
		return fmt.Sprintf("Code(%d)", int(c))
	}
}

// MissingFieldError indicates a required field was not present.
type MissingFieldError struct {
	Type  string
	Field string
}

func (e MissingFieldError) Error() string {
	return fmt.Sprintf("protocol: %s: missing required field %q", e.Type, e.Field)
}

// FieldTypeError indicates a field was present with the wrong type.
type FieldTypeError struct {
	Type  string
	Field string
	Want  string
}

func (e FieldTypeError) Error() string {
	return fmt.Sprintf("protocol: %s: field %q is not %s", e.Type, e.Field, e.Want)
}

// Unwrap allows errors.Is(err, ErrFieldType).
func (e FieldTypeError) Unwrap() error {
	return ErrFieldType
}

// ParseError is returned by Parse. It carries the offending line for
// diagnostics.
type ParseError struct {
	Line []byte
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse %q: %v", truncate(e.Line, 120), e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func truncate(b []byte, max int) string {
	if len(b) <= max {
		return string(b)
	}
	return string(b[:max]) + "..."
}
