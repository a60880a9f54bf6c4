// Package errors provides a structured error type with wrapping and metadata
package errors

// Always import the project errors package as perr (platform/errors)

import (
	"context"
	stderrs "errors"
	"fmt"
)

// ErrorCode classifies failures across the pipeline
// Values are stable; add sparingly
type ErrorCode uint16

const (
	// ErrorCodeUnknown is for unclassified errors
	ErrorCodeUnknown ErrorCode = iota

	// ErrorCodePanic is for recovered panics
	ErrorCodePanic

	// ErrorCodeUnavailable is for a dependency that is down or busy
	ErrorCodeUnavailable

	// ErrorCodeInvalidArgument is for bad input parameters
	ErrorCodeInvalidArgument

	// ErrorCodeValidation is for validation failures (input data)
	ErrorCodeValidation

	// ErrorCodeJSON is for JSON parsing errors
	ErrorCodeJSON

	// ErrorCodeNotFound is for missing resources
	ErrorCodeNotFound

	// ErrorCodeDB is for storage failures (open, create, commit, query)
	ErrorCodeDB

	// ErrorCodeMalformedRecord is for an input line that is not a valid posting
	ErrorCodeMalformedRecord

	// ErrorCodeUnresolvedCode is for an onet code missing from the code table
	ErrorCodeUnresolvedCode

	// ErrorCodeConfig is for unusable configuration or lookup sources
	ErrorCodeConfig

	// ErrorCodeCanceled is for a run stopped by its context
	ErrorCodeCanceled
)

var codeNames = map[ErrorCode]string{
	ErrorCodeUnknown:         "unknown",
	ErrorCodePanic:           "panic",
	ErrorCodeUnavailable:     "unavailable",
	ErrorCodeInvalidArgument: "invalid_argument",
	ErrorCodeValidation:      "validation",
	ErrorCodeJSON:            "json",
	ErrorCodeNotFound:        "not_found",
	ErrorCodeDB:              "storage_failure",
	ErrorCodeMalformedRecord: "malformed_record",
	ErrorCodeUnresolvedCode:  "unresolved_code",
	ErrorCodeConfig:          "config",
	ErrorCodeCanceled:        "canceled",
}

// String returns the stable snake_case name of the code
func (c ErrorCode) String() string {
	if s, ok := codeNames[c]; ok {
		return s
	}
	return fmt.Sprintf("code(%d)", uint16(c))
}

// Process exit statuses (sysexits.h values where one fits)
const (
	ExitOK       = 0
	ExitFailure  = 1
	ExitDataErr  = 65
	ExitNoInput  = 66
	ExitUnavail  = 69
	ExitIOErr    = 74
	ExitConfig   = 78
	ExitCanceled = 130
)

// ExitCodeFor turns an ErrorCode into a process exit status
func ExitCodeFor(c ErrorCode) int {
	switch c {
	case ErrorCodeMalformedRecord, ErrorCodeUnresolvedCode, ErrorCodeJSON, ErrorCodeValidation:
		return ExitDataErr
	case ErrorCodeNotFound:
		return ExitNoInput
	case ErrorCodeUnavailable:
		return ExitUnavail
	case ErrorCodeDB:
		return ExitIOErr
	case ErrorCodeConfig, ErrorCodeInvalidArgument:
		return ExitConfig
	case ErrorCodeCanceled:
		return ExitCanceled
	default:
		return ExitFailure
	}
}

// ExitCode returns the process exit status for any error; nil -> 0
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if stderrs.Is(err, context.Canceled) && CodeOf(err) == ErrorCodeUnknown {
		return ExitCanceled
	}
	return ExitCodeFor(CodeOf(err))
}

// ErrNotFound is a sentinel not found error for convenience
var ErrNotFound = New(ErrorCodeNotFound, "not found")

// Error is the structured error type with wrapping and metadata
// msg is human/developer facing; code is machine facing
// field is optional (offending record field); op is an optional operation tag
// line is the 1-indexed input line, 0 when unknown
// orig is the wrapped cause
type Error struct {
	orig  error
	msg   string
	code  ErrorCode
	field string
	op    string
	line  int
}

// Error implements the error interface
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := e.msg
	if e.line > 0 {
		msg = fmt.Sprintf("line %d: %s", e.line, msg)
	}
	if e.orig != nil {
		return fmt.Sprintf("%s: %v", msg, e.orig)
	}
	return msg
}

// Unwrap returns the wrapped error, if any
func (e *Error) Unwrap() error { return e.orig }

// Code returns the error code
func (e *Error) Code() ErrorCode { return e.code }

// Field returns the offending field, if any
func (e *Error) Field() string { return e.field }

// Op returns the operation label, if set
func (e *Error) Op() string { return e.op }

// Line returns the 1-indexed input line, 0 when unknown
func (e *Error) Line() int { return e.line }

// Message returns the message without line prefix or cause
func (e *Error) Message() string { return e.msg }

// Root returns the deepest wrapped cause
func Root(err error) error {
	for err != nil {
		u := stderrs.Unwrap(err)
		if u == nil {
			return err
		}
		err = u
	}
	return nil
}

// CodeOf extracts an ErrorCode from any error, defaulting to Unknown
func CodeOf(err error) ErrorCode {
	if e, ok := As(err); ok {
		return e.code
	}
	return ErrorCodeUnknown
}

// IsCode reports whether err has the given code
func IsCode(err error, code ErrorCode) bool { return CodeOf(err) == code }

// LineOf returns the input line attached to err, 0 when none
func LineOf(err error) int {
	if e, ok := As(err); ok {
		return e.line
	}
	return 0
}

// As unwraps and returns (*Error, true) if err is one of ours
func As(err error) (*Error, bool) {
	var e *Error
	if stderrs.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Mutators (copy-on-write)

// WithField attaches a field to an *Error (copy-on-write). If err isn't *Error, returns err unchanged
func WithField(err error, field string) error {
	if e, ok := As(err); ok {
		c := *e
		c.field = field
		return &c
	}
	return err
}

// WithOp attaches an operation label to an *Error (copy-on-write). If err isn't *Error, returns err unchanged
func WithOp(err error, op string) error {
	if e, ok := As(err); ok {
		c := *e
		c.op = op
		return &c
	}
	return err
}

// WithLine attaches an input line number. Foreign errors are wrapped with code Unknown
func WithLine(err error, line int) error {
	if err == nil {
		return nil
	}
	if e, ok := As(err); ok {
		c := *e
		c.line = line
		return &c
	}
	return &Error{code: ErrorCodeUnknown, msg: "failed", orig: err, line: line}
}

// Constructors

// New returns a new *Error with the given code and message
func New(code ErrorCode, msg string) error { return &Error{code: code, msg: msg} }

// Newf returns a new *Error with code and formatted message
func Newf(code ErrorCode, format string, a ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, a...)}
}

// Wrap returns a new *Error that wraps orig with code and message
func Wrap(orig error, code ErrorCode, msg string) error {
	return &Error{code: code, msg: msg, orig: orig}
}

// Wrapf returns a new *Error that wraps orig with code and formatted message
func Wrapf(orig error, code ErrorCode, format string, a ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, a...), orig: orig}
}

// WrapIf wraps only when err != nil (helper for 1-liners)
func WrapIf(err error, code ErrorCode, msg string) error {
	if err == nil {
		return nil
	}
	return Wrap(err, code, msg)
}

// Sugar

// NotFoundf returns a not found error
func NotFoundf(format string, a ...any) error { return Newf(ErrorCodeNotFound, format, a...) }

// InvalidArgf returns an invalid argument error
func InvalidArgf(format string, a ...any) error { return Newf(ErrorCodeInvalidArgument, format, a...) }

// DBf returns a storage error
func DBf(format string, a ...any) error { return Newf(ErrorCodeDB, format, a...) }

// Malformedf returns a malformed record error
func Malformedf(format string, a ...any) error { return Newf(ErrorCodeMalformedRecord, format, a...) }

// Unresolvedf returns an unresolved code error
func Unresolvedf(format string, a ...any) error { return Newf(ErrorCodeUnresolvedCode, format, a...) }

// Configf returns a configuration error
func Configf(format string, a ...any) error { return Newf(ErrorCodeConfig, format, a...) }

// Unavailablef returns an unavailable error
func Unavailablef(format string, a ...any) error { return Newf(ErrorCodeUnavailable, format, a...) }

// Internalf returns a generic internal error
func Internalf(format string, a ...any) error { return Newf(ErrorCodeUnknown, format, a...) }
