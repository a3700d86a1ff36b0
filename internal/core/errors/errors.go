// Package errors classifies Kite failures by code. Callers branch on the
// code with IsCode; the optional path names the .kite or config file involved.
package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

type ErrorCode string

const (
	CodeNotFound        ErrorCode = "NOT_FOUND"
	CodeValidationError ErrorCode = "VALIDATION_ERROR"
	CodeInternal        ErrorCode = "INTERNAL_ERROR"
	CodeIO              ErrorCode = "IO_ERROR"
)

type DomainError struct {
	Code    ErrorCode
	Message string
	Path    string
	Err     error
}

func (e *DomainError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Code, e.Message)
	if e.Path != "" {
		fmt.Fprintf(&b, " %s", e.Path)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func New(code ErrorCode, msg string) error {
	return &DomainError{Code: code, Message: msg}
}

func Wrap(err error, code ErrorCode, msg string) error {
	return &DomainError{Code: code, Message: msg, Err: err}
}

// WithPath records the file err concerns. Uncoded errors become INTERNAL_ERROR.
func WithPath(err error, path string) error {
	var de *DomainError
	if errors.As(err, &de) {
		de.Path = path
		return err
	}
	return &DomainError{Code: CodeInternal, Message: "unexpected error", Path: path, Err: err}
}

// ReadFailure codes a failed file read: NOT_FOUND for a missing file,
// IO_ERROR for anything else.
func ReadFailure(err error, msg, path string) error {
	code := CodeIO
	if errors.Is(err, fs.ErrNotExist) {
		code = CodeNotFound
	}
	return &DomainError{Code: code, Message: msg, Path: path, Err: err}
}

func IsCode(err error, code ErrorCode) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}
