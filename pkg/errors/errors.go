package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode categorizes errors
type ErrorCode string

const (
	ErrCodeMissingPair       ErrorCode = "MISSING_PAIR"
	ErrCodeInvalidFormat     ErrorCode = "INVALID_FORMAT"
	ErrCodeParameterMismatch ErrorCode = "PARAMETER_MISMATCH"
	ErrCodeRead              ErrorCode = "READ_ERROR"
	ErrCodeWrite             ErrorCode = "WRITE_ERROR"
	ErrCodeDelete            ErrorCode = "DELETE_ERROR"
	ErrCodeInvalidArgument   ErrorCode = "INVALID_ARGUMENT"
	ErrCodeCanceled          ErrorCode = "CANCELED"
)

// Sentinels for errors.Is. They match any error carrying the same code.
var (
	ErrMissingPair       = &MergeError{Code: ErrCodeMissingPair}
	ErrInvalidFormat     = &MergeError{Code: ErrCodeInvalidFormat}
	ErrParameterMismatch = &MergeError{Code: ErrCodeParameterMismatch}
	ErrRead              = &MergeError{Code: ErrCodeRead}
	ErrWrite             = &MergeError{Code: ErrCodeWrite}
	ErrDelete            = &MergeError{Code: ErrCodeDelete}
	ErrInvalidArgument   = &MergeError{Code: ErrCodeInvalidArgument}
	ErrCanceled          = &MergeError{Code: ErrCodeCanceled}
)

// MergeError is the base structured error
type MergeError struct {
	Code    ErrorCode
	Message string
	Path    string
	Cause   error
}

func (e *MergeError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Code, e.Message)
	if e.Path != "" {
		fmt.Fprintf(&b, " (path=%s)", e.Path)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *MergeError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a bare sentinel with the same code.
func (e *MergeError) Is(target error) bool {
	t, ok := target.(*MergeError)
	if !ok {
		return false
	}
	return t.Message == "" && t.Path == "" && t.Cause == nil && t.Code == e.Code
}

// ErrCode returns the error category.
func (e *MergeError) ErrCode() ErrorCode {
	return e.Code
}

func NewMissingPairError(path, message string) *MergeError {
	return &MergeError{Code: ErrCodeMissingPair, Message: message, Path: path}
}

func NewInvalidFormatError(path, message string) *MergeError {
	return &MergeError{Code: ErrCodeInvalidFormat, Message: message, Path: path}
}

func NewReadError(path string, cause error) *MergeError {
	return &MergeError{Code: ErrCodeRead, Message: "read failed", Path: path, Cause: cause}
}

func NewWriteError(path string, cause error) *MergeError {
	return &MergeError{Code: ErrCodeWrite, Message: "write failed", Path: path, Cause: cause}
}

func NewDeleteError(path string, cause error) *MergeError {
	return &MergeError{Code: ErrCodeDelete, Message: "delete failed", Path: path, Cause: cause}
}

func NewInvalidArgumentError(message string) *MergeError {
	return &MergeError{Code: ErrCodeInvalidArgument, Message: message}
}

func NewCanceledError(cause error) *MergeError {
	return &MergeError{Code: ErrCodeCanceled, Message: "not dispatched", Cause: cause}
}

// FieldMismatch describes one container parameter that differs between sides.
type FieldMismatch struct {
	Field string
	Left  uint64
	Right uint64
}

func (f FieldMismatch) String() string {
	return fmt.Sprintf("%s: left=%d right=%d", f.Field, f.Left, f.Right)
}

// MismatchError is returned when left and right parameters are incompatible
type MismatchError struct {
	MergeError
	Fields []FieldMismatch
}

func NewMismatchError(fields []FieldMismatch) *MismatchError {
	return &MismatchError{
		MergeError: MergeError{
			Code:    ErrCodeParameterMismatch,
			Message: "left and right parameters differ",
		},
		Fields: fields,
	}
}

func (e *MismatchError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.String()
	}
	return fmt.Sprintf("[%s] %s {%s}", e.Code, e.Message, strings.Join(parts, ", "))
}

// Has reports whether field is among the mismatches.
func (e *MismatchError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

type coded interface {
	ErrCode() ErrorCode
}

// CodeOf returns the code of the first coded error in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var c coded
	if errors.As(err, &c) {
		return c.ErrCode()
	}
	return ""
}

// Is enables errors.Is checks
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As enables errors.As checks
func As[T error](err error) (T, bool) {
	var target T
	ok := errors.As(err, &target)
	return target, ok
}
