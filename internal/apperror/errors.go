// Package apperror holds the failure taxonomy shared by the assistant services
// and the HTTP error handler.
package apperror

import (
	"errors"
	"fmt"
	"time"
)

type Kind string

const (
	KindQuotaExceeded     Kind = "quota_exceeded"
	KindForbidden         Kind = "forbidden"
	KindNotFound          Kind = "not_found"
	KindInvalidTransition Kind = "invalid_transition"
	KindToolNotFound      Kind = "tool_not_found"
	KindInvalidArguments  Kind = "invalid_arguments"
	KindExecutionFailure  Kind = "execution_failure"
	KindProviderFailure   Kind = "provider_failure"
	KindValidation        Kind = "validation"
)

type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so the sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrForbidden         = &Error{Kind: KindForbidden}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrInvalidTransition = &Error{Kind: KindInvalidTransition}
	ErrToolNotFound      = &Error{Kind: KindToolNotFound}
	ErrInvalidArguments  = &Error{Kind: KindInvalidArguments}
	ErrExecutionFailure  = &Error{Kind: KindExecutionFailure}
	ErrProviderFailure   = &Error{Kind: KindProviderFailure}
	ErrValidation        = &Error{Kind: KindValidation}
	ErrQuotaExceeded     = &Error{Kind: KindQuotaExceeded}
)

func Forbidden(format string, args ...any) *Error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func InvalidTransition(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidTransition, Message: fmt.Sprintf(format, args...)}
}

func ToolNotFound(name string) *Error {
	return &Error{Kind: KindToolNotFound, Message: fmt.Sprintf("tool %q is not registered", name)}
}

func InvalidArguments(err error, fields map[string]string) *Error {
	return &Error{Kind: KindInvalidArguments, Message: "invalid tool arguments", Err: err, Fields: fields}
}

func ExecutionFailure(format string, args ...any) *Error {
	return &Error{Kind: KindExecutionFailure, Message: fmt.Sprintf(format, args...)}
}

func ProviderFailure(err error) *Error {
	return &Error{Kind: KindProviderFailure, Message: "language model call failed", Err: err}
}

func Validation(message string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

// QuotaExceededError carries the usage numbers shown to the user on a 429.
type QuotaExceededError struct {
	Limit      int
	Used       int
	ResetAfter *time.Time
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("monthly message limit reached (%d/%d)", e.Used, e.Limit)
}

func (e *QuotaExceededError) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == KindQuotaExceeded
}

// KindOf reports the taxonomy kind of err, or "" for unclassified errors.
func KindOf(err error) Kind {
	var quota *QuotaExceededError
	if errors.As(err, &quota) {
		return KindQuotaExceeded
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}
