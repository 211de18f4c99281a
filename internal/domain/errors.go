package domain

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"mvi-users/pkg/nonempty"
)

// Category sentinels for infrastructure failures below the user taxonomy.
var (
	ErrNotFound     = fmt.Errorf("not found")
	ErrTimeout      = fmt.Errorf("operation timed out")
	ErrUnavailable  = fmt.Errorf("service unavailable")
	ErrInvalidInput = fmt.Errorf("invalid input")
	ErrConfigLoad   = fmt.Errorf("failed to load configuration")
)

// UserError kinds. Every *UserError carries exactly one of these as its Kind.
var (
	ErrNetwork          = fmt.Errorf("network error")
	ErrUserNotFound     = fmt.Errorf("user not found")
	ErrInvalidID        = fmt.Errorf("invalid user id")
	ErrValidationFailed = fmt.Errorf("user validation failed")
	ErrServer           = fmt.Errorf("server error")
	ErrUnexpected       = fmt.Errorf("unexpected error")
)

// DomainError wraps a sentinel error with context.
type DomainError struct {
	Op     string // operation name (e.g., "Repository.Remove")
	Err    error  // underlying sentinel or wrapped error
	Detail string // human-readable detail
}

func (e *DomainError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *DomainError) Unwrap() error { return e.Err }

// NewDomainError creates a new DomainError.
func NewDomainError(op string, err error, detail string) *DomainError {
	return &DomainError{Op: op, Err: err, Detail: detail}
}

// WrapOp adds operation context to an error using fmt.Errorf wrapping.
// Returns nil if err is nil, enabling idiomatic use: return domain.WrapOp("op", err)
func WrapOp(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}

// UserError is the closed failure taxonomy surfaced by user operations.
// errors.Is matches both the Kind sentinel and anything in the Cause chain.
type UserError struct {
	Kind   error
	ID     string                        // set for ErrUserNotFound and ErrInvalidID
	Errors nonempty.Set[ValidationError] // set for ErrValidationFailed
	Cause  error
}

func (e *UserError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	switch {
	case e.ID != "":
		fmt.Fprintf(&b, " (id=%s)", e.ID)
	case !e.Errors.IsZero():
		fmt.Fprintf(&b, " %s", e.Errors)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *UserError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

func NewNetworkError(cause error) *UserError {
	return &UserError{Kind: ErrNetwork, Cause: cause}
}

func NewUserNotFoundError(id string) *UserError {
	return &UserError{Kind: ErrUserNotFound, ID: id}
}

func NewInvalidIDError(id string) *UserError {
	return &UserError{Kind: ErrInvalidID, ID: id}
}

func NewValidationFailedError(errs nonempty.Set[ValidationError]) *UserError {
	return &UserError{Kind: ErrValidationFailed, Errors: errs}
}

func NewServerError(cause error) *UserError {
	return &UserError{Kind: ErrServer, Cause: cause}
}

func NewUnexpectedError(cause error) *UserError {
	return &UserError{Kind: ErrUnexpected, Cause: cause}
}

// ClassifyError maps any error onto the user taxonomy. A *UserError anywhere
// in the chain is returned as is; context cancellation is not classified and
// yields nil, as does a nil error.
func ClassifyError(err error) *UserError {
	if err == nil || errors.Is(err, context.Canceled) {
		return nil
	}
	var ue *UserError
	if errors.As(err, &ue) {
		return ue
	}

	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, ErrTimeout),
		errors.Is(err, ErrUnavailable),
		errors.As(err, &netErr):
		return NewNetworkError(err)
	case errors.Is(err, ErrNotFound):
		var de *DomainError
		if errors.As(err, &de) {
			return &UserError{Kind: ErrUserNotFound, ID: de.Detail, Cause: err}
		}
		return &UserError{Kind: ErrUserNotFound, Cause: err}
	case errors.Is(err, ErrInvalidInput):
		return NewServerError(err)
	case isTransientMessage(err.Error()):
		return NewNetworkError(err)
	}
	return NewUnexpectedError(err)
}

// transientPatterns are substrings of errors that carry no sentinel but
// describe a transient transport or storage failure.
var transientPatterns = []string{
	"connection refused", "connection reset", "no such host",
	"timeout", "deadline exceeded", "database is locked",
}

func isTransientMessage(msg string) bool {
	lower := strings.ToLower(msg)
	for _, p := range transientPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// IsRetryableError reports whether err is a transient failure worth retrying.
// Only network-class failures qualify; domain rejections never do.
func IsRetryableError(err error) bool {
	ue := ClassifyError(err)
	return ue != nil && ue.Kind == ErrNetwork
}

// ErrorCode is a machine-parseable error category for logs and events.
type ErrorCode string

const (
	CodeUnknown          ErrorCode = "UNKNOWN"
	CodeNetwork          ErrorCode = "NETWORK"
	CodeUserNotFound     ErrorCode = "USER_NOT_FOUND"
	CodeInvalidID        ErrorCode = "INVALID_ID"
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	CodeServer           ErrorCode = "SERVER"
	CodeUnexpected       ErrorCode = "UNEXPECTED"
)

var errorCodeMap = map[error]ErrorCode{
	ErrNetwork:          CodeNetwork,
	ErrUserNotFound:     CodeUserNotFound,
	ErrInvalidID:        CodeInvalidID,
	ErrValidationFailed: CodeValidationFailed,
	ErrServer:           CodeServer,
	ErrUnexpected:       CodeUnexpected,
}

// ErrorCodeOf returns the code of err's user error kind, or CodeUnknown.
func ErrorCodeOf(err error) ErrorCode {
	ue := ClassifyError(err)
	if ue == nil {
		return CodeUnknown
	}
	if code, ok := errorCodeMap[ue.Kind]; ok {
		return code
	}
	return CodeUnknown
}
