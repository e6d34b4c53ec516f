// Package apperror defines the coded error type shared by every context.
// Errors carry a stable machine-readable Code plus free-form context so
// callers can branch on the code and operators can read the message.
package apperror

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// AppError is the application error type. Two AppErrors compare equal
// under errors.Is when their codes match, regardless of context or cause.
type AppError struct {
	Code      Code      `json:"code"`
	Message   string    `json:"message"`
	Context   string    `json:"context,omitempty"`
	Timestamp time.Time `json:"timestamp"`

	cause error
	stack []uintptr
}

// Option customizes an AppError at construction time.
type Option func(*AppError)

// WithMessage replaces the code's default message.
func WithMessage(msg string) Option {
	return func(e *AppError) { e.Message = msg }
}

// WithContext attaches the operation or entity the error relates to.
func WithContext(context string) Option {
	return func(e *AppError) { e.Context = context }
}

// WithCause records the underlying error for errors.Unwrap.
func WithCause(cause error) Option {
	return func(e *AppError) { e.cause = cause }
}

// New builds an AppError for code, defaulting the message from the code's
// catalog entry and capturing the caller's stack.
func New(code Code, opts ...Option) *AppError {
	e := &AppError{
		Code:      code,
		Message:   messages[code],
		Timestamp: time.Now(),
		stack:     callers(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.Message == "" {
		e.Message = string(code)
	}
	return e
}

// NotFound marks a lookup miss for the named entity.
func NotFound(code Code, context string) *AppError {
	return New(code, WithContext(context))
}

// Internal wraps a failure inside our own components.
func Internal(code Code, context string, cause error) *AppError {
	return New(code, WithContext(context), WithCause(cause))
}

// External wraps a failure from an upstream service or exchange.
func External(code Code, context string, cause error) *AppError {
	return New(code, WithContext(context), WithCause(cause))
}

// Wrap converts err into an AppError under code. An err that already is an
// AppError passes through, gaining context only if it had none. A nil err
// stays nil.
func Wrap(err error, code Code, context string) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		if appErr.Context == "" {
			appErr.Context = context
		}
		return appErr
	}
	return Internal(code, context, err)
}

// GetCode extracts the code from any error in err's chain, or
// CodeUnknownError when none carries one.
func GetCode(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknownError
}

func (e *AppError) Error() string {
	if e.Context == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (context: %s)", e.Code, e.Message, e.Context)
}

func (e *AppError) Unwrap() error { return e.cause }

// Is matches on code so sentinel comparisons like
// errors.Is(err, apperror.New(CodeOrderRejected)) work.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// LogFields flattens the error into key/value pairs for structured logs,
// including the captured stack when one exists.
func (e *AppError) LogFields() []any {
	fields := []any{
		"code", string(e.Code),
		"message", e.Message,
		"timestamp", e.Timestamp.Format(time.RFC3339),
	}
	if e.Context != "" {
		fields = append(fields, "context", e.Context)
	}
	if e.cause != nil {
		fields = append(fields, "cause", e.cause.Error())
	}
	if trace := e.stackTrace(); trace != "" {
		fields = append(fields, "stack", trace)
	}
	return fields
}

func (e *AppError) stackTrace() string {
	if len(e.stack) == 0 {
		return ""
	}
	var sb strings.Builder
	frames := runtime.CallersFrames(e.stack)
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			fmt.Fprintf(&sb, "\n\t%s:%d %s", frame.File, frame.Line, frame.Function)
		}
		if !more {
			return sb.String()
		}
	}
}

func callers() []uintptr {
	var pcs [32]uintptr
	n := runtime.Callers(3, pcs[:])
	return pcs[:n]
}
