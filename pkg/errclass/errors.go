package errclass

import "fmt"

// Error is a stable, machine-readable error class.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t != nil && e.Code == t.Code
}

// WithMessage returns a new Error with the same Code but a specific message.
func (e *Error) WithMessage(msg string) *Error {
	return &Error{Code: e.Code, Message: msg}
}

// WithMessagef returns a new Error with a formatted message.
func (e *Error) WithMessagef(format string, args ...any) *Error {
	return &Error{Code: e.Code, Message: fmt.Sprintf(format, args...)}
}

// Stable error classes.
var (
	ErrNotInitialized  = &Error{Code: "E_NOT_INITIALIZED"}
	ErrLockConflict    = &Error{Code: "E_LOCK_CONFLICT"}
	ErrLockNotFound    = &Error{Code: "E_LOCK_NOT_FOUND"}
	ErrMissingIdentity = &Error{Code: "E_MISSING_IDENTITY"}
	ErrMalformed       = &Error{Code: "E_MALFORMED"}
	ErrNameInvalid     = &Error{Code: "E_NAME_INVALID"}
	ErrPathEscape      = &Error{Code: "E_PATH_ESCAPE"}
	ErrConfigInvalid   = &Error{Code: "E_CONFIG_INVALID"}
)

// Code extracts the stable code from err, or "" if err carries none.
func Code(err error) string {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Code
		}
		if c, ok := err.(interface{ ErrorCode() string }); ok {
			return c.ErrorCode()
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}
