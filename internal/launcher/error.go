package launcher

import "fmt"

// Code classifies where in the launch sequence a failure happened.
type Code string

const (
	// ErrConfig means the launch configuration was invalid.
	ErrConfig Code = "config"
	// ErrActivation means the virtual environment could not be activated.
	ErrActivation Code = "activation"
	// ErrPreflight means certificate or key validation failed before launch.
	ErrPreflight Code = "preflight"
	// ErrSpawn means the server process could not be started at all.
	ErrSpawn Code = "spawn"
	// ErrInternal covers unexpected launcher failures.
	ErrInternal Code = "internal"
)

// Error represents a failure in the launch sequence. Failures that happen
// after the server process has started are not Errors; they surface as the
// server's own exit status.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new launch Error with a formatted message.
func NewError(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewErrorWithErr creates a new launch Error wrapping an underlying error.
func NewErrorWithErr(code Code, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
