package loop

import (
	"errors"
	"fmt"
)

// ErrConfig is the root of every configuration error. Configuration errors
// are raised while composing groups, registering systems or validating
// settings, always before a frame has executed.
var ErrConfig = errors.New("loop: configuration error")

// ErrState is the root of every state error, raised when a loop or adapter
// is driven out of order.
var ErrState = errors.New("loop: state error")

var (
	ErrDuplicateGroup  = configError("duplicate group name")
	ErrDuplicateOrder  = configError("duplicate group order")
	ErrInvalidGroup    = configError("invalid group")
	ErrUnknownGroup    = configError("group is not defined")
	ErrInvalidSystem   = configError("invalid system")
	ErrInvalidSettings = configError("invalid settings")
	ErrAlreadyBuilt    = configError("registry already built")
	ErrFrozen          = configError("groups already initialized")

	ErrNotInitialized     = stateError("loop must be initialized before use")
	ErrAlreadyInitialized = stateError("loop is already initialized")
)

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return "loop: " + e.msg }

func (e *kindError) Is(target error) bool { return target == e.kind }

func configError(msg string) error { return &kindError{kind: ErrConfig, msg: msg} }

func stateError(msg string) error { return &kindError{kind: ErrState, msg: msg} }

func wrapf(err error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", err, fmt.Sprintf(format, args...))
}
