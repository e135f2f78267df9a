package tracked

import (
	"errors"
	"fmt"
)

var (
	// ErrAccessDenied is matched by every *AccessError.
	ErrAccessDenied = errors.New("access denied")
	// ErrUnsupported is returned for values outside the scalar and container
	// kinds a tracked value may hold.
	ErrUnsupported = errors.New("unsupported value")
	ErrOutOfRange  = errors.New("index out of range")

	errCycle   = errors.New("value would contain itself")
	errKey     = errors.New("key is not a comparable scalar")
	errSegment = errors.New("key must render as a non-empty path segment without dots")
	errClash   = errors.New("key renders the same path segment as an existing key")
)

type Reason uint8

const (
	// ReasonUseUpdate: a mutating container operation outside a write session.
	ReasonUseUpdate Reason = iota
	// ReasonDirectWrite: a plain field or element write outside a write session.
	ReasonDirectWrite
	// ReasonForbidden: an operation that is never allowed, in or out of a session.
	ReasonForbidden
)

// AccessError reports a rejected read-write boundary crossing.
type AccessError struct {
	Op     string
	Path   string
	Reason Reason
	Err    error
}

func (e *AccessError) Error() string {
	switch e.Reason {
	case ReasonUseUpdate:
		return fmt.Sprintf("access denied: use the update method to call %s on %s", e.Op, pathLabel(e.Path))
	case ReasonDirectWrite:
		return fmt.Sprintf("access denied: cannot mutate %s directly", pathLabel(e.Path))
	default:
		if e.Err != nil {
			return fmt.Sprintf("access denied: %s on %s not permitted: %v", e.Op, pathLabel(e.Path), e.Err)
		}
		return fmt.Sprintf("access denied: %s on %s not permitted", e.Op, pathLabel(e.Path))
	}
}

func (e *AccessError) Is(target error) bool {
	return target == ErrAccessDenied
}

func (e *AccessError) Unwrap() error {
	return e.Err
}

func forbidden(op, path string, err error) *AccessError {
	return &AccessError{Op: op, Path: path, Reason: ReasonForbidden, Err: err}
}

func pathLabel(path string) string {
	if path == "" {
		return "(root)"
	}
	return fmt.Sprintf("%q", path)
}
