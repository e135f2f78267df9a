package store

import (
	"errors"

	"github.com/delaneyj/trackstate/tracked"
)

var (
	// ErrAccessDenied is raised by views when a write crosses the session
	// gate. Matching errors are *tracked.AccessError.
	ErrAccessDenied = tracked.ErrAccessDenied
	// ErrInvalidUsage marks calls the store cannot honour, such as Update on
	// a scalar store or a computed node without dependencies.
	ErrInvalidUsage     = errors.New("invalid usage")
	ErrCyclicDependency = errors.New("cyclic dependency")
	// ErrSubscriberFault wraps contained callback failures. These are
	// reported through the scheduler context, never returned.
	ErrSubscriberFault = errors.New("subscriber fault")
)
