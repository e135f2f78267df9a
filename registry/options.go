package registry

import (
	"runtime"
	"sync/atomic"
)

type options struct {
	predicate func(any) bool
	paths     []string
	protected bool
	attach    func(dead *atomic.Bool) runtime.Cleanup
}

type Option func(*options)

// WithPredicate only notifies when fn holds for the current value. It is
// ignored when watched paths are declared.
func WithPredicate[T any](fn func(T) bool) Option {
	return func(o *options) {
		o.predicate = func(v any) bool {
			tv, _ := v.(T)
			return fn(tv)
		}
	}
}

// WithPaths only notifies when a changed path equals one of paths, lies
// under one of them, or contains one of them.
func WithPaths(paths ...string) Option {
	return func(o *options) {
		o.paths = append(o.paths, paths...)
	}
}

// Protected subscriptions survive RemoveUnprotected.
func Protected() Option {
	return func(o *options) {
		o.protected = true
	}
}

// WithOwner ties the subscription to owner: once owner is garbage collected
// the subscription is dropped at the next pass. Collection timing is up to
// the runtime, so this never replaces calling the unsubscribe function.
func WithOwner[O any](owner *O) Option {
	return func(o *options) {
		o.attach = func(dead *atomic.Bool) runtime.Cleanup {
			return runtime.AddCleanup(owner, func(d *atomic.Bool) {
				d.Store(true)
			}, dead)
		}
	}
}
