// Package registry keeps the subscribers of one store: their callbacks,
// notify predicates, watched paths and protection, and runs notification
// passes over them with fault containment.
package registry

import (
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
)

// Token identifies a subscription. Tokens are never reused within a registry.
type Token uint64

type Callback[T any] func(value T) error

// ErrPanicked wraps the value recovered from a panicking callback.
var ErrPanicked = errors.New("subscriber panicked")

// Fault is a callback failure contained by Notify. The subscriber that
// produced it has already been removed.
type Fault struct {
	Token Token
	Err   error
}

func (f Fault) Error() string {
	return fmt.Sprintf("subscriber %d: %v", f.Token, f.Err)
}

func (f Fault) Unwrap() error {
	return f.Err
}

type entry[T any] struct {
	token     Token
	cb        Callback[T]
	predicate func(any) bool
	watch     *watch
	protected bool

	active  bool
	dead    *atomic.Bool
	cleanup *runtime.Cleanup
}

func (e *entry[T]) gone() bool {
	return e.dead != nil && e.dead.Load()
}

type Registry[T any] struct {
	next         Token
	entries      []*entry[T]
	pathFiltered int
}

func New[T any]() *Registry[T] {
	return &Registry[T]{}
}

// Add registers cb and returns its token.
func (r *Registry[T]) Add(cb Callback[T], opts ...Option) Token {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	r.next++
	e := &entry[T]{
		token:     r.next,
		cb:        cb,
		predicate: o.predicate,
		protected: o.protected,
		active:    true,
	}
	if len(o.paths) > 0 {
		e.watch = newWatch(o.paths)
		r.pathFiltered++
	}
	if o.attach != nil {
		e.dead = &atomic.Bool{}
		c := o.attach(e.dead)
		e.cleanup = &c
	}
	r.entries = append(r.entries, e)
	return e.token
}

// Remove drops the subscription. It reports false for unknown or already
// removed tokens.
func (r *Registry[T]) Remove(token Token) bool {
	for i, e := range r.entries {
		if e.token == token {
			r.drop(i)
			return true
		}
	}
	return false
}

// Has reports whether token is still registered.
func (r *Registry[T]) Has(token Token) bool {
	for _, e := range r.entries {
		if e.token == token {
			return !e.gone()
		}
	}
	return false
}

// RemoveUnprotected drops every subscription not registered with Protected
// and returns how many went.
func (r *Registry[T]) RemoveUnprotected() int {
	removed := 0
	for i := len(r.entries) - 1; i >= 0; i-- {
		if !r.entries[i].protected {
			r.drop(i)
			removed++
		}
	}
	return removed
}

func (r *Registry[T]) drop(i int) {
	e := r.entries[i]
	e.active = false
	if e.watch != nil {
		r.pathFiltered--
	}
	if e.cleanup != nil {
		e.cleanup.Stop()
	}
	r.entries = append(r.entries[:i], r.entries[i+1:]...)
}

// prune drops subscriptions whose owner has been collected.
func (r *Registry[T]) prune() {
	for i := len(r.entries) - 1; i >= 0; i-- {
		if r.entries[i].gone() {
			r.drop(i)
		}
	}
}

func (r *Registry[T]) Len() int {
	r.prune()
	return len(r.entries)
}

// PathFiltered is the number of subscriptions that declared watched paths.
func (r *Registry[T]) PathFiltered() int {
	r.prune()
	return r.pathFiltered
}

// Notify runs one pass over the subscriptions registered when it starts, in
// registration order. A subscription removed during the pass is skipped if
// its turn has not come yet. Callbacks that return an error or panic are
// removed and reported as faults.
func (r *Registry[T]) Notify(value T, changed []string) []Fault {
	r.prune()
	if len(r.entries) == 0 {
		return nil
	}

	var cs *changeSet
	if r.pathFiltered > 0 {
		cs = newChangeSet(changed)
	}

	snapshot := make([]*entry[T], len(r.entries))
	copy(snapshot, r.entries)

	var faults []Fault
	for _, e := range snapshot {
		if !e.active || e.gone() {
			continue
		}
		switch {
		case e.watch != nil:
			if !e.watch.matches(cs) {
				continue
			}
		case e.predicate != nil:
			if !e.predicate(value) {
				continue
			}
		}
		if err := invoke(e.cb, value); err != nil {
			e.active = false
			faults = append(faults, Fault{Token: e.token, Err: err})
		}
	}

	for _, f := range faults {
		r.Remove(f.Token)
	}
	return faults
}

func invoke[T any](cb Callback[T], value T) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrPanicked, p)
		}
	}()
	return cb(value)
}
