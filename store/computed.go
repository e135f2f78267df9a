package store

import (
	"fmt"
	"slices"

	"github.com/delaneyj/trackstate/compare"
	"github.com/delaneyj/trackstate/registry"
	"github.com/delaneyj/trackstate/sched"
)

// Source is anything a Computed can depend on: a *Store or another
// *Computed.
type Source interface {
	observe(fn func()) (cancel func())
	watch(on bool)
}

// Readable is a Source whose value can be read with type T.
type Readable[T any] interface {
	Source
	Read() (T, error)
}

var (
	_ Readable[int] = (*Store[int])(nil)
	_ Readable[int] = (*Computed[int])(nil)
	_ sched.Flusher = (*Computed[int])(nil)
)

// Computed derives a value from its dependencies. It starts dirty, computes
// on the first Get, and afterwards recomputes only when a dependency changed:
// lazily on Get while unobserved, eagerly through the scheduler context's
// drain while observed. A node is observed when it has a subscriber of its
// own or an observed node depends on it.
type Computed[T any] struct {
	sc    *sched.Context
	name  string
	fn    func() (T, error)
	eq    compare.Func
	inner *Store[T]
	deps  []Source
	links []func()

	dependents []*dependent
	watchers   int
	observed   bool

	dirty        bool
	dirtyAt      uint64
	computing    bool
	cached       bool
	computations int
	disposed     bool
}

// dependent is the link a downstream node holds on this one.
type dependent struct {
	fn     func()
	active bool
}

// NewComputed creates a node over deps. fn reads whatever it needs; deps
// decide when the cached value goes stale.
func NewComputed[T any](sc *sched.Context, deps []Source, fn func() (T, error), opts ...Option) (*Computed[T], error) {
	if len(deps) == 0 {
		return nil, fmt.Errorf("new computed: %w: at least one dependency is required", ErrInvalidUsage)
	}
	if fn == nil {
		return nil, fmt.Errorf("new computed: %w: nil derivation", ErrInvalidUsage)
	}

	var zero T
	inner := newStore(sc, zero, true, opts...)
	c := &Computed[T]{
		sc:    sc,
		name:  inner.name,
		fn:    fn,
		eq:    inner.eq,
		inner: inner,
		deps:  deps,
		dirty: true,
	}
	inner.onSubsChange = c.syncObserved
	for _, dep := range deps {
		c.links = append(c.links, dep.observe(c.markDirty))
	}
	return c, nil
}

func (c *Computed[T]) ID() uint64   { return c.inner.id }
func (c *Computed[T]) Name() string { return c.name }

// Dirty reports whether the cached value is known to be stale.
func (c *Computed[T]) Dirty() bool { return c.dirty }

// Computations counts calls to the derivation.
func (c *Computed[T]) Computations() int { return c.computations }

func (c *Computed[T]) Subscribers() int { return c.inner.Subscribers() }

// Get returns the value, computing it first if it is stale. Reading a node
// from inside its own derivation fails with ErrCyclicDependency.
func (c *Computed[T]) Get() (T, error) {
	if c.computing {
		var zero T
		return zero, fmt.Errorf("get %s: %w", c.name, ErrCyclicDependency)
	}
	if c.dirty {
		if err := c.refresh(); err != nil {
			return c.inner.value, err
		}
	}
	return c.inner.value, nil
}

func (c *Computed[T]) Read() (T, error) {
	return c.Get()
}

func (c *Computed[T]) refresh() error {
	v, err := c.compute()
	if err != nil {
		return fmt.Errorf("compute %s: %w", c.name, err)
	}
	c.dirty = false
	if c.cached && c.eq(any(c.inner.value), any(v)) {
		return nil
	}
	c.cached = true
	if _, err := c.inner.Set(v, SkipComparison(), SuppressGeneration()); err != nil {
		return fmt.Errorf("publish %s: %w", c.name, err)
	}
	c.invalidateDependents()
	c.sc.Drain()
	return nil
}

func (c *Computed[T]) invalidateDependents() {
	for _, d := range slices.Clone(c.dependents) {
		if d.active {
			d.fn()
		}
	}
}

func (c *Computed[T]) compute() (T, error) {
	c.computing = true
	defer func() {
		c.computing = false
	}()
	c.computations++
	return c.fn()
}

// markDirty is the callback every dependency link runs on change. An
// unobserved node does no work; it only passes the staleness on so that a
// later Get anywhere downstream pulls fresh values.
func (c *Computed[T]) markDirty() {
	if c.computing || c.disposed {
		return
	}
	gen := c.sc.Generation()
	if c.dirty && c.dirtyAt == gen {
		return
	}
	c.dirty = true
	c.dirtyAt = gen
	c.syncObserved()
	if !c.observed {
		c.invalidateDependents()
		return
	}
	c.sc.Schedule(c)
}

// syncObserved recomputes whether the node is observed and passes any change
// on to its dependencies.
func (c *Computed[T]) syncObserved() {
	now := !c.disposed && (c.inner.subs.Len() > 0 || c.watchers > 0)
	if now == c.observed {
		return
	}
	c.observed = now
	for _, dep := range c.deps {
		dep.watch(now)
	}
}

func (c *Computed[T]) watch(on bool) {
	if on {
		c.watchers++
	} else {
		c.watchers--
	}
	c.syncObserved()
}

// Flush recomputes a stale node. The scheduler context calls it while
// draining.
func (c *Computed[T]) Flush() {
	if !c.dirty || c.disposed || !c.observed {
		return
	}
	if c.computing {
		// the drain is nested inside our own derivation; scheduling again
		// within it would spin, so retry on the next turn
		c.sc.Defer(func() {
			c.sc.Schedule(c)
			c.sc.Drain()
		})
		return
	}
	if err := c.refresh(); err != nil {
		c.sc.Report(c.name, err)
	}
}

// Subscribe registers cb for value changes. Subscribing makes the node and
// everything upstream of it observed, and brings a stale node up to date
// right away.
func (c *Computed[T]) Subscribe(cb func(T) error, opts ...registry.Option) (unsubscribe func()) {
	unsub := c.inner.Subscribe(cb, opts...)
	if c.dirty && c.observed {
		c.sc.Schedule(c)
		c.sc.Drain()
	}
	return unsub
}

// UnsubscribeAll removes the unprotected subscribers. Downstream computed
// nodes stay linked, and keep this node observed while they are.
func (c *Computed[T]) UnsubscribeAll() int {
	return c.inner.UnsubscribeAll()
}

// Unwrap returns a deep copy of the current value, computing it if stale.
func (c *Computed[T]) Unwrap() (T, error) {
	if _, err := c.Get(); err != nil {
		var zero T
		return zero, err
	}
	return c.inner.Unwrap(), nil
}

// Dispose unlinks the node from its dependencies. A disposed node keeps its
// last value and is never marked stale again.
func (c *Computed[T]) Dispose() {
	c.disposed = true
	c.syncObserved()
	for _, cancel := range c.links {
		cancel()
	}
	c.links = nil
}

// Observed reports whether the node recomputes eagerly.
func (c *Computed[T]) Observed() bool { return c.observed }

func (c *Computed[T]) observe(fn func()) func() {
	d := &dependent{fn: fn, active: true}
	c.dependents = append(c.dependents, d)
	return func() {
		if !d.active {
			return
		}
		d.active = false
		c.dependents = slices.DeleteFunc(c.dependents, func(x *dependent) bool { return x == d })
	}
}
