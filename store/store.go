// Package store holds reactive state: a Store owns a value and notifies
// subscribers when writes change it, and a Computed derives a value from
// other stores and computed nodes, recomputing at most once per update wave.
package store

import (
	"fmt"
	"log/slog"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/delaneyj/trackstate/compare"
	"github.com/delaneyj/trackstate/history"
	"github.com/delaneyj/trackstate/registry"
	"github.com/delaneyj/trackstate/sched"
	"github.com/delaneyj/trackstate/tracked"
)

// Store owns a value of type T. Scalars are replaced wholesale with Set;
// tracked containers (*tracked.Record, *tracked.List, *tracked.Dict,
// *tracked.Set) can also be mutated in place through Update.
type Store[T any] struct {
	sc     *sched.Context
	id     uint64
	name   string
	logger *slog.Logger

	value   T
	eq      compare.Func
	tracker *tracked.Tracker
	opaque  bool
	writing bool

	subs        *registry.Registry[T]
	afterUpdate []func(any)
	// onSubsChange runs whenever the set of subscribers may have changed.
	onSubsChange func()
	history     *history.Log

	batch        bool
	batchPending bool
	batchPaths   []string
	batchSeen    mapset.Set[string]
}

// New creates a store holding initial. Plain Go maps and slices must be
// converted with tracked.From first. A container that already belongs to
// another store, or sits inside one, is copied rather than shared.
func New[T any](sc *sched.Context, initial T, opts ...Option) (*Store[T], error) {
	if err := checkValue(any(initial)); err != nil {
		return nil, fmt.Errorf("new store: %w", err)
	}
	return newStore(sc, initial, false, opts...), nil
}

// MustNew is New that panics on error.
func MustNew[T any](sc *sched.Context, initial T, opts ...Option) *Store[T] {
	s, err := New(sc, initial, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

func newStore[T any](sc *sched.Context, initial T, opaque bool, opts ...Option) *Store[T] {
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}

	id := sc.NextID()
	name := cfg.name
	if name == "" {
		name = fmt.Sprintf("store-%d", id)
	}
	eq := compare.Compile(cfg.comparator)
	if !opaque {
		initial = claim(initial)
	}
	s := &Store[T]{
		sc:          sc,
		id:          id,
		name:        name,
		logger:      sc.Logger().With("store", name),
		value:       initial,
		eq:          eq,
		tracker:     tracked.NewTracker(id, eq),
		opaque:      opaque,
		subs:        registry.New[T](),
		afterUpdate: cfg.afterUpdate,
		batch:       cfg.batch,
		batchSeen:   mapset.NewThreadUnsafeSet[string](),
	}
	if cfg.historyDepth > 0 && !opaque {
		s.history = history.New(cfg.historyDepth)
		s.history.AddSnapshot(any(initial))
	}
	return s
}

// claim gives v's containers to the store; see tracked.Adopt.
func claim[T any](v T) T {
	out, ok := tracked.Adopt(any(v)).(T)
	if !ok {
		return v
	}
	return out
}

func checkValue(v any) error {
	if _, ok := v.(tracked.Node); ok && tracked.KindOf(v) == tracked.KindUnsupported {
		return fmt.Errorf("%w: nil %T", ErrInvalidUsage, v)
	}
	switch tracked.KindOf(v) {
	case tracked.KindScalar, tracked.KindRecord, tracked.KindList, tracked.KindDict, tracked.KindSet:
		return nil
	}
	if view, ok := v.(tracked.View); ok {
		return fmt.Errorf("%w: a %s view is tracked state, store its Raw node or a clone", ErrInvalidUsage, view.Kind())
	}
	return fmt.Errorf("%w: %T is not a scalar or tracked container, convert it with tracked.From", ErrInvalidUsage, v)
}

func (s *Store[T]) ID() uint64   { return s.id }
func (s *Store[T]) Name() string { return s.name }

// Get returns the current value. Containers come back raw, which only
// allows reads; use View or Update to work with tracked access.
func (s *Store[T]) Get() T {
	return s.value
}

// View returns the tracked view of the current value, or nil when the value
// is not a container.
func (s *Store[T]) View() tracked.View {
	if n, ok := any(s.value).(tracked.Node); ok {
		return s.tracker.Wrap(n)
	}
	return nil
}

// History returns the snapshot log configured with WithHistory, or nil.
func (s *Store[T]) History() *history.Log {
	return s.history
}

func (s *Store[T]) Subscribers() int {
	return s.subs.Len()
}

// Set replaces the value. It reports whether subscribers were (or, for a
// batched store, will be) notified.
func (s *Store[T]) Set(v T, opts ...WriteOption) (bool, error) {
	if s.writing {
		return false, fmt.Errorf("set %s: %w: a write session is already open", s.name, ErrInvalidUsage)
	}
	if !s.opaque {
		if err := checkValue(any(v)); err != nil {
			return false, fmt.Errorf("set %s: %w", s.name, err)
		}
	}
	wc := newWriteConfig(opts)

	s.open()
	if wc.skipComparison || !s.eq(any(s.value), any(v)) {
		if _, ok := any(v).(tracked.Node); ok && !s.opaque && any(v) != any(s.value) {
			v = claim(v)
		}
		s.value = v
		s.tracker.MarkChanged("")
	}
	s.close()

	if !s.tracker.Changed() {
		return false, nil
	}
	s.commit(wc)
	return true, nil
}

// Update runs fn with a tracked view of the value inside a write session.
// Changes fn made before returning an error are kept and still notified; the
// error is returned wrapped.
func (s *Store[T]) Update(fn func(tracked.View) error, opts ...WriteOption) (bool, error) {
	if s.writing {
		return false, fmt.Errorf("update %s: %w: a write session is already open", s.name, ErrInvalidUsage)
	}
	n, ok := any(s.value).(tracked.Node)
	if !ok {
		return false, fmt.Errorf("update %s: %w: %s value has no in-place mutation, use Set", s.name, ErrInvalidUsage, tracked.KindOf(any(s.value)))
	}
	wc := newWriteConfig(opts)

	err := s.mutate(n, fn)
	if wc.skipComparison {
		s.tracker.MarkChanged("")
	}
	changed := s.tracker.Changed()
	if changed {
		s.commit(wc)
	} else {
		s.tracker.Reset()
	}
	if err != nil {
		return changed, fmt.Errorf("update %s: %w", s.name, err)
	}
	return changed, nil
}

func (s *Store[T]) mutate(n tracked.Node, fn func(tracked.View) error) error {
	s.open()
	defer s.close()
	return fn(s.tracker.Wrap(n))
}

// UpdateAs is Update for callers that know which container the store holds.
func UpdateAs[V tracked.View, T any](s *Store[T], fn func(V) error, opts ...WriteOption) (bool, error) {
	return s.Update(func(v tracked.View) error {
		tv, ok := v.(V)
		if !ok {
			var want V
			return fmt.Errorf("%w: store holds a %s, not %T", ErrInvalidUsage, v.Kind(), want)
		}
		return fn(tv)
	}, opts...)
}

func (s *Store[T]) open() {
	s.writing = true
	s.tracker.Reset()
	s.tracker.Open()
}

func (s *Store[T]) close() {
	s.tracker.Close()
	s.writing = false
}

func (s *Store[T]) commit(wc writeConfig) {
	paths := s.tracker.Paths()
	s.tracker.Reset()

	for _, fn := range s.afterUpdate {
		fn(any(s.value))
	}
	if s.history != nil {
		s.history.AddSnapshot(any(s.value))
	}
	if !wc.suppressGeneration {
		s.sc.Bump()
	}

	if s.batch {
		s.deferNotify(paths)
		return
	}
	s.notify(paths)
}

func (s *Store[T]) deferNotify(paths []string) {
	for _, p := range paths {
		if s.batchSeen.Add(p) {
			s.batchPaths = append(s.batchPaths, p)
		}
	}
	if s.batchPending {
		return
	}
	s.batchPending = true
	s.sc.Defer(func() {
		paths := s.batchPaths
		s.batchPaths = nil
		s.batchSeen.Clear()
		s.batchPending = false
		s.notify(paths)
	})
}

func (s *Store[T]) notify(paths []string) {
	s.logger.Debug("notify", "subscribers", s.subs.Len(), "paths", paths, "generation", s.sc.Generation())
	faults := s.subs.Notify(s.value, paths)
	for _, f := range faults {
		s.sc.Report(s.name, fmt.Errorf("%w: %w", ErrSubscriberFault, f))
	}
	if len(faults) > 0 {
		s.subsChanged()
	}
	s.sc.Drain()
}

// Subscribe registers cb and returns the function that removes it. Calling
// the returned function more than once is harmless.
func (s *Store[T]) Subscribe(cb func(T) error, opts ...registry.Option) (unsubscribe func()) {
	token := s.subs.Add(cb, opts...)
	s.subsChanged()
	var once sync.Once
	return func() {
		once.Do(func() {
			s.subs.Remove(token)
			s.subsChanged()
		})
	}
}

// UnsubscribeAll removes every subscriber not registered with
// registry.Protected and returns how many were removed.
func (s *Store[T]) UnsubscribeAll() int {
	n := s.subs.RemoveUnprotected()
	s.subsChanged()
	return n
}

func (s *Store[T]) subsChanged() {
	s.tracker.SetRecordPaths(s.subs.PathFiltered() > 0)
	if s.onSubsChange != nil {
		s.onSubsChange()
	}
}

// Unwrap returns a deep copy of the value that shares nothing with the
// store.
func (s *Store[T]) Unwrap() T {
	out, _ := tracked.Clone(any(s.value)).(T)
	return out
}

func (s *Store[T]) observe(fn func()) func() {
	token := s.subs.Add(func(T) error {
		fn()
		return nil
	}, registry.Protected())
	return func() {
		s.subs.Remove(token)
	}
}

// watch is a no-op: a store notifies on every change whether or not anything
// downstream is observed.
func (s *Store[T]) watch(bool) {}

// Read is Get in the shape of Readable; it never fails.
func (s *Store[T]) Read() (T, error) {
	return s.value, nil
}
