// Package sched holds the per-graph scheduling state shared by stores and
// computed nodes: the update generation counter, the deferred computed
// flush queue, and a cooperative task queue standing in for the host's
// event loop.
//
// A Context is not safe for concurrent use. Every store and computed node of
// one reactive graph must share the same Context and be driven from a single
// goroutine.
package sched

import (
	"log/slog"

	mapset "github.com/deckarep/golang-set/v2"
)

// Flusher is something that can be queued for a deferred recompute. Queue
// membership is by identity, so implementations should be pointers.
type Flusher interface {
	Flush()
}

// OnErrorFunc receives faults that are contained instead of returned.
type OnErrorFunc func(from string, err error)

type Context struct {
	generation uint64
	ids        uint64

	pending    []Flusher
	pendingSet mapset.Set[Flusher]
	draining   bool
	passes     uint64

	tasks   []func()
	turning bool

	logger  *slog.Logger
	onError OnErrorFunc
}

type Option func(*Context)

// WithLogger replaces the default slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Context) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithErrorHandler registers a hook called for every reported fault, after
// it has been logged.
func WithErrorHandler(fn OnErrorFunc) Option {
	return func(c *Context) {
		c.onError = fn
	}
}

func New(opts ...Option) *Context {
	c := &Context{
		pendingSet: mapset.NewThreadUnsafeSet[Flusher](),
		logger:     slog.Default().With("component", "trackstate"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Context) Logger() *slog.Logger {
	return c.logger
}

// NextID hands out identities for stores and nodes. Never returns 0.
func (c *Context) NextID() uint64 {
	c.ids++
	return c.ids
}

// Generation is the number of root updates seen so far.
func (c *Context) Generation() uint64 {
	return c.generation
}

// Bump starts a new update wave and returns its generation.
func (c *Context) Bump() uint64 {
	c.generation++
	return c.generation
}

// Schedule queues f for the next drain pass. Queueing something that is
// already pending is a no-op.
func (c *Context) Schedule(f Flusher) {
	if !c.pendingSet.Add(f) {
		return
	}
	c.pending = append(c.pending, f)
}

// Pending is the number of flushers waiting for a drain.
func (c *Context) Pending() int {
	return len(c.pending)
}

func (c *Context) Draining() bool {
	return c.draining
}

// Passes counts drain passes since the context was created.
func (c *Context) Passes() uint64 {
	return c.passes
}

// Drain flushes everything pending. Each pass works on a snapshot of the
// queue; flushers scheduled while the pass runs land in the next pass. Nested
// calls return immediately and leave the work to the outer loop.
func (c *Context) Drain() {
	if c.draining {
		return
	}
	c.draining = true
	defer func() {
		c.draining = false
	}()

	for len(c.pending) > 0 {
		batch := c.pending
		c.pending = nil
		c.pendingSet.Clear()
		c.passes++
		for _, f := range batch {
			f.Flush()
		}
	}
}

// Defer queues task for the next turn.
func (c *Context) Defer(task func()) {
	c.tasks = append(c.tasks, task)
}

// Tasks is the number of deferred tasks waiting for a turn.
func (c *Context) Tasks() int {
	return len(c.tasks)
}

// Turn runs deferred tasks until none are left. Tasks deferred by a running
// task are picked up in the same turn.
func (c *Context) Turn() {
	if c.turning {
		return
	}
	c.turning = true
	defer func() {
		c.turning = false
	}()

	for len(c.tasks) > 0 {
		tasks := c.tasks
		c.tasks = nil
		for _, task := range tasks {
			task()
		}
	}
}

// Run executes fn and then takes a turn, the way an event loop finishes the
// current synchronous job before running queued work.
func (c *Context) Run(fn func()) {
	fn()
	c.Turn()
}

// Report logs a contained fault and forwards it to the error handler.
func (c *Context) Report(from string, err error) {
	if err == nil {
		return
	}
	c.logger.Error("contained fault", "from", from, "error", err)
	if c.onError != nil {
		c.onError(from, err)
	}
}
