package store

import "github.com/delaneyj/trackstate/compare"

type config struct {
	comparator   compare.Strategy
	batch        bool
	historyDepth int
	afterUpdate  []func(any)
	name         string
}

// Option configures a Store or a Computed node.
type Option func(*config)

// WithComparator picks how old and new values are compared. The default is
// compare.ByRef.
func WithComparator(s compare.Strategy) Option {
	return func(c *config) {
		c.comparator = s
	}
}

// WithBatch defers notification to the scheduler context's next turn and
// coalesces every change made before it into one pass.
func WithBatch() Option {
	return func(c *config) {
		c.batch = true
	}
}

// WithHistory keeps the last depth values in a history.Log. Depths below 2
// are raised to 2. Computed nodes ignore it.
func WithHistory(depth int) Option {
	return func(c *config) {
		c.historyDepth = max(depth, 2)
	}
}

// WithAfterUpdate runs fn after every successful change, before
// subscribers hear about it.
func WithAfterUpdate[T any](fn func(T)) Option {
	return func(c *config) {
		c.afterUpdate = append(c.afterUpdate, func(v any) {
			tv, _ := v.(T)
			fn(tv)
		})
	}
}

// WithName labels the store in logs and fault reports.
func WithName(name string) Option {
	return func(c *config) {
		c.name = name
	}
}

type writeConfig struct {
	skipComparison     bool
	suppressGeneration bool
}

type WriteOption func(*writeConfig)

// SkipComparison treats the write as a change even when the comparator says
// otherwise.
func SkipComparison() WriteOption {
	return func(c *writeConfig) {
		c.skipComparison = true
	}
}

// SuppressGeneration notifies without starting a new update generation.
func SuppressGeneration() WriteOption {
	return func(c *writeConfig) {
		c.suppressGeneration = true
	}
}

func newWriteConfig(opts []WriteOption) writeConfig {
	wc := writeConfig{}
	for _, opt := range opts {
		opt(&wc)
	}
	return wc
}
