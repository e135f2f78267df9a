package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWavesSettleOnce(t *testing.T) {
	g, err := buildLayers(testContext(t), graphConfig{width: 3, layers: 3, nSources: 2})
	require.NoError(t, err)
	assert.Equal(t, 9, g.nodes())

	stats, err := g.run(6)
	require.NoError(t, err)
	assert.Equal(t, 6, stats.waves)
	assert.Equal(t, 1, stats.maxPerNode)
	assert.Positive(t, stats.computations)

	// sources end at [3 5 7]; layer one is [8 12 10], layer two [20 22 18]
	assert.Equal(t, 60, stats.sum)
}

func TestBenchChains(t *testing.T) {
	assert.Equal(t, []int{1}, powersOfTen(0))
	assert.Equal(t, []int{1, 10, 100}, powersOfTen(500))

	sc := testContext(t)
	calc, err := propagate(sc, 2, 3, 5)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, calc.Time.Max, calc.Time.Min)
}
