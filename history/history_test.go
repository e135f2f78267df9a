package history_test

import (
	"testing"

	"github.com/delaneyj/trackstate/history"
	"github.com/delaneyj/trackstate/tracked"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDepthHasAFloor(t *testing.T) {
	assert.Equal(t, history.MinDepth, history.New(0).Depth())
	assert.Equal(t, 5, history.New(5).Depth())
}

func TestRingKeepsNewest(t *testing.T) {
	log := history.New(3)
	for i := 1; i <= 5; i++ {
		assert.Equal(t, uint64(i), log.AddSnapshot(i*10))
	}
	require.Equal(t, 3, log.Len())

	oldest, ok := log.SnapshotByIndex(0)
	require.True(t, ok)
	assert.Equal(t, uint64(3), oldest.Tx)
	assert.Equal(t, 30, oldest.Value)

	newest, ok := log.SnapshotByIndex(-1)
	require.True(t, ok)
	assert.Equal(t, uint64(5), newest.Tx)

	_, ok = log.SnapshotByIndex(3)
	assert.False(t, ok)
	_, ok = log.SnapshotByIndex(-4)
	assert.False(t, ok)

	_, err := log.DiffBetween(1, 5)
	assert.ErrorIs(t, err, history.ErrNotRetained)
}

func TestSnapshotsAreDeepCopies(t *testing.T) {
	rec := tracked.NewRecord(map[string]any{"n": 1})
	log := history.New(2)
	log.AddSnapshot(rec)

	tr := tracked.NewTracker(1, nil)
	root := tr.Wrap(rec).(*tracked.RecordView)
	tr.Open()
	require.NoError(t, root.Set("n", 2))
	tr.Close()

	e, _ := log.SnapshotByIndex(0)
	assert.Equal(t, map[string]any{"n": 1}, tracked.ToPlain(e.Value))
}

func TestLastDiff(t *testing.T) {
	log := history.New(4)
	assert.Empty(t, log.LastDiff())

	log.AddSnapshot(tracked.NewRecord(map[string]any{
		"name": "ada",
		"tags": []any{"a"},
		"gone": true,
		"seen": tracked.NewSet("x"),
	}))
	log.AddSnapshot(tracked.NewRecord(map[string]any{
		"name": "grace",
		"tags": []any{"a", "b"},
		"new":  1,
		"seen": tracked.NewSet("y"),
	}))

	assert.Equal(t, []history.Change{
		{Path: "gone", Op: history.Removed, From: true},
		{Path: "name", Op: history.Replaced, From: "ada", To: "grace"},
		{Path: "new", Op: history.Added, To: 1},
		{Path: "seen.x", Op: history.Removed, From: "x"},
		{Path: "seen.y", Op: history.Added, To: "y"},
		{Path: "tags.1", Op: history.Added, To: "b"},
	}, log.LastDiff())
}

func TestDiffBetween(t *testing.T) {
	log := history.New(4)
	a := log.AddSnapshot(tracked.NewDict(1, "one"))
	log.AddSnapshot(tracked.NewDict(1, "uno"))
	c := log.AddSnapshot(tracked.NewDict(1, "one", 2, "two"))

	changes, err := log.DiffBetween(a, c)
	require.NoError(t, err)
	assert.Equal(t, []history.Change{
		{Path: "2", Op: history.Added, To: "two"},
	}, changes)

	changes, err = log.DiffBetween(c, a)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, "- 2 = two", changes[0].String())
}

func TestKindChangeIsAReplace(t *testing.T) {
	changes := history.Diff(tracked.NewList(1), "flat")
	assert.Equal(t, []history.Change{
		{Path: "", Op: history.Replaced, From: []any{1}, To: "flat"},
	}, changes)
}
