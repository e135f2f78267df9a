package tracked_test

import (
	"errors"
	"testing"

	"github.com/delaneyj/trackstate/compare"
	"github.com/delaneyj/trackstate/tracked"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func person() *tracked.Record {
	return tracked.NewRecord(map[string]any{
		"name": "ada",
		"address": map[string]any{
			"city": "london",
		},
		"tags": []any{"math", "engines"},
	})
}

func TestViewsAreCachedPerNode(t *testing.T) {
	rec := person()
	tr := tracked.NewTracker(1, compare.Ref)
	root := tr.Wrap(rec).(*tracked.RecordView)

	assert.Equal(t, "ada", root.Get("name"))
	assert.Nil(t, root.Get("missing"))

	a1, a2 := root.Get("address"), root.Get("address")
	assert.Same(t, a1, a2)
	assert.Same(t, root, tr.Wrap(rec))
	assert.Equal(t, "address", a1.(tracked.View).Path())

	other := tracked.NewTracker(2, compare.Ref)
	assert.NotSame(t, root, other.Wrap(rec))
}

func TestWritesOutsideSession(t *testing.T) {
	tr := tracked.NewTracker(1, compare.Ref)
	root := tr.Wrap(person()).(*tracked.RecordView)
	addr, _ := root.Record("address")
	tags, _ := root.List("tags")

	err := addr.Set("city", "paris")
	require.ErrorIs(t, err, tracked.ErrAccessDenied)
	assert.EqualError(t, err, `access denied: cannot mutate "address.city" directly`)
	var ae *tracked.AccessError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, tracked.ReasonDirectWrite, ae.Reason)

	err = tags.Append("poetry")
	require.ErrorIs(t, err, tracked.ErrAccessDenied)
	assert.EqualError(t, err, `access denied: use the update method to call insert on "tags"`)

	_, err = root.Delete("name")
	assert.EqualError(t, err, `access denied: use the update method to call delete on (root)`)

	assert.Equal(t, "london", addr.Get("city"))
	assert.Equal(t, 2, tags.Len())
	assert.False(t, tr.Changed())
}

func TestSessionRecordsPaths(t *testing.T) {
	tr := tracked.NewTracker(1, compare.Ref)
	tr.SetRecordPaths(true)
	root := tr.Wrap(person()).(*tracked.RecordView)
	addr, _ := root.Record("address")
	tags, _ := root.List("tags")

	tr.Open()
	require.NoError(t, addr.Set("city", "paris"))
	require.NoError(t, tags.Append("poetry"))
	require.NoError(t, addr.Set("city", "paris"))
	require.NoError(t, tags.Append("music"))
	tr.Close()

	assert.True(t, tr.Changed())
	assert.Equal(t, []string{"address.city", "tags"}, tr.Paths())
	assert.Equal(t, "paris", addr.Get("city"))
	assert.Equal(t, []any{"math", "engines", "poetry", "music"}, tracked.ToPlain(tags))

	tr.Reset()
	assert.False(t, tr.Changed())
	assert.Empty(t, tr.Paths())
}

func TestEqualWriteIsNotAChange(t *testing.T) {
	tr := tracked.NewTracker(1, compare.Ref)
	root := tr.Wrap(person()).(*tracked.RecordView)

	tr.Open()
	require.NoError(t, root.Set("name", "ada"))
	tr.Close()
	assert.False(t, tr.Changed())
}

func TestShallowComparatorOnNestedWrite(t *testing.T) {
	tr := tracked.NewTracker(1, compare.Compile(compare.ByShallow))
	root := tr.Wrap(person()).(*tracked.RecordView)

	tr.Open()
	require.NoError(t, root.Set("address", map[string]any{"city": "london"}))
	assert.False(t, tr.Changed())
	require.NoError(t, root.Set("address", map[string]any{"city": "rome"}))
	tr.Close()
	assert.True(t, tr.Changed())
}

func TestForbiddenWrites(t *testing.T) {
	rec := person()
	tr := tracked.NewTracker(1, compare.Ref)
	root := tr.Wrap(rec).(*tracked.RecordView)
	addr, _ := root.Record("address")

	tr.Open()
	defer tr.Close()

	err := addr.Set("owner", rec)
	require.ErrorIs(t, err, tracked.ErrAccessDenied)
	var ae *tracked.AccessError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, tracked.ReasonForbidden, ae.Reason)

	err = root.Set("home", addr)
	require.ErrorIs(t, err, tracked.ErrAccessDenied)
	assert.ErrorIs(t, err, tracked.ErrUnsupported)

	err = root.Set("callback", func() {})
	assert.ErrorIs(t, err, tracked.ErrUnsupported)

	assert.False(t, tr.Changed())
}

func TestListDerivationsYieldViews(t *testing.T) {
	tr := tracked.NewTracker(1, compare.Ref)
	tr.SetRecordPaths(true)
	list := tracked.NewList(
		map[string]any{"id": 1},
		map[string]any{"id": 2},
		map[string]any{"id": 3},
	)
	lv := tr.Wrap(list).(*tracked.ListView)

	found, i, ok := lv.Find(func(v any) bool {
		return v.(*tracked.RecordView).Get("id") == 2
	})
	require.True(t, ok)
	assert.Equal(t, 1, i)
	rv := found.(*tracked.RecordView)
	assert.Equal(t, "1", rv.Path())

	odd := lv.Filter(func(v any) bool {
		return v.(*tracked.RecordView).Get("id").(int)%2 == 1
	})
	require.Len(t, odd, 2)
	assert.Equal(t, "2", odd[1].(tracked.View).Path())

	last := lv.Slice(-1, 3)
	require.Len(t, last, 1)
	assert.Equal(t, "2", last[0].(tracked.View).Path())

	ids := lv.Map(func(v any) any { return v.(*tracked.RecordView).Get("id") })
	assert.Equal(t, []any{1, 2, 3}, ids)
	assert.Equal(t, 1, lv.IndexOf(rv))

	tr.Open()
	require.NoError(t, rv.Set("id", 20))
	tr.Close()
	assert.Equal(t, []string{"1.id"}, tr.Paths())
}

func TestListOperations(t *testing.T) {
	tr := tracked.NewTracker(1, compare.Ref)
	lv := tr.Wrap(tracked.NewList(1, 2, 3, 4)).(*tracked.ListView)

	tr.Open()
	defer tr.Close()

	removed, err := lv.Splice(1, 2, "x")
	require.NoError(t, err)
	assert.Equal(t, []any{2, 3}, removed)
	assert.Equal(t, []any{1, "x", 4}, lv.Values())

	require.NoError(t, lv.Prepend(0))
	v, ok, err := lv.Pop()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 4, v)
	v, ok, err = lv.Shift()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0, v)
	assert.Equal(t, []any{1, "x"}, lv.Values())

	err = lv.SetAt(5, 1)
	assert.ErrorIs(t, err, tracked.ErrOutOfRange)
	_, err = lv.RemoveAt(-1)
	assert.ErrorIs(t, err, tracked.ErrOutOfRange)

	require.NoError(t, lv.Clear())
	_, ok, err = lv.Pop()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSortOnlyChangesWhenOrderMoves(t *testing.T) {
	tr := tracked.NewTracker(1, compare.Ref)
	lv := tr.Wrap(tracked.NewList(3, 1, 2)).(*tracked.ListView)
	less := func(a, b any) bool { return a.(int) < b.(int) }

	tr.Open()
	require.NoError(t, lv.Sort(less))
	tr.Close()
	assert.True(t, tr.Changed())
	assert.Equal(t, []any{1, 2, 3}, lv.Values())

	tr.Reset()
	tr.Open()
	require.NoError(t, lv.Sort(less))
	require.NoError(t, tr.Wrap(tracked.NewList(7, 7)).(*tracked.ListView).Reverse())
	tr.Close()
	assert.False(t, tr.Changed())
}

func TestDictView(t *testing.T) {
	tr := tracked.NewTracker(1, compare.Ref)
	tr.SetRecordPaths(true)
	dv := tr.Wrap(tracked.NewDict(1, "one")).(*tracked.DictView)

	err := dv.Put(2, "two")
	assert.EqualError(t, err, `access denied: use the update method to call put on (root)`)

	tr.Open()
	require.NoError(t, dv.Put(2, map[string]any{"label": "two"}))
	require.NoError(t, dv.Put(1, "one"))
	err = dv.Put([]int{1}, "bad")
	require.ErrorIs(t, err, tracked.ErrAccessDenied)
	deleted, err := dv.Delete(1)
	require.NoError(t, err)
	assert.True(t, deleted)
	tr.Close()

	assert.Equal(t, []string{"2", "1"}, tr.Paths())
	nested, ok := dv.Get(2).(*tracked.RecordView)
	require.True(t, ok)
	assert.Equal(t, "2", nested.Path())
	assert.Equal(t, []any{2}, dv.Keys())
}

func TestSetView(t *testing.T) {
	tr := tracked.NewTracker(1, compare.Ref)
	sv := tr.Wrap(tracked.NewSet("a")).(*tracked.SetView)

	tr.Open()
	added, err := sv.Add("a")
	require.NoError(t, err)
	assert.False(t, added)
	assert.False(t, tr.Changed())

	added, err = sv.Add("c", "b")
	require.NoError(t, err)
	assert.True(t, added)
	_, err = sv.Add(nil)
	assert.ErrorIs(t, err, tracked.ErrAccessDenied)
	tr.Close()

	assert.True(t, tr.Changed())
	assert.Equal(t, []any{"a", "b", "c"}, sv.Members())
}

func TestFromAndToPlain(t *testing.T) {
	v, err := tracked.From(map[string]any{
		"nums":  []int{1, 2},
		"names": map[int]string{1: "x"},
	})
	require.NoError(t, err)
	rec, ok := v.(*tracked.Record)
	require.True(t, ok)
	nums, _ := rec.Get("nums")
	assert.Equal(t, tracked.KindList, tracked.KindOf(nums))

	assert.Equal(t, map[string]any{
		"nums":  []any{1, 2},
		"names": map[any]any{1: "x"},
	}, tracked.ToPlain(rec))

	_, err = tracked.From(make(chan int))
	assert.ErrorIs(t, err, tracked.ErrUnsupported)
}

func TestCloneIsIndependent(t *testing.T) {
	rec := person()
	clone := tracked.Clone(rec).(*tracked.Record)
	assert.Equal(t, tracked.ToPlain(rec), tracked.ToPlain(clone))

	tr := tracked.NewTracker(1, compare.Ref)
	root := tr.Wrap(clone).(*tracked.RecordView)
	addr, _ := root.Record("address")
	tr.Open()
	require.NoError(t, addr.Set("city", "oslo"))
	tr.Close()

	orig, _ := rec.Get("address")
	city, _ := orig.(*tracked.Record).Get("city")
	assert.Equal(t, "london", city)
}

func TestAdoptCopiesPlacedNodes(t *testing.T) {
	shared := tracked.NewRecord(map[string]any{"x": 1})
	rec := tracked.NewRecord(map[string]any{"a": shared, "b": shared})

	adopted := tracked.Adopt(rec)
	assert.Same(t, rec, adopted)
	a, _ := rec.Get("a")
	b, _ := rec.Get("b")
	assert.Same(t, shared, a)
	assert.NotSame(t, a, b)
	assert.Equal(t, tracked.ToPlain(a), tracked.ToPlain(b))

	again := tracked.Adopt(rec)
	assert.NotSame(t, rec, again)
	assert.Equal(t, tracked.ToPlain(rec), tracked.ToPlain(again))
	assert.Equal(t, 3, tracked.Adopt(3))
}

func TestNilContainersAreUnsupported(t *testing.T) {
	assert.Equal(t, tracked.KindUnsupported, tracked.KindOf((*tracked.Record)(nil)))
	assert.Equal(t, tracked.KindUnsupported, tracked.KindOf((*tracked.Set)(nil)))
	_, err := tracked.From((*tracked.List)(nil))
	assert.ErrorIs(t, err, tracked.ErrUnsupported)
}

func TestKeysMustBeSinglePathSegments(t *testing.T) {
	tr := tracked.NewTracker(1, compare.Ref)
	tr.SetRecordPaths(true)
	root := tr.Wrap(tracked.NewRecord(map[string]any{
		"a": map[string]any{"b": 1},
		"d": tracked.NewDict(1, "one"),
	})).(*tracked.RecordView)
	dv, ok := root.Get("d").(*tracked.DictView)
	require.True(t, ok)

	tr.Open()
	err := root.Set("a.b", 2)
	require.ErrorIs(t, err, tracked.ErrAccessDenied)
	assert.Contains(t, err.Error(), "without dots")
	err = root.Set("", 2)
	assert.ErrorIs(t, err, tracked.ErrAccessDenied)

	err = dv.Put("1", "string one")
	require.ErrorIs(t, err, tracked.ErrAccessDenied)
	assert.Contains(t, err.Error(), "same path segment")
	err = dv.Put(2.5, "two and a half")
	assert.ErrorIs(t, err, tracked.ErrAccessDenied)
	require.NoError(t, dv.Put(1, "uno"))
	tr.Close()

	assert.Equal(t, []string{"d.1"}, tr.Paths())
	assert.Equal(t, []any{1}, dv.Keys())

	_, err = tracked.From(map[string]any{"a.b": 1})
	assert.ErrorIs(t, err, tracked.ErrUnsupported)
	_, err = tracked.From(map[any]any{1: "x", "1": "y"})
	assert.ErrorIs(t, err, tracked.ErrUnsupported)
	assert.Panics(t, func() { tracked.NewDict(1, "x", "1", "y") })
	assert.Panics(t, func() { tracked.NewRecord(map[string]any{"a.b": 1}) })
}
