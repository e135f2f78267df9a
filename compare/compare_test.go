package compare_test

import (
	"testing"

	"github.com/delaneyj/trackstate/compare"
	"github.com/stretchr/testify/assert"
)

type point struct {
	X, Y int
	Tags []string
}

func TestRef(t *testing.T) {
	assert.True(t, compare.Ref(1, 1))
	assert.False(t, compare.Ref(1, 2))
	assert.False(t, compare.Ref(1, int64(1)))
	assert.True(t, compare.Ref(nil, nil))
	assert.False(t, compare.Ref(nil, 0))
	assert.False(t, compare.Ref(0, nil))
	assert.True(t, compare.Ref("a", "a"))

	s := []int{1, 2}
	assert.True(t, compare.Ref(s, s))
	assert.False(t, compare.Ref(s, []int{1, 2}))

	m := map[string]int{"a": 1}
	assert.True(t, compare.Ref(m, m))
	assert.False(t, compare.Ref(m, map[string]int{"a": 1}))

	p := &point{X: 1}
	assert.True(t, compare.Ref(p, p))
	assert.False(t, compare.Ref(p, &point{X: 1}))

	// uncomparable struct values must not panic
	tags := []string{"x"}
	assert.True(t, compare.Ref(point{X: 1, Tags: tags}, point{X: 1, Tags: tags}))
	assert.False(t, compare.Ref(point{X: 1, Tags: tags}, point{X: 1, Tags: []string{"x"}}))
}

func TestShallow(t *testing.T) {
	inner := []int{1}
	a := map[string]any{"a": 1, "b": inner}
	b := map[string]any{"a": 1, "b": inner}
	c := map[string]any{"a": 1, "b": []int{1}}

	assert.True(t, compare.Shallow(a, b))
	assert.False(t, compare.Shallow(a, c))
	assert.False(t, compare.Shallow(a, map[string]any{"a": 1}))

	assert.True(t, compare.Shallow(&point{X: 1, Y: 2}, &point{X: 1, Y: 2}))
	assert.False(t, compare.Shallow(&point{X: 1, Y: 2}, &point{X: 1, Y: 3}))
	assert.True(t, compare.Shallow([]any{1, "x"}, []any{1, "x"}))
	assert.True(t, compare.Shallow(3, 3))
	assert.False(t, compare.Shallow(nil, 3))
}

func TestCompile(t *testing.T) {
	calls := 0
	custom := compare.ByFunc(func(a, b any) bool {
		calls++
		return a.(int)/10 == b.(int)/10
	})

	eq := compare.Compile(custom)
	assert.True(t, eq(11, 19))
	assert.False(t, eq(11, 21))
	assert.Equal(t, 2, calls)

	assert.Equal(t, "custom", custom.String())
	assert.Equal(t, "ref", compare.ByFunc(nil).String())
	assert.Equal(t, "shallow", compare.ByShallow.String())

	refEq := compare.Compile(compare.ByRef)
	assert.False(t, refEq([]int{1}, []int{1}))
	shallowEq := compare.Compile(compare.ByShallow)
	assert.True(t, shallowEq([]int{1}, []int{1}))
}
