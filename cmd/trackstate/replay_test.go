package main

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/delaneyj/trackstate/sched"
	"github.com/delaneyj/trackstate/tracked"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext(t *testing.T) *sched.Context {
	t.Helper()
	return sched.New(sched.WithErrorHandler(func(from string, err error) {
		t.Errorf("%s: %v", from, err)
	}))
}

func TestReplayProfile(t *testing.T) {
	f, err := os.Open("testdata/profile.yaml")
	require.NoError(t, err)
	defer f.Close()

	sn, err := loadScenario(f)
	require.NoError(t, err)
	require.Len(t, sn.Steps, 6)

	out := &bytes.Buffer{}
	s, err := sn.play(testContext(t), out)
	require.NoError(t, err)

	lines := strings.Split(out.String(), "\n")
	assert.Equal(t, []string{
		"step 1 set user.name",
		"  ~ user.name: ada -> grace",
		"step 2 append tags",
		"  + tags.1 = engines",
		"step 3 set user.name",
		"  (no change)",
		"step 4 set scores.2",
		"  ~ scores.2: high -> top",
		"step 5 delete user",
		"  - user.name = grace",
		"step 6 delete tags",
		"  ~ tags.0: math -> engines",
		"  - tags.1 = engines",
		"transactions 1..6",
	}, lines[:14])

	assert.Equal(t, map[string]any{
		"user":   map[string]any{},
		"tags":   []any{"engines"},
		"scores": map[any]any{1: "low", 2: "top"},
	}, tracked.ToPlain(s.Get()))
	assert.Len(t, summary(s.History()), 6)
}

func TestReplayRootSet(t *testing.T) {
	sn, err := loadScenario(strings.NewReader(`
name: root
initial: 1
steps:
  - path: ""
    value: 2
  - path: ""
    value: {a: 1}
`))
	require.NoError(t, err)

	out := &bytes.Buffer{}
	s, err := sn.play(testContext(t), out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "  ~ (root): 1 -> 2\n")
	assert.Contains(t, out.String(), "  ~ (root): 2 -> map[a:1]\n")
	assert.Equal(t, map[string]any{"a": 1}, tracked.ToPlain(s.Get()))
}

func TestReplayBadSteps(t *testing.T) {
	_, err := loadScenario(strings.NewReader(`
initial: {}
steps:
  - {path: a, value: 1, append: 2}
`))
	assert.ErrorIs(t, err, errBadStep)

	_, err = loadScenario(strings.NewReader(`
initial: {}
steps:
  - {path: a}
`))
	assert.ErrorIs(t, err, errBadStep)

	sn, err := loadScenario(strings.NewReader(`
initial: {user: {name: ada}}
steps:
  - {path: user, append: x}
`))
	require.NoError(t, err)
	_, err = sn.play(testContext(t), &bytes.Buffer{})
	assert.ErrorIs(t, err, errBadStep)
	assert.ErrorContains(t, err, "step 1")

	sn, err = loadScenario(strings.NewReader(`
initial: {user: {name: ada}}
steps:
  - {path: user.missing.name, value: x}
`))
	require.NoError(t, err)
	_, err = sn.play(testContext(t), &bytes.Buffer{})
	assert.ErrorIs(t, err, errBadStep)
}

func TestReplayExplicitNull(t *testing.T) {
	sn, err := loadScenario(strings.NewReader(`
initial: {user: {name: ada}}
steps:
  - {path: user.name, value: null}
`))
	require.NoError(t, err)
	require.NotNil(t, sn.Steps[0].Value)

	out := &bytes.Buffer{}
	s, err := sn.play(testContext(t), out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "  ~ user.name: ada -> <nil>\n")
	assert.Equal(t, map[string]any{
		"user": map[string]any{"name": nil},
	}, tracked.ToPlain(s.Get()))

	_, err = loadScenario(strings.NewReader(`
initial: {}
steps:
  - {path: a, vaule: 1}
`))
	assert.ErrorIs(t, err, errBadStep)
}

func TestSplitPath(t *testing.T) {
	parent, key := splitPath("a.b.c")
	assert.Equal(t, "a.b", parent)
	assert.Equal(t, "c", key)

	parent, key = splitPath("a")
	assert.Equal(t, "", parent)
	assert.Equal(t, "a", key)
}
