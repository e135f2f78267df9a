package registry

import (
	"strings"

	"github.com/cespare/xxhash/v2"
	mapset "github.com/deckarep/golang-set/v2"
)

// watch holds the hashed paths one subscription declared, plus the hashes of
// all their ancestors.
type watch struct {
	all       bool
	paths     []uint64
	ancestors mapset.Set[uint64]
}

func newWatch(paths []string) *watch {
	w := &watch{ancestors: mapset.NewThreadUnsafeSet[uint64]()}
	for _, p := range paths {
		if p == "" {
			w.all = true
			continue
		}
		w.paths = append(w.paths, xxhash.Sum64String(p))
		forEachAncestor(p, func(a string) {
			w.ancestors.Add(xxhash.Sum64String(a))
		})
	}
	return w
}

// changeSet is the hashed form of one pass's changed paths.
type changeSet struct {
	root  bool
	exact mapset.Set[uint64]
	// chains holds every changed path and all of its ancestors
	chains mapset.Set[uint64]
}

func newChangeSet(changed []string) *changeSet {
	cs := &changeSet{
		exact:  mapset.NewThreadUnsafeSet[uint64](),
		chains: mapset.NewThreadUnsafeSet[uint64](),
	}
	for _, c := range changed {
		if c == "" {
			cs.root = true
			continue
		}
		h := xxhash.Sum64String(c)
		cs.exact.Add(h)
		cs.chains.Add(h)
		forEachAncestor(c, func(a string) {
			cs.chains.Add(xxhash.Sum64String(a))
		})
	}
	return cs
}

func (w *watch) matches(cs *changeSet) bool {
	if cs == nil {
		return false
	}
	if w.all || cs.root {
		return true
	}
	// a watched path equal to or above a changed path
	for _, p := range w.paths {
		if cs.chains.Contains(p) {
			return true
		}
	}
	// a changed path above a watched path
	for _, h := range cs.exact.ToSlice() {
		if w.ancestors.Contains(h) {
			return true
		}
	}
	return false
}

// Matches reports whether a change at changed is relevant to a watcher of
// watched. The root path "" matches everything.
func Matches(watched, changed string) bool {
	if watched == "" || changed == "" || watched == changed {
		return true
	}
	return isAncestor(watched, changed) || isAncestor(changed, watched)
}

func isAncestor(a, b string) bool {
	return strings.HasPrefix(b, a) && b[len(a)] == '.'
}

func forEachAncestor(path string, fn func(string)) {
	for i := len(path) - 1; i > 0; i-- {
		if path[i] == '.' {
			fn(path[:i])
		}
	}
}
