package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/delaneyj/trackstate/history"
	"github.com/delaneyj/trackstate/sched"
	"github.com/delaneyj/trackstate/store"
	"github.com/delaneyj/trackstate/tracked"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const (
	fileKey  = "file"
	depthKey = "depth"
)

func replayCommand() *cli.Command {
	return &cli.Command{
		Name:  "replay",
		Usage: "Apply a YAML scenario to a store and print the history diffs",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     fileKey,
				Usage:    "Scenario file",
				Required: true,
			},
			&cli.UintFlag{
				Name:  depthKey,
				Usage: "History depth, overrides the scenario's own",
			},
		},
		Action: replay,
	}
}

// scenario is the replay file format:
//
//	name: profile
//	depth: 8
//	initial:
//	  user: {name: ada}
//	  tags: [math]
//	steps:
//	  - {path: user.name, value: grace}
//	  - {path: tags, append: engines}
//	  - {path: user, delete: name}
type scenario struct {
	Name    string `yaml:"name"`
	Depth   int    `yaml:"depth"`
	Initial any    `yaml:"initial"`
	Steps   []step `yaml:"steps"`
}

// step does exactly one of: set the value at path, append to the list at
// path, add a member to the set at path, or delete a key, index or member
// from the container at path. The operands stay as nodes, set only when their
// key is present, so `value: null` sets a null.
type step struct {
	Path   string
	Value  *yaml.Node
	Append *yaml.Node
	Add    *yaml.Node
	Delete *yaml.Node
}

func (st *step) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: %w: a step is a mapping", n.Line, errBadStep)
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		switch key.Value {
		case "path":
			if err := val.Decode(&st.Path); err != nil {
				return err
			}
		case "value":
			st.Value = val
		case "append":
			st.Append = val
		case "add":
			st.Add = val
		case "delete":
			st.Delete = val
		default:
			return fmt.Errorf("line %d: %w: unknown key %q", key.Line, errBadStep, key.Value)
		}
	}
	return nil
}

var errBadStep = errors.New("bad step")

func loadScenario(r io.Reader) (*scenario, error) {
	sn := &scenario{}
	if err := yaml.NewDecoder(r).Decode(sn); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	for i, st := range sn.Steps {
		ops := 0
		for _, n := range []*yaml.Node{st.Value, st.Append, st.Add, st.Delete} {
			if n != nil {
				ops++
			}
		}
		if ops != 1 {
			return nil, fmt.Errorf("step %d: %w: want exactly one of value, append, add or delete", i+1, errBadStep)
		}
	}
	return sn, nil
}

func replay(ctx context.Context, cmd *cli.Command) error {
	f, err := os.Open(cmd.String(fileKey))
	if err != nil {
		return err
	}
	defer f.Close()

	sn, err := loadScenario(f)
	if err != nil {
		return err
	}
	if d := int(cmd.Uint(depthKey)); d > 0 {
		sn.Depth = d
	}
	_, err = sn.play(newContext(cmd), os.Stdout)
	return err
}

// play applies every step through the store's write path and prints what
// each one changed, then the final value as YAML.
func (sn *scenario) play(sc *sched.Context, w io.Writer) (*store.Store[any], error) {
	initial, err := tracked.From(sn.Initial)
	if err != nil {
		return nil, fmt.Errorf("initial value: %w", err)
	}
	depth := sn.Depth
	if depth == 0 {
		depth = len(sn.Steps) + 1
	}
	s, err := store.New(sc, initial, store.WithName(sn.Name), store.WithHistory(depth))
	if err != nil {
		return nil, err
	}

	for i, st := range sn.Steps {
		changed, err := st.apply(s)
		if err != nil {
			return s, fmt.Errorf("step %d: %w", i+1, err)
		}
		fmt.Fprintf(w, "step %d %s\n", i+1, st)
		if !changed {
			fmt.Fprintln(w, "  (no change)")
			continue
		}
		for _, c := range s.History().LastDiff() {
			fmt.Fprintf(w, "  %s\n", c)
		}
	}

	first, _ := s.History().SnapshotByIndex(0)
	last, _ := s.History().SnapshotByIndex(-1)
	fmt.Fprintf(w, "transactions %d..%d\n", first.Tx, last.Tx)
	sc.Logger().Debug("history", "store", s.Name(), "retained", summary(s.History()))

	out, err := yaml.Marshal(tracked.ToPlain(s.Get()))
	if err != nil {
		return s, err
	}
	_, err = w.Write(out)
	return s, err
}

func (st step) String() string {
	path := st.Path
	if path == "" {
		path = "(root)"
	}
	switch {
	case st.Value != nil:
		return fmt.Sprintf("set %s", path)
	case st.Append != nil:
		return fmt.Sprintf("append %s", path)
	case st.Add != nil:
		return fmt.Sprintf("add %s", path)
	default:
		return fmt.Sprintf("delete %s", path)
	}
}

func decode(n *yaml.Node) (any, error) {
	var v any
	if err := n.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func (st step) apply(s *store.Store[any]) (bool, error) {
	if st.Value != nil && st.Path == "" {
		v, err := decode(st.Value)
		if err != nil {
			return false, err
		}
		if v, err = tracked.From(v); err != nil {
			return false, err
		}
		return s.Set(v)
	}

	return s.Update(func(root tracked.View) error {
		switch {
		case st.Value != nil:
			parentPath, key := splitPath(st.Path)
			parent, err := resolve(root, parentPath)
			if err != nil {
				return err
			}
			v, err := decode(st.Value)
			if err != nil {
				return err
			}
			return setChild(parent, key, v)

		case st.Append != nil:
			target, err := resolve(root, st.Path)
			if err != nil {
				return err
			}
			list, ok := target.(*tracked.ListView)
			if !ok {
				return fmt.Errorf("%w: append needs a list at %q, found %s", errBadStep, st.Path, target.Kind())
			}
			v, err := decode(st.Append)
			if err != nil {
				return err
			}
			return list.Append(v)

		case st.Add != nil:
			target, err := resolve(root, st.Path)
			if err != nil {
				return err
			}
			set, ok := target.(*tracked.SetView)
			if !ok {
				return fmt.Errorf("%w: add needs a set at %q, found %s", errBadStep, st.Path, target.Kind())
			}
			v, err := decode(st.Add)
			if err != nil {
				return err
			}
			_, err = set.Add(v)
			return err

		default:
			target, err := resolve(root, st.Path)
			if err != nil {
				return err
			}
			key, err := decode(st.Delete)
			if err != nil {
				return err
			}
			return deleteChild(target, key)
		}
	})
}

func splitPath(path string) (parent, key string) {
	i := strings.LastIndexByte(path, '.')
	if i < 0 {
		return "", path
	}
	return path[:i], path[i+1:]
}

// resolve walks a dot separated path down from root.
func resolve(root tracked.View, path string) (tracked.View, error) {
	cur := root
	if path == "" {
		return cur, nil
	}
	for _, seg := range strings.Split(path, ".") {
		next, err := child(cur, seg)
		if err != nil {
			return nil, err
		}
		view, ok := next.(tracked.View)
		if !ok {
			return nil, fmt.Errorf("%w: %q is a scalar inside %q", errBadStep, seg, path)
		}
		cur = view
	}
	return cur, nil
}

func child(v tracked.View, seg string) (any, error) {
	var (
		out any
		ok  bool
	)
	switch x := v.(type) {
	case *tracked.RecordView:
		out, ok = x.Lookup(seg)
	case *tracked.ListView:
		i, err := strconv.Atoi(seg)
		if err != nil {
			return nil, fmt.Errorf("%w: list index %q", errBadStep, seg)
		}
		out, ok = x.Lookup(i)
	case *tracked.DictView:
		out, ok = x.Lookup(dictKey(x, seg))
	}
	if !ok {
		return nil, fmt.Errorf("%w: nothing at %q under %s %q", errBadStep, seg, v.Kind(), v.Path())
	}
	return out, nil
}

// dictKey maps a path segment back to the dict key it was printed from.
func dictKey(d *tracked.DictView, seg string) any {
	for _, k := range d.Keys() {
		if fmt.Sprint(k) == seg {
			return k
		}
	}
	return seg
}

func setChild(parent tracked.View, key string, v any) error {
	switch x := parent.(type) {
	case *tracked.RecordView:
		return x.Set(key, v)
	case *tracked.ListView:
		i, err := strconv.Atoi(key)
		if err != nil {
			return fmt.Errorf("%w: list index %q", errBadStep, key)
		}
		return x.SetAt(i, v)
	case *tracked.DictView:
		return x.Put(dictKey(x, key), v)
	default:
		return fmt.Errorf("%w: cannot set %q on a %s", errBadStep, key, parent.Kind())
	}
}

func deleteChild(target tracked.View, key any) error {
	switch x := target.(type) {
	case *tracked.RecordView:
		_, err := x.Delete(fmt.Sprint(key))
		return err
	case *tracked.ListView:
		i, ok := key.(int)
		if !ok {
			return fmt.Errorf("%w: list index %v", errBadStep, key)
		}
		_, err := x.RemoveAt(i)
		return err
	case *tracked.DictView:
		_, err := x.Delete(key)
		return err
	case *tracked.SetView:
		_, err := x.Delete(key)
		return err
	default:
		return fmt.Errorf("%w: cannot delete from a %s", errBadStep, target.Kind())
	}
}

// summary renders each retained snapshot as "tx: value".
func summary(log *history.Log) []string {
	var out []string
	for _, e := range log.Entries() {
		out = append(out, fmt.Sprintf("%d: %v", e.Tx, tracked.ToPlain(e.Value)))
	}
	return out
}
