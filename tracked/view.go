package tracked

// View is the tracked facade over a raw container. Reads of nested
// containers return views of their own; writes need an open session.
type View interface {
	Kind() Kind
	Path() string
	Raw() Node

	rebase(path string)
}

type viewBase struct {
	t    *Tracker
	path string
}

func (v *viewBase) Path() string { return v.path }

func (v *viewBase) rebase(path string) { v.path = path }

// Tracker exposes the tracker that owns this view.
func (v *viewBase) Tracker() *Tracker { return v.t }

// gateWrite guards plain field and element writes.
func (v *viewBase) gateWrite(path string) error {
	if !v.t.open {
		return &AccessError{Op: "set", Path: path, Reason: ReasonDirectWrite}
	}
	return nil
}

// gateOp guards the mutating operations of each container kind.
func (v *viewBase) gateOp(op string) error {
	if !v.t.open {
		return &AccessError{Op: op, Path: v.path, Reason: ReasonUseUpdate}
	}
	return nil
}

// admit converts val for storage under owner and rejects what may never be
// stored: unsupported kinds, views of tracked state, and containers that
// would make owner reachable from itself. Callers Adopt the result once they
// know it is going in.
func (v *viewBase) admit(op, path string, val any, owner Node) (any, error) {
	out, err := From(val)
	if err != nil {
		return nil, forbidden(op, path, err)
	}
	if n, ok := out.(Node); ok && contains(n, owner) {
		return nil, forbidden(op, path, errCycle)
	}
	return out, nil
}

func (v *viewBase) admitAll(op string, vals []any, owner Node) ([]any, error) {
	out := make([]any, len(vals))
	for i, val := range vals {
		a, err := v.admit(op, v.path, val, owner)
		if err != nil {
			return nil, err
		}
		out[i] = Adopt(a)
	}
	return out, nil
}

func (v *viewBase) admitKey(op string, key any) error {
	if !validKey(key) {
		return forbidden(op, v.path, errKey)
	}
	return nil
}

// rawOf strips a view down to its node so callers can compare against raw
// content.
func rawOf(v any) any {
	if view, ok := v.(View); ok {
		return view.Raw()
	}
	return v
}
