package tracked

type SetView struct {
	viewBase
	set *Set
}

func (v *SetView) Kind() Kind { return KindSet }
func (v *SetView) Raw() Node  { return v.set }
func (v *SetView) Len() int   { return v.set.Len() }

func (v *SetView) Has(m any) bool { return v.set.Has(m) }
func (v *SetView) Members() []any { return v.set.Members() }

// Add inserts members and reports whether any was new.
func (v *SetView) Add(members ...any) (bool, error) {
	if err := v.gateOp("add"); err != nil {
		return false, err
	}
	for _, m := range members {
		if err := v.admitKey("add", m); err != nil {
			return false, err
		}
	}
	added := false
	for _, m := range members {
		if v.set.members.Add(m) {
			added = true
		}
	}
	if added {
		v.t.MarkChanged(v.path)
	}
	return added, nil
}

func (v *SetView) Delete(m any) (bool, error) {
	if err := v.gateOp("delete"); err != nil {
		return false, err
	}
	if !v.set.Has(m) {
		return false, nil
	}
	v.set.members.Remove(m)
	v.t.MarkChanged(v.path)
	return true, nil
}

func (v *SetView) Clear() error {
	if err := v.gateOp("clear"); err != nil {
		return err
	}
	if v.set.Len() == 0 {
		return nil
	}
	v.set.members.Clear()
	v.t.MarkChanged(v.path)
	return nil
}
