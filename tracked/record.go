package tracked

type RecordView struct {
	viewBase
	rec *Record
}

func (v *RecordView) Kind() Kind { return KindRecord }
func (v *RecordView) Raw() Node  { return v.rec }
func (v *RecordView) Len() int   { return v.rec.Len() }

func (v *RecordView) Keys() []string { return v.rec.Keys() }

func (v *RecordView) Has(key string) bool {
	_, ok := v.rec.fields[key]
	return ok
}

// Get returns the field at key, nil if absent. Containers come back as views.
func (v *RecordView) Get(key string) any {
	out, _ := v.Lookup(key)
	return out
}

func (v *RecordView) Lookup(key string) (any, bool) {
	val, ok := v.rec.fields[key]
	if !ok {
		return nil, false
	}
	return v.t.wrap(val, JoinPath(v.path, key)), true
}

// Record returns the nested record view at key.
func (v *RecordView) Record(key string) (*RecordView, bool) {
	rv, ok := v.Get(key).(*RecordView)
	return rv, ok
}

// List returns the nested list view at key.
func (v *RecordView) List(key string) (*ListView, bool) {
	lv, ok := v.Get(key).(*ListView)
	return lv, ok
}

// Set writes a field. Adding a key that did not exist counts as a change.
func (v *RecordView) Set(key string, val any) error {
	path := JoinPath(v.path, key)
	if err := v.gateWrite(path); err != nil {
		return err
	}
	if _, err := segment(key); err != nil {
		return forbidden("set", path, err)
	}
	val, err := v.admit("set", path, val, v.rec)
	if err != nil {
		return err
	}
	if old, ok := v.rec.fields[key]; ok && v.t.eq(old, val) {
		return nil
	}
	v.rec.set(key, Adopt(val))
	v.t.MarkChanged(path)
	return nil
}

func (v *RecordView) Delete(key string) (bool, error) {
	if err := v.gateOp("delete"); err != nil {
		return false, err
	}
	if !v.rec.del(key) {
		return false, nil
	}
	v.t.MarkChanged(JoinPath(v.path, key))
	return true, nil
}

func (v *RecordView) Clear() error {
	if err := v.gateOp("clear"); err != nil {
		return err
	}
	if v.rec.Len() == 0 {
		return nil
	}
	v.rec.clear()
	v.t.MarkChanged(v.path)
	return nil
}
