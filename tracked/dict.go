package tracked

import "fmt"

type DictView struct {
	viewBase
	dict *Dict
}

func (v *DictView) Kind() Kind { return KindDict }
func (v *DictView) Raw() Node  { return v.dict }
func (v *DictView) Len() int   { return v.dict.Len() }

func (v *DictView) Keys() []any { return v.dict.Keys() }

func (v *DictView) Has(key any) bool {
	_, ok := v.dict.Get(key)
	return ok
}

func (v *DictView) Get(key any) any {
	out, _ := v.Lookup(key)
	return out
}

func (v *DictView) Lookup(key any) (any, bool) {
	val, ok := v.dict.Get(key)
	if !ok {
		return nil, false
	}
	return v.t.wrap(val, keyPath(v.path, key)), true
}

// Range calls fn for each entry in insertion order until fn returns false.
func (v *DictView) Range(fn func(key, val any) bool) {
	for _, k := range v.dict.Keys() {
		if !fn(k, v.t.wrap(v.dict.entries[k], keyPath(v.path, k))) {
			return
		}
	}
}

// Put stores val under key. Replacing an entry with an equal value is not a
// change.
func (v *DictView) Put(key, val any) error {
	if err := v.gateOp("put"); err != nil {
		return err
	}
	if err := v.admitKey("put", key); err != nil {
		return err
	}
	if err := v.dict.checkKey(key); err != nil {
		return forbidden("put", v.path, err)
	}
	path := keyPath(v.path, key)
	val, err := v.admit("put", path, val, v.dict)
	if err != nil {
		return err
	}
	if old, ok := v.dict.entries[key]; ok && v.t.eq(old, val) {
		return nil
	}
	v.dict.put(key, Adopt(val))
	v.t.MarkChanged(path)
	return nil
}

func (v *DictView) Delete(key any) (bool, error) {
	if err := v.gateOp("delete"); err != nil {
		return false, err
	}
	if !validKey(key) || !v.dict.del(key) {
		return false, nil
	}
	v.t.MarkChanged(keyPath(v.path, key))
	return true, nil
}

func (v *DictView) Clear() error {
	if err := v.gateOp("clear"); err != nil {
		return err
	}
	if v.dict.Len() == 0 {
		return nil
	}
	v.dict.clear()
	v.t.MarkChanged(v.path)
	return nil
}

func keyPath(parent string, key any) string {
	return JoinPath(parent, fmt.Sprint(key))
}
