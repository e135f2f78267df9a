package tracked

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Kind tags the closed set of value shapes a tracked value can take.
type Kind uint8

const (
	KindScalar Kind = iota
	KindRecord
	KindList
	KindDict
	KindSet
	KindUnsupported
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindRecord:
		return "record"
	case KindList:
		return "list"
	case KindDict:
		return "dict"
	case KindSet:
		return "set"
	default:
		return "unsupported"
	}
}

// KindOf classifies v without converting it. Plain Go maps and slices are
// reported as unsupported; run them through From first. So are nil container
// pointers.
func KindOf(v any) Kind {
	switch x := v.(type) {
	case *Record:
		if x == nil {
			return KindUnsupported
		}
		return KindRecord
	case *List:
		if x == nil {
			return KindUnsupported
		}
		return KindList
	case *Dict:
		if x == nil {
			return KindUnsupported
		}
		return KindDict
	case *Set:
		if x == nil {
			return KindUnsupported
		}
		return KindSet
	}
	if IsScalar(v) {
		return KindScalar
	}
	return KindUnsupported
}

var timeType = reflect.TypeOf(time.Time{})

// IsScalar reports whether v is nil, a bool, a number, a string (including
// named types over those) or a time.Time.
func IsScalar(v any) bool {
	switch v.(type) {
	case nil, bool, string, int, int64, float64, time.Time:
		return true
	}
	t := reflect.TypeOf(v)
	if t == timeType {
		return true
	}
	switch t.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	}
	return false
}

// JoinPath appends a segment to a dot separated path.
func JoinPath(parent, segment string) string {
	if parent == "" {
		return segment
	}
	return parent + "." + segment
}

func indexPath(parent string, i int) string {
	return JoinPath(parent, strconv.Itoa(i))
}

// segment renders a record field name or dict key as one path segment. A key
// that renders empty or with a dot would read as a different path, so it is
// refused.
func segment(key any) (string, error) {
	s := fmt.Sprint(key)
	if s == "" || strings.ContainsRune(s, '.') {
		return "", fmt.Errorf("%w: %q", errSegment, s)
	}
	return s, nil
}
