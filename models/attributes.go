package models

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Pair is a single attribute key/value used to build Attributes in order
type Pair struct {
	Key   string
	Value any
}

// Attr is shorthand for building a Pair
func Attr(key string, value any) Pair {
	return Pair{Key: key, Value: value}
}

// Attributes is an insertion-ordered attribute bag.
//
// Values are normalized on Set to one of: nil, string, bool, int64, uint64,
// float64, json.Number, a nested *Attributes or a []any list of normalized
// values. A nil *Attributes reads as empty.
type Attributes struct {
	m *orderedmap.OrderedMap[string, any]
}

// NewAttributes creates an Attributes container holding pairs in the given order
func NewAttributes(pairs ...Pair) *Attributes {
	a := &Attributes{m: orderedmap.New[string, any]()}
	for _, p := range pairs {
		a.Set(p.Key, p.Value)
	}
	return a
}

// AttributesFromMap converts a plain map. Keys are sorted since Go maps have no order.
func AttributesFromMap(m map[string]any) *Attributes {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	a := NewAttributes()
	for _, k := range keys {
		a.Set(k, m[k])
	}
	return a
}

// Set stores value under key, keeping the original position of an existing key
func (a *Attributes) Set(key string, value any) *Attributes {
	if a.m == nil {
		a.m = orderedmap.New[string, any]()
	}
	a.m.Set(key, normalizeValue(value))
	return a
}

// Get returns the value stored under key
func (a *Attributes) Get(key string) (any, bool) {
	if a == nil || a.m == nil {
		return nil, false
	}
	return a.m.Get(key)
}

// Has reports whether key is present
func (a *Attributes) Has(key string) bool {
	_, ok := a.Get(key)
	return ok
}

// Len returns the number of attributes
func (a *Attributes) Len() int {
	if a == nil || a.m == nil {
		return 0
	}
	return a.m.Len()
}

// Keys returns the attribute names in insertion order
func (a *Attributes) Keys() []string {
	keys := make([]string, 0, a.Len())
	a.Each(func(key string, _ any) {
		keys = append(keys, key)
	})
	return keys
}

// Each calls fn for every attribute in insertion order
func (a *Attributes) Each(fn func(key string, value any)) {
	if a == nil || a.m == nil {
		return
	}
	for pair := a.m.Oldest(); pair != nil; pair = pair.Next() {
		fn(pair.Key, pair.Value)
	}
}

// Clone returns a deep copy; nested attribute bags are cloned too
func (a *Attributes) Clone() *Attributes {
	out := NewAttributes()
	a.Each(func(key string, value any) {
		out.Set(key, cloneValue(value))
	})
	return out
}

func cloneValue(value any) any {
	switch val := value.(type) {
	case *Attributes:
		return val.Clone()
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return value
	}
}

// ToMap flattens the container into a plain map, converting nested bags as well
func (a *Attributes) ToMap() map[string]any {
	out := make(map[string]any, a.Len())
	a.Each(func(key string, value any) {
		out[key] = plainValue(value)
	})
	return out
}

func plainValue(value any) any {
	switch val := value.(type) {
	case *Attributes:
		return val.ToMap()
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = plainValue(item)
		}
		return out
	default:
		return value
	}
}

// Equal reports whether both containers hold the same keys, order and values
func (a *Attributes) Equal(other *Attributes) bool {
	if a.Len() != other.Len() {
		return false
	}
	ak, bk := a.Keys(), other.Keys()
	for i := range ak {
		if ak[i] != bk[i] {
			return false
		}
		av, _ := a.Get(ak[i])
		bv, _ := other.Get(bk[i])
		if !valuesEqual(av, bv) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the attributes as a JSON object in insertion order
func (a *Attributes) MarshalJSON() ([]byte, error) {
	if a == nil || a.m == nil {
		return []byte("{}"), nil
	}
	return a.m.MarshalJSON()
}

func valuesEqual(a, b any) bool {
	na, aok := a.(*Attributes)
	nb, bok := b.(*Attributes)
	if aok || bok {
		return aok && bok && na.Equal(nb)
	}
	la, aok := a.([]any)
	lb, bok := b.([]any)
	if aok || bok {
		if !aok || !bok || len(la) != len(lb) {
			return false
		}
		for i := range la {
			if !valuesEqual(la[i], lb[i]) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case string, bool, int64, uint64, float64, json.Number:
		return val
	case *Attributes:
		if val == nil {
			return nil
		}
		return val
	case int:
		return int64(val)
	case int8:
		return int64(val)
	case int16:
		return int64(val)
	case int32:
		return int64(val)
	case uint:
		return uint64(val)
	case uint8:
		return uint64(val)
	case uint16:
		return uint64(val)
	case uint32:
		return uint64(val)
	case float32:
		return float64(val)
	case map[string]any:
		return AttributesFromMap(val)
	case []byte:
		return string(val)
	case []any:
		if val == nil {
			return nil
		}
		return normalizeList(reflect.ValueOf(val))
	case time.Time:
		return val.UTC().Format(time.RFC3339Nano)
	case *time.Time:
		if val == nil {
			return nil
		}
		return val.UTC().Format(time.RFC3339Nano)
	case fmt.Stringer:
		return val.String()
	default:
		return normalizeReflected(reflect.ValueOf(val))
	}
}

// normalizeReflected handles string keyed maps, slices and arrays of any
// element type. Everything else is rendered with fmt.Sprint.
func normalizeReflected(v reflect.Value) any {
	switch v.Kind() {
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			break
		}
		if v.IsNil() {
			return nil
		}
		keys := make([]string, 0, v.Len())
		values := make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			key := iter.Key().String()
			keys = append(keys, key)
			values[key] = iter.Value().Interface()
		}
		sort.Strings(keys)

		nested := NewAttributes()
		for _, key := range keys {
			nested.Set(key, values[key])
		}
		return nested
	case reflect.Slice:
		if v.IsNil() {
			return nil
		}
		return normalizeList(v)
	case reflect.Array:
		return normalizeList(v)
	case reflect.Pointer:
		if v.IsNil() {
			return nil
		}
		return normalizeValue(v.Elem().Interface())
	}
	return fmt.Sprint(v.Interface())
}

func normalizeList(v reflect.Value) []any {
	out := make([]any, v.Len())
	for i := range out {
		out[i] = normalizeValue(v.Index(i).Interface())
	}
	return out
}
