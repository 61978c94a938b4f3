package orderdebug

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Field is one key/value pair of a Payload.
type Field struct {
	Key   string
	Value any
}

// Payload is an ordered mapping rendered in insertion order. Values may be
// scalars, nested Payloads, slices, maps, structs or pointers to any of those.
type Payload []Field

// Get returns the value of the first field named key.
func (p Payload) Get(key string) (any, bool) {
	for _, f := range p {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Keys returns the field names in insertion order.
func (p Payload) Keys() []string {
	keys := make([]string, 0, len(p))
	for _, f := range p {
		keys = append(keys, f.Key)
	}
	return keys
}

// Maximum nesting rendered before values are elided.
const maxRenderDepth = 10

const indentUnit = "  "

var payloadType = reflect.TypeOf(Payload(nil))

// renderPayload writes p as indented "key: value" lines. Nested values open a
// "key:" line followed by their fields one level deeper.
func renderPayload(b *strings.Builder, p Payload) {
	r := &renderer{b: b, visited: make(map[uintptr]bool)}
	r.fields(p, 1, 0)
}

type renderer struct {
	b *strings.Builder
	// pointers on the current path, for cycle detection
	visited map[uintptr]bool
}

func (r *renderer) fields(p Payload, indent, depth int) {
	for _, f := range p {
		r.keyed(f.Key, f.Value, indent, depth)
	}
}

func (r *renderer) line(indent int, key, value string) {
	r.b.WriteString(strings.Repeat(indentUnit, indent))
	r.b.WriteString(key)
	r.b.WriteByte(':')
	if value != emptyString {
		r.b.WriteByte(' ')
		r.b.WriteString(value)
	}
	r.b.WriteByte('\n')
}

func (r *renderer) keyed(key string, v any, indent, depth int) {
	if depth >= maxRenderDepth {
		r.line(indent, key, "<max depth reached>")
		return
	}

	val, note, path := r.unwrap(v)
	defer func() {
		for _, ptr := range path {
			delete(r.visited, ptr)
		}
	}()
	if note != emptyString {
		r.line(indent, key, note)
		return
	}

	if s, ok := scalar(val); ok {
		r.line(indent, key, s)
		return
	}

	switch val.Kind() {
	case reflect.Slice, reflect.Array:
		if val.Len() == 0 {
			if val.Type() == payloadType {
				r.line(indent, key, "{}")
			} else {
				r.line(indent, key, "[]")
			}
			return
		}
		r.line(indent, key, emptyString)
		if val.Type() == payloadType {
			r.fields(val.Interface().(Payload), indent+1, depth+1)
			return
		}
		for i := 0; i < val.Len(); i++ {
			r.keyed("["+strconv.Itoa(i)+"]", elemInterface(val.Index(i)), indent+1, depth+1)
		}

	case reflect.Map:
		if val.Len() == 0 {
			r.line(indent, key, "{}")
			return
		}
		r.line(indent, key, emptyString)
		type kv struct {
			key string
			val any
		}
		entries := make([]kv, 0, val.Len())
		iter := val.MapRange()
		for iter.Next() {
			entries = append(entries, kv{key: fmt.Sprintf("%v", iter.Key().Interface()), val: elemInterface(iter.Value())})
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })
		for _, e := range entries {
			r.keyed(e.key, e.val, indent+1, depth+1)
		}

	case reflect.Struct:
		typ := val.Type()
		var exported []int
		for i := 0; i < val.NumField(); i++ {
			if typ.Field(i).IsExported() {
				exported = append(exported, i)
			}
		}
		if len(exported) == 0 {
			r.line(indent, key, "{}")
			return
		}
		r.line(indent, key, emptyString)
		for _, i := range exported {
			r.keyed(typ.Field(i).Name, elemInterface(val.Field(i)), indent+1, depth+1)
		}

	default:
		r.line(indent, key, fmt.Sprintf("%v", v))
	}
}

// unwrap strips interfaces and pointers. A non-empty note means the value is
// rendered as that note instead. path lists the pointers marked as visited.
func (r *renderer) unwrap(v any) (val reflect.Value, note string, path []uintptr) {
	if v == nil {
		return reflect.Value{}, "<nil>", nil
	}
	val = reflect.ValueOf(v)
	for {
		switch val.Kind() {
		case reflect.Interface:
			if val.IsNil() {
				return val, "<nil>", path
			}
			val = val.Elem()
			continue
		case reflect.Ptr:
			if val.IsNil() {
				return val, "<nil>", path
			}
			switch val.Interface().(type) {
			case error, fmt.Stringer:
				return val, emptyString, path
			}
			ptr := val.Pointer()
			if r.visited[ptr] {
				return val, "<circular reference>", path
			}
			r.visited[ptr] = true
			path = append(path, ptr)
			val = val.Elem()
			continue
		case reflect.Map, reflect.Slice:
			if val.IsNil() {
				return val, emptyString, path
			}
		default:
		}
		return val, emptyString, path
	}
}

// scalar renders values that fit on one line.
func scalar(val reflect.Value) (string, bool) {
	if !val.IsValid() {
		return "<nil>", true
	}
	if val.CanInterface() {
		switch x := val.Interface().(type) {
		case error:
			return x.Error(), true
		case fmt.Stringer:
			return x.String(), true
		case []byte:
			return quoteEmpty(string(x)), true
		}
	}
	switch val.Kind() {
	case reflect.String:
		return quoteEmpty(val.String()), true
	case reflect.Bool:
		return strconv.FormatBool(val.Bool()), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(val.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(val.Uint(), 10), true
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(val.Float(), 'f', -1, 64), true
	case reflect.Func, reflect.Chan, reflect.UnsafePointer, reflect.Complex64, reflect.Complex128:
		return fmt.Sprintf("%v", val), true
	default:
		return emptyString, false
	}
}

func quoteEmpty(s string) string {
	if s == emptyString {
		return `""`
	}
	return s
}

func elemInterface(v reflect.Value) any {
	if !v.IsValid() || !v.CanInterface() {
		return nil
	}
	return v.Interface()
}
