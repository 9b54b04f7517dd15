// Package safejson serializes arbitrary payload values for display. Maps,
// slices and pointers that refer back to one of their ancestors are replaced
// with a "[Circular ~...]" marker instead of failing.
package safejson

import (
	"bytes"
	"encoding"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Stringify returns the JSON form of v with HTML escaping disabled. Structs
// are rebuilt field by field following their json tags, so cycles through
// struct pointers are caught too. Cycles are replaced by "[Circular ~]" when
// they point at the root value and by "[Circular ~.key.path]" otherwise.
// Values encoding/json cannot represent (channels, functions, NaN) still
// produce an error.
func Stringify(v any) (string, error) {
	var d decycler
	clean := d.walk(reflect.ValueOf(v), nil)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(clean); err != nil {
		return "", fmt.Errorf("serializing payload: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// IsStructured reports whether v is a non-nil object-like value: a map,
// slice, array, struct or pointer.
func IsStructured(v any) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Pointer:
		return !rv.IsNil()
	case reflect.Array, reflect.Struct:
		return true
	}
	return false
}

type frame struct {
	ptr  uintptr
	typ  reflect.Type
	path []string
}

var (
	jsonMarshalerType = reflect.TypeFor[json.Marshaler]()
	textMarshalerType = reflect.TypeFor[encoding.TextMarshaler]()
)

// decycler rebuilds a value as plain maps and slices, tracking the chain of
// reference values currently being visited.
type decycler struct {
	stack []frame
}

func (d *decycler) walk(v reflect.Value, path []string) any {
	if !v.IsValid() {
		return nil
	}
	if m, ok := marshaler(v); ok {
		return m
	}
	switch v.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			return nil
		}
		return d.walk(v.Elem(), path)

	case reflect.Pointer:
		if v.IsNil() {
			return nil
		}
		if marker, ok := d.circular(v); ok {
			return marker
		}
		d.push(v, path)
		defer d.pop()
		return d.walk(v.Elem(), path)

	case reflect.Map:
		if v.IsNil() {
			return nil
		}
		if marker, ok := d.circular(v); ok {
			return marker
		}
		d.push(v, path)
		defer d.pop()

		out := make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			key := mapKey(iter.Key())
			out[key] = d.walk(iter.Value(), appendPath(path, key))
		}
		return out

	case reflect.Slice:
		if v.IsNil() {
			return nil
		}
		if v.Type().Elem().Kind() == reflect.Uint8 {
			if v.CanInterface() {
				return v.Interface()
			}
			return v.Bytes()
		}
		if v.Len() > 0 {
			if marker, ok := d.circular(v); ok {
				return marker
			}
			d.push(v, path)
			defer d.pop()
		}
		return d.walkElems(v, path)

	case reflect.Array:
		return d.walkElems(v, path)

	case reflect.Struct:
		out := make(map[string]any, v.NumField())
		d.walkFields(v, path, out, false)
		return out
	}
	return scalar(v)
}

// scalar reads a leaf value. Fields promoted from unexported embedded structs
// cannot be interfaced, so their basic kinds are read directly.
func scalar(v reflect.Value) any {
	if v.CanInterface() {
		return v.Interface()
	}
	switch v.Kind() {
	case reflect.Bool:
		return v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint()
	case reflect.Float32, reflect.Float64:
		return v.Float()
	case reflect.String:
		return v.String()
	}
	return nil
}

func (d *decycler) walkElems(v reflect.Value, path []string) []any {
	out := make([]any, v.Len())
	for i := range out {
		out[i] = d.walk(v.Index(i), appendPath(path, strconv.Itoa(i)))
	}
	return out
}

// walkFields copies the fields encoding/json would emit into out, keyed by
// their JSON names. Fields of embedded structs are promoted unless a
// shallower field already claimed the name.
func (d *decycler) walkFields(v reflect.Value, path []string, out map[string]any, promoted bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")
		fv := v.Field(i)

		if f.Anonymous && name == "" {
			ft := f.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				if fv.Kind() == reflect.Pointer {
					if fv.IsNil() {
						continue
					}
					fv = fv.Elem()
				}
				d.walkFields(fv, path, out, true)
				continue
			}
		}
		if !f.IsExported() {
			continue
		}
		if name == "" {
			name = f.Name
		}
		if hasOption(opts, "omitempty") && isEmptyValue(fv) {
			continue
		}
		if _, taken := out[name]; taken && promoted {
			continue
		}
		out[name] = d.walk(fv, appendPath(path, name))
	}
}

func hasOption(opts, want string) bool {
	for opts != "" {
		var opt string
		opt, opts, _ = strings.Cut(opts, ",")
		if opt == want {
			return true
		}
	}
	return false
}

func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64,
		reflect.Interface, reflect.Pointer:
		return v.IsZero()
	}
	return false
}

// marshaler returns values that encode themselves (time.Time, json.RawMessage
// and friends) untouched so encoding/json applies their own format.
func marshaler(v reflect.Value) (any, bool) {
	if v.Kind() == reflect.Interface || !v.CanInterface() {
		return nil, false
	}
	t := v.Type()
	if t.Implements(jsonMarshalerType) || t.Implements(textMarshalerType) {
		if v.Kind() == reflect.Pointer && v.IsNil() {
			return nil, true
		}
		return v.Interface(), true
	}
	if v.CanAddr() {
		pt := reflect.PointerTo(t)
		if pt.Implements(jsonMarshalerType) || pt.Implements(textMarshalerType) {
			return v.Addr().Interface(), true
		}
	}
	return nil, false
}

// circular reports whether v is already on the visit stack. Frames match on
// address and type, so a struct and its first field are not confused.
func (d *decycler) circular(v reflect.Value) (string, bool) {
	ptr, typ := v.Pointer(), v.Type()
	for i, f := range d.stack {
		if f.ptr != ptr || f.typ != typ {
			continue
		}
		if i == 0 {
			return "[Circular ~]", true
		}
		return "[Circular ~." + strings.Join(f.path, ".") + "]", true
	}
	return "", false
}

func (d *decycler) push(v reflect.Value, path []string) {
	d.stack = append(d.stack, frame{ptr: v.Pointer(), typ: v.Type(), path: path})
}

func (d *decycler) pop() {
	d.stack = d.stack[:len(d.stack)-1]
}

func appendPath(path []string, key string) []string {
	out := make([]string, len(path), len(path)+1)
	copy(out, path)
	return append(out, key)
}

func mapKey(k reflect.Value) string {
	if k.Kind() == reflect.String {
		return k.String()
	}
	if k.Kind() == reflect.Interface && !k.IsNil() {
		return mapKey(k.Elem())
	}
	if !k.CanInterface() {
		return fmt.Sprint(k)
	}
	return fmt.Sprint(k.Interface())
}

// ToString converts a scalar the way JavaScript's String() does: nil is
// "undefined", numbers use the shortest round-trip form, arrays are joined
// with "," (nil elements empty) and other objects become "[object Object]".
func ToString(v any) string {
	if v == nil {
		return "undefined"
	}
	return toString(reflect.ValueOf(v), nil)
}

func toString(v reflect.Value, seen []uintptr) string {
	switch v.Kind() {
	case reflect.Invalid:
		return "undefined"
	case reflect.Interface, reflect.Pointer:
		if v.IsNil() {
			return "null"
		}
		if s, ok := stringer(v); ok {
			return s
		}
		return toString(v.Elem(), seen)
	case reflect.String:
		return v.String()
	case reflect.Bool:
		return strconv.FormatBool(v.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(v.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return Number(v.Float())
	case reflect.Slice:
		if v.IsNil() {
			return "null"
		}
		for _, p := range seen {
			if p == v.Pointer() {
				return ""
			}
		}
		seen = append(seen, v.Pointer())
		return joinElems(v, seen)
	case reflect.Array:
		return joinElems(v, seen)
	}
	if s, ok := stringer(v); ok {
		return s
	}
	return "[object Object]"
}

func joinElems(v reflect.Value, seen []uintptr) string {
	parts := make([]string, v.Len())
	for i := range parts {
		elem := v.Index(i)
		if elem.Kind() == reflect.Interface || elem.Kind() == reflect.Pointer {
			if elem.IsNil() {
				continue
			}
		}
		parts[i] = toString(elem, seen)
	}
	return strings.Join(parts, ",")
}

func stringer(v reflect.Value) (string, bool) {
	if !v.CanInterface() {
		return "", false
	}
	switch s := v.Interface().(type) {
	case json.Number:
		return s.String(), true
	case error:
		return s.Error(), true
	case fmt.Stringer:
		return s.String(), true
	}
	return "", false
}

// Number formats f like JavaScript's Number.prototype.toString.
func Number(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		mant, exp, _ := strings.Cut(s, "e")
		sign := exp[:1]
		digits := strings.TrimLeft(exp[1:], "0")
		return mant + "e" + sign + digits
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
