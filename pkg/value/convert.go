package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"

	"github.com/sirosfoundation/go-opensrs/pkg/opserr"
)

var (
	valueType      = reflect.TypeOf((*Value)(nil)).Elem()
	jsonNumberType = reflect.TypeOf(json.Number(""))
)

// FromNative converts ordinary Go data into a Value tree.
//
// Supported: strings, bools, integers, finite floats, json.Number, slices
// and arrays, maps with string keys, pointers and interfaces holding any of
// these, and Values. Map keys are emitted in sorted order since Go maps are
// unordered; use an *Assoc when the registrar cares about key order.
//
// nil, functions, channels, structs, NaN/Inf and cyclic data fail with
// opserr.ErrInvalidArgument.
func FromNative(v any) (Value, error) {
	c := &converter{visiting: make(map[visitKey]bool)}
	return c.convert(reflect.ValueOf(v), nil)
}

// MustFromNative is FromNative that panics on error. Intended for literals
// in tests and examples.
func MustFromNative(v any) Value {
	out, err := FromNative(v)
	if err != nil {
		panic(err)
	}
	return out
}

// visitKey identifies a container on the current path. Slices include their
// length because a sub-slice shares its first element with the parent.
type visitKey struct {
	kind reflect.Kind
	ptr  uintptr
	n    int
}

type converter struct {
	visiting map[visitKey]bool
}

func (c *converter) fail(path []string, format string, args ...any) error {
	return opserr.InvalidArgument("value", fmt.Sprintf(format, args...), path...)
}

func (c *converter) enter(path []string, rv reflect.Value) (visitKey, error) {
	key := visitKey{kind: rv.Kind(), ptr: rv.Pointer()}
	if rv.Kind() == reflect.Slice {
		key.n = rv.Len()
	}
	if c.visiting[key] {
		return key, c.fail(path, "cyclic structure")
	}
	c.visiting[key] = true
	return key, nil
}

func (c *converter) convert(rv reflect.Value, path []string) (Value, error) {
	if !rv.IsValid() {
		return nil, c.fail(path, "nil value")
	}

	if rv.Type().Implements(valueType) {
		if (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) && rv.IsNil() {
			return nil, c.fail(path, "nil value")
		}
		v := rv.Interface().(Value)
		if err := validate(v, path, make(map[any]bool)); err != nil {
			return nil, err
		}
		return v, nil
	}

	if rv.Type() == jsonNumberType {
		return Scalar(rv.String()), nil
	}

	switch rv.Kind() {
	case reflect.String:
		return Scalar(rv.String()), nil
	case reflect.Bool:
		return Scalar(strconv.FormatBool(rv.Bool())), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Scalar(strconv.FormatInt(rv.Int(), 10)), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return Scalar(strconv.FormatUint(rv.Uint(), 10)), nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, c.fail(path, "non-finite number %v", f)
		}
		return Scalar(strconv.FormatFloat(f, 'f', -1, rv.Type().Bits())), nil

	case reflect.Interface:
		if rv.IsNil() {
			return nil, c.fail(path, "nil value")
		}
		return c.convert(rv.Elem(), path)

	case reflect.Pointer:
		if rv.IsNil() {
			return nil, c.fail(path, "nil value")
		}
		key, err := c.enter(path, rv)
		if err != nil {
			return nil, err
		}
		defer delete(c.visiting, key)
		return c.convert(rv.Elem(), path)

	case reflect.Slice:
		if rv.IsNil() {
			return List{}, nil
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return Scalar(rv.Bytes()), nil
		}
		if rv.Len() > 0 {
			key, err := c.enter(path, rv)
			if err != nil {
				return nil, err
			}
			defer delete(c.visiting, key)
		}
		return c.convertList(rv, path)

	case reflect.Array:
		return c.convertList(rv, path)

	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, c.fail(path, "map key type %s is not a string", rv.Type().Key())
		}
		if rv.IsNil() {
			return NewAssoc(), nil
		}
		key, err := c.enter(path, rv)
		if err != nil {
			return nil, err
		}
		defer delete(c.visiting, key)

		keys := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)

		out := NewAssoc()
		for _, k := range keys {
			child, err := c.convert(rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key())), append(path, k))
			if err != nil {
				return nil, err
			}
			out.Set(k, child)
		}
		return out, nil
	}

	return nil, c.fail(path, "unsupported type %s", rv.Type())
}

func (c *converter) convertList(rv reflect.Value, path []string) (Value, error) {
	out := make(List, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		child, err := c.convert(rv.Index(i), append(path, strconv.Itoa(i)))
		if err != nil {
			return nil, err
		}
		out = append(out, child)
	}
	return out, nil
}

// Validate checks that a tree has no nil nodes and no cycles.
func Validate(v Value) error {
	if v == nil {
		return opserr.InvalidArgument("value", "nil value")
	}
	return validate(v, nil, make(map[any]bool))
}

// listKey identifies a List by its slice header; a sub-slice shares the
// first slot with its parent but not the length.
type listKey struct {
	p *Value
	n int
}

// validate walks v keeping the containers on the current path in stack. An
// Assoc is identified by pointer, a List by its listKey.
func validate(v Value, path []string, stack map[any]bool) error {
	switch x := v.(type) {
	case nil:
		return opserr.InvalidArgument("value", "nil value", path...)
	case Scalar:
		return nil
	case *Assoc:
		if x == nil {
			return opserr.InvalidArgument("value", "nil value", path...)
		}
		if stack[x] {
			return opserr.InvalidArgument("value", "cyclic structure", path...)
		}
		stack[x] = true
		defer delete(stack, x)
		for _, k := range x.keys {
			if err := validate(x.values[k], append(path, k), stack); err != nil {
				return err
			}
		}
		return nil
	case List:
		if len(x) == 0 {
			return nil
		}
		id := listKey{&x[0], len(x)}
		if stack[id] {
			return opserr.InvalidArgument("value", "cyclic structure", path...)
		}
		stack[id] = true
		defer delete(stack, id)
		for i, e := range x {
			if err := validate(e, append(path, strconv.Itoa(i)), stack); err != nil {
				return err
			}
		}
		return nil
	}
	return opserr.InvalidArgument("value", fmt.Sprintf("unsupported node %T", v), path...)
}

// ToNative converts a Value tree into strings, map[string]any and []any.
// Assoc key order is lost; nil stays nil.
func ToNative(v Value) any {
	switch x := v.(type) {
	case Scalar:
		return string(x)
	case List:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = ToNative(e)
		}
		return out
	case *Assoc:
		if x == nil {
			return nil
		}
		out := make(map[string]any, len(x.keys))
		for _, k := range x.keys {
			out[k] = ToNative(x.values[k])
		}
		return out
	}
	return nil
}

// MarshalJSON writes the Assoc as a JSON object with keys in insertion order.
func (a *Assoc) MarshalJSON() ([]byte, error) {
	if a == nil {
		return []byte("null"), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range a.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(a.values[k])
		if err != nil {
			return nil, fmt.Errorf("marshaling %q: %w", k, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
