// Package value implements the generic data shape exchanged with the
// registrar: a string leaf, an ordered keyed mapping, or an ordered list.
//
// The three shapes map one to one onto the wire format:
//
//	Scalar  -> <item key="k">text</item>
//	*Assoc  -> <dt_assoc> with one item per key, in insertion order
//	List    -> <dt_array> with items keyed 0..n-1
//
// Value is a closed set; code that consumes a Value uses a type switch over
// Scalar, *Assoc and List.
package value

import "strings"

// Kind identifies which of the three shapes a Value has.
type Kind int

const (
	KindScalar Kind = iota
	KindAssoc
	KindList
)

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindAssoc:
		return "assoc"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// Value is one node of a value tree.
type Value interface {
	Kind() Kind
	sealed()
}

// Scalar is a text leaf.
type Scalar string

func (Scalar) Kind() Kind { return KindScalar }
func (Scalar) sealed()    {}

// List is an ordered sequence.
type List []Value

func (List) Kind() Kind { return KindList }
func (List) sealed()    {}

// Pair is one key/value entry used to build an Assoc.
type Pair struct {
	Key   string
	Value Value
}

// P is shorthand for building a Pair.
func P(key string, v Value) Pair {
	return Pair{Key: key, Value: v}
}

// Assoc is an ordered mapping with unique keys. The order in which keys are
// first set is the order they are emitted on the wire.
type Assoc struct {
	keys   []string
	values map[string]Value
}

func (*Assoc) Kind() Kind { return KindAssoc }
func (*Assoc) sealed()    {}

// NewAssoc creates an Assoc from pairs, in order. A repeated key keeps its
// first position and takes the last value.
func NewAssoc(pairs ...Pair) *Assoc {
	a := &Assoc{values: make(map[string]Value, len(pairs))}
	for _, p := range pairs {
		a.Set(p.Key, p.Value)
	}
	return a
}

// Set stores v under key. Setting an existing key replaces its value in
// place.
func (a *Assoc) Set(key string, v Value) *Assoc {
	if a.values == nil {
		a.values = make(map[string]Value)
	}
	if _, ok := a.values[key]; !ok {
		a.keys = append(a.keys, key)
	}
	a.values[key] = v
	return a
}

// SetString is Set with a Scalar value.
func (a *Assoc) SetString(key, s string) *Assoc {
	return a.Set(key, Scalar(s))
}

// Get returns the value stored under key.
func (a *Assoc) Get(key string) (Value, bool) {
	if a == nil {
		return nil, false
	}
	v, ok := a.values[key]
	return v, ok
}

// Has reports whether key is present.
func (a *Assoc) Has(key string) bool {
	_, ok := a.Get(key)
	return ok
}

// Text returns the text of a Scalar entry, or "" if the key is missing or
// holds a container.
func (a *Assoc) Text(key string) string {
	v, _ := a.Get(key)
	if s, ok := v.(Scalar); ok {
		return string(s)
	}
	return ""
}

// Keys returns the keys in insertion order.
func (a *Assoc) Keys() []string {
	if a == nil {
		return nil
	}
	out := make([]string, len(a.keys))
	copy(out, a.keys)
	return out
}

// Len returns the number of keys.
func (a *Assoc) Len() int {
	if a == nil {
		return 0
	}
	return len(a.keys)
}

// Each calls fn for every entry in insertion order until fn returns false.
func (a *Assoc) Each(fn func(key string, v Value) bool) {
	if a == nil {
		return
	}
	for _, k := range a.keys {
		if !fn(k, a.values[k]) {
			return
		}
	}
}

// Path follows a chain of Assoc keys from v. It returns false as soon as a
// key is missing or a non-Assoc node is reached.
func Path(v Value, keys ...string) (Value, bool) {
	cur := v
	for _, k := range keys {
		a, ok := cur.(*Assoc)
		if !ok {
			return nil, false
		}
		if cur, ok = a.Get(k); !ok {
			return nil, false
		}
	}
	return cur, cur != nil
}

// Equal reports whether two trees have the same shape, keys, order and text.
func Equal(a, b Value) bool {
	switch x := a.(type) {
	case nil:
		return b == nil
	case Scalar:
		y, ok := b.(Scalar)
		return ok && x == y
	case List:
		y, ok := b.(List)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case *Assoc:
		y, ok := b.(*Assoc)
		if !ok || x.Len() != y.Len() {
			return false
		}
		if x == nil || y == nil {
			return true
		}
		for i, k := range x.keys {
			if y.keys[i] != k || !Equal(x.values[k], y.values[k]) {
				return false
			}
		}
		return true
	}
	return false
}

// Describe renders a compact, single-line form of v for logs and test
// failure messages.
func Describe(v Value) string {
	var b strings.Builder
	describe(&b, v)
	return b.String()
}

func describe(b *strings.Builder, v Value) {
	switch x := v.(type) {
	case nil:
		b.WriteString("null")
	case Scalar:
		b.WriteByte('"')
		b.WriteString(string(x))
		b.WriteByte('"')
	case List:
		b.WriteByte('[')
		for i, e := range x {
			if i > 0 {
				b.WriteByte(',')
			}
			describe(b, e)
		}
		b.WriteByte(']')
	case *Assoc:
		if x == nil {
			b.WriteString("{}")
			return
		}
		b.WriteByte('{')
		for i, k := range x.keys {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(k)
			b.WriteByte(':')
			describe(b, x.values[k])
		}
		b.WriteByte('}')
	}
}
