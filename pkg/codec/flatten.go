package codec

import (
	"strconv"

	"github.com/sirosfoundation/go-opensrs/pkg/value"
)

// Flatten collapses the structural wrappers left by decoding.
//
//   - an empty Assoc becomes nil
//   - an Assoc with one key becomes its flattened payload; the key is dropped
//   - an Assoc with two or more keys keeps every key, values flattened
//   - a List keeps its length and order, elements flattened
//   - a Scalar is returned as is
//
// The single-key rule cannot tell a wrapper from a one-field payload. The
// registrar's response shapes depend on it, so it is applied unconditionally;
// use a Flattener with OnCollapse to see what gets dropped.
func Flatten(v value.Value) value.Value {
	return (&Flattener{}).Flatten(v)
}

// Flattener applies Flatten and reports each single-key collapse.
type Flattener struct {
	// OnCollapse, if set, is called with the path of the collapsed Assoc
	// and the key that was discarded.
	OnCollapse func(path []string, key string)
}

// Flatten applies the flattening rules to v.
func (f *Flattener) Flatten(v value.Value) value.Value {
	return f.flatten(v, nil)
}

func (f *Flattener) flatten(v value.Value, path []string) value.Value {
	switch x := v.(type) {
	case value.Scalar:
		return x
	case value.List:
		out := make(value.List, len(x))
		for i, e := range x {
			out[i] = f.flatten(e, append(path, strconv.Itoa(i)))
		}
		return out
	case *value.Assoc:
		switch x.Len() {
		case 0:
			return nil
		case 1:
			key := x.Keys()[0]
			if f.OnCollapse != nil {
				f.OnCollapse(append([]string(nil), path...), key)
			}
			inner, _ := x.Get(key)
			return f.flatten(inner, append(path, key))
		}
		out := value.NewAssoc()
		x.Each(func(key string, inner value.Value) bool {
			out.Set(key, f.flatten(inner, append(path, key)))
			return true
		})
		return out
	}
	return nil
}
