package codec

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/sirosfoundation/go-opensrs/pkg/opserr"
	"github.com/sirosfoundation/go-opensrs/pkg/value"
)

// maxDepth bounds wrapper nesting in responses.
const maxDepth = 128

// Decode parses a registrar response and returns the decoded content of its
// data_block.
//
// Container kind comes from the wrapper tag: dt_assoc yields an *Assoc,
// dt_array a List ordered by the items' integer keys. Item siblings with no
// wrapper are merged like dt_assoc children. When two items share a key the
// later one wins.
//
// Malformed XML or a document without OPS_envelope/body/data_block fails
// with opserr.ErrFormat.
func Decode(data []byte) (value.Value, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, opserr.Format("decode", "parsing XML", err)
	}

	root := doc.Root()
	if root == nil || root.Tag != tagEnvelope {
		return nil, opserr.Format("decode", "missing "+tagEnvelope+" root", nil)
	}
	body := root.SelectElement(tagBody)
	if body == nil {
		return nil, opserr.Format("decode", "missing "+tagEnvelope+"/"+tagBody, nil)
	}
	dataBlock := body.SelectElement(tagDataBlock)
	if dataBlock == nil {
		return nil, opserr.Format("decode", "missing "+tagEnvelope+"/"+tagBody+"/"+tagDataBlock, nil)
	}

	d := &decoder{}
	children := dataBlock.ChildElements()
	if len(children) == 0 {
		return value.NewAssoc(), nil
	}
	return d.content(dataBlock, children, 0)
}

type decoder struct {
	path []string
}

func (d *decoder) fail(format string, args ...any) error {
	detail := fmt.Sprintf(format, args...)
	if len(d.path) > 0 {
		detail = "at " + strings.Join(d.path, ".") + ": " + detail
	}
	return opserr.Format("decode", detail, nil)
}

// content decodes what sits inside an item or the data_block: a single
// wrapper, a run of bare items, or text.
func (d *decoder) content(el *etree.Element, children []*etree.Element, depth int) (value.Value, error) {
	if depth > maxDepth {
		return nil, d.fail("nesting deeper than %d", maxDepth)
	}

	if len(children) == 0 {
		return value.Scalar(text(el)), nil
	}

	if len(children) == 1 {
		switch children[0].Tag {
		case tagAssoc:
			return d.assoc(children[0].ChildElements(), depth+1)
		case tagArray:
			return d.array(children[0].ChildElements(), depth+1)
		}
	}

	for _, c := range children {
		if c.Tag != tagItem {
			return nil, d.fail("unexpected element <%s>", c.Tag)
		}
	}
	return d.assoc(children, depth+1)
}

func (d *decoder) item(el *etree.Element, depth int) (value.Value, error) {
	return d.content(el, el.ChildElements(), depth)
}

func (d *decoder) assoc(items []*etree.Element, depth int) (value.Value, error) {
	out := value.NewAssoc()
	for _, it := range items {
		if it.Tag != tagItem {
			return nil, d.fail("unexpected element <%s> in %s", it.Tag, tagAssoc)
		}
		key := it.SelectAttr(attrKey)
		if key == nil {
			return nil, d.fail("%s item without key", tagAssoc)
		}

		d.path = append(d.path, key.Value)
		v, err := d.item(it, depth)
		d.path = d.path[:len(d.path)-1]
		if err != nil {
			return nil, err
		}
		out.Set(key.Value, v)
	}
	return out, nil
}

type arrayEntry struct {
	index int
	value value.Value
}

// array decodes dt_array items into a List. Items are ordered by their
// integer keys; if any key is missing or not an integer the document order
// is kept for all of them.
func (d *decoder) array(items []*etree.Element, depth int) (value.Value, error) {
	entries := make([]arrayEntry, 0, len(items))
	sortable := true

	for pos, it := range items {
		if it.Tag != tagItem {
			return nil, d.fail("unexpected element <%s> in %s", it.Tag, tagArray)
		}

		idx := pos
		key := it.SelectAttrValue(attrKey, "")
		if n, err := strconv.Atoi(strings.TrimSpace(key)); err == nil {
			idx = n
		} else {
			sortable = false
		}

		d.path = append(d.path, strconv.Itoa(pos))
		v, err := d.item(it, depth)
		d.path = d.path[:len(d.path)-1]
		if err != nil {
			return nil, err
		}
		entries = append(entries, arrayEntry{index: idx, value: v})
	}

	if sortable {
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].index < entries[j].index
		})
	}

	out := make(value.List, len(entries))
	for i, e := range entries {
		out[i] = e.value
	}
	return out, nil
}

// text joins all character data directly under el.
func text(el *etree.Element) string {
	var b strings.Builder
	for _, tok := range el.Child {
		if cd, ok := tok.(*etree.CharData); ok {
			b.WriteString(cd.Data)
		}
	}
	return b.String()
}
