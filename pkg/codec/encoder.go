package codec

import (
	"strconv"

	"github.com/beevik/etree"
	"github.com/sirosfoundation/go-opensrs/pkg/opserr"
	"github.com/sirosfoundation/go-opensrs/pkg/value"
)

// Envelope constants
const (
	EnvelopeVersion = "0.9"
	Protocol        = "XCP"

	ObjectDomain = "DOMAIN"
	ObjectEvent  = "EVENT"
)

// Wire element and attribute names
const (
	tagEnvelope  = "OPS_envelope"
	tagHeader    = "header"
	tagVersion   = "version"
	tagBody      = "body"
	tagDataBlock = "data_block"
	tagAssoc     = "dt_assoc"
	tagArray     = "dt_array"
	tagItem      = "item"
	attrKey      = "key"

	doctype = `DOCTYPE OPS_envelope SYSTEM "ops.dtd"`
)

// Encode serializes a request into a complete OPS envelope.
//
// The attributes tree is validated before anything is written: a nil node or
// a cycle yields opserr.ErrInvalidArgument. A nil attributes pointer encodes
// as an empty dt_assoc. Output is deterministic, so the returned bytes are
// what must be signed and sent.
//
// Text is escaped but not otherwise preserved byte for byte: control
// characters and invalid UTF-8 are written as U+FFFD, and a carriage return
// is left unescaped, so the receiving parser reads it back as a newline.
func Encode(object, action string, attributes *value.Assoc) ([]byte, error) {
	if object == "" {
		return nil, opserr.InvalidArgument("encode", "object is required")
	}
	if action == "" {
		return nil, opserr.InvalidArgument("encode", "action is required")
	}
	if attributes == nil {
		attributes = value.NewAssoc()
	}

	return EncodeEnvelope(value.NewAssoc(
		value.P("protocol", value.Scalar(Protocol)),
		value.P("object", value.Scalar(object)),
		value.P("action", value.Scalar(action)),
		value.P("attributes", attributes),
	))
}

// EncodeEnvelope writes data as the dt_assoc of an envelope's data_block.
// Encode uses it for requests; it serves equally for building replies.
func EncodeEnvelope(data *value.Assoc) ([]byte, error) {
	if data == nil {
		data = value.NewAssoc()
	}
	if err := value.Validate(data); err != nil {
		return nil, err
	}

	doc, dataBlock := newEnvelope()
	writeAssoc(dataBlock, data)

	doc.Indent(2)
	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, opserr.Format("encode", "writing XML", err)
	}
	return out, nil
}

// newEnvelope builds the fixed skeleton down to an empty data_block.
func newEnvelope() (*etree.Document, *etree.Element) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)
	doc.CreateDirective(doctype)

	env := doc.CreateElement(tagEnvelope)
	env.CreateElement(tagHeader).CreateElement(tagVersion).SetText(EnvelopeVersion)
	dataBlock := env.CreateElement(tagBody).CreateElement(tagDataBlock)

	return doc, dataBlock
}

func writeValue(parent *etree.Element, v value.Value) {
	switch x := v.(type) {
	case value.Scalar:
		parent.SetText(string(x))
	case *value.Assoc:
		writeAssoc(parent, x)
	case value.List:
		writeList(parent, x)
	}
}

func writeAssoc(parent *etree.Element, a *value.Assoc) {
	wrapper := parent.CreateElement(tagAssoc)
	a.Each(func(key string, v value.Value) bool {
		item := wrapper.CreateElement(tagItem)
		item.CreateAttr(attrKey, key)
		writeValue(item, v)
		return true
	})
}

func writeList(parent *etree.Element, l value.List) {
	wrapper := parent.CreateElement(tagArray)
	for i, v := range l {
		item := wrapper.CreateElement(tagItem)
		item.CreateAttr(attrKey, strconv.Itoa(i))
		writeValue(item, v)
	}
}
