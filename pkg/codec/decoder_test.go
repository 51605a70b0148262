package codec

import (
	"errors"
	"testing"

	"github.com/sirosfoundation/go-opensrs/pkg/opserr"
	"github.com/sirosfoundation/go-opensrs/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envelope(dataBlock string) []byte {
	return []byte(`<?xml version='1.0' encoding='UTF-8' standalone='no' ?>
<!DOCTYPE OPS_envelope SYSTEM 'ops.dtd'>
<OPS_envelope>
 <header>
  <version>0.9</version>
 </header>
 <body>
  <data_block>` + dataBlock + `</data_block>
 </body>
</OPS_envelope>`)
}

const lookupReply = `
   <dt_assoc>
    <item key="protocol">XCP</item>
    <item key="action">REPLY</item>
    <item key="object">DOMAIN</item>
    <item key="is_success">1</item>
    <item key="response_code">210</item>
    <item key="response_text">Domain available</item>
    <item key="attributes">
     <dt_assoc>
      <item key="status">available</item>
     </dt_assoc>
    </item>
   </dt_assoc>`

func TestDecode_LookupReply(t *testing.T) {
	raw, err := Decode(envelope(lookupReply))
	require.NoError(t, err)

	a, ok := raw.(*value.Assoc)
	require.True(t, ok)
	assert.Equal(t,
		[]string{"protocol", "action", "object", "is_success", "response_code", "response_text", "attributes"},
		a.Keys())
	assert.Equal(t, "1", a.Text("is_success"))

	status, ok := value.Path(raw, "attributes", "status")
	require.True(t, ok)
	assert.Equal(t, value.Scalar("available"), status)

	flat := Flatten(raw).(*value.Assoc)
	assert.Equal(t, "available", flat.Text("attributes"))
}

func TestDecode_ArrayOrderedByKey(t *testing.T) {
	raw, err := Decode(envelope(`
   <dt_assoc>
    <item key="list">
     <dt_array>
      <item key="2">c</item>
      <item key="0">a</item>
      <item key="1">b</item>
     </dt_array>
    </item>
   </dt_assoc>`))
	require.NoError(t, err)

	got, ok := value.Path(raw, "list")
	require.True(t, ok)
	assert.True(t, value.Equal(value.List{value.Scalar("a"), value.Scalar("b"), value.Scalar("c")}, got),
		"got %s", value.Describe(got))
}

func TestDecode_ArrayWithOddKeysIsPositional(t *testing.T) {
	raw, err := Decode(envelope(`
   <dt_assoc>
    <item key="sparse">
     <dt_array>
      <item key="10">x</item>
      <item key="20">y</item>
     </dt_array>
    </item>
    <item key="named">
     <dt_array>
      <item key="second">b</item>
      <item key="first">a</item>
      <item>c</item>
     </dt_array>
    </item>
   </dt_assoc>`))
	require.NoError(t, err)

	sparse, _ := value.Path(raw, "sparse")
	assert.True(t, value.Equal(value.List{value.Scalar("x"), value.Scalar("y")}, sparse))

	named, _ := value.Path(raw, "named")
	assert.True(t, value.Equal(value.List{value.Scalar("b"), value.Scalar("a"), value.Scalar("c")}, named),
		"got %s", value.Describe(named))
}

func TestDecode_EmptyContainers(t *testing.T) {
	raw, err := Decode(envelope(`
   <dt_assoc>
    <item key="events"><dt_array/></item>
    <item key="extra"><dt_assoc></dt_assoc></item>
    <item key="blank"></item>
   </dt_assoc>`))
	require.NoError(t, err)

	events, _ := value.Path(raw, "events")
	assert.Equal(t, value.List{}, events)

	extra, _ := value.Path(raw, "extra")
	assert.Equal(t, 0, extra.(*value.Assoc).Len())

	blank, _ := value.Path(raw, "blank")
	assert.Equal(t, value.Scalar(""), blank)

	flat := Flatten(raw).(*value.Assoc)
	flatEvents, _ := flat.Get("events")
	assert.Equal(t, value.List{}, flatEvents, "an empty array is not absent")
	flatExtra, _ := flat.Get("extra")
	assert.Nil(t, flatExtra)
}

func TestDecode_BareItemsMerge(t *testing.T) {
	raw, err := Decode(envelope(`
    <item key="a">1</item>
    <item key="b">2</item>
    <item key="a">3</item>`))
	require.NoError(t, err)

	want := value.NewAssoc(value.P("a", value.Scalar("3")), value.P("b", value.Scalar("2")))
	assert.True(t, value.Equal(want, raw), "got %s", value.Describe(raw))
}

func TestDecode_DuplicateKeysLaterWins(t *testing.T) {
	raw, err := Decode(envelope(`
   <dt_assoc>
    <item key="k">first</item>
    <item key="k"><dt_array><item key="0">second</item></dt_array></item>
   </dt_assoc>`))
	require.NoError(t, err)

	got, _ := value.Path(raw, "k")
	assert.True(t, value.Equal(value.List{value.Scalar("second")}, got))
}

func TestDecode_Entities(t *testing.T) {
	raw, err := Decode(envelope(`
   <dt_assoc>
    <item key="text">a &amp; b &lt;c&gt; &quot;d&quot;</item>
    <item key="cdata"><![CDATA[<raw>]]></item>
   </dt_assoc>`))
	require.NoError(t, err)

	a := raw.(*value.Assoc)
	assert.Equal(t, `a & b <c> "d"`, a.Text("text"))
	assert.Equal(t, `<raw>`, a.Text("cdata"))
}

func TestDecode_EmptyDataBlock(t *testing.T) {
	raw, err := Decode(envelope(``))
	require.NoError(t, err)
	assert.Nil(t, Flatten(raw))
}

func TestDecode_FormatErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty input", ``},
		{"not xml", `this is not xml`},
		{"unclosed", `<OPS_envelope><body><data_block>`},
		{"wrong root", `<envelope><body><data_block/></body></envelope>`},
		{"missing body", `<OPS_envelope><header/></OPS_envelope>`},
		{"missing data_block", `<OPS_envelope><body/></OPS_envelope>`},
		{"assoc item without key", string(envelope(`<dt_assoc><item>x</item></dt_assoc>`))},
		{"unknown wrapper", string(envelope(`<dt_assoc><item key="x"><dt_scalarref>y</dt_scalarref></item></dt_assoc>`))},
		{"stray element in assoc", string(envelope(`<dt_assoc><entry key="x">y</entry></dt_assoc>`))},
		{"stray element in array", string(envelope(`<dt_array><entry key="0">y</entry></dt_array>`))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.data))
			require.Error(t, err)
			assert.Nil(t, got)
			assert.True(t, errors.Is(err, opserr.ErrFormat), "got %v", err)
		})
	}
}

func TestDecode_FormatErrorHasPath(t *testing.T) {
	_, err := Decode(envelope(`
   <dt_assoc>
    <item key="attributes">
     <dt_assoc>
      <item key="contact_set"><bogus/></item>
     </dt_assoc>
    </item>
   </dt_assoc>`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "attributes.contact_set")
}

func TestDecode_DepthLimit(t *testing.T) {
	inner := "x"
	for i := 0; i < maxDepth+5; i++ {
		inner = `<dt_assoc><item key="n">` + inner + `</item></dt_assoc>`
	}
	_, err := Decode(envelope(inner))
	require.Error(t, err)
	assert.True(t, errors.Is(err, opserr.ErrFormat))
}
