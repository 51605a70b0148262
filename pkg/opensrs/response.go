package opensrs

import (
	"strconv"
	"strings"

	"github.com/sirosfoundation/go-opensrs/pkg/value"
)

// Response is a flattened registrar reply.
type Response struct {
	// Success is true when the reply carries is_success=1
	Success bool
	// Code is response_code, 0 if absent or not numeric
	Code int
	// Text is response_text
	Text string
	// Attributes is the flattened attributes entry, nil if absent
	Attributes value.Value
	// Data is the whole flattened data block
	Data value.Value
}

func newResponse(data value.Value) *Response {
	r := &Response{Data: data}

	a, ok := data.(*value.Assoc)
	if !ok {
		return r
	}

	r.Success = strings.TrimSpace(a.Text("is_success")) == "1"
	r.Code, _ = strconv.Atoi(strings.TrimSpace(a.Text("response_code")))
	r.Text = a.Text("response_text")
	r.Attributes, _ = a.Get("attributes")

	return r
}

// Attr returns a Scalar attribute by key, or "" when the attributes are not
// an Assoc or the key is missing.
func (r *Response) Attr(key string) string {
	a, ok := r.Attributes.(*value.Assoc)
	if !ok {
		return ""
	}
	return a.Text(key)
}
