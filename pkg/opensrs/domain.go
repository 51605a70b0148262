package opensrs

import (
	"context"
	"strconv"

	"github.com/sirosfoundation/go-opensrs/pkg/codec"
	"github.com/sirosfoundation/go-opensrs/pkg/opserr"
	"github.com/sirosfoundation/go-opensrs/pkg/value"
)

// Domain actions
const (
	ActionGetDomainsContacts = "GET_DOMAINS_CONTACTS"
	ActionUpdateContacts     = "UPDATE_CONTACTS"
	ActionGetPrice           = "GET_PRICE"
	ActionLookup             = "LOOKUP"
	ActionSWRegister         = "SW_REGISTER"
)

// GetDomainsContacts fetches the contact sets of one or more domains. The
// domains are sent as domain_list in the given order.
func (c *Client) GetDomainsContacts(ctx context.Context, domains ...string) (*Response, error) {
	if len(domains) == 0 {
		return nil, opserr.InvalidArgument("GetDomainsContacts", "at least one domain is required")
	}

	list := make(value.List, 0, len(domains))
	for i, d := range domains {
		if d == "" {
			return nil, opserr.InvalidArgument("GetDomainsContacts", "empty domain name", "domain_list", strconv.Itoa(i))
		}
		list = append(list, value.Scalar(d))
	}

	attrs := value.NewAssoc(value.P("domain_list", list))
	return c.Do(ctx, codec.ObjectDomain, ActionGetDomainsContacts, attrs)
}

// Contact is one entry of a contact set, e.g. Type "owner" with fields
// first_name, last_name, email and so on.
type Contact struct {
	Type   string
	Fields *value.Assoc
}

// UpdateContactsRequest holds the parameters of UPDATE_CONTACTS.
type UpdateContactsRequest struct {
	Domain string

	// Optional pass-through parameters; empty values are not sent
	AffectDomains string
	ReportEmail   string
	Domains       []string

	// Types lists the contact types to update. Defaults to the types in
	// ContactSet, in order.
	Types      []string
	ContactSet []Contact
}

// UpdateContacts replaces contacts on a domain.
func (c *Client) UpdateContacts(ctx context.Context, req *UpdateContactsRequest) (*Response, error) {
	if req == nil {
		return nil, opserr.InvalidArgument("UpdateContacts", "request is required")
	}
	if req.Domain == "" {
		return nil, opserr.InvalidArgument("UpdateContacts", "domain is required")
	}
	if len(req.ContactSet) == 0 {
		return nil, opserr.InvalidArgument("UpdateContacts", "contact set is required")
	}

	attrs := value.NewAssoc(value.P("domain", value.Scalar(req.Domain)))
	if req.AffectDomains != "" {
		attrs.SetString("affect_domains", req.AffectDomains)
	}
	if req.ReportEmail != "" {
		attrs.SetString("report_email", req.ReportEmail)
	}
	if len(req.Domains) > 0 {
		attrs.Set("domains", scalarList(req.Domains))
	}

	types := req.Types
	if len(types) == 0 {
		for _, ct := range req.ContactSet {
			types = append(types, ct.Type)
		}
	}
	attrs.Set("types", scalarList(types))

	set := value.NewAssoc()
	for i, ct := range req.ContactSet {
		if ct.Type == "" {
			return nil, opserr.InvalidArgument("UpdateContacts", "contact type is required", "contact_set", strconv.Itoa(i))
		}
		fields := ct.Fields
		if fields == nil {
			fields = value.NewAssoc()
		}
		set.Set(ct.Type, fields)
	}
	attrs.Set("contact_set", set)

	return c.Do(ctx, codec.ObjectDomain, ActionUpdateContacts, attrs)
}

// GetPrice queries the price of a domain. params must contain domain and
// may carry period, reg_type and so on; keys are sent in their order.
func (c *Client) GetPrice(ctx context.Context, params *value.Assoc) (*Response, error) {
	if err := requireDomain("GetPrice", params); err != nil {
		return nil, err
	}
	return c.Do(ctx, codec.ObjectDomain, ActionGetPrice, params)
}

// Lookup checks whether a domain is available. params must contain domain.
func (c *Client) Lookup(ctx context.Context, params *value.Assoc) (*Response, error) {
	if err := requireDomain("Lookup", params); err != nil {
		return nil, err
	}
	return c.Do(ctx, codec.ObjectDomain, ActionLookup, params)
}

// SWRegister submits a domain registration or transfer order. params are
// passed through unchanged.
func (c *Client) SWRegister(ctx context.Context, params *value.Assoc) (*Response, error) {
	if params == nil {
		return nil, opserr.InvalidArgument("SWRegister", "params are required")
	}
	return c.Do(ctx, codec.ObjectDomain, ActionSWRegister, params)
}

func requireDomain(op string, params *value.Assoc) error {
	if params.Text("domain") == "" {
		return opserr.InvalidArgument(op, "domain is required")
	}
	return nil
}

func scalarList(ss []string) value.List {
	out := make(value.List, len(ss))
	for i, s := range ss {
		out[i] = value.Scalar(s)
	}
	return out
}
