package opensrs

import (
	"context"
	"sort"
	"strconv"

	"github.com/sirosfoundation/go-opensrs/pkg/codec"
	"github.com/sirosfoundation/go-opensrs/pkg/opserr"
	"github.com/sirosfoundation/go-opensrs/pkg/value"
)

// Event actions
const (
	ActionPoll = "POLL"
	ActionAck  = "ACK"
)

// Poll fetches up to limit queued events. A limit below 1 asks for one.
//
// The result is never nil: an empty queue, a failed poll and a reply with
// no events all yield an empty slice. A reply holding a single event
// without an enclosing array yields a one-element slice.
func (c *Client) Poll(ctx context.Context, limit int) ([]*value.Assoc, error) {
	if limit < 1 {
		limit = 1
	}

	attrs := value.NewAssoc(value.P("limit", value.Scalar(strconv.Itoa(limit))))
	resp, err := c.Do(ctx, codec.ObjectEvent, ActionPoll, attrs)
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return []*value.Assoc{}, nil
	}

	events, skipped := Events(resp.Attributes)
	if skipped > 0 {
		c.logger.Warn("poll reply held entries that are not events", "skipped", skipped)
	}
	return events, nil
}

// Ack acknowledges an event so it is removed from the queue.
func (c *Client) Ack(ctx context.Context, eventID string) (*Response, error) {
	if eventID == "" {
		return nil, opserr.InvalidArgument("Ack", "event ID is required")
	}

	attrs := value.NewAssoc(value.P("event_id", value.Scalar(eventID)))
	return c.Do(ctx, codec.ObjectEvent, ActionAck, attrs)
}

// Events extracts the event list from flattened POLL attributes. The second
// result counts entries that were dropped because they are not Assocs.
//
// Accepted shapes, after flattening:
//
//	{total: N, events: [ev, ...]}   a list of events
//	{total: 1, events: ev}          one event without an array
//	{total: N, events: {0: ev, ...}} events keyed by position
//	[ev, ...]                       attributes collapsed onto the list
//	ev                              attributes collapsed onto one event,
//	                                recognised by event_id or object
//	nil, "0", {total: 0}            no events
func Events(attributes value.Value) ([]*value.Assoc, int) {
	out := []*value.Assoc{}

	switch a := attributes.(type) {
	case value.List:
		return collectEvents(out, a)
	case *value.Assoc:
		ev, ok := a.Get("events")
		if !ok {
			if a.Has("event_id") || a.Has("object") {
				return append(out, a), 0
			}
			return out, 0
		}
		switch e := ev.(type) {
		case value.List:
			return collectEvents(out, e)
		case *value.Assoc:
			if list, ok := positional(e); ok {
				return collectEvents(out, list)
			}
			return append(out, e), 0
		case value.Scalar:
			if e != "" {
				return out, 1
			}
		}
	}
	return out, 0
}

func collectEvents(out []*value.Assoc, list value.List) ([]*value.Assoc, int) {
	skipped := 0
	for _, v := range list {
		if ev, ok := v.(*value.Assoc); ok {
			out = append(out, ev)
		} else {
			skipped++
		}
	}
	return out, skipped
}

// positional converts an Assoc whose keys are all integers into a List in
// key order.
func positional(a *value.Assoc) (value.List, bool) {
	type entry struct {
		idx int
		v   value.Value
	}

	entries := make([]entry, 0, a.Len())
	ok := true
	a.Each(func(key string, v value.Value) bool {
		n, err := strconv.Atoi(key)
		if err != nil {
			ok = false
			return false
		}
		entries = append(entries, entry{n, v})
		return true
	})
	if !ok || len(entries) == 0 {
		return nil, false
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].idx < entries[j].idx })
	list := make(value.List, len(entries))
	for i, e := range entries {
		list[i] = e.v
	}
	return list, true
}
