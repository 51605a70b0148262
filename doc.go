// Copyright (c) 2024 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package goopensrs is a Go client for the OpenSRS reseller APIs.

# Overview

The registrar (XCP) API takes signed OPS XML envelopes over HTTPS. This
module converts between Go values and that envelope, signs each request the
way the registrar expects and flattens replies into plain value trees. The
mail-admin API is plain JSON and is covered by a separate client.

# Package Structure

	github.com/sirosfoundation/go-opensrs/pkg/value     - Scalar, Assoc and List value model
	github.com/sirosfoundation/go-opensrs/pkg/codec     - OPS envelope encoder, decoder and flattener
	github.com/sirosfoundation/go-opensrs/pkg/signing   - X-Signature computation
	github.com/sirosfoundation/go-opensrs/pkg/transport - HTTPS transport with TLS 1.2/1.3
	github.com/sirosfoundation/go-opensrs/pkg/opensrs   - Registrar client (domains and events)
	github.com/sirosfoundation/go-opensrs/pkg/mail      - Mail-admin client
	github.com/sirosfoundation/go-opensrs/pkg/opserr    - Error kinds

# Quick Start

	import (
	    "github.com/sirosfoundation/go-opensrs/pkg/opensrs"
	    "github.com/sirosfoundation/go-opensrs/pkg/value"
	)

	client, err := opensrs.NewClient(&opensrs.Config{
	    APIURL:   "https://horizon.opensrs.net:55443",
	    Username: "reseller",
	    APIKey:   key,
	})

	resp, err := client.GetDomainsContacts(ctx, "example.com", "example.org")
	if err != nil {
	    return err
	}
	if !resp.Success {
	    log.Printf("registrar said %d %s", resp.Code, resp.Text)
	}

# Events

	events, err := client.Poll(ctx, 10)
	for _, ev := range events {
	    handle(ev)
	    client.Ack(ctx, ev.Text("event_id"))
	}

# Command Line

cmd/opensrsctl runs single operations from a YAML configuration file and
prints replies as JSON.
*/
package goopensrs
