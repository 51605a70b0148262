// Copyright (c) 2024 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package opensrs is a client for the OpenSRS XCP registrar API.

Each call encodes its attributes into an OPS envelope, signs the exact bytes
with the reseller key, posts them and decodes the reply:

	client, err := opensrs.NewClient(&opensrs.Config{
	    APIURL:   "https://horizon.opensrs.net:55443",
	    Username: "reseller",
	    APIKey:   os.Getenv("OPENSRS_KEY"),
	})

	resp, err := client.Lookup(ctx, value.NewAssoc(
	    value.P("domain", value.Scalar("example.com")),
	))

# Replies

Replies are flattened before they are returned, so single-key wrappers
disappear. A LOOKUP reply whose attributes are {status: available} comes
back with Attributes equal to the Scalar "available".

A reply with is_success=0 is a normal Response with Success false. Errors
are returned only for invalid arguments (before any network access),
transport failures and undecodable replies; see package opserr.

# Events

Poll returns the queued events as a slice regardless of how many the
registrar sent, and Ack removes one by ID.
*/
package opensrs
