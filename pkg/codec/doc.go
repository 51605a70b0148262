// Copyright (c) 2024 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package codec converts between value trees and the OPS XML envelope used by
the OpenSRS XCP registrar API.

# Requests

Encode wraps the request attributes in the fixed envelope:

	<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
	<!DOCTYPE OPS_envelope SYSTEM "ops.dtd">
	<OPS_envelope>
	  <header>
	    <version>0.9</version>
	  </header>
	  <body>
	    <data_block>
	      <dt_assoc>
	        <item key="protocol">XCP</item>
	        <item key="object">DOMAIN</item>
	        <item key="action">LOOKUP</item>
	        <item key="attributes">
	          <dt_assoc>
	            <item key="domain">example.com</item>
	          </dt_assoc>
	        </item>
	      </dt_assoc>
	    </data_block>
	  </body>
	</OPS_envelope>

An *value.Assoc becomes a dt_assoc whose items follow insertion order; a
value.List becomes a dt_array keyed 0..n-1. The bytes returned by Encode are
the exact bytes to sign.

# Responses

Decode turns the data_block of a response back into a value tree, and
Flatten removes the wrapper levels:

	raw, err := codec.Decode(body)
	if err != nil {
	    return err // opserr.ErrFormat
	}
	resp := codec.Flatten(raw)

Flatten drops the key of every single-key dt_assoc. This matches the shapes
callers of the registrar API expect, at the price of losing the name of a
genuine one-field payload. Flattener.OnCollapse reports each such drop.

# References

  - OpenSRS XML API, XCP protocol: https://domains.opensrs.guide/docs/overview
*/
package codec
