// Copyright (c) 2024 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package transport implements the HTTPS transport used by the registrar and
mail-admin clients.

Both clients depend only on the Transport interface, which posts a body with
headers and returns the response body. HTTPSClient is the production
implementation; Func adapts a plain function for tests.

# TLS Configuration

The package recommends TLS 1.3 with fallback to TLS 1.2:

	config := transport.DefaultHTTPSConfig()
	// MinTLSVersion: TLS 1.2
	// MaxTLSVersion: TLS 1.3

For TLS 1.2, the following cipher suites are recommended:
  - TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384
  - TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256
  - TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384
  - TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256

# Client Usage

	client := transport.NewHTTPSClient(&transport.HTTPSConfig{
	    Timeout:    30 * time.Second,
	    MaxRetries: 2,
	})

	reply, err := client.Send(ctx, "https://rr-n1-tor.opensrs.net:55443", body, header)

Content-Length is always set from the body. Any status outside 2xx is
returned as a *StatusError.

# Retries

MaxRetries is 0 by default: registration and update actions are not
idempotent. When enabled, network errors and 429/5xx answers are retried
with exponential backoff capped at MaxBackoff. Cancelling the context stops
the loop immediately.
*/
package transport
