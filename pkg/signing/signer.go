// Package signing computes the X-Signature header for registrar requests.
//
// The registrar authenticates a request by a two-round keyed digest over the
// exact request body:
//
//	pass1     = hex(md5(body + key))
//	signature = hex(md5(pass1 + key))
//
// MD5 and the concatenation order are fixed by the registrar; any deviation,
// or any byte difference in body, makes the request fail authentication.
package signing

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"

	"github.com/sirosfoundation/go-opensrs/pkg/opserr"
)

// Sign returns the hex signature of body under key. An empty key fails with
// opserr.ErrConfiguration.
func Sign(body []byte, key string) (string, error) {
	if key == "" {
		return "", opserr.Configuration("sign", "signing key is empty")
	}
	return sign(body, key), nil
}

func sign(body []byte, key string) string {
	h := md5.New()
	h.Write(body)
	h.Write([]byte(key))
	pass1 := hex.EncodeToString(h.Sum(nil))

	h.Reset()
	h.Write([]byte(pass1))
	h.Write([]byte(key))
	return hex.EncodeToString(h.Sum(nil))
}

// Verify reports whether signature matches body under key.
func Verify(body []byte, key, signature string) bool {
	if key == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(sign(body, key)), []byte(signature)) == 1
}

// Signer holds a key for repeated signing.
type Signer struct {
	key string
}

// NewSigner creates a Signer. An empty key fails with opserr.ErrConfiguration.
func NewSigner(key string) (*Signer, error) {
	if key == "" {
		return nil, opserr.Configuration("signing", "signing key is required")
	}
	return &Signer{key: key}, nil
}

// Sign returns the hex signature of body.
func (s *Signer) Sign(body []byte) string {
	return sign(body, s.key)
}

// Verify reports whether signature matches body.
func (s *Signer) Verify(body []byte, signature string) bool {
	return Verify(body, s.key, signature)
}
