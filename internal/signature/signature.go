// Package signature validates inbound webhook payloads against the
// channel secret shared with the chat platform.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// Verifier checks webhook payload signatures. A Verifier built without a
// secret runs in permissive mode and accepts every payload; that mode
// exists for development deployments where no channel secret has been
// issued yet, and must never be used in production.
type Verifier struct {
	secret    []byte
	enforcing bool
}

// NewVerifier creates a Verifier for the given channel secret. An empty
// secret yields a permissive verifier.
func NewVerifier(secret string) *Verifier {
	return &Verifier{
		secret:    []byte(secret),
		enforcing: secret != "",
	}
}

// Enforcing reports whether signatures are actually checked.
func (v *Verifier) Enforcing() bool {
	return v.enforcing
}

// Verify reports whether providedSignature matches the HMAC-SHA256 of
// body under the channel secret. Always true in permissive mode.
// The comparison is over the encoded strings: lenient base64 decoding
// would let distinct signature strings alias the same digest via the
// unused padding bits, and the platform sends exactly one canonical
// encoding.
func (v *Verifier) Verify(body []byte, providedSignature string) bool {
	if !v.enforcing {
		return true
	}
	return hmac.Equal([]byte(v.Sign(body)), []byte(providedSignature))
}

// Sign computes the base64-encoded HMAC-SHA256 digest of body. Callers
// use it to sign outbound test payloads; the platform computes the same
// value on its side.
func (v *Verifier) Sign(body []byte) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
