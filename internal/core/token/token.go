// Package token implements the compact token format used for guest
// identity. Tokens look like HS256 JWTs on the wire (three dot-separated
// base64url segments) but the third segment is the base64 encoding of a
// shared constant string rather than an HMAC over header and payload.
//
// SECURITY: these tokens carry no integrity guarantee. They identify a
// guest browser session for convenience only and MUST NOT be used as a
// trust boundary for authorization decisions. The format is kept as-is so
// sessions minted by earlier storefront builds keep decoding.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidKey indicates the placeholder signer was handed something
// other than byte-slice key material.
var ErrInvalidKey = errors.New("token: key must be []byte")

// placeholderMethod advertises HS256 in the token header but emits the
// key bytes verbatim as the "signature". Verify is a stub: decoding goes
// through ParseUnverified and never reaches it.
type placeholderMethod struct{}

func (placeholderMethod) Alg() string { return "HS256" }

func (placeholderMethod) Sign(signingString string, key any) ([]byte, error) {
	b, ok := key.([]byte)
	if !ok {
		return nil, ErrInvalidKey
	}
	return b, nil
}

func (placeholderMethod) Verify(signingString string, sig []byte, key any) error {
	return nil
}

// Codec encodes and decodes guest tokens against a fixed secret.
type Codec struct {
	secret []byte
	now    func() time.Time
}

// NewCodec creates a Codec using the given placeholder secret.
func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret), now: time.Now}
}

// Encode serializes the claims into the three-segment format.
// Deterministic for identical claims and secret.
func (c *Codec) Encode(claims jwt.MapClaims) (string, error) {
	return jwt.NewWithClaims(placeholderMethod{}, claims).SignedString(c.secret)
}

// Decode extracts the payload segment. It returns an error for any
// malformed input (wrong segment count, bad base64, bad JSON) and never
// panics. The signature segment is not checked; it cannot be.
func (c *Codec) Decode(raw string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// IsExpired reports whether the token can no longer be used. A token
// that fails to decode, or carries no exp claim, counts as expired.
func (c *Codec) IsExpired(raw string) bool {
	claims, err := c.Decode(raw)
	if err != nil {
		return true
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}
	return !c.now().Before(exp.Time)
}
