package utils // package utils provides helpers for identity tokens and random references

import (
	"crypto/rand"  // secure random number generation
	"encoding/hex" // hex encoding of random bytes
	"time"         // time utilities for generating expirations

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens

	"github.com/iliyamo/community-reservations/internal/model"
)

// AccessToken represents a signed JWT access token along with its expiry.
// The Token field contains the JWT string sent in the Authorization header.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// NewAccessToken builds and signs an HS256 JWT for a community member.
// Token issuance belongs to the identity collaborator; this helper exists
// for local runs (cmd/devtoken) and tests.  The claims carry the subject
// (sub), role, display name and unit, plus exp and iat.
func NewAccessToken(secret string, who model.Identity, ttl time.Duration) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := jwt.MapClaims{
		"sub":  who.UserID,
		"role": who.Role,
		"name": who.Name,
		"unit": who.Unit,
		"exp":  exp.Unix(),
		"iat":  now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// RandomHex returns a hex‑encoded string generated from n bytes of
// cryptographically secure random data.  It is used to produce payment
// references.  If the random number generator fails, an error is returned.
func RandomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
