package models

import "github.com/golang-jwt/jwt/v5"

// Claims is the bearer token payload accepted by the API. Any issuer that
// publishes a JWKS works; only the subject is required.
type Claims struct {
	jwt.RegisteredClaims        // Standard JWT claims (sub, iss, aud, exp, iat, etc.)
	Email                string `json:"email,omitempty"`
	Name                 string `json:"name,omitempty"`
}

// GetUserID returns the user ID from the JWT subject claim.
func (c *Claims) GetUserID() string {
	return c.Subject
}
