// Package identity verifies the tokens issued by the external identity provider
// and resolves the caller of each request.
package identity

import (
	"errors"
	"fmt"

	"github.com/AhmedHarera/HeartFailure/internal/config"
	"github.com/golang-jwt/jwt/v5"
)

// Claims are the fields read from an identity token. The user id is taken from
// user_id when present, otherwise from sub.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// ID returns the user id carried by the token.
func (c *Claims) ID() string {
	if c.UserID != "" {
		return c.UserID
	}
	return c.Subject
}

// Verifier validates HS256 identity tokens.
type Verifier struct {
	secretKey []byte
	issuer    string
}

// NewVerifier creates a Verifier from the auth config. With no secret configured
// every token is rejected.
func NewVerifier(cfg config.AuthConfig) *Verifier {
	return &Verifier{secretKey: []byte(cfg.JWTSecret), issuer: cfg.JWTIssuer}
}

// Verify parses tokenString and returns its claims.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	if len(v.secretKey) == 0 {
		return nil, errors.New("token verification is not configured")
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired()}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return v.secretKey, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.ID() == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}
