// Package token mints and verifies the session tokens issued when the
// gateway runs standalone and is itself the identity authority. In proxy
// deployments the credential stays opaque and this package is not wired.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/streamloft/gateway/internal/faults"
)

// Claims carried by a session token.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

// Signer issues and verifies HS256 session tokens.
type Signer struct {
	secret []byte
	ttl    time.Duration

	// NowFunc lets tests pin the clock.
	NowFunc func() time.Time
}

// NewSigner constructs a signer. An empty secret is a configuration error.
func NewSigner(secret string, ttl time.Duration) (*Signer, error) {
	if secret == "" {
		return nil, errors.New("token: signing secret is required")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Signer{secret: []byte(secret), ttl: ttl}, nil
}

// Mint issues a session token for the given user id.
func (s *Signer) Mint(userID string) (string, error) {
	if userID == "" {
		return "", errors.New("token: user id is required")
	}

	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "streamloft-gateway",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		UserID: userID,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Verify checks a session token and returns the user id it was minted for.
// Any verification failure is classified InvalidToken so the resolver clears
// the cookie.
func (s *Signer) Verify(tokenString string) (string, error) {
	const op = "token.verify"

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, okMethod := t.Method.(*jwt.SigningMethodHMAC); !okMethod {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", faults.New(faults.InvalidToken, op, err)
	}
	if !parsed.Valid || claims.UserID == "" {
		return "", faults.New(faults.InvalidToken, op, errors.New("token claims are unusable"))
	}
	return claims.UserID, nil
}

func (s *Signer) now() time.Time {
	if s.NowFunc != nil {
		return s.NowFunc()
	}
	return time.Now().UTC()
}
