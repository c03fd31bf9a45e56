package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"lina-server/internal/domain"
)

const (
	tokenIssuer   = "lina-api"
	tokenAudience = "lina-clients"
)

// TokenClaims are the signed contents of an access token. The quota snapshot
// is advisory for clients; the ledger remains the source of truth on every
// request.
type TokenClaims struct {
	jwt.RegisteredClaims
	Plan               string `json:"plan"`
	Remaining          int    `json:"remaining"`
	SubscriptionExpiry int64  `json:"subscription_expiry,omitempty"`
}

// Identity returns the identity the token was issued for.
func (c *TokenClaims) Identity() string {
	return c.Subject
}

// Tokens signs and verifies access tokens with a shared HS256 secret.
type Tokens struct {
	secret []byte
	ttl    time.Duration
}

// NewTokens constructs a token signer/verifier. ttl bounds the token's own
// validity, independent of any subscription expiry inside it.
func NewTokens(secret string, ttl time.Duration) *Tokens {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Tokens{secret: []byte(secret), ttl: ttl}
}

// Issue signs a fresh token reflecting the record's current state at now.
func (t *Tokens) Issue(rec domain.UserRecord, now time.Time) (string, error) {
	claims := TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   rec.Identity,
			Issuer:    tokenIssuer,
			Audience:  jwt.ClaimStrings{tokenAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
		Plan:      string(rec.Plan(now)),
		Remaining: rec.Remaining(),
	}
	if !rec.SubscriptionExpiry.IsZero() {
		claims.SubscriptionExpiry = rec.SubscriptionExpiry.Unix()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Verify parses and validates a token string. Any failure, signature, expiry
// or shape, comes back as ErrUnauthenticated: no fallback identity is ever
// inferred from a bad token.
func (t *Tokens) Verify(raw string) (*TokenClaims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, domain.ErrUnauthenticated
	}
	parsed, err := jwt.ParseWithClaims(raw, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return t.secret, nil
	})
	if err != nil {
		return nil, domain.ErrUnauthenticated
	}
	claims, ok := parsed.Claims.(*TokenClaims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return nil, domain.ErrUnauthenticated
	}
	return claims, nil
}

// FromAuthorizationHeader extracts the bearer token from an Authorization
// header value. Missing or non-bearer headers yield ErrUnauthenticated.
func FromAuthorizationHeader(header string) (string, error) {
	if header == "" {
		return "", domain.ErrUnauthenticated
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", domain.ErrUnauthenticated
	}
	return strings.TrimSpace(parts[1]), nil
}
