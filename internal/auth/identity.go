package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"

	"lina-server/internal/domain"
)

// emailShape is a deliberately simple syntactic check: local part, one "@",
// and a domain containing at least one dot. Deliverability is not verified.
var emailShape = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// NormalizeEmail trims surrounding whitespace and lower-cases the address so
// that case and whitespace variants collapse to one account.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// DeriveIdentity validates and normalizes an email address and returns the
// stable identity key for it: "u_" plus the first 16 hex characters of the
// SHA-256 of the normalized address. The derivation is part of the public
// contract so that identity mapping is reproducible.
func DeriveIdentity(email string) (string, error) {
	normalized := NormalizeEmail(email)
	if !emailShape.MatchString(normalized) {
		return "", domain.ErrInvalidInput
	}
	sum := sha256.Sum256([]byte(normalized))
	return "u_" + hex.EncodeToString(sum[:])[:16], nil
}
