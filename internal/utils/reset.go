package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"time"
)

// ResetToken is a freshly generated password reset secret. Plain is
// handed to the user exactly once (inside the emailed URL); only Hash
// and ExpiresAt are persisted on the user row.
type ResetToken struct {
	Plain     string
	Hash      string
	ExpiresAt time.Time
}

// NewResetToken returns a cryptographically random reset token with
// the given validity window.
func NewResetToken(ttl time.Duration) (ResetToken, error) {
	raw, err := randomHex(32) // 32 bytes -> 64 hex chars
	if err != nil {
		return ResetToken{}, err
	}
	return ResetToken{
		Plain:     raw,
		Hash:      HashResetToken(raw),
		ExpiresAt: time.Now().UTC().Add(ttl),
	}, nil
}

// HashResetToken returns the SHA-256 hex digest of a plain reset
// token. Storing only the digest keeps a leaked database from
// yielding usable reset links.
func HashResetToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}

// MatchResetToken reports whether a presented plain token matches the
// stored hash and the stored expiry has not passed.
func MatchResetToken(plain, storedHash string, expiresAt time.Time) bool {
	if storedHash == "" || time.Now().UTC().After(expiresAt) {
		return false
	}
	digest := HashResetToken(plain)
	return subtle.ConstantTimeCompare([]byte(digest), []byte(storedHash)) == 1
}

// randomHex returns a hex-encoded string from n bytes of secure
// random data.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
