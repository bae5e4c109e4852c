package security

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewSessionID returns a 64-hex-char session id from 32 bytes of
// crypto/rand entropy. The id is an uninterpreted bearer key; it carries no
// claims and can only be resolved through the session store.
func NewSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("session id entropy: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// NewTokenValue returns a 64-hex-char credential token value: SHA-256 over a
// random UUID plus a coarse timestamp salt. The hash gives every token a
// fixed-length opaque representation regardless of its inputs.
func NewTokenValue() string {
	salt := time.Now().UTC().Truncate(time.Hour).Unix()
	sum := sha256.Sum256(fmt.Appendf(nil, "%s:%d", uuid.New().String(), salt))
	return hex.EncodeToString(sum[:])
}

// HashValue returns the hex SHA-256 of an opaque value, for storing or
// comparing without holding the raw value.
func HashValue(value string) string {
	h := sha256.Sum256([]byte(value))
	return hex.EncodeToString(h[:])
}

// ValueEqual compares two opaque values in constant time.
func ValueEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
