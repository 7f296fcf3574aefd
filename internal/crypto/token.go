package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

// NewVerificationToken returns a random opaque token. Only its digest is
// persisted; the raw value travels in the email link once.
func NewVerificationToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
