package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// GenerateKey generates a random opaque key with the given prefix.
// Format: prefix_randomhex
// Example: sess_a1b2c3d4e5f6...
func GenerateKey(prefix string) (string, error) {
	b := make([]byte, 32) // 64 char hex
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s_%s", prefix, hex.EncodeToString(b)), nil
}

// GenerateSessionID generates an admin session id: sess_xxx
func GenerateSessionID() (string, error) {
	return GenerateKey("sess")
}

// GenerateCartID generates a cart id: cart_xxx
func GenerateCartID() (string, error) {
	return GenerateKey("cart")
}
