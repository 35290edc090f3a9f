package service

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const confirmationKeyBytes = 32

// NewConfirmationKey returns a random, URL-safe, single-use verification key.
func NewConfirmationKey() (string, error) {
	buf := make([]byte, confirmationKeyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate confirmation key: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
