package usecase

import (
	"crypto/rand"
	"encoding/hex"
	"io"
	"strings"
)

const keyPrefix = "KIWIPAZARI-"

// generateKeyValue creates a new redemption key value:
// KIWIPAZARI-<16 uppercase hex chars>. Uniqueness is enforced by the
// unique index on api_keys.key_value.
func generateKeyValue() (string, error) {
	buf := make([]byte, 8)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", err
	}
	return keyPrefix + strings.ToUpper(hex.EncodeToString(buf)), nil
}

// generateSessionToken creates a 64-hex-char opaque admin session token.
func generateSessionToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
