package account

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// randomString returns n hex characters from crypto/rand. n must be even.
func randomString(n int) (string, error) {
	b := make([]byte, n/2)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// randomUsername returns an 18-character temporary username.
func randomUsername() (string, error) {
	return randomString(18)
}

// randomSecret returns a 16-character throwaway password for accounts
// provisioned without a user-chosen one.
func randomSecret() (string, error) {
	return randomString(16)
}
