package usecase

import (
	"crypto/rand"
	"encoding/hex"
	"io"
	"strings"
)

// generatePassCode creates a secure random pass code: 32 uppercase hex
// characters from 128 random bits. The code is an opaque identifier, so the
// space only needs to make collisions and guessing negligible.
func generatePassCode() (string, error) {
	buf := make([]byte, 16)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(buf)), nil
}
