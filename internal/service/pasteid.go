package service

import (
	"crypto/rand"
	"math/big"
)

const (
	// PasteIDLength is the length of generated paste IDs.
	PasteIDLength = 6
	// maxIDAttempts bounds ID generation retries on collision.
	maxIDAttempts = 5

	pasteIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// GeneratePasteID returns a random paste ID drawn uniformly from A-Z0-9.
func GeneratePasteID() (string, error) {
	b := make([]byte, PasteIDLength)
	for i := range b {
		n, err := cryptoRandInt(len(pasteIDAlphabet))
		if err != nil {
			return "", err
		}
		b[i] = pasteIDAlphabet[n]
	}
	return string(b), nil
}

// cryptoRandInt returns a cryptographically secure random int in [0, max).
func cryptoRandInt(max int) (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		return 0, err
	}
	return int(n.Int64()), nil
}
