package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// CalculateContentSHA256 computes the SHA-256 hash of document content.
func CalculateContentSHA256(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
