package webutil

import (
	"crypto/sha256"
	"encoding/hex"
)

// GenerateHash returns the hex SHA-256 digest of data.
func GenerateHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ETag returns a strong entity tag for data.
func ETag(data []byte) string {
	return `"` + GenerateHash(data) + `"`
}
