package util

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SHA256Hex returns the hex-encoded SHA-256 digest of s.
func SHA256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// Fingerprint identifies extracted document text. Whitespace runs are
// collapsed first so the same contract extracted by different tiers, or with
// different line wrapping, maps to the same value.
func Fingerprint(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	return SHA256Hex(strings.Join(fields, " "))
}
