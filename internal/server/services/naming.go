// Package services implements the upload/download lifecycle: the upload
// coordinator, the share gate, the reconciliation engine and the cleanup
// engine. Durable state lives in the metadata store, payload bytes in the
// object store; services hold no state of their own.
package services

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
	"unicode"
)

// SanitizeFilename keeps only letters, digits, space, '.', '_' and '-',
// trims surrounding whitespace and falls back to "file" when nothing
// survives. Letters and digits from any script are kept.
func SanitizeFilename(name string) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return r
		case r == ' ', r == '.', r == '_', r == '-':
			return r
		default:
			return -1
		}
	}, name)

	clean = strings.TrimSpace(clean)
	if clean == "" {
		return "file"
	}
	return clean
}

// newObjectName builds a globally unique object key: a random hex prefix
// namespacing the upload session, joined to the sanitized display name.
func newObjectName(sanitized string) string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("crypto/rand failed: %v", err))
	}
	return hex.EncodeToString(b) + "_" + sanitized
}

// newShareToken returns a cryptographically random, URL-safe public token.
func newShareToken() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("crypto/rand failed: %v", err))
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

// hashPin digests the PIN with the process-wide salt. The salt is never
// stored per record.
func hashPin(pin, salt string) string {
	sum := sha256.Sum256([]byte(pin + salt))
	return hex.EncodeToString(sum[:])
}

// pinMatches compares a candidate PIN against a stored hash in constant time.
func pinMatches(pin, salt, storedHash string) bool {
	return subtle.ConstantTimeCompare([]byte(hashPin(pin, salt)), []byte(storedHash)) == 1
}

// prettyRemaining renders the time left until expiry for display:
// "2d 3h 10m", "Expired", or "<1m".
func prettyRemaining(expiry, now time.Time) string {
	delta := expiry.Sub(now)
	if delta <= 0 {
		return "Expired"
	}

	days := int(delta.Hours()) / 24
	hours := int(delta.Hours()) % 24
	mins := int(delta.Minutes()) % 60

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if mins > 0 {
		parts = append(parts, fmt.Sprintf("%dm", mins))
	}
	if len(parts) == 0 {
		return "<1m"
	}
	return strings.Join(parts, " ")
}
