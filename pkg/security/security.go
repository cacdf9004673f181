// Package security provides validation, sanitization, and limits for the handlerwrap package.
package security

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/jdziat/handlerwrap/pkg/core"
)

// Security limits and configuration
const (
	// MaxUnitNameLength is the maximum length for registered unit names
	MaxUnitNameLength = 255

	// MaxPayloadSize is the maximum size in bytes for textual inputs (6MB,
	// the synchronous payload limit of common function platforms)
	MaxPayloadSize = 6 << 20

	// MaxErrorMessageLength is the maximum length for stored error messages
	MaxErrorMessageLength = 4096

	// MaxListLimit caps journal listings
	MaxListLimit = 1000

	// DefaultListLimit is the listing size used when none is given
	DefaultListLimit = 100
)

// validUnitName matches identifiers, optionally qualified with dots, slashes or hyphens
var validUnitName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_\-\./]*$`)

// ValidateUnitName validates a unit name before registration
func ValidateUnitName(name string) error {
	if name == "" {
		return core.ErrInvalidUnitName
	}
	if len(name) > MaxUnitNameLength {
		return core.ErrUnitNameTooLong
	}
	if strings.Contains(name, core.IdentifierDelimiter) {
		return core.ErrInvalidUnitName
	}
	if !validUnitName.MatchString(name) {
		return core.ErrInvalidUnitName
	}
	return nil
}

// ValidatePayloadSize rejects textual payloads above MaxPayloadSize
func ValidatePayloadSize(n int) error {
	if n > MaxPayloadSize {
		return core.ErrPayloadTooLarge
	}
	return nil
}

// SanitizeErrorMessage truncates and sanitizes error messages for storage
func SanitizeErrorMessage(msg string) string {
	if msg == "" {
		return ""
	}

	// Remove any null bytes or control characters (except newlines)
	var sanitized strings.Builder
	sanitized.Grow(len(msg))

	for _, r := range msg {
		if r == '\n' || r == '\r' || r == '\t' || (r >= 32 && r != 127) {
			sanitized.WriteRune(r)
		}
	}

	result := sanitized.String()

	if utf8.RuneCountInString(result) > MaxErrorMessageLength {
		runes := []rune(result)
		result = string(runes[:MaxErrorMessageLength-3]) + "..."
	}

	return result
}

// ClampListLimit keeps journal listing sizes within [1, MaxListLimit]. A
// non-positive n asks for the default page, DefaultListLimit.
func ClampListLimit(n int) int {
	if n < 1 {
		return DefaultListLimit
	}
	if n > MaxListLimit {
		return MaxListLimit
	}
	return n
}
