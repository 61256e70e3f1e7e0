package errors

import (
	"strings"
	"unicode"
)

// Transparent is the background fill value meaning "no fill".
const Transparent = "transparent"

// ValidateColor validates a background fill value.
// Accepted forms are "transparent" and CSS-style hex colors: #RGB, #RGBA,
// #RRGGBB and #RRGGBBAA (the leading '#' is required).
func ValidateColor(c string) error {
	if c == Transparent {
		return nil
	}
	if !strings.HasPrefix(c, "#") {
		return New(ErrCodeInvalidColor, "color must be %q or a #hex value: %q", Transparent, c)
	}
	hex := c[1:]
	switch len(hex) {
	case 3, 4, 6, 8:
	default:
		return New(ErrCodeInvalidColor, "invalid hex color length: %q", c)
	}
	for _, r := range hex {
		if !unicode.Is(unicode.ASCII_Hex_Digit, r) {
			return New(ErrCodeInvalidColor, "invalid hex digit in color: %q", c)
		}
	}
	return nil
}

// ValidateDocumentName validates a user-assigned document name.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - Maximum length of 128 characters
func ValidateDocumentName(name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidInput, "document name cannot be empty")
	}
	if len(name) > 128 {
		return New(ErrCodeInvalidInput, "document name too long (max 128 characters)")
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "document name contains invalid control characters")
		}
	}
	return nil
}

// SanitizeFilename turns a document name into a safe file name component.
// Path separators, control characters and traversal sequences are replaced
// with underscores. The result is never empty unless name is.
func SanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r == '/' || r == '\\' || r == ':' || r == '\x00':
			b.WriteRune('_')
		case unicode.IsControl(r):
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	out := strings.ReplaceAll(b.String(), "..", "_")
	return strings.TrimSpace(out)
}
