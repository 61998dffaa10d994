package internal

import (
	"strings"
	"unicode"
)

// SanitizeString strips control characters from user-controlled input before
// it is echoed into log lines, preventing log forging.
func SanitizeString(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

// SanitizeByteArray is SanitizeString for raw payloads.
func SanitizeByteArray(b []byte) string {
	return SanitizeString(string(b))
}
