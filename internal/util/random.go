package util

import (
	"math/rand/v2"
	"strings"
)

// GenerateRandomID generates a random ID in the format "{prefix}{hex_string}".
func GenerateRandomID(prefix string, hexLength int) string {
	return prefix + GenerateRandomHex(hexLength)
}

// GenerateRandomHex generates a random hexadecimal string of the specified
// length. Not suitable for cryptographic purposes.
func GenerateRandomHex(length int) string {
	if length <= 0 {
		return ""
	}

	const hexChars = "0123456789abcdef"
	var builder strings.Builder
	builder.Grow(length)

	for i := 0; i < length; i++ {
		builder.WriteByte(hexChars[rand.IntN(16)])
	}

	return builder.String()
}

// GenerateSessionID generates a unique chat session ID with "s_" prefix.
func GenerateSessionID() string {
	return GenerateRandomID("s_", 32)
}
