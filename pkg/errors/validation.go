package errors

import (
	"strings"
	"unicode"
)

// ValidateCredentials checks that a client id and secret are present.
// The id is checked first, matching the order the identity endpoint needs them.
func ValidateCredentials(clientID, clientSecret string) error {
	if strings.TrimSpace(clientID) == "" {
		return New(ErrCodeConfiguration, "missing client id")
	}
	if strings.TrimSpace(clientSecret) == "" {
		return New(ErrCodeConfiguration, "missing client secret")
	}
	return nil
}

// ValidateTokenPair checks that an access token and token type are either
// both set or both empty. A token without its type cannot form an
// Authorization header and vice versa.
func ValidateTokenPair(accessToken, tokenType string) error {
	if (accessToken == "") != (tokenType == "") {
		return New(ErrCodeInvalidTokenPair, "access token and token type must be set together")
	}
	return nil
}

// ValidateCityKey validates a city key before it is placed into a URL path.
//
// Validation rules:
//   - Key cannot be empty
//   - Maximum length of 64 characters
//   - No control characters
//   - No path separators, query or fragment markers, or traversal sequences
func ValidateCityKey(key string) error {
	if key == "" {
		return New(ErrCodeInvalidInput, "city key cannot be empty")
	}

	const maxKeyLength = 64
	if len(key) > maxKeyLength {
		return New(ErrCodeInvalidInput, "city key too long (max %d characters)", maxKeyLength)
	}

	for _, r := range key {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "city key contains invalid control characters")
		}
	}

	for _, pattern := range []string{"..", "/", "\\", "?", "#", "%"} {
		if strings.Contains(key, pattern) {
			return New(ErrCodeInvalidInput, "city key contains invalid characters: %q", pattern)
		}
	}

	return nil
}
