package utils

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

// String length limits
const (
	MaxNameLength = 128
)

// NamePattern allows alphanumeric, dots, hyphens and underscores, so a name
// is always a single URL path segment.
var NamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// ValidateName checks an owner or basket name.
func ValidateName(field, value string) error {
	if value == "" {
		return fmt.Errorf("%s is required", field)
	}
	if !utf8.ValidString(value) {
		return fmt.Errorf("%s contains invalid UTF-8", field)
	}
	if len(value) > MaxNameLength {
		return fmt.Errorf("%s exceeds maximum length of %d", field, MaxNameLength)
	}
	if !NamePattern.MatchString(value) {
		return fmt.Errorf("%s contains invalid characters", field)
	}
	if value == "." || value == ".." {
		return fmt.Errorf("%s must not be a relative path segment", field)
	}
	return nil
}
