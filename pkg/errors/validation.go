package errors

import (
	"strings"
	"unicode"
)

// ValidateIdentifier validates an external identifier (node name, voltage
// level id, substation id) read from untrusted input.
//
// The validation rules are intentionally conservative:
//   - No empty identifiers
//   - No control characters
//   - No leading or trailing whitespace
//   - Maximum length of 256 characters
func ValidateIdentifier(kind, id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "%s id cannot be empty", kind)
	}

	if len(id) > 256 {
		return New(ErrCodeInvalidInput, "%s id too long (max 256 characters)", kind)
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "%s id %q contains control characters", kind, id)
		}
	}

	if strings.TrimSpace(id) != id {
		return New(ErrCodeInvalidInput, "%s id %q has surrounding whitespace", kind, id)
	}

	return nil
}

// ValidatePath validates an output path given on the command line or in an
// API request.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	for _, part := range strings.Split(path, "/") {
		if part == ".." {
			return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
		}
	}

	return nil
}
