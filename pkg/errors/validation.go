package errors

import (
	"strings"
	"unicode"
)

// ValidateWorldID validates a world identifier used to address a source.
// It rejects ids that could be used for path traversal or query injection.
//
// The validation rules are intentionally conservative:
//   - No empty ids
//   - No control characters
//   - No path traversal sequences (.., //, etc.)
//   - Maximum length of 256 characters
func ValidateWorldID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "world id cannot be empty")
	}

	if len(id) > 256 {
		return New(ErrCodeInvalidInput, "world id too long (max 256 characters)")
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "world id contains invalid control characters")
		}
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"//",   // Double slash
		"\x00", // Null byte
		"\\",   // Backslash (Windows path)
		"$",    // Mongo operator prefix
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(id, pattern) {
			return New(ErrCodeInvalidInput, "world id contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// ValidateWorldFilename validates the name of a world file.
// Only .json, .toml, .yaml and .yml files are accepted.
func ValidateWorldFilename(filename string) error {
	if filename == "" {
		return New(ErrCodeInvalidPath, "world filename cannot be empty")
	}

	for _, r := range filename {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "world filename contains invalid characters")
		}
	}

	lower := strings.ToLower(filename)
	for _, ext := range []string{".json", ".toml", ".yaml", ".yml"} {
		if strings.HasSuffix(lower, ext) {
			return nil
		}
	}
	return New(ErrCodeInvalidFormat, "unsupported world file %q (want .json, .toml, .yaml or .yml)", filename)
}
