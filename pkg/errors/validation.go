package errors

import (
	"strings"
	"unicode"
)

// ValidateArchivePath validates the name of an entry in a release archive.
// It prevents entries from being unpacked outside of the extraction
// directory.
//
// Validation rules:
//   - Path cannot be empty
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No ".." path components
//   - No drive letters or backslashes (Windows-style paths)
func ValidateArchivePath(path string) error {
	if path == "" {
		return New(ErrCodeUnpackFailed, "archive entry path cannot be empty")
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeUnpackFailed, "archive entry %q contains invalid characters", path)
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeUnpackFailed, "archive entry %q must be relative", path)
	}

	if strings.Contains(path, "\\") || (len(path) > 1 && path[1] == ':') {
		return New(ErrCodeUnpackFailed, "archive entry %q is not a portable path", path)
	}

	for _, part := range strings.Split(path, "/") {
		if part == ".." {
			return New(ErrCodeUnpackFailed, "archive entry %q escapes the extraction directory", path)
		}
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
