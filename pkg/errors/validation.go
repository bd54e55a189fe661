package errors

import (
	"os"
	"strings"
	"unicode"
)

// ValidateSourcePath checks that path names a readable regular file.
// Returns NOT_FOUND when the file does not exist and INVALID_INPUT for
// directories, empty paths, or paths with control characters.
func ValidateSourcePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return New(ErrCodeInvalidInput, "source path cannot be empty")
	}
	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "source path contains control characters")
		}
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return New(ErrCodeNotFound, "source file %s does not exist", path)
	}
	if err != nil {
		return Wrap(ErrCodeIO, err, "stat %s", path)
	}
	if info.IsDir() {
		return New(ErrCodeInvalidInput, "%s is a directory", path)
	}
	return nil
}

// ValidateRadius rejects negative window radii.
func ValidateRadius(radius int) error {
	if radius < 0 {
		return New(ErrCodeInvalidInput, "radius must be >= 0, got %d", radius)
	}
	return nil
}
