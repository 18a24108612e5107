package errors

import (
	"strings"
	"unicode"
)

// maxReferenceLength bounds component references (U1, R12, J_USB1, ...).
const maxReferenceLength = 64

// ValidateReference validates a component reference designator.
//
// The validation rules are intentionally conservative:
//   - No empty references
//   - No control characters or whitespace
//   - Maximum length of 64 characters
//
// Whether a reference names a passive part is decided by the classifier, not here.
func ValidateReference(ref string) error {
	if ref == "" {
		return New(ErrCodeInvalidBoard, "component reference cannot be empty")
	}

	if len(ref) > maxReferenceLength {
		return New(ErrCodeInvalidBoard, "component reference too long (max %d characters)", maxReferenceLength)
	}

	for _, r := range ref {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidBoard, "component reference %q contains whitespace or control characters", ref)
		}
	}

	return nil
}

// ValidateBoardName validates the display name of a board.
// Names end up in artifact titles and cache keys, never in file paths.
func ValidateBoardName(name string) error {
	if name == "" {
		return nil
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidBoard, "board name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidBoard, "board name contains invalid control characters")
		}
	}

	return nil
}

// ValidateOutputPath validates a path the CLI is about to write to.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
func ValidateOutputPath(path string) error {
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

	for _, part := range strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' }) {
		if part == ".." {
			return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
		}
	}

	return nil
}
