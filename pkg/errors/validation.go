package errors

import (
	"math"
	"strings"
	"unicode"
)

// ValidateNodeName validates a node or port name coming from a document.
//
// Names are used as map keys and as "node.port" link endpoints, so the
// rules are conservative:
//   - No empty names
//   - No control characters
//   - No '.' (reserved as the node/port separator)
//   - Maximum length of 256 characters
func ValidateNodeName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidGraph, "name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidGraph, "name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidGraph, "name %q contains invalid control characters", name)
		}
	}

	if strings.Contains(name, ".") {
		return New(ErrCodeInvalidGraph, "name %q cannot contain '.'", name)
	}

	return nil
}

// ValidateSize validates node dimensions. Both extents must be finite and
// non-negative.
func ValidateSize(name string, width, height float64) error {
	for _, v := range []float64{width, height} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return New(ErrCodeInvalidGraph, "node %q: invalid size (%g, %g)", name, width, height)
		}
	}
	return nil
}

// ValidateFinite reports an error when a coordinate is NaN or infinite.
func ValidateFinite(name string, x, y float64) error {
	if math.IsNaN(x) || math.IsInf(x, 0) || math.IsNaN(y) || math.IsInf(y, 0) {
		return New(ErrCodeInvalidGraph, "node %q: non-finite location (%g, %g)", name, x, y)
	}
	return nil
}

// ValidatePath validates a relative file path for safety.
// It prevents path traversal and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
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

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}
