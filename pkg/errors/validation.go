package errors

import (
	"strings"
)

// ValidatePackageName validates a package name for safety and correctness.
// Package names are used to build cache paths and template URLs, so the
// rules are intentionally conservative:
//   - No empty names
//   - Only ASCII letters, digits, '-', '_' and '.'
//   - No leading dot
//   - No path traversal sequences (..)
//   - Maximum length of 256 characters
func ValidatePackageName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidPackage, "package name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidPackage, "package name too long (max 256 characters)")
	}

	if name[0] == '.' {
		return New(ErrCodeInvalidPackage, "package name cannot start with a dot: %q", name)
	}

	for _, r := range name {
		if !isIdentRune(r) {
			return New(ErrCodeInvalidPackage, "package name contains invalid character %q", r)
		}
	}

	if strings.Contains(name, "..") {
		return New(ErrCodeInvalidPackage, "package name cannot contain path traversal sequences (..)")
	}

	return nil
}

// ValidateCategory validates a repository category name.
// Categories become path segments in template URLs and srcpkgs layouts, so
// they follow the same character rules as package names.
func ValidateCategory(category string) error {
	if category == "" {
		return New(ErrCodeInvalidCategory, "category cannot be empty")
	}

	if category[0] == '.' {
		return New(ErrCodeInvalidCategory, "category cannot start with a dot: %q", category)
	}

	for _, r := range category {
		if !isIdentRune(r) {
			return New(ErrCodeInvalidCategory, "category contains invalid character %q", r)
		}
	}

	if strings.Contains(category, "..") {
		return New(ErrCodeInvalidCategory, "category cannot contain path traversal sequences (..)")
	}

	return nil
}

// ValidateArch validates a machine architecture string (e.g., "x86_64",
// "aarch64", "x86_64-musl").
func ValidateArch(arch string) error {
	if arch == "" {
		return New(ErrCodeInvalidInput, "architecture cannot be empty")
	}

	for _, r := range arch {
		if !isIdentRune(r) && r != '-' {
			return New(ErrCodeInvalidInput, "architecture contains invalid character %q", r)
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

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}

func isIdentRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '-' || r == '_' || r == '.':
		return true
	}
	return false
}
