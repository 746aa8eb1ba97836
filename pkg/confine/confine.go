// SPDX-License-Identifier: MPL-2.0

package confine

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Confine resolves relative against base and guarantees that the result lies
// lexically inside base.
//
// base must be an absolute, clean directory path. relative may carry a leading
// separator, which is stripped: "/usr/bin" and "usr/bin" resolve to the same
// place. The returned path is recomputed on every call and never touches the
// filesystem.
func Confine(base, relative string) (string, error) {
	cleaned := filepath.Clean(relative)

	if slices.Contains(strings.Split(filepath.ToSlash(cleaned), "/"), "..") {
		return "", &PathError{Op: "confine", Path: relative, Err: ErrPathTraversal}
	}

	cleaned = strings.TrimLeft(cleaned, string(filepath.Separator))
	joined := filepath.Join(base, cleaned)

	if !within(base, joined) {
		return "", &PathError{Op: "confine", Path: relative, Err: ErrNotInTargetDir}
	}

	return joined, nil
}

// ValidateAbsolute checks that path is absolute and exists. A dangling
// symlink counts as existing.
func ValidateAbsolute(path string) (AbsolutePath, error) {
	if !filepath.IsAbs(path) {
		return "", &PathError{Op: "validate", Path: path, Reason: "must be absolute", Err: ErrInvalidPath}
	}

	if _, err := os.Lstat(path); err != nil {
		return "", &PathError{Op: "validate", Path: path, Reason: "does not exist", Err: ErrInvalidPath}
	}

	return AbsolutePath(path), nil
}

// Within reports whether the absolute path target, after lexical cleaning,
// equals base or lies below it.
func Within(base, target string) bool {
	return within(base, filepath.Clean(target))
}

// within reports whether target equals base or lies below it. Comparing on a
// separator boundary keeps "/srv/pkg-evil" from passing as a child of "/srv/pkg".
func within(base, target string) bool {
	base = filepath.Clean(base)
	if target == base {
		return true
	}
	prefix := base
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(target, prefix)
}
