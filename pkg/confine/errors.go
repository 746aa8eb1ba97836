// SPDX-License-Identifier: MPL-2.0

package confine

import (
	"errors"
	"fmt"
)

var (
	// ErrPathTraversal is returned when a relative path still contains ".."
	// after lexical normalization.
	ErrPathTraversal = errors.New("path traversal attack detected")

	// ErrNotInTargetDir is returned when a joined path does not lie under its
	// base directory.
	ErrNotInTargetDir = errors.New("path not contained in target directory")

	// ErrInvalidPath is returned when an absolute path is malformed or missing.
	ErrInvalidPath = errors.New("invalid path")

	// ErrSymlink is returned when an entry about to be written already
	// exists as a symlink.
	ErrSymlink = errors.New("refusing to write through symlink")
)

// PathError records a confinement failure together with the offending input.
// Err is always one of the sentinels above.
type PathError struct {
	Op     string // "confine", "create" or "validate"
	Path   string // The caller-supplied path.
	Reason string // Optional detail, e.g. "must be absolute".
	Err    error
}

// Error implements the error interface.
func (e *PathError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s %q: %v: %s", e.Op, e.Path, e.Err, e.Reason)
	}
	return fmt.Sprintf("%s %q: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the sentinel so callers can use errors.Is.
func (e *PathError) Unwrap() error { return e.Err }

// IsTraversal reports whether err is a traversal attempt rather than an
// ordinary missing-path condition.
func IsTraversal(err error) bool {
	return errors.Is(err, ErrPathTraversal) || errors.Is(err, ErrNotInTargetDir) || errors.Is(err, ErrSymlink)
}
