// SPDX-License-Identifier: MPL-2.0

package confine

import (
	"io/fs"
	"os"
	"path/filepath"

	securejoin "github.com/cyphar/filepath-securejoin"
)

// ResolveEntry confines relative to root and then resolves every symlink in
// its parent directories as if root were "/", so an absolute or climbing
// link already on disk cannot lead the result out of root. The final
// component is left as is: it may itself be a symlink.
//
// root must be a clean absolute path with no symlinks in it.
func ResolveEntry(root, relative string) (string, error) {
	lexical, err := Confine(root, relative)
	if err != nil {
		return "", err
	}
	if lexical == root {
		return root, nil
	}

	relParent, err := filepath.Rel(root, filepath.Dir(lexical))
	if err != nil {
		return "", &PathError{Op: "confine", Path: relative, Reason: err.Error(), Err: ErrNotInTargetDir}
	}
	parent, err := securejoin.SecureJoin(root, relParent)
	if err != nil {
		return "", &PathError{Op: "confine", Path: relative, Reason: err.Error(), Err: ErrNotInTargetDir}
	}
	return filepath.Join(parent, filepath.Base(lexical)), nil
}

// ResolveCreate is ResolveEntry for a path that is about to be written. An
// existing symlink at the final component is refused.
func ResolveCreate(root, relative string) (string, error) {
	path, err := ResolveEntry(root, relative)
	if err != nil {
		return "", err
	}
	if err := CheckCreate(path); err != nil {
		return "", &PathError{Op: "create", Path: relative, Err: ErrSymlink}
	}
	return path, nil
}

// ResolveFollow confines relative to root and resolves every symlink in it,
// the final component included, scoped to root. Use it for paths whose
// contents are read.
func ResolveFollow(root, relative string) (string, error) {
	lexical, err := Confine(root, relative)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(root, lexical)
	if err != nil {
		return "", &PathError{Op: "confine", Path: relative, Reason: err.Error(), Err: ErrNotInTargetDir}
	}
	resolved, err := securejoin.SecureJoin(root, rel)
	if err != nil {
		return "", &PathError{Op: "confine", Path: relative, Reason: err.Error(), Err: ErrNotInTargetDir}
	}
	return resolved, nil
}

// CheckCreate fails when path exists and is a symlink. A missing path is
// fine.
func CheckCreate(path string) error {
	info, err := os.Lstat(path)
	if err != nil || info.Mode()&fs.ModeSymlink == 0 {
		return nil
	}
	return &PathError{Op: "create", Path: path, Err: ErrSymlink}
}

// ResolvesWithin reports whether the absolute path abs stays inside root
// once symlinks are followed. Components that do not exist yet are taken
// literally. root must contain no symlinks.
func ResolvesWithin(root, abs string) bool {
	abs = filepath.Clean(abs)
	if !within(root, abs) {
		return false
	}

	existing, rest := abs, ""
	for {
		if _, err := os.Lstat(existing); err == nil {
			break
		}
		parent := filepath.Dir(existing)
		if parent == existing {
			return false
		}
		rest = filepath.Join(filepath.Base(existing), rest)
		existing = parent
	}

	resolved, err := filepath.EvalSymlinks(existing)
	if err != nil {
		// A dangling symlink somewhere in the existing prefix.
		return false
	}
	return within(root, filepath.Join(resolved, rest))
}

// EntryWithin is ResolvesWithin for an entry that is itself removed or
// replaced rather than followed: only its parent directories are resolved.
func EntryWithin(root, abs string) bool {
	abs = filepath.Clean(abs)
	if abs == filepath.Clean(root) {
		return true
	}
	return within(root, abs) && ResolvesWithin(root, filepath.Dir(abs))
}
