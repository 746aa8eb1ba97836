// SPDX-License-Identifier: MPL-2.0

package confine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// RoleSource is the read/write scratch space for fetched sources.
	RoleSource Role = iota + 1
	// RolePackage is the staging tree that becomes the package.
	RolePackage
)

// ErrInvalidBaseDir is returned when a base directory cannot be prepared.
var ErrInvalidBaseDir = errors.New("invalid base directory")

type (
	// Role names what a base directory is used for.
	Role int

	// BaseDir is an absolute, existing directory with an assigned role.
	BaseDir struct {
		path string
		role Role
	}

	// Source is the capability to address files under the source root.
	Source struct{ dir BaseDir }

	// Package is the capability to address files under the package root.
	Package struct{ dir BaseDir }

	// SourcePath is an absolute path confined to the source root.
	SourcePath string

	// PackagePath is an absolute path confined to the package root.
	PackagePath string

	// AbsolutePath is an absolute path that existed when it was validated.
	AbsolutePath string
)

// String returns the role name.
func (r Role) String() string {
	switch r {
	case RoleSource:
		return "source"
	case RolePackage:
		return "package"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// NewBaseDir makes path absolute, creates it if needed and returns it bound
// to role. Symlinks in path are resolved so containment checks compare the
// same spelling the kernel will use.
func NewBaseDir(path string, role Role) (BaseDir, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return BaseDir{}, fmt.Errorf("%w: %w", ErrInvalidBaseDir, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return BaseDir{}, fmt.Errorf("%w: %w", ErrInvalidBaseDir, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return BaseDir{}, fmt.Errorf("%w: %w", ErrInvalidBaseDir, err)
	}
	return BaseDir{path: resolved, role: role}, nil
}

// Path returns the absolute directory path.
func (b BaseDir) Path() string { return b.path }

// Role returns the directory's role.
func (b BaseDir) Role() Role { return b.role }

// NewSource wraps dir as the source capability.
func NewSource(dir BaseDir) Source { return Source{dir: dir} }

// NewPackage wraps dir as the package capability.
func NewPackage(dir BaseDir) Package { return Package{dir: dir} }

// Root returns the source root directory.
func (s Source) Root() string { return s.dir.path }

// Resolve confines relative to the source root.
func (s Source) Resolve(relative string) (SourcePath, error) {
	p, err := Confine(s.dir.path, relative)
	if err != nil {
		return "", err
	}
	return SourcePath(p), nil
}

// ResolveEntry resolves relative with symlinked parents kept inside the
// source root. See the package-level ResolveEntry.
func (s Source) ResolveEntry(relative string) (SourcePath, error) {
	return scoped[SourcePath](ResolveEntry, s.dir.path, relative)
}

// ResolveCreate resolves a source path that is about to be written.
func (s Source) ResolveCreate(relative string) (SourcePath, error) {
	return scoped[SourcePath](ResolveCreate, s.dir.path, relative)
}

// ResolveFollow resolves a source path whose contents are read.
func (s Source) ResolveFollow(relative string) (SourcePath, error) {
	return scoped[SourcePath](ResolveFollow, s.dir.path, relative)
}

// Root returns the package root directory.
func (p Package) Root() string { return p.dir.path }

// Resolve confines relative to the package root.
func (p Package) Resolve(relative string) (PackagePath, error) {
	resolved, err := Confine(p.dir.path, relative)
	if err != nil {
		return "", err
	}
	return PackagePath(resolved), nil
}

// String returns the path.
func (p SourcePath) String() string { return string(p) }

// String returns the path.
func (p PackagePath) String() string { return string(p) }

// String returns the path.
func (p AbsolutePath) String() string { return string(p) }

// ResolveEntry resolves relative with symlinked parents kept inside the
// package root.
func (p Package) ResolveEntry(relative string) (PackagePath, error) {
	return scoped[PackagePath](ResolveEntry, p.dir.path, relative)
}

// ResolveCreate resolves a package path that is about to be written.
func (p Package) ResolveCreate(relative string) (PackagePath, error) {
	return scoped[PackagePath](ResolveCreate, p.dir.path, relative)
}

func scoped[P ~string](resolve func(root, relative string) (string, error), root, relative string) (P, error) {
	path, err := resolve(root, relative)
	if err != nil {
		return "", err
	}
	return P(path), nil
}
