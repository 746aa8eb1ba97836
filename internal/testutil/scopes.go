// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"path/filepath"
	"testing"

	"github.com/buildpkg/buildpkg/pkg/confine"
)

// Scopes is a temporary project with its source and package roots.
type Scopes struct {
	// Project is the directory containing src/ and pkg/, symlinks resolved.
	Project string
	Source  confine.Source
	Package confine.Package
}

// NewScopes creates <tmp>/src and <tmp>/pkg and returns their scopes.
func NewScopes(t testing.TB) Scopes {
	t.Helper()

	project := t.TempDir()
	srcDir, err := confine.NewBaseDir(filepath.Join(project, "src"), confine.RoleSource)
	if err != nil {
		t.Fatalf("failed to create source root: %v", err)
	}
	pkgDir, err := confine.NewBaseDir(filepath.Join(project, "pkg"), confine.RolePackage)
	if err != nil {
		t.Fatalf("failed to create package root: %v", err)
	}
	return Scopes{
		Project: filepath.Dir(srcDir.Path()),
		Source:  confine.NewSource(srcDir),
		Package: confine.NewPackage(pkgDir),
	}
}
