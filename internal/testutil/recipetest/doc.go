// SPDX-License-Identifier: MPL-2.0

// Package recipetest builds buildpkg.lua recipes for tests.
//
// This package is separate from testutil so the recipe builder stays free of
// the scope and git helpers' dependencies.
//
// # Usage
//
//	import "github.com/buildpkg/buildpkg/internal/testutil/recipetest"
//
//	path := recipetest.New(
//	    recipetest.WithCallback("PACKAGE", `file_save("x", "y")`),
//	).Write(t, projectDir)
package recipetest
