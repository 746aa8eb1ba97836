// SPDX-License-Identifier: MPL-2.0

// Package lifecycle drives one package build from recipe evaluation to the
// final tarball.
//
// The stages run strictly in order:
//
//	load -> validate-metadata -> fetch-sources -> resolve-version ->
//	architecture-gate -> prepare -> package -> finalize
//
// The first failing stage ends the build. Nothing is rolled back: the source
// and package roots keep whatever the recipe wrote before the failure.
package lifecycle
