// SPDX-License-Identifier: MPL-2.0

// Package cmd implements the buildpkg command line.
//
// There is a single root command that takes a project directory (or a recipe
// file), loads the configuration and hands the build to the lifecycle
// orchestrator. Failures are printed once, with suggestions, and turned into
// exit status 1.
package cmd
