// SPDX-License-Identifier: MPL-2.0

// Package hostapi registers the Lua functions a recipe calls to touch the
// filesystem, the network and git.
//
// Every function is a method on Host, which holds the source and package
// scopes of one build. Paths handed in by the recipe go through those scopes
// before any I/O happens; confinement failures and I/O errors are raised as
// Lua errors so recipes can recover from them with pcall.
package hostapi
