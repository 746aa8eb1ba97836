// SPDX-License-Identifier: MPL-2.0

// Package recipe owns the Lua state a build evaluates its recipe in.
//
// A Context is created per build. After the recipe file is evaluated the
// INFO table is decoded exactly once into Metadata, and lifecycle callbacks
// are looked up by name through the same Context rather than through ambient
// global state.
package recipe
