// SPDX-License-Identifier: MPL-2.0

// Package confine keeps recipe-supplied paths inside the two build roots.
//
// A recipe only ever names files relative to the source root or the package
// root. [Confine] normalizes such a path lexically, rejects anything that still
// climbs above its own root after normalization, joins it onto the base
// directory and re-checks containment on the joined result. [ValidateAbsolute]
// is the one deliberate exception: it accepts an absolute path anywhere on the
// system as long as it exists (symlink targets, unpack destinations).
//
// The capability scopes [Source] and [Package] bind a [BaseDir] to a role and
// return role-typed paths, so a function signature such as
//
//	func copyFile(src confine.SourcePath, dst confine.PackagePath) error
//
// states its access rights without reading its body.
package confine
