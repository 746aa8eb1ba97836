// SPDX-License-Identifier: MPL-2.0

// Package issue turns build failures into diagnostics a recipe author can act on.
//
// ActionableError carries the failed operation, the resource involved and
// remediation hints. Each error may reference an Issue from the catalog, whose
// Markdown guidance the CLI renders in verbose mode.
package issue
