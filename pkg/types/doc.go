// SPDX-License-Identifier: MPL-2.0

// Package types holds small value types shared by the CLI and the build
// internals. It imports only the standard library.
package types
