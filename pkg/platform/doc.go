// SPDX-License-Identifier: MPL-2.0

// Package platform names the host the build runs on.
//
// Recipes declare supported architectures using the conventional toolchain
// names (x86_64, aarch64, ...) rather than Go's GOARCH values, so this package
// owns the translation between the two.
package platform
