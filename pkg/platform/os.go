// SPDX-License-Identifier: MPL-2.0

package platform

// GOOS values that change how buildpkg drives external tools.
const (
	// Darwin ships bsdtar, which lacks the GNU ownership flags.
	Darwin = "darwin"
	Linux  = "linux"
)
