// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/buildpkg/buildpkg/cmd/buildpkg"

func main() {
	cmd.Execute()
}
