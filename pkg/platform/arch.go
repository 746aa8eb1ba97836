// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"runtime"
	"sync"
)

// Architecture names as they appear in recipe arch lists and artifact names.
// Names do not encode endianness: both ppc64 variants are powerpc64 and
// both mips64 variants are mips64.
const (
	ArchX86_64      = "x86_64"
	ArchX86         = "x86"
	ArchAarch64     = "aarch64"
	ArchArm         = "arm"
	ArchRiscv64     = "riscv64"
	ArchPowerpc64   = "powerpc64"
	ArchS390x       = "s390x"
	ArchLoongarch64 = "loongarch64"
	ArchMips        = "mips"
	ArchMips64      = "mips64"
)

// goarchNames maps GOARCH values onto recipe architecture names. GOARCH values
// missing from the table are passed through unchanged.
var goarchNames = map[string]string{
	"amd64":    ArchX86_64,
	"386":      ArchX86,
	"arm64":    ArchAarch64,
	"arm":      ArchArm,
	"riscv64":  ArchRiscv64,
	"ppc64":    ArchPowerpc64,
	"ppc64le":  ArchPowerpc64,
	"s390x":    ArchS390x,
	"loong64":  ArchLoongarch64,
	"mips":     ArchMips,
	"mipsle":   ArchMips,
	"mips64":   ArchMips64,
	"mips64le": ArchMips64,
}

// hostArch is computed once; the running binary's architecture cannot change.
var hostArch = sync.OnceValue(func() string {
	return ArchFor(runtime.GOARCH)
})

// HostArch returns the recipe-facing name of the architecture this binary was
// built for.
func HostArch() string {
	return hostArch()
}

// ArchFor translates a GOARCH value into the recipe architecture name.
func ArchFor(goarch string) string {
	if name, ok := goarchNames[goarch]; ok {
		return name
	}
	return goarch
}

// Supports reports whether host appears in the declared architecture list.
// Matching is exact; recipes must use the names returned by [HostArch].
func Supports(declared []string, host string) bool {
	for _, arch := range declared {
		if arch == host {
			return true
		}
	}
	return false
}
