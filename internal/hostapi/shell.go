// SPDX-License-Identifier: MPL-2.0

package hostapi

import (
	lua "github.com/yuin/gopher-lua"
)

// shell(script) runs script in the confined shell with the source root as
// working directory.
func (h *Host) runShell(L *lua.LState) int {
	script := L.CheckString(1)

	if err := h.shell.Run(contextOf(L), script); err != nil {
		raiseIOError(L, "shell error", err)
	}
	return 0
}
