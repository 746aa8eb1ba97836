// SPDX-License-Identifier: MPL-2.0

package recipe

import lua "github.com/yuin/gopher-lua"

// Recipes reach the filesystem and other processes only through the
// registered host functions, which confine every path. The Lua libraries
// that would bypass them are not opened.
var openLibs = []struct {
	name string
	open lua.LGFunction
}{
	{lua.BaseLibName, lua.OpenBase},
	{lua.TabLibName, lua.OpenTable},
	{lua.StringLibName, lua.OpenString},
	{lua.MathLibName, lua.OpenMath},
	{lua.CoroutineLibName, lua.OpenCoroutine},
	{lua.OsLibName, lua.OpenOs},
}

var (
	// Base functions that read files or load modules from disk.
	removedGlobals = []string{"dofile", "loadfile", "require", "module"}

	// os functions that touch the filesystem, the process or its
	// environment. getenv, time, date, clock and difftime stay.
	removedOSFuncs = []string{"execute", "exit", "remove", "rename", "setenv", "setlocale", "tmpname"}
)

// newRecipeState returns a Lua state with the recipe standard library.
func newRecipeState() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, lib := range openLibs {
		L.Push(L.NewFunction(lib.open))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}

	for _, name := range removedGlobals {
		L.SetGlobal(name, lua.LNil)
	}
	if osLib, ok := L.GetGlobal(lua.OsLibName).(*lua.LTable); ok {
		for _, name := range removedOSFuncs {
			osLib.RawSetString(name, lua.LNil)
		}
	}
	return L
}
