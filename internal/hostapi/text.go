// SPDX-License-Identifier: MPL-2.0

package hostapi

import (
	"regexp"

	luajson "github.com/alicebob/gopher-json"
	lua "github.com/yuin/gopher-lua"
)

// maxCaptures is the number of groups regex_match always returns.
const maxCaptures = 4

// regex_match(text, pattern) returns capture groups 1..4, each a string or
// nil. An invalid pattern raises.
func regexMatch(L *lua.LState) int {
	text := L.CheckString(1)
	pattern := L.CheckString(2)

	re, err := regexp.Compile(pattern)
	if err != nil {
		raiseIOError(L, "regex error", err)
	}

	m := re.FindStringSubmatchIndex(text)
	for i := 1; i <= maxCaptures; i++ {
		if m == nil || 2*i+1 >= len(m) || m[2*i] < 0 {
			L.Push(lua.LNil)
			continue
		}
		L.Push(lua.LString(text[m[2*i]:m[2*i+1]]))
	}
	return maxCaptures
}

// json_decode(text) converts a JSON document to Lua values.
func jsonDecode(L *lua.LState) int {
	text := L.CheckString(1)

	v, err := luajson.Decode(L, []byte(text))
	if err != nil {
		raiseIOError(L, "json error", err)
	}
	L.Push(v)
	return 1
}
