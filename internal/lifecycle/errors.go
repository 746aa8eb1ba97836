// SPDX-License-Identifier: MPL-2.0

package lifecycle

import (
	"errors"
	"fmt"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

var (
	// ErrScript is the sentinel wrapped by ScriptError.
	ErrScript = errors.New("recipe script failed")

	// ErrUnsupportedArch is the sentinel wrapped by ArchError.
	ErrUnsupportedArch = errors.New("package not available for host architecture")
)

type (
	// ScriptError reports a recipe that failed to evaluate, or a lifecycle
	// callback that is missing or raised an error.
	ScriptError struct {
		Stage    Stage
		Callback string // empty while evaluating the recipe body
		Err      error
	}

	// ArchError reports a host architecture missing from INFO.arch.
	ArchError struct {
		Host     string
		Declared []string
	}
)

// Error implements the error interface. Lua errors are reported by their
// message only; the Lua stack trace stays reachable through Unwrap.
func (e *ScriptError) Error() string {
	msg := e.Err.Error()
	var apiErr *lua.ApiError
	if errors.As(e.Err, &apiErr) && apiErr.Object != nil {
		msg = apiErr.Object.String()
		if e.Callback != "" {
			msg = e.Callback + "(): " + msg
		}
	}
	return fmt.Sprintf("%v: %s", ErrScript, msg)
}

// Unwrap returns ErrScript and the underlying cause.
func (e *ScriptError) Unwrap() []error { return []error{ErrScript, e.Err} }

// Error implements the error interface.
func (e *ArchError) Error() string {
	return fmt.Sprintf("%v: host is %s, recipe supports [%s]", ErrUnsupportedArch, e.Host, strings.Join(e.Declared, ", "))
}

// Unwrap returns ErrUnsupportedArch.
func (e *ArchError) Unwrap() error { return ErrUnsupportedArch }
