// SPDX-License-Identifier: MPL-2.0

package cmd

import "github.com/buildpkg/buildpkg/pkg/types"

// ExitError is returned from RunE to choose the process status. Err is
// what fang's error handler prints; nil means nothing more to say.
type ExitError struct {
	Code types.ExitCode
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return "build failed with exit code " + e.Code.String()
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// failure wraps err as a generic build failure.
func failure(err error) *ExitError {
	return &ExitError{Code: types.ExitFailure, Err: err}
}
