// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"strconv"
)

const (
	// ExitSuccess means the package was built and archived.
	ExitSuccess ExitCode = 0
	// ExitFailure covers every failed build. The diagnostic on stderr says
	// which stage failed.
	ExitFailure ExitCode = 1
)

// ErrInvalidExitCode is wrapped by OutOfRangeError.
var ErrInvalidExitCode = errors.New("invalid exit code")

type (
	// ExitCode is a process exit status. POSIX keeps the low 8 bits, so
	// only 0-255 survive the trip to the parent process.
	ExitCode int

	// OutOfRangeError reports an ExitCode outside 0-255.
	OutOfRangeError struct {
		Value ExitCode
	}
)

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("exit code %d out of range 0-255", e.Value)
}

func (e *OutOfRangeError) Unwrap() error { return ErrInvalidExitCode }

// Validate rejects codes the OS would truncate.
func (c ExitCode) Validate() error {
	if c < 0 || c > 255 {
		return &OutOfRangeError{Value: c}
	}
	return nil
}

// OrFailure returns c when it is a usable non-zero status and ExitFailure
// otherwise. A failed command must never exit 0.
func (c ExitCode) OrFailure() ExitCode {
	if c == ExitSuccess || c.Validate() != nil {
		return ExitFailure
	}
	return c
}

func (c ExitCode) String() string { return strconv.Itoa(int(c)) }
