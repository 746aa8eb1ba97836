// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"errors"
	"fmt"
)

// ErrExtract is the sentinel wrapped by every extraction failure.
var ErrExtract = errors.New("archive extraction failed")

// Error describes an extraction failure. Entry is empty when the failure is
// not tied to a single archive member (open, codec setup, header read).
type Error struct {
	Archive string
	Entry   string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Entry != "" {
		return fmt.Sprintf("extract %s: entry %q: %v", e.Archive, e.Entry, e.Err)
	}
	return fmt.Sprintf("extract %s: %v", e.Archive, e.Err)
}

// Unwrap exposes both ErrExtract and the underlying cause to errors.Is/As.
func (e *Error) Unwrap() []error { return []error{ErrExtract, e.Err} }
