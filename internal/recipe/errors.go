// SPDX-License-Identifier: MPL-2.0

package recipe

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMetadata is the sentinel wrapped by MetadataError.
	ErrMetadata = errors.New("invalid recipe metadata")

	// ErrCallbackMissing is returned when a mandatory callback is not defined.
	ErrCallbackMissing = errors.New("callback not defined")

	// ErrRecipeNotFound is returned when no recipe file exists at the
	// resolved location.
	ErrRecipeNotFound = errors.New("recipe not found")

	// ErrNotLoaded is returned when metadata or callbacks are requested
	// before Load succeeded.
	ErrNotLoaded = errors.New("recipe not loaded")
)

type (
	// FieldError describes one problem with one INFO field.
	FieldError struct {
		Field  string
		Reason string
	}

	// MetadataError collects every field-level problem found while decoding
	// INFO, plus violations of the version contract.
	MetadataError struct {
		FieldErrors []*FieldError
	}

	// CallbackError reports a callback that is absent or not a function.
	CallbackError struct {
		Name string
		Got  string // Lua type name of the global, "nil" when absent.
	}
)

// Error implements the error interface.
func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Error implements the error interface.
func (e *MetadataError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, fe := range e.FieldErrors {
		msgs[i] = fe.Error()
	}
	return fmt.Sprintf("%v: %s", ErrMetadata, strings.Join(msgs, "; "))
}

// Unwrap returns ErrMetadata so callers can use errors.Is.
func (e *MetadataError) Unwrap() error { return ErrMetadata }

// HasField reports whether field has at least one error.
func (e *MetadataError) HasField(field string) bool {
	for _, fe := range e.FieldErrors {
		if fe.Field == field {
			return true
		}
	}
	return false
}

// Error implements the error interface.
func (e *CallbackError) Error() string {
	if e.Got == "nil" {
		return fmt.Sprintf("%s(): %v", e.Name, ErrCallbackMissing)
	}
	return fmt.Sprintf("%s(): %v (global is a %s, not a function)", e.Name, ErrCallbackMissing, e.Got)
}

// Unwrap returns ErrCallbackMissing.
func (e *CallbackError) Unwrap() error { return ErrCallbackMissing }
