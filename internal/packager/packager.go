// SPDX-License-Identifier: MPL-2.0

package packager

import (
	"context"
	"errors"
	"fmt"

	"github.com/buildpkg/buildpkg/internal/config"
)

// ErrArchive is the sentinel wrapped by every archiving failure.
var ErrArchive = errors.New("failed to create package archive")

type (
	// Archiver writes the contents of dir to the gzip-compressed tarball dest.
	Archiver interface {
		Archive(ctx context.Context, dir, dest string) error
	}

	// Error describes a failed archive run.
	Error struct {
		Archiver string
		Dest     string
		Detail   string // tool output, if any
		Err      error
	}
)

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s archiver: %s: %v", e.Archiver, e.Dest, e.Err)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Unwrap returns ErrArchive and the underlying cause.
func (e *Error) Unwrap() []error { return []error{ErrArchive, e.Err} }

// FileName returns the artifact name for a package build.
func FileName(name, version, arch string) string {
	return fmt.Sprintf("%s-%s-%s.tar.gz", name, version, arch)
}

// New returns the Archiver selected by kind.
func New(kind config.ArchiverKind) (Archiver, error) {
	switch kind {
	case config.ArchiverTar:
		return NewTarCommand(), nil
	case config.ArchiverBuiltin:
		return NewBuiltin(), nil
	default:
		return nil, kind.Validate()
	}
}
