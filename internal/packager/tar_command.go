// SPDX-License-Identifier: MPL-2.0

package packager

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"runtime"
	"strings"

	"github.com/buildpkg/buildpkg/pkg/platform"
)

// TarCommand archives by running the system tar binary.
type TarCommand struct {
	// Path is the tar executable, looked up in PATH when not absolute.
	Path string
	// GOOS selects the flag dialect: bsdtar on darwin, GNU tar elsewhere.
	GOOS string
}

// NewTarCommand returns a TarCommand for the host's tar.
func NewTarCommand() *TarCommand {
	return &TarCommand{Path: "tar", GOOS: runtime.GOOS}
}

// Args returns the tar arguments that archive dir into dest.
func (t *TarCommand) Args(dir, dest string) []string {
	var owner []string
	if t.GOOS == platform.Darwin {
		owner = []string{"--uid=0", "--gid=0", "--uname=root", "--gname=root", "-p"}
	} else {
		owner = []string{"--owner=root", "--group=root", "--preserve-permissions"}
	}
	return append(owner, "-czf", dest, "-C", dir, ".")
}

// Archive implements Archiver.
func (t *TarCommand) Archive(ctx context.Context, dir, dest string) error {
	args := t.Args(dir, dest)
	slog.Debug("running tar", "path", t.Path, "args", strings.Join(args, " "))

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.Path, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return &Error{
			Archiver: "tar",
			Dest:     dest,
			Detail:   strings.TrimSpace(stderr.String()),
			Err:      err,
		}
	}
	return nil
}
