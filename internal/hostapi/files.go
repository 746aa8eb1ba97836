// SPDX-License-Identifier: MPL-2.0

package hostapi

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/buildpkg/buildpkg/internal/fetch"
	"github.com/buildpkg/buildpkg/pkg/archive"
	"github.com/buildpkg/buildpkg/pkg/confine"

	"github.com/u-root/u-root/pkg/core/cp"
	lua "github.com/yuin/gopher-lua"
)

// download(url, dest [, sha256]) fetches url into dest inside the source root.
func (h *Host) download(L *lua.LState) int {
	rawURL := L.CheckString(1)
	dest := h.createSource(L, L.CheckString(2))
	sum := L.OptString(3, "")

	if _, err := h.downloader.Download(contextOf(L), rawURL, dest, sum); err != nil {
		raiseIOError(L, "download error", err)
	}
	return 0
}

// file_load(path) returns the contents of a source file.
func (h *Host) fileLoad(L *lua.LState) int {
	path := h.readSource(L, L.CheckString(1))

	data, err := os.ReadFile(path)
	if err != nil {
		raiseIOError(L, "read error", err)
	}
	L.Push(lua.LString(data))
	return 1
}

// file_save(path, content) writes a source file, creating parents.
func (h *Host) fileSave(L *lua.LState) int {
	path := h.createSource(L, L.CheckString(1))
	content := L.CheckString(2)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		raiseIOError(L, "write error", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		raiseIOError(L, "write error", err)
	}
	return 0
}

// sha256sum_file(path) returns the lowercase hex digest of a source file.
func (h *Host) sha256File(L *lua.LState) int {
	path := h.readSource(L, L.CheckString(1))

	sum, err := fetch.FileSHA256(path)
	if err != nil {
		raiseIOError(L, "hash error", err)
	}
	L.Push(lua.LString(sum))
	return 1
}

// unpack_tarball(src, dest) extracts a source archive into an existing
// absolute directory.
func (h *Host) unpackArchive(L *lua.LState) int {
	src := h.readSource(L, L.CheckString(1))
	dest := validateAbsolute(L, L.CheckString(2))

	slog.Info("unpacking archive", "archive", src, "dest", dest)
	if err := archive.Extract(contextOf(L), src, dest); err != nil {
		raiseIOError(L, "unpack error", err)
	}
	return 0
}

// copy(src, dest) copies a source file or tree into the package root.
// Symlinks are copied as links, never followed, and nothing is written
// through a symlink already present under dest.
func (h *Host) copy(L *lua.LState) int {
	src := h.entrySource(L, L.CheckString(1))
	dest := h.createPackage(L, L.CheckString(2))

	opts := cp.NoFollowSymlinks
	opts.PreCallback = func(_, dst string, _ os.FileInfo) error {
		return confine.CheckCreate(dst)
	}

	info, err := os.Lstat(src)
	if err != nil {
		raiseIOError(L, "copy error", err)
	}

	switch {
	case info.IsDir():
		slog.Info("copying directory", "src", src, "dest", dest)
		err = opts.CopyTree(src, dest)
	case info.Mode().IsRegular() || info.Mode()&os.ModeSymlink != 0:
		slog.Info("copying file", "src", src, "dest", dest)
		if err = os.MkdirAll(filepath.Dir(dest), 0o755); err == nil {
			err = opts.Copy(src, dest)
		}
	default:
		err = fmt.Errorf("%s is neither a file nor a directory", src)
	}
	if errors.Is(err, confine.ErrSymlink) {
		raisePathError(L, err)
	}
	if err != nil {
		raiseIOError(L, "copy error", err)
	}
	return 0
}

// link(target, path) creates a symlink inside the package root pointing at
// an existing absolute target. The target is stored literally.
func (h *Host) link(L *lua.LState) int {
	target := validateAbsolute(L, L.CheckString(1))
	path := h.createPackage(L, L.CheckString(2))

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		raiseIOError(L, "link error", err)
	}
	slog.Info("creating symlink", "link", path, "target", target)
	if err := os.Symlink(target, path); err != nil {
		raiseIOError(L, "link error", err)
	}
	return 0
}
