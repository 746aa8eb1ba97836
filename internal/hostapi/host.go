// SPDX-License-Identifier: MPL-2.0

package hostapi

import (
	"context"
	"maps"
	"slices"

	"github.com/buildpkg/buildpkg/internal/fetch"
	"github.com/buildpkg/buildpkg/internal/shell"
	"github.com/buildpkg/buildpkg/pkg/confine"
	"github.com/buildpkg/buildpkg/pkg/platform"

	lua "github.com/yuin/gopher-lua"
)

// Globals set before the recipe runs.
const (
	GlobalArch   = "ARCH"
	GlobalSrcDir = "SRC_DIR"
	GlobalPkgDir = "PKG_DIR"
	GlobalGit    = "git"
)

type (
	// Downloader fetches a URL into a local file.
	Downloader interface {
		Download(ctx context.Context, rawURL, dest, expectedSHA256 string) (*fetch.Result, error)
	}

	// Host is the capability set handed to one recipe.
	Host struct {
		src        confine.Source
		pkg        confine.Package
		arch       string
		downloader Downloader
		shell      *shell.Runner
	}

	// Option configures a Host.
	Option func(*Host)
)

// WithDownloader replaces the default HTTP client.
func WithDownloader(d Downloader) Option {
	return func(h *Host) { h.downloader = d }
}

// WithShell enables the shell() function backed by r.
func WithShell(r *shell.Runner) Option {
	return func(h *Host) { h.shell = r }
}

// WithArch overrides the value of the ARCH global.
func WithArch(arch string) Option {
	return func(h *Host) { h.arch = arch }
}

// New creates a Host bound to the given scopes.
func New(src confine.Source, pkg confine.Package, opts ...Option) *Host {
	h := &Host{
		src:  src,
		pkg:  pkg,
		arch: platform.HostArch(),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.downloader == nil {
		h.downloader = fetch.NewClient()
	}
	return h
}

// functions maps every global function name, aliases included, to its
// implementation.
func (h *Host) functions() map[string]lua.LGFunction {
	fns := map[string]lua.LGFunction{
		"download":       h.download,
		"file_load":      h.fileLoad,
		"read_text":      h.fileLoad,
		"file_save":      h.fileSave,
		"write_text":     h.fileSave,
		"sha256sum_file": h.sha256File,
		"hash_sha256":    h.sha256File,
		"unpack_tarball": h.unpackArchive,
		"unpack_archive": h.unpackArchive,
		"copy":           h.copy,
		"link":           h.link,
		"regex_match":    regexMatch,
		"regex_extract":  regexMatch,
		"json_decode":    jsonDecode,
		"decode_json":    jsonDecode,
	}
	if h.shell != nil {
		fns["shell"] = h.runShell
	}
	return fns
}

// Functions returns the sorted names of the global functions Register
// installs.
func (h *Host) Functions() []string {
	return slices.Sorted(maps.Keys(h.functions()))
}

// Register installs the globals, the functions and the git table into L.
func (h *Host) Register(L *lua.LState) {
	L.SetGlobal(GlobalArch, lua.LString(h.arch))
	L.SetGlobal(GlobalSrcDir, lua.LString(h.src.Root()))
	L.SetGlobal(GlobalPkgDir, lua.LString(h.pkg.Root()))

	for name, fn := range h.functions() {
		L.SetGlobal(name, L.NewFunction(fn))
	}

	git := L.NewTable()
	L.SetFuncs(git, map[string]lua.LGFunction{
		"clone": h.gitClone,
		"load":  h.gitOpen,
		"open":  h.gitOpen,
	})
	L.SetGlobal(GlobalGit, git)
}

// contextOf returns the context attached to L by the caller of the current
// callback.
func contextOf(L *lua.LState) context.Context {
	if ctx := L.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// raisePathError aborts the current Lua function with a confinement failure.
func raisePathError(L *lua.LState, err error) {
	L.RaiseError("path error: %v", err)
}

// raiseIOError aborts the current Lua function with an operation failure.
func raiseIOError(L *lua.LState, op string, err error) {
	L.RaiseError("%s: %v", op, err)
}

// readSource resolves a source path whose contents are read. Symlinks are
// followed but never out of the source root.
func (h *Host) readSource(L *lua.LState, path string) string {
	p, err := h.src.ResolveFollow(path)
	if err != nil {
		raisePathError(L, err)
	}
	return p.String()
}

// entrySource resolves a source path without following its last component.
func (h *Host) entrySource(L *lua.LState, path string) string {
	p, err := h.src.ResolveEntry(path)
	if err != nil {
		raisePathError(L, err)
	}
	return p.String()
}

// createSource resolves a source path about to be written.
func (h *Host) createSource(L *lua.LState, path string) string {
	p, err := h.src.ResolveCreate(path)
	if err != nil {
		raisePathError(L, err)
	}
	return p.String()
}

// createPackage resolves a package path about to be written.
func (h *Host) createPackage(L *lua.LState, path string) string {
	p, err := h.pkg.ResolveCreate(path)
	if err != nil {
		raisePathError(L, err)
	}
	return p.String()
}

func validateAbsolute(L *lua.LState, path string) string {
	p, err := confine.ValidateAbsolute(path)
	if err != nil {
		raisePathError(L, err)
	}
	return p.String()
}

