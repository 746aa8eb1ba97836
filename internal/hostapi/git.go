// SPDX-License-Identifier: MPL-2.0

package hostapi

import (
	"github.com/buildpkg/buildpkg/internal/vcs"
	"github.com/buildpkg/buildpkg/pkg/confine"

	lua "github.com/yuin/gopher-lua"
)

// git.clone(url [, dest]) clones into dest inside the source root ("." by
// default) and returns a repository handle.
func (h *Host) gitClone(L *lua.LState) int {
	url := L.CheckString(1)
	dest := h.createSource(L, L.OptString(2, "."))

	repo, err := vcs.Clone(contextOf(L), url, dest)
	if err != nil {
		raiseIOError(L, "git error", err)
	}
	L.Push(h.repoHandle(L, repo))
	return 1
}

// git.load(path) opens an existing repository inside the source root.
func (h *Host) gitOpen(L *lua.LState) int {
	path := h.readSource(L, L.CheckString(1))

	repo, err := vcs.Open(path)
	if err != nil {
		raiseIOError(L, "git error", err)
	}
	L.Push(h.repoHandle(L, repo))
	return 1
}

// repoHandle builds the table handed to recipes. Methods take the table as
// self and reopen the repository from its path.
func (h *Host) repoHandle(L *lua.LState, repo *vcs.Repository) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("path", lua.LString(repo.Path()))
	L.SetFuncs(t, map[string]lua.LGFunction{
		"get_tags":             h.repoTags,
		"tags":                 h.repoTags,
		"get_revision":         h.repoRevisionCount,
		"revision_count_since": h.repoRevisionCount,
	})
	return t
}

// openSelf reopens the repository named by self.path after checking it still
// lies inside the source root.
func (h *Host) openSelf(L *lua.LState) *vcs.Repository {
	self := L.CheckTable(1)
	path, ok := self.RawGetString("path").(lua.LString)
	if !ok {
		L.ArgError(1, "repository handle has no path")
	}
	if !confine.Within(h.src.Root(), string(path)) {
		raisePathError(L, &confine.PathError{Op: "confine", Path: string(path), Err: confine.ErrNotInTargetDir})
	}

	repo, err := vcs.Open(string(path))
	if err != nil {
		raiseIOError(L, "git error", err)
	}
	return repo
}

// repo:get_tags() returns the tag names as a sequence.
func (h *Host) repoTags(L *lua.LState) int {
	repo := h.openSelf(L)

	tags, err := repo.Tags()
	if err != nil {
		raiseIOError(L, "git error", err)
	}
	t := L.CreateTable(len(tags), 0)
	for _, tag := range tags {
		t.Append(lua.LString(tag))
	}
	L.Push(t)
	return 1
}

// repo:get_revision(ref) returns the number of commits reachable from HEAD
// but not from ref.
func (h *Host) repoRevisionCount(L *lua.LState) int {
	repo := h.openSelf(L)
	ref := L.CheckString(2)

	n, err := repo.RevisionCountSince(ref)
	if err != nil {
		raiseIOError(L, "git error", err)
	}
	L.Push(lua.LNumber(n))
	return 1
}
