// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
)

const (
	RecipeNotFoundId Id = iota + 1
	RecipeLoadFailedId
	MetadataInvalidId
	CallbackMissingId
	ScriptFailedId
	ArchNotSupportedId
	PathConfinementId
	PackageArchiveFailedId
	ConfigLoadFailedId
)

type (
	// Id identifies a catalog entry.
	Id int

	// MarkdownMsg is guidance text rendered with glamour.
	MarkdownMsg string

	// HttpLink is an external reference shown under "See also".
	HttpLink string

	// Issue is a catalog entry with long-form guidance for one failure class.
	Issue struct {
		id       Id
		mdMsg    MarkdownMsg
		extLinks []HttpLink
	}
)

var (
	render = glamour.Render

	recipeNotFoundIssue = &Issue{
		id: RecipeNotFoundId,
		mdMsg: `
# No recipe found!

buildpkg looks for ` + "`buildpkg.lua`" + ` in the project directory, or accepts the path
of a recipe file directly.

## Things you can try:
- Pass the project directory that contains the recipe:
~~~
$ buildpkg ./hello
~~~
- Point at the recipe file itself:
~~~
$ buildpkg ./hello/custom.lua
~~~
- Set ` + "`recipe_file`" + ` in your config if your recipes use a different name.`,
	}

	recipeLoadFailedIssue = &Issue{
		id: RecipeLoadFailedId,
		mdMsg: `
# The recipe failed to evaluate!

The Lua file raised an error before any lifecycle callback ran. This is usually a
syntax error or a call to an undefined function at the top level.

## Things you can try:
- Check the line number reported in the error.
- Move work that touches the network or the filesystem into SOURCES() or PREPARE().`,
		extLinks: []HttpLink{"https://www.lua.org/manual/5.1/"},
	}

	metadataInvalidIssue = &Issue{
		id: MetadataInvalidId,
		mdMsg: `
# The INFO table is incomplete!

Every recipe must declare these fields in ` + "`INFO`" + `:
name, description, url, license, dev, provides, arch, maintainers.

Exactly one of a literal ` + "`version`" + ` field or a ` + "`VERSION()`" + ` function must exist.

## Example:
~~~lua
INFO = {
  name = "hello",
  description = "GNU hello",
  version = "2.12",
  url = "https://www.gnu.org/software/hello/",
  license = "GPL-3.0-or-later",
  dev = false,
  provides = {"hello"},
  arch = {"x86_64", "aarch64"},
  maintainers = {"Jane Doe"},
}
~~~`,
	}

	callbackMissingIssue = &Issue{
		id: CallbackMissingId,
		mdMsg: `
# A lifecycle callback is missing!

Recipes must define ` + "`SOURCES()`" + `, ` + "`PREPARE()`" + ` and ` + "`PACKAGE()`" + `. They run in that
order, each one only after the previous stage succeeded.

## Things you can try:
- Define an empty function if a stage has nothing to do:
~~~lua
function PREPARE() end
~~~`,
	}

	scriptFailedIssue = &Issue{
		id: ScriptFailedId,
		mdMsg: `
# A recipe callback raised an error!

Errors escaping a callback stop the build. Host functions such as ` + "`download`" + `
raise catchable errors, so a recipe can recover with ` + "`pcall`" + `.

## Things you can try:
- Re-run with ` + "`--verbose`" + ` to see every host call.
- Wrap fallible calls:
~~~lua
local ok, err = pcall(download, url, "src.tar.gz")
~~~`,
	}

	archNotSupportedIssue = &Issue{
		id: ArchNotSupportedId,
		mdMsg: `
# Package not available for this architecture!

The host architecture is not listed in ` + "`INFO.arch`" + `. Architecture names follow
the toolchain spelling: x86_64, aarch64, x86, arm, riscv64, ...

## Things you can try:
- Add the host architecture to ` + "`arch`" + ` if the package builds there.
- Build on a machine with a listed architecture.`,
	}

	pathConfinementIssue = &Issue{
		id: PathConfinementId,
		mdMsg: `
# A recipe path escaped its workspace!

Host functions only accept paths relative to ` + "`SRC_DIR`" + ` or ` + "`PKG_DIR`" + `.
Paths containing ".." are rejected before touching the filesystem.

## Things you can try:
- Use paths relative to the workspace: ` + "`\"usr/bin/hello\"`" + ` rather than ` + "`\"../pkg/usr/bin/hello\"`" + `.
- Use ` + "`copy(src, dest)`" + ` to move files from the source tree into the package tree.`,
	}

	packageArchiveFailedIssue = &Issue{
		id: PackageArchiveFailedId,
		mdMsg: `
# Creating the package archive failed!

The package tree was staged, but the final tarball could not be written.

## Things you can try:
- Make sure ` + "`tar`" + ` is installed, or set ` + "`archiver: \"builtin\"`" + ` in your config.
- Check free space and permissions in the project directory.`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

The configuration file exists but does not match the schema.

## Things you can try:
- Check the CUE syntax of your config file.
- Remove unknown keys; the schema is closed.
- Start again from an empty file: every key has a default.`,
		extLinks: []HttpLink{"https://cuelang.org/docs/"},
	}

	issues = map[Id]*Issue{
		recipeNotFoundIssue.Id():       recipeNotFoundIssue,
		recipeLoadFailedIssue.Id():     recipeLoadFailedIssue,
		metadataInvalidIssue.Id():      metadataInvalidIssue,
		callbackMissingIssue.Id():      callbackMissingIssue,
		scriptFailedIssue.Id():         scriptFailedIssue,
		archNotSupportedIssue.Id():     archNotSupportedIssue,
		pathConfinementIssue.Id():      pathConfinementIssue,
		packageArchiveFailedIssue.Id(): packageArchiveFailedIssue,
		configLoadFailedIssue.Id():     configLoadFailedIssue,
	}
)

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render returns the guidance rendered for a terminal using the glamour style
// at stylePath ("dark", "light", "notty" or a JSON style file).
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.extLinks) > 0 {
		md.WriteString("\n\n## See also:\n")
		for _, link := range i.extLinks {
			md.WriteString("- [" + string(link) + "](" + string(link) + ")\n")
		}
	}
	return render(md.String(), stylePath)
}

// Values returns every catalog entry ordered by Id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, id := range slices.Sorted(maps.Keys(issues)) {
		out = append(out, issues[id])
	}
	return out
}

// Get returns the catalog entry for id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}
