// SPDX-License-Identifier: MPL-2.0

package hostapi

import (
	"archive/tar"
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/buildpkg/buildpkg/internal/fetch"
	"github.com/buildpkg/buildpkg/internal/shell"
	"github.com/buildpkg/buildpkg/internal/testutil"
	"github.com/buildpkg/buildpkg/pkg/archive"

	lua "github.com/yuin/gopher-lua"
)

const helloSHA256 = "5891b5b522d5df086d0ff0b110fbd9d21bb4fc7163af34d08286a2e846f6be03"

type env struct {
	testutil.Scopes
	L *lua.LState
}

func newEnv(t *testing.T, opts ...Option) *env {
	t.Helper()

	s := testutil.NewScopes(t)
	L := lua.NewState()
	t.Cleanup(L.Close)
	New(s.Source, s.Package, opts...).Register(L)
	return &env{Scopes: s, L: L}
}

func (e *env) run(t *testing.T, code string) {
	t.Helper()
	if err := e.L.DoString(code); err != nil {
		t.Fatalf("DoString() error = %v", err)
	}
}

// runErr runs code expecting it to raise and returns the error message.
func (e *env) runErr(t *testing.T, code string) string {
	t.Helper()
	err := e.L.DoString(code)
	if err == nil {
		t.Fatalf("DoString(%q) error = nil, want Lua error", code)
	}
	return err.Error()
}

func (e *env) global(name string) string {
	return lua.LVAsString(e.L.GetGlobal(name))
}

func (e *env) src(rel string) string { return filepath.Join(e.Source.Root(), rel) }
func (e *env) pkg(rel string) string { return filepath.Join(e.Package.Root(), rel) }

func TestRegister_Globals(t *testing.T) {
	t.Parallel()

	e := newEnv(t, WithArch("riscv64"))
	if got := e.global(GlobalArch); got != "riscv64" {
		t.Errorf("ARCH = %q, want riscv64", got)
	}
	if got := e.global(GlobalSrcDir); got != e.Source.Root() {
		t.Errorf("SRC_DIR = %q, want %q", got, e.Source.Root())
	}
	if got := e.global(GlobalPkgDir); got != e.Package.Root() {
		t.Errorf("PKG_DIR = %q, want %q", got, e.Package.Root())
	}
	if e.L.GetGlobal(GlobalGit).Type() != lua.LTTable {
		t.Error("git table not registered")
	}
}

func TestFunctions(t *testing.T) {
	t.Parallel()

	s := testutil.NewScopes(t)
	without := New(s.Source, s.Package).Functions()
	for _, name := range []string{
		"download", "file_load", "read_text", "file_save", "write_text",
		"sha256sum_file", "hash_sha256", "unpack_tarball", "unpack_archive",
		"copy", "link", "regex_match", "regex_extract", "json_decode", "decode_json",
	} {
		if !slices.Contains(without, name) {
			t.Errorf("Functions() missing %q", name)
		}
	}
	if slices.Contains(without, "shell") {
		t.Error("shell registered without WithShell")
	}

	with := New(s.Source, s.Package, WithShell(shell.New(s.Source, s.Package))).Functions()
	if !slices.Contains(with, "shell") {
		t.Error("shell missing with WithShell")
	}
}

func TestFileSaveLoad(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.run(t, `
file_save("nested/dir/a.txt", "alpha")
write_text("b.txt", "beta")
A = file_load("nested/dir/a.txt")
B = read_text("/b.txt")`)

	if got := e.global("A"); got != "alpha" {
		t.Errorf("A = %q, want alpha", got)
	}
	if got := e.global("B"); got != "beta" {
		t.Errorf("B = %q, want beta", got)
	}
	if got := testutil.MustReadFile(t, e.src("nested/dir/a.txt")); got != "alpha" {
		t.Errorf("file content = %q", got)
	}
}

func TestConfinementErrorsAreCatchable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		call string
	}{
		{"file_load traversal", `file_load("../outside")`},
		{"file_save traversal", `file_save("a/../../outside", "x")`},
		{"sha256sum_file traversal", `sha256sum_file("../outside")`},
		{"download traversal", `download("http://127.0.0.1:1/x", "../outside")`},
		{"copy source traversal", `copy("../outside", "x")`},
		{"copy destination traversal", `copy("x", "../../outside")`},
		{"link relative target", `link("relative/target", "bin/x")`},
		{"link missing target", `link("/definitely/not/here", "bin/x")`},
		{"link location traversal", `link("/", "../outside")`},
		{"unpack relative destination", `unpack_tarball("a.tar", "relative")`},
		{"git load traversal", `git.load("../")`},
		{"git clone traversal", `git.clone("https://example.com/r.git", "../r")`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := newEnv(t)
			e.run(t, "OK, ERR = pcall(function() "+tt.call+" end)")
			if lua.LVAsBool(e.L.GetGlobal("OK")) {
				t.Fatal("call succeeded, want path error")
			}
			if msg := e.global("ERR"); !strings.Contains(msg, "path error") {
				t.Errorf("error = %q, want path error", msg)
			}
			testutil.AssertNotExist(t, filepath.Join(e.Project, "outside"))
		})
	}
}

func TestSymlinksCannotRedirectWrites(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		setup func(t *testing.T, e *env, outside string)
		call  string
		// wantPathError is false when the write is kept inside the root
		// instead of being refused.
		wantPathError bool
	}{
		{
			name:  "copy into a linked directory",
			setup: func(t *testing.T, e *env, outside string) { e.run(t, `link("`+outside+`", "d")`) },
			call:  `copy("f", "d/evil")`,
		},
		{
			name:          "copy onto a link",
			setup:         func(t *testing.T, e *env, outside string) { e.run(t, `link("`+outside+`", "d")`) },
			call:          `copy("f", "d")`,
			wantPathError: true,
		},
		{
			name: "copy tree over a linked subdirectory",
			setup: func(t *testing.T, e *env, outside string) {
				testutil.MustWriteFile(t, e.src("tree/lib/evil"), "pwned")
				e.run(t, `link("`+outside+`", "usr/lib")`)
			},
			call:          `copy("tree", "usr")`,
			wantPathError: true,
		},
		{
			name:  "file_save into a linked directory",
			setup: func(t *testing.T, e *env, outside string) { mustSymlink(t, outside, e.src("d")) },
			call:  `file_save("d/evil", "pwned")`,
		},
		{
			name:          "file_save onto a link",
			setup:         func(t *testing.T, e *env, outside string) { mustSymlink(t, filepath.Join(outside, "evil"), e.src("d")) },
			call:          `file_save("d", "pwned")`,
			wantPathError: true,
		},
		{
			name:          "download onto a link",
			setup:         func(t *testing.T, e *env, outside string) { mustSymlink(t, filepath.Join(outside, "evil"), e.src("d")) },
			call:          `download("http://127.0.0.1:1/x", "d")`,
			wantPathError: true,
		},
		{
			name:          "link inside a linked directory",
			setup:         func(t *testing.T, e *env, outside string) { e.run(t, `link("`+outside+`", "d")`) },
			call:          `link("/", "d/evil")`,
			wantPathError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := newEnv(t)
			outside := t.TempDir()
			testutil.MustWriteFile(t, e.src("f"), "pwned")
			tt.setup(t, e, outside)

			e.run(t, "OK, ERR = pcall(function() "+tt.call+" end)")
			ok := lua.LVAsBool(e.L.GetGlobal("OK"))
			if tt.wantPathError {
				if ok {
					t.Fatal("call succeeded, want path error")
				}
				if msg := e.global("ERR"); !strings.Contains(msg, "path error") {
					t.Errorf("error = %q, want path error", msg)
				}
			} else if !ok {
				t.Fatalf("call failed: %s", e.global("ERR"))
			}
			if _, err := os.Lstat(filepath.Join(outside, "evil")); err == nil {
				t.Fatal("write escaped through a symlink")
			}
		})
	}
}

func TestCopy_LinkedDirectoryResolvesInsidePackage(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	outside := t.TempDir()
	testutil.MustWriteFile(t, e.src("f"), "data")
	e.run(t, `link("`+outside+`", "d")
copy("f", "d/file")`)

	// The absolute link target is read as if the package root were "/".
	if got := testutil.MustReadFile(t, filepath.Join(e.Package.Root(), outside, "file")); got != "data" {
		t.Errorf("copied content = %q, want data", got)
	}
}

func TestFileLoad_SymlinkStaysInSourceRoot(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	secret := filepath.Join(t.TempDir(), "secret")
	testutil.MustWriteFile(t, secret, "host secret")
	mustSymlink(t, secret, e.src("leak"))
	testutil.MustWriteFile(t, e.src("real.txt"), "inside")
	mustSymlink(t, "real.txt", e.src("alias"))

	e.run(t, `OK, ERR = pcall(file_load, "leak")
ALIAS = file_load("alias")`)
	if lua.LVAsBool(e.L.GetGlobal("OK")) {
		t.Fatal("file_load followed a symlink out of the source root")
	}
	if msg := e.global("ERR"); strings.Contains(msg, "host secret") {
		t.Errorf("error leaked host content: %q", msg)
	}
	if got := e.global("ALIAS"); got != "inside" {
		t.Errorf("ALIAS = %q, want inside", got)
	}
}

func mustSymlink(t *testing.T, target, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(target, path); err != nil {
		t.Fatal(err)
	}
}

func TestFileLoad_MissingIsIOError(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	msg := e.runErr(t, `file_load("missing.txt")`)
	if !strings.Contains(msg, "read error") || strings.Contains(msg, "path error") {
		t.Errorf("error = %q, want read error", msg)
	}
}

func TestSHA256(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.run(t, `file_save("hello.txt", "hello\n")
H1 = sha256sum_file("hello.txt")
H2 = hash_sha256("hello.txt")`)

	for _, g := range []string{"H1", "H2"} {
		if got := e.global(g); got != helloSHA256 {
			t.Errorf("%s = %q, want %q", g, got, helloSHA256)
		}
	}
}

func TestCopy(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	testutil.MustWriteFile(t, e.src("build/bin/tool"), "tool")
	testutil.MustWriteFile(t, e.src("build/share/doc.txt"), "doc")
	testutil.MustWriteFile(t, e.src("LICENSE"), "license")
	if err := os.Symlink("tool", e.src("build/bin/alias")); err != nil {
		t.Fatal(err)
	}

	e.run(t, `
copy("build", "usr")
copy("LICENSE", "usr/share/licenses/hello/LICENSE")`)

	for rel, want := range map[string]string{
		"usr/bin/tool":                     "tool",
		"usr/share/doc.txt":                "doc",
		"usr/share/licenses/hello/LICENSE": "license",
	} {
		if got := testutil.MustReadFile(t, e.pkg(rel)); got != want {
			t.Errorf("%s = %q, want %q", rel, got, want)
		}
	}

	target, err := os.Readlink(e.pkg("usr/bin/alias"))
	if err != nil {
		t.Fatalf("symlink not preserved: %v", err)
	}
	if target != "tool" {
		t.Errorf("alias -> %q, want tool", target)
	}
}

func TestCopy_MissingSource(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	if msg := e.runErr(t, `copy("nope", "x")`); !strings.Contains(msg, "copy error") {
		t.Errorf("error = %q, want copy error", msg)
	}
}

func TestLink(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	target := e.Source.Root()
	e.run(t, `link(SRC_DIR, "usr/lib/hello/src")`)

	got, err := os.Readlink(e.pkg("usr/lib/hello/src"))
	if err != nil {
		t.Fatalf("Readlink() error = %v", err)
	}
	if got != target {
		t.Errorf("link target = %q, want %q", got, target)
	}
}

func writeTarGz(t *testing.T, path string, files map[string]string) {
	t.Helper()

	var buf bytes.Buffer
	zw, err := archive.Compress(&buf, archive.CodecGzip)
	if err != nil {
		t.Fatal(err)
	}
	tw := tar.NewWriter(zw)
	for name, body := range files {
		hdr := &tar.Header{Name: name, Mode: 0o644, Size: int64(len(body)), ModTime: time.Unix(1700000000, 0), Typeflag: tar.TypeReg}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if _, err := io.WriteString(tw, body); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	testutil.MustWriteFile(t, path, buf.String())
}

func TestUnpackArchive(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	writeTarGz(t, e.src("hello-1.0.tar.gz"), map[string]string{"hello-1.0/README": "readme"})

	e.run(t, `unpack_tarball("hello-1.0.tar.gz", SRC_DIR)
unpack_archive("hello-1.0.tar.gz", PKG_DIR)`)

	if got := testutil.MustReadFile(t, e.src("hello-1.0/README")); got != "readme" {
		t.Errorf("README = %q", got)
	}
	if got := testutil.MustReadFile(t, e.pkg("hello-1.0/README")); got != "readme" {
		t.Errorf("README = %q", got)
	}
}

func TestUnpackArchive_Corrupt(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	testutil.MustWriteFile(t, e.src("broken.tar.gz"), "not gzip")
	if msg := e.runErr(t, `unpack_tarball("broken.tar.gz", SRC_DIR)`); !strings.Contains(msg, "unpack error") {
		t.Errorf("error = %q, want unpack error", msg)
	}
}

func TestRegexMatch(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.run(t, `
A, B, C, D = regex_match("release v1.2.3", "v(\\d+)\\.(\\d+)\\.(\\d+)")
N1, N2, N3, N4 = regex_extract("nothing here", "v(\\d+)")
OK = pcall(regex_match, "x", "(")`)

	for g, want := range map[string]string{"A": "1", "B": "2", "C": "3"} {
		if got := e.global(g); got != want {
			t.Errorf("%s = %q, want %q", g, got, want)
		}
	}
	for _, g := range []string{"D", "N1", "N2", "N3", "N4"} {
		if v := e.L.GetGlobal(g); v != lua.LNil {
			t.Errorf("%s = %v, want nil", g, v)
		}
	}
	if lua.LVAsBool(e.L.GetGlobal("OK")) {
		t.Error("invalid pattern did not raise")
	}
}

func TestJSONDecode(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.run(t, `
local v = json_decode('{"tag_name":"v2.0","assets":[1,2,{"x":null}],"ratio":1.5}')
TAG = v.tag_name
COUNT = #v.assets
FIRST = v.assets[1]
NULL_IS_NIL = v.assets[3].x == nil
RATIO = v.ratio
OK = pcall(decode_json, "{broken")`)

	if got := e.global("TAG"); got != "v2.0" {
		t.Errorf("TAG = %q", got)
	}
	if got := e.L.GetGlobal("COUNT"); got != lua.LNumber(3) {
		t.Errorf("COUNT = %v, want 3", got)
	}
	if got := e.L.GetGlobal("FIRST"); got != lua.LNumber(1) {
		t.Errorf("FIRST = %v, want 1", got)
	}
	if !lua.LVAsBool(e.L.GetGlobal("NULL_IS_NIL")) {
		t.Error("null did not decode to nil")
	}
	if got := e.L.GetGlobal("RATIO"); got != lua.LNumber(1.5) {
		t.Errorf("RATIO = %v, want 1.5", got)
	}
	if lua.LVAsBool(e.L.GetGlobal("OK")) {
		t.Error("malformed JSON did not raise")
	}
}

func TestDownload(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/hello.txt" {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, "hello\n")
	}))
	t.Cleanup(srv.Close)

	e := newEnv(t, WithDownloader(fetch.NewClient(fetch.WithHTTPClient(srv.Client()))))
	e.run(t, `download("`+srv.URL+`/hello.txt", "dl/hello.txt", "`+helloSHA256+`")`)
	if got := testutil.MustReadFile(t, e.src("dl/hello.txt")); got != "hello\n" {
		t.Errorf("downloaded = %q", got)
	}

	msg := e.runErr(t, `download("`+srv.URL+`/hello.txt", "bad.txt", "`+strings.Repeat("0", 64)+`")`)
	if !strings.Contains(msg, "download error") {
		t.Errorf("checksum mismatch error = %q", msg)
	}
	testutil.AssertNotExist(t, e.src("bad.txt"))

	msg = e.runErr(t, `download("`+srv.URL+`/missing", "missing.txt")`)
	if !strings.Contains(msg, "404") {
		t.Errorf("not found error = %q, want status", msg)
	}
}

func TestGit(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	testutil.MustMkdirAll(t, e.src("repo"), 0o755)
	testutil.NewGitRepo(t, e.src("repo"))

	e.run(t, `
local repo = git.load("repo")
PATH = repo.path
local tags = repo:get_tags()
TAGS = table.concat(tags, ",")
SINCE_V1 = repo:get_revision("v1.0.0")
SINCE_V11 = repo:revision_count_since("v1.1.0")
ALIAS_TAGS = #git.open("repo"):tags()
OK, ERR = pcall(repo.get_revision, repo, "v9.9.9")
repo.path = "/"
TAMPERED_OK, TAMPERED_ERR = pcall(repo.get_tags, repo)`)

	if got := e.global("PATH"); got != e.src("repo") {
		t.Errorf("repo.path = %q, want %q", got, e.src("repo"))
	}
	if got := e.global("TAGS"); got != "v1.0.0,v1.1.0" {
		t.Errorf("tags = %q", got)
	}
	if got := e.L.GetGlobal("SINCE_V1"); got != lua.LNumber(3) {
		t.Errorf("get_revision(v1.0.0) = %v, want 3", got)
	}
	if got := e.L.GetGlobal("SINCE_V11"); got != lua.LNumber(0) {
		t.Errorf("revision_count_since(v1.1.0) = %v, want 0", got)
	}
	if got := e.L.GetGlobal("ALIAS_TAGS"); got != lua.LNumber(2) {
		t.Errorf("#git.open():tags() = %v, want 2", got)
	}
	if lua.LVAsBool(e.L.GetGlobal("OK")) || !strings.Contains(e.global("ERR"), "git error") {
		t.Errorf("unknown ref: ok=%v err=%q", e.L.GetGlobal("OK"), e.global("ERR"))
	}
	if lua.LVAsBool(e.L.GetGlobal("TAMPERED_OK")) || !strings.Contains(e.global("TAMPERED_ERR"), "path error") {
		t.Errorf("tampered path: ok=%v err=%q", e.L.GetGlobal("TAMPERED_OK"), e.global("TAMPERED_ERR"))
	}
}

func TestGit_LoadNotARepository(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	if msg := e.runErr(t, `git.load(".")`); !strings.Contains(msg, "git error") {
		t.Errorf("error = %q, want git error", msg)
	}
}

func TestShell(t *testing.T) {
	t.Parallel()

	s := testutil.NewScopes(t)
	L := lua.NewState()
	t.Cleanup(L.Close)
	runner := shell.New(s.Source, s.Package, shell.WithStdIO(io.Discard, io.Discard))
	New(s.Source, s.Package, WithShell(runner)).Register(L)

	if err := L.DoString(`shell("mkdir -p out && echo built > out/result")`); err != nil {
		t.Fatalf("shell() error = %v", err)
	}
	if got := testutil.MustReadFile(t, filepath.Join(s.Source.Root(), "out/result")); got != "built\n" {
		t.Errorf("result = %q", got)
	}

	err := L.DoString(`shell("exit 4")`)
	if err == nil || !strings.Contains(err.Error(), "shell error") {
		t.Errorf("shell(exit 4) error = %v, want shell error", err)
	}
}

func TestHostFunctionsUseCallerContext(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)

	e := newEnv(t, WithDownloader(fetch.NewClient(fetch.WithHTTPClient(srv.Client()))))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e.L.SetContext(ctx)
	defer e.L.RemoveContext()

	if err := e.L.DoString(`download("` + srv.URL + `/slow", "slow.bin")`); err == nil {
		t.Error("download with cancelled context succeeded")
	}
}
