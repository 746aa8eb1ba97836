// SPDX-License-Identifier: MPL-2.0

package lifecycle

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/buildpkg/buildpkg/internal/config"
	"github.com/buildpkg/buildpkg/internal/testutil"
)

func TestManifest(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(root, "usr", "bin", "tool"), "bin")
	testutil.MustWriteFile(t, filepath.Join(root, "usr", "share", "doc", "README"), "doc")
	testutil.MustWriteFile(t, filepath.Join(root, "etc", "tool.conf"), "conf")
	testutil.MustMkdirAll(t, filepath.Join(root, "var", "empty"), 0o755)
	if err := os.Symlink("/usr/bin/tool", filepath.Join(root, "usr", "bin", "alias")); err != nil {
		t.Fatalf("Symlink: %v", err)
	}
	// A symlinked directory is listed once and not descended into.
	if err := os.Symlink(filepath.Join(root, "usr"), filepath.Join(root, "usrlink")); err != nil {
		t.Fatalf("Symlink: %v", err)
	}

	got, err := Manifest(context.Background(), root, config.MetadataJSON)
	if err != nil {
		t.Fatalf("Manifest: %v", err)
	}
	want := []string{
		"/etc/tool.conf",
		"/usr/bin/alias",
		"/usr/bin/tool",
		"/usr/share/doc/README",
		"/usrlink",
	}
	if !slices.Equal(got, want) {
		t.Errorf("Manifest = %q, want %q", got, want)
	}
}

func TestManifest_SkipsOnlyCurrentGeneratedFiles(t *testing.T) {
	t.Parallel()

	tests := []struct {
		format config.MetadataFormat
		want   []string
	}{
		{format: config.MetadataJSON, want: []string{"/package.toml", "/share/package.json"}},
		{format: config.MetadataTOML, want: []string{"/package.json", "/share/package.json"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			t.Parallel()

			root := t.TempDir()
			testutil.MustWriteFile(t, filepath.Join(root, ManifestFile), "/old")
			testutil.MustWriteFile(t, filepath.Join(root, MetadataJSONFile), "{}")
			testutil.MustWriteFile(t, filepath.Join(root, MetadataTOMLFile), "")
			testutil.MustWriteFile(t, filepath.Join(root, "share", MetadataJSONFile), "{}")

			got, err := Manifest(context.Background(), root, tt.format)
			if err != nil {
				t.Fatalf("Manifest: %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("Manifest = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestManifest_EmptyRoot(t *testing.T) {
	t.Parallel()

	got, err := Manifest(context.Background(), t.TempDir(), config.MetadataJSON)
	if err != nil {
		t.Fatalf("Manifest: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("Manifest = %#v, want empty non-nil slice", got)
	}
}

func TestManifest_Cancelled(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(root, "a"), "a")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Manifest(ctx, root, config.MetadataJSON); !errors.Is(err, context.Canceled) {
		t.Errorf("Manifest error = %v, want context.Canceled", err)
	}
}

func TestWriteManifest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		entries []string
		want    string
	}{
		{name: "several", entries: []string{"/usr/bin/tool", "/etc/tool.conf"}, want: "/usr/bin/tool\n/etc/tool.conf"},
		{name: "single", entries: []string{"/usr/bin/tool"}, want: "/usr/bin/tool"},
		{name: "empty", entries: nil, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			root := t.TempDir()
			path, err := WriteManifest(root, tt.entries)
			if err != nil {
				t.Fatalf("WriteManifest: %v", err)
			}
			if path != filepath.Join(root, ManifestFile) {
				t.Errorf("path = %q", path)
			}
			if got := testutil.MustReadFile(t, path); got != tt.want {
				t.Errorf("content = %q, want %q", got, tt.want)
			}
		})
	}
}
