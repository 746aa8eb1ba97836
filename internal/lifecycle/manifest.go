// SPDX-License-Identifier: MPL-2.0

package lifecycle

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"github.com/buildpkg/buildpkg/internal/config"

	"github.com/google/renameio"
)

// Files generated in the package root by Finalize.
const (
	ManifestFile     = ".pkgfiles"
	MetadataJSONFile = "package.json"
	MetadataTOMLFile = "package.toml"
)

// Manifest lists every regular file and symlink under root as a
// root-relative path with a leading "/". Directories are not listed and
// symlinks are not followed. Entries come in walk order, which is lexical
// within each directory. The top-level files Finalize writes for format are
// skipped so a rebuild in place yields the same list; anything else the
// recipe put there, a metadata file of the other format included, is
// listed.
func Manifest(ctx context.Context, root string, format config.MetadataFormat) ([]string, error) {
	generated := []string{ManifestFile, MetadataFileName(format)}
	entries := []string{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if slices.Contains(generated, rel) {
			return nil
		}
		if d.Type().IsRegular() || d.Type()&fs.ModeSymlink != 0 {
			entries = append(entries, "/"+filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk package root: %w", err)
	}
	return entries, nil
}

// WriteManifest writes entries to root/.pkgfiles, one per line, without a
// trailing newline.
func WriteManifest(root string, entries []string) (string, error) {
	path := filepath.Join(root, ManifestFile)
	if err := renameio.WriteFile(path, []byte(strings.Join(entries, "\n")), 0o644); err != nil {
		return "", fmt.Errorf("write manifest: %w", err)
	}
	return path, nil
}
