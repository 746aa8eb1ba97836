// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/buildpkg/buildpkg/pkg/confine"
)

const defaultDirMode fs.FileMode = 0o755

// Extract unpacks the tar archive at src into dest, creating dest and its
// parents when missing. The codec is selected from the suffix of src.
func Extract(ctx context.Context, src, dest string) (err error) {
	codec, known := DetectCodec(src)
	if !known {
		slog.Debug("unrecognized archive suffix, reading as plain tar", "archive", src)
	}

	f, err := os.Open(src)
	if err != nil {
		return &Error{Archive: src, Err: err}
	}
	defer func() {
		// Read-only handle; close errors are not actionable.
		_ = f.Close()
	}()

	if err := os.MkdirAll(dest, defaultDirMode); err != nil {
		return &Error{Archive: src, Err: err}
	}

	r, err := decompress(f, codec)
	if err != nil {
		return &Error{Archive: src, Err: fmt.Errorf("open %s stream: %w", codec, err)}
	}
	defer func() {
		if closeErr := r.Close(); closeErr != nil && err == nil {
			err = &Error{Archive: src, Err: closeErr}
		}
	}()

	return extractTar(ctx, tar.NewReader(r), src, filepath.Clean(dest))
}

// extractTar writes every member of tr below dest.
func extractTar(ctx context.Context, tr *tar.Reader, archiveName, dest string) error {
	for {
		if err := ctx.Err(); err != nil {
			return &Error{Archive: archiveName, Err: err}
		}

		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return &Error{Archive: archiveName, Err: err}
		}

		if err := extractEntry(tr, hdr, dest); err != nil {
			return &Error{Archive: archiveName, Entry: hdr.Name, Err: err}
		}
	}
}

// extractEntry materializes a single header. The entry name is confined
// lexically first; its parent is then resolved with symlinks scoped to dest.
// The final component is never followed.
func extractEntry(tr *tar.Reader, hdr *tar.Header, dest string) error {
	target, err := resolveTarget(dest, hdr.Name)
	if err != nil {
		return err
	}
	if target == dest {
		return nil
	}

	mode := hdr.FileInfo().Mode().Perm()

	switch hdr.Typeflag {
	case tar.TypeDir:
		slog.Debug("extract dir", "path", target)
		if err := replaceNonDir(target); err != nil {
			return err
		}
		if err := os.MkdirAll(target, defaultDirMode); err != nil {
			return err
		}
		return os.Chmod(target, mode|0o700)

	case tar.TypeReg:
		slog.Debug("extract file", "path", target, "size", hdr.Size)
		if err := writeFile(tr, target, mode); err != nil {
			return err
		}
		return os.Chtimes(target, hdr.AccessTime, hdr.ModTime)

	case tar.TypeSymlink:
		slog.Debug("extract symlink", "path", target, "target", hdr.Linkname)
		if err := prepareParent(target); err != nil {
			return err
		}
		return os.Symlink(hdr.Linkname, target)

	case tar.TypeLink:
		linkTarget, err := resolveTarget(dest, hdr.Linkname)
		if err != nil {
			return fmt.Errorf("hard link target: %w", err)
		}
		slog.Debug("extract hard link", "path", target, "target", linkTarget)
		if err := prepareParent(target); err != nil {
			return err
		}
		return os.Link(linkTarget, target)

	default:
		slog.Debug("skipping unsupported tar entry", "name", hdr.Name, "type", string(hdr.Typeflag))
		return nil
	}
}

// resolveTarget maps an entry name to its on-disk location under dest.
// Symlinks extracted earlier are followed only inside dest.
func resolveTarget(dest, name string) (string, error) {
	return confine.ResolveEntry(dest, name)
}

// replaceNonDir removes whatever occupies path unless it is a real
// directory. A symlink to a directory counts as something to remove, so a
// later directory entry never chmods the link's target.
func replaceNonDir(path string) error {
	info, err := os.Lstat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if info.IsDir() {
		return nil
	}
	return os.Remove(path)
}

// prepareParent creates the parent directory of path and removes whatever
// currently occupies path, so a later entry replaces an earlier one.
func prepareParent(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), defaultDirMode); err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// writeFile streams r into path with the given permission bits. The mode is
// applied after creation so the process umask does not narrow it.
func writeFile(r io.Reader, path string, mode fs.FileMode) (err error) {
	if err := prepareParent(path); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if _, err := io.Copy(f, r); err != nil {
		return err
	}
	return f.Chmod(mode)
}
