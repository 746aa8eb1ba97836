// SPDX-License-Identifier: MPL-2.0

package packager

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/buildpkg/buildpkg/pkg/archive"

	"github.com/google/renameio"
)

// rootName is the owner recorded for every entry.
const rootName = "root"

// Builtin archives in-process with archive/tar.
type Builtin struct {
	Codec archive.Codec
}

// NewBuiltin returns a gzip Builtin archiver.
func NewBuiltin() *Builtin {
	return &Builtin{Codec: archive.CodecGzip}
}

// Archive implements Archiver. dest is replaced atomically, so a failed run
// never leaves a truncated tarball behind.
func (b *Builtin) Archive(ctx context.Context, dir, dest string) (err error) {
	defer func() {
		if err != nil {
			err = &Error{Archiver: "builtin", Dest: dest, Err: err}
		}
	}()

	pending, err := renameio.TempFile(filepath.Dir(dest), dest)
	if err != nil {
		return err
	}
	defer func() { _ = pending.Cleanup() }() // no-op after CloseAtomicallyReplace

	if err := pending.Chmod(0o644); err != nil {
		return err
	}

	zw, err := archive.Compress(pending, b.Codec)
	if err != nil {
		return err
	}
	tw := tar.NewWriter(zw)

	if err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		return addEntry(tw, dir, path, d)
	}); err != nil {
		return err
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("finish tar stream: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finish %s stream: %w", b.Codec, err)
	}
	return pending.CloseAtomicallyReplace()
}

func addEntry(tw *tar.Writer, root, path string, d fs.DirEntry) error {
	info, err := d.Info()
	if err != nil {
		return err
	}

	var link string
	if info.Mode()&fs.ModeSymlink != 0 {
		if link, err = os.Readlink(path); err != nil {
			return err
		}
	}

	hdr, err := tar.FileInfoHeader(info, link)
	if err != nil {
		return err
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return err
	}
	hdr.Name = "./" + filepath.ToSlash(rel)
	if rel == "." {
		hdr.Name = "./"
	} else if info.IsDir() {
		hdr.Name += "/"
	}
	hdr.Uid, hdr.Gid = 0, 0
	hdr.Uname, hdr.Gname = rootName, rootName
	hdr.Format = tar.FormatPAX

	slog.Debug("adding entry", "name", hdr.Name, "mode", hdr.FileInfo().Mode())
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }() // read-only file

	_, err = io.Copy(tw, f)
	return err
}
