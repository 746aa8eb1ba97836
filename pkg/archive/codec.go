// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"fmt"
	"io"
	"strings"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

const (
	// CodecNone is a plain tar stream.
	CodecNone Codec = "none"
	// CodecGzip is a gzip-compressed tar stream.
	CodecGzip Codec = "gzip"
	// CodecBzip2 is a bzip2-compressed tar stream.
	CodecBzip2 Codec = "bzip2"
	// CodecXz is an xz-compressed tar stream.
	CodecXz Codec = "xz"
	// CodecZstd is a zstd-compressed tar stream.
	CodecZstd Codec = "zstd"
)

type (
	// Codec names a compression format wrapped around a tar stream.
	Codec string

	suffixRule struct {
		suffixes []string
		codec    Codec
	}

	nopWriteCloser struct{ io.Writer }
)

// suffixTable is matched in order; the first rule with a matching suffix wins.
var suffixTable = []suffixRule{
	{suffixes: []string{".tar.gz", ".tgz"}, codec: CodecGzip},
	{suffixes: []string{".tar.bz2", ".tbz2"}, codec: CodecBzip2},
	{suffixes: []string{".tar.xz", ".txz"}, codec: CodecXz},
	{suffixes: []string{".tar.zst", ".tzst"}, codec: CodecZstd},
	{suffixes: []string{".tar"}, codec: CodecNone},
}

// Close is a no-op.
func (nopWriteCloser) Close() error { return nil }

// DetectCodec returns the codec for name and whether the suffix was
// recognized. Unrecognized names report CodecNone and false.
func DetectCodec(name string) (Codec, bool) {
	for _, rule := range suffixTable {
		for _, suffix := range rule.suffixes {
			if strings.HasSuffix(name, suffix) {
				return rule.codec, true
			}
		}
	}
	return CodecNone, false
}

// Suffix returns the canonical file suffix for the codec.
func (c Codec) Suffix() string {
	for _, rule := range suffixTable {
		if rule.codec == c {
			return rule.suffixes[0]
		}
	}
	return ".tar"
}

// decompress wraps r in the reader for codec. The returned closer releases
// decoder resources and never closes r.
func decompress(r io.Reader, codec Codec) (io.ReadCloser, error) {
	switch codec {
	case CodecGzip:
		return gzip.NewReader(r)
	case CodecBzip2:
		return bzip2.NewReader(r, nil)
	case CodecXz:
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(xr), nil
	case CodecZstd:
		d, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return d.IOReadCloser(), nil
	case CodecNone:
		return io.NopCloser(r), nil
	default:
		return nil, fmt.Errorf("unknown codec %q", codec)
	}
}

// Compress wraps w in a compressing writer for codec. Closing the returned
// writer flushes the codec trailer but does not close w.
func Compress(w io.Writer, codec Codec) (io.WriteCloser, error) {
	switch codec {
	case CodecGzip:
		return gzip.NewWriter(w), nil
	case CodecBzip2:
		return bzip2.NewWriter(w, nil)
	case CodecXz:
		return xz.NewWriter(w)
	case CodecZstd:
		return zstd.NewWriter(w)
	case CodecNone:
		return nopWriteCloser{w}, nil
	default:
		return nil, fmt.Errorf("unknown codec %q", codec)
	}
}
