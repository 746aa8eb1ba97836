// SPDX-License-Identifier: MPL-2.0

// Package archive unpacks tar-family source archives.
//
// The compression codec is chosen purely from the file name suffix using a
// fixed, ordered table (see [DetectCodec]). A name that matches no entry is
// read as an uncompressed tar stream. That fallback is deliberately permissive
// and does not sniff magic bytes, so a mislabelled archive surfaces as a tar
// read error rather than a format-detection error.
//
// Every entry is placed under the destination directory. Names that climb out
// of it after normalization are rejected, and parent directories are resolved
// with symlink-aware scoping so an earlier symlink entry cannot redirect a later
// write outside the destination.
package archive
