// SPDX-License-Identifier: MPL-2.0

// Package fetch downloads recipe sources over HTTP and computes SHA-256
// digests of local files.
//
// Downloads are written through a pending file in the destination directory
// and renamed into place only after the body was read completely and, when
// requested, its digest matched. A failed fetch never leaves a truncated file
// behind.
package fetch
