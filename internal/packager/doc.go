// SPDX-License-Identifier: MPL-2.0

// Package packager turns a finished package root into the distributable
// tarball. Entries are stored relative to the root ("./usr/bin/...") and owned
// by root:root regardless of who ran the build.
package packager
