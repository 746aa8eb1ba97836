// SPDX-License-Identifier: MPL-2.0

// Package shell runs recipe shell snippets in an embedded POSIX interpreter
// (mvdan.cc/sh) whose file access is confined to the build's source and
// package roots.
//
// Redirections are routed through an open handler that rejects paths outside
// both roots. The file-mutating utilities cp, mkdir, ln and rm are served by
// in-process builtins that apply the same check to every path operand; other
// commands fall through to the host PATH.
package shell
