// SPDX-License-Identifier: MPL-2.0

// Package vcs wraps the git operations recipes use to fetch and inspect
// sources: clone, open, list tags and count commits since a reference.
package vcs
