// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helper functions for tests that handle errors
// appropriately, reducing boilerplate and ensuring consistent error handling.
//
// Common helpers include file operations (MustWriteFile, MustReadFile,
// MustMkdirAll), build scopes rooted in a temporary project (NewScopes), and
// a deterministic git repository fixture (NewGitRepo).
package testutil
