// SPDX-License-Identifier: MPL-2.0

// Package config handles buildpkg configuration using Viper with CUE as the file format.
//
// Configuration is read from $XDG_CONFIG_HOME/buildpkg/config.cue, falling back to
// ./config.cue, unless a file is passed explicitly. Every key has a default, so no
// file is required. Values can be overridden with BUILDPKG_* environment variables
// (for example BUILDPKG_SHELL_ENABLED=true).
//
// Files are validated against the embedded CUE schema (config_schema.cue) before
// being merged into Viper.
package config
