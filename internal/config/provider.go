// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"log/slog"
)

// LoadOptions picks where configuration is read from. Zero values fall back
// to the XDG config directory and then the working directory.
type LoadOptions struct {
	// ConfigFilePath is the --config flag. When set no search happens.
	ConfigFilePath string
	// ConfigDirPath replaces $XDG_CONFIG_HOME/buildpkg.
	ConfigDirPath string
	// WorkDir is where a project-local config.cue is looked up; empty means
	// the process working directory.
	WorkDir string
}

// Provider resolves the build configuration.
type Provider interface {
	Load(ctx context.Context, opts LoadOptions) (*Config, error)
}

type fileProvider struct{}

// NewProvider returns the file and environment backed Provider.
func NewProvider() Provider { return fileProvider{} }

func (fileProvider) Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	cfg, source, err := loadWithOptions(ctx, opts)
	if err != nil {
		return nil, err
	}
	if source == "" {
		slog.Debug("no config file found, using defaults and environment")
	} else {
		slog.Debug("loaded config", "path", source)
	}
	return cfg, nil
}
