// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"time"
)

const (
	// ArchiverTar shells out to the system tar binary.
	ArchiverTar ArchiverKind = "tar"
	// ArchiverBuiltin writes the tarball in-process.
	ArchiverBuiltin ArchiverKind = "builtin"

	// MetadataJSON writes package.json.
	MetadataJSON MetadataFormat = "json"
	// MetadataTOML writes package.toml.
	MetadataTOML MetadataFormat = "toml"

	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"

	// DefaultRecipeFile is the recipe looked up in a project directory.
	DefaultRecipeFile = "buildpkg.lua"
)

var (
	// ErrInvalidArchiverKind is returned when an ArchiverKind value is not recognized.
	ErrInvalidArchiverKind = errors.New("invalid archiver")
	// ErrInvalidMetadataFormat is returned when a MetadataFormat value is not recognized.
	ErrInvalidMetadataFormat = errors.New("invalid metadata format")
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ArchiverKind selects the packager.Archiver implementation.
	ArchiverKind string

	// MetadataFormat selects how the final package metadata is serialized.
	MetadataFormat string

	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidValueError reports an enum field holding an unknown value.
	InvalidValueError struct {
		Field string
		Value string
		Err   error
	}

	// InvalidConfigError collects field-level validation errors for a Config.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// RecipeFile is the recipe file name inside a project directory.
		RecipeFile string `json:"recipe_file" mapstructure:"recipe_file"`
		// Archiver selects how the final tarball is written.
		Archiver ArchiverKind `json:"archiver" mapstructure:"archiver"`
		// MetadataFormat selects package.json or package.toml.
		MetadataFormat MetadataFormat `json:"metadata_format" mapstructure:"metadata_format"`
		// Download configures the download() host function.
		Download DownloadConfig `json:"download" mapstructure:"download"`
		// Shell configures the shell() host function.
		Shell ShellConfig `json:"shell" mapstructure:"shell"`
		// UI configures the user interface.
		UI UIConfig `json:"ui" mapstructure:"ui"`
	}

	// DownloadConfig configures HTTP fetches made by recipes.
	DownloadConfig struct {
		UserAgent string        `json:"user_agent" mapstructure:"user_agent"`
		Timeout   time.Duration `json:"timeout" mapstructure:"timeout"`
	}

	// ShellConfig configures the embedded shell.
	ShellConfig struct {
		Enabled bool `json:"enabled" mapstructure:"enabled"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
		Verbose     bool        `json:"verbose" mapstructure:"verbose"`
	}
)

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		RecipeFile:     DefaultRecipeFile,
		Archiver:       ArchiverTar,
		MetadataFormat: MetadataJSON,
		Download: DownloadConfig{
			UserAgent: "buildpkg",
		},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
		},
	}
}

// Error implements the error interface.
func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("%s: %v %q", e.Field, e.Err, e.Value)
}

// Unwrap returns the field-specific sentinel.
func (e *InvalidValueError) Unwrap() error { return e.Err }

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %v", errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidConfig and every field error.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// Validate returns an error if the ArchiverKind is not recognized.
func (k ArchiverKind) Validate() error {
	switch k {
	case ArchiverTar, ArchiverBuiltin:
		return nil
	default:
		return &InvalidValueError{Field: "archiver", Value: string(k), Err: ErrInvalidArchiverKind}
	}
}

// Validate returns an error if the MetadataFormat is not recognized.
func (f MetadataFormat) Validate() error {
	switch f {
	case MetadataJSON, MetadataTOML:
		return nil
	default:
		return &InvalidValueError{Field: "metadata_format", Value: string(f), Err: ErrInvalidMetadataFormat}
	}
}

// Validate returns an error if the ColorScheme is not recognized.
func (c ColorScheme) Validate() error {
	switch c {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return nil
	default:
		return &InvalidValueError{Field: "ui.color_scheme", Value: string(c), Err: ErrInvalidColorScheme}
	}
}

// Validate checks values that environment overrides can set past the CUE schema.
func (c *Config) Validate() error {
	var errs []error
	for _, err := range []error{
		c.Archiver.Validate(),
		c.MetadataFormat.Validate(),
		c.UI.ColorScheme.Validate(),
	} {
		if err != nil {
			errs = append(errs, err)
		}
	}
	if c.RecipeFile == "" {
		errs = append(errs, errors.New("recipe_file: must not be empty"))
	}
	if c.Download.Timeout < 0 {
		errs = append(errs, fmt.Errorf("download.timeout: must not be negative, got %s", c.Download.Timeout))
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}
