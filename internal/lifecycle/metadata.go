// SPDX-License-Identifier: MPL-2.0

package lifecycle

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/buildpkg/buildpkg/internal/config"
	"github.com/buildpkg/buildpkg/internal/recipe"

	"github.com/google/renameio"
	"github.com/pelletier/go-toml/v2"
)

// PackageInfo is the metadata shipped inside the package. Build-time
// dependency lists are not part of it.
type PackageInfo struct {
	Name         string   `json:"name" toml:"name"`
	Description  string   `json:"description" toml:"description"`
	Version      string   `json:"version" toml:"version"`
	License      string   `json:"license" toml:"license"`
	Dev          bool     `json:"dev" toml:"dev"`
	Dependencies []string `json:"dependencies" toml:"dependencies"`
	Conflicts    []string `json:"conflicts" toml:"conflicts"`
	Provides     []string `json:"provides" toml:"provides"`
	Replaces     []string `json:"replaces" toml:"replaces"`
	Arch         []string `json:"arch" toml:"arch"`
	URL          string   `json:"url" toml:"url"`
	Maintainers  []string `json:"maintainers" toml:"maintainers"`
}

// NewPackageInfo projects resolved recipe metadata onto PackageInfo.
// m.Version must already be set.
func NewPackageInfo(m *recipe.Metadata) *PackageInfo {
	return &PackageInfo{
		Name:         m.Name,
		Description:  m.Description,
		Version:      m.Version,
		License:      m.License,
		Dev:          m.Dev,
		Dependencies: nonNil(m.Dependencies),
		Conflicts:    nonNil(m.Conflicts),
		Provides:     nonNil(m.Provides),
		Replaces:     nonNil(m.Replaces),
		Arch:         nonNil(m.Arch),
		URL:          m.URL,
		Maintainers:  nonNil(m.Maintainers),
	}
}

// MetadataFileName returns the file name used for format.
func MetadataFileName(format config.MetadataFormat) string {
	if format == config.MetadataTOML {
		return MetadataTOMLFile
	}
	return MetadataJSONFile
}

// Marshal encodes info in format. JSON output is compact.
func (info *PackageInfo) Marshal(format config.MetadataFormat) ([]byte, error) {
	switch format {
	case config.MetadataJSON:
		return json.Marshal(info)
	case config.MetadataTOML:
		return toml.Marshal(info)
	default:
		return nil, format.Validate()
	}
}

// WriteMetadata writes info into root and returns the file path.
func WriteMetadata(root string, info *PackageInfo, format config.MetadataFormat) (string, error) {
	data, err := info.Marshal(format)
	if err != nil {
		return "", fmt.Errorf("encode package metadata: %w", err)
	}
	path := filepath.Join(root, MetadataFileName(format))
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write package metadata: %w", err)
	}
	return path, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
