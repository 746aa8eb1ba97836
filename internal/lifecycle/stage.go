// SPDX-License-Identifier: MPL-2.0

package lifecycle

import (
	"fmt"
	"strings"

	"github.com/buildpkg/buildpkg/internal/recipe"
)

// Build stages in execution order.
const (
	StageLoad             Stage = "load"
	StageValidateMetadata Stage = "validate-metadata"
	StageFetchSources     Stage = "fetch-sources"
	StageResolveVersion   Stage = "resolve-version"
	StageArchitectureGate Stage = "architecture-gate"
	StagePrepare          Stage = "prepare"
	StagePackage          Stage = "package"
	StageFinalize         Stage = "finalize"
)

type (
	// Stage names one step of a build.
	Stage string

	// Reporter receives progress notifications. Implementations must not
	// block; they are called from the goroutine driving the recipe.
	Reporter interface {
		// StageStarted is called as each stage begins.
		StageStarted(stage Stage)
		// DevMode is called after validation when INFO.dev is true.
		DevMode(m *recipe.Metadata)
		// Building is called once the version is known.
		Building(m *recipe.Metadata)
		// Finished is called after the artifact has been written.
		Finished(res *Result)
	}

	nopReporter struct{}
)

// Stages returns every stage in execution order.
func Stages() []Stage {
	return []Stage{
		StageLoad,
		StageValidateMetadata,
		StageFetchSources,
		StageResolveVersion,
		StageArchitectureGate,
		StagePrepare,
		StagePackage,
		StageFinalize,
	}
}

// String returns the stage name.
func (s Stage) String() string { return string(s) }

// Banner formats the one-line package summary printed before the
// architecture check.
func Banner(m *recipe.Metadata) string {
	return fmt.Sprintf("- %s %s (%s) maintained by %s", m.Name, m.Version, m.License, strings.Join(m.Maintainers, ", "))
}

func (nopReporter) StageStarted(Stage) {}
func (nopReporter) DevMode(*recipe.Metadata) {}
func (nopReporter) Building(*recipe.Metadata) {}
func (nopReporter) Finished(*Result) {}
