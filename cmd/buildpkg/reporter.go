// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"

	"github.com/buildpkg/buildpkg/internal/lifecycle"
	"github.com/buildpkg/buildpkg/internal/recipe"
)

// stageMessages holds the progress line printed when a stage starts.
// Stages without an entry run silently.
var stageMessages = map[lifecycle.Stage]string{
	lifecycle.StageFetchSources: "Getting sources...",
	lifecycle.StagePrepare:      "Preparing...",
	lifecycle.StagePackage:      "Packaging...",
}

// buildReporter prints build progress to w.
type buildReporter struct {
	w io.Writer
}

func newBuildReporter(w io.Writer) *buildReporter {
	return &buildReporter{w: w}
}

func (r *buildReporter) StageStarted(stage lifecycle.Stage) {
	if msg, ok := stageMessages[stage]; ok {
		fmt.Fprintln(r.w, StageStyle.Render(msg))
	}
}

func (r *buildReporter) DevMode(*recipe.Metadata) {
	fmt.Fprintln(r.w, WarningStyle.Render("Building package in dev mode"))
}

func (r *buildReporter) Building(m *recipe.Metadata) {
	fmt.Fprintf(r.w, "\n%s\n\n", BannerStyle.Render(lifecycle.Banner(m)))
}

func (r *buildReporter) Finished(res *lifecycle.Result) {
	fmt.Fprintf(r.w, "%s %s\n", SuccessStyle.Render("Package written to"), PathStyle.Render(res.Artifact))
}
