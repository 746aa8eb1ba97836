// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/buildpkg/buildpkg/internal/issue"
	"github.com/buildpkg/buildpkg/internal/lifecycle"
	"github.com/buildpkg/buildpkg/internal/packager"
	"github.com/buildpkg/buildpkg/internal/recipe"
)

// explainBuildError attaches an operation, a catalog entry and suggestions to
// a failed build. Errors that are already actionable pass through.
func explainBuildError(err error, project string) error {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return err
	}

	ec := issue.NewErrorContext().WithResource(project).Wrap(err)

	var (
		scriptErr *lifecycle.ScriptError
		archErr   *lifecycle.ArchError
	)
	switch {
	case errors.Is(err, recipe.ErrRecipeNotFound):
		ec.WithOperation("locate recipe").
			WithIssue(issue.RecipeNotFoundId).
			WithSuggestion("Pass a directory containing buildpkg.lua, or the recipe file itself")

	case errors.Is(err, recipe.ErrMetadata):
		ec.WithOperation("validate recipe metadata").
			WithIssue(issue.MetadataInvalidId).
			WithSuggestion("Check the INFO table for the fields listed above").
			WithSuggestion("Declare either INFO.version or a VERSION() function, not both")

	case errors.Is(err, recipe.ErrCallbackMissing):
		ec.WithOperation("run recipe").
			WithIssue(issue.CallbackMissingId).
			WithSuggestion("Define SOURCES(), PREPARE() and PACKAGE() in the recipe, even if empty")

	case errors.As(err, &scriptErr) && scriptErr.Stage == lifecycle.StageLoad:
		ec.WithOperation("load recipe").
			WithIssue(issue.RecipeLoadFailedId).
			WithSuggestion("Fix the Lua error reported above")

	case errors.As(err, &scriptErr):
		ec.WithOperation(fmt.Sprintf("run %s()", scriptErr.Callback))
		if strings.Contains(err.Error(), "path error:") {
			ec.WithIssue(issue.PathConfinementId).
				WithSuggestion("Use paths relative to SRC_DIR or PKG_DIR without \"..\" components")
		} else {
			ec.WithIssue(issue.ScriptFailedId).
				WithSuggestion("Re-run with --verbose to see each host operation")
		}

	case errors.As(err, &archErr):
		ec.WithOperation("check architecture").
			WithIssue(issue.ArchNotSupportedId).
			WithSuggestion(fmt.Sprintf("Add %q to INFO.arch if the package builds on this host", archErr.Host))

	case errors.Is(err, packager.ErrArchive):
		ec.WithOperation("create package archive").
			WithIssue(issue.PackageArchiveFailedId).
			WithSuggestion("Make sure tar is installed, or set archiver: \"builtin\" in config.cue")

	default:
		ec.WithOperation("build package")
	}
	return ec.BuildError()
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

// issueGuidance renders the catalog entry referenced by err, or "".
func issueGuidance(err error, style string) string {
	var ae *issue.ActionableError
	if !errors.As(err, &ae) || ae.Issue() == nil {
		return ""
	}
	out, renderErr := ae.Issue().Render(style)
	if renderErr != nil {
		return ""
	}
	return out
}
