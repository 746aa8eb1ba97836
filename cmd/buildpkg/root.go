// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/buildpkg/buildpkg/internal/config"
	"github.com/buildpkg/buildpkg/internal/lifecycle"
	"github.com/buildpkg/buildpkg/pkg/types"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbose enables debug logging and the error chain in diagnostics
	verbose bool
	// clean removes src/ and pkg/ after a successful build
	clean bool
	// cfgFile allows specifying a custom config file
	cfgFile string
	// glamourStyle is the style used to render issue guidance
	glamourStyle = "auto"

	rootCmd = &cobra.Command{
		Use:   "buildpkg [flags] <project>",
		Short: "Build a package from a Lua recipe",
		Long: TitleStyle.Render("buildpkg") + SubtitleStyle.Render(" - build packages from Lua recipes") + `

buildpkg evaluates the buildpkg.lua recipe in a project directory, runs its
SOURCES, PREPARE and PACKAGE callbacks against the project's src/ and pkg/
directories and archives pkg/ as <name>-<version>-<arch>.tar.gz.

` + SubtitleStyle.Render("Examples:") + `
  buildpkg ./hello                 Build the recipe in ./hello
  buildpkg ./hello/buildpkg.lua    Same, naming the recipe file
  buildpkg -C ./hello              Build, then remove src/ and pkg/`,
		Args: cobra.ExactArgs(1),
		RunE: runBuild,
	}
)

func init() {
	rootCmd.Flags().BoolVarP(&clean, "clean", "C", false, "remove src/ and pkg/ after a successful build")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/buildpkg/config.cue)")
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the root command and exits with the build's status code.
// SIGINT cancels the context handed to the build.
func Execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(handleError),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(int(exitErr.Code.OrFailure()))
		}
		os.Exit(int(types.ExitFailure))
	}
}

// handleError prints a failed run. With --verbose the catalog guidance for
// the failure is appended.
func handleError(w io.Writer, _ fang.Styles, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Err == nil {
		return
	}

	fmt.Fprintln(w, ErrorStyle.Render("Error:")+" "+formatErrorForDisplay(err, verbose))
	if verbose {
		if guidance := issueGuidance(err, glamourStyle); guidance != "" {
			fmt.Fprint(w, guidance)
		}
	}
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	project := args[0]

	cfg, err := config.NewProvider().Load(ctx, config.LoadOptions{ConfigFilePath: cfgFile})
	if err != nil {
		return failure(err)
	}
	applyUIConfig(cfg)
	slog.SetDefault(newLogger(cmd.ErrOrStderr(), verbose))

	orchestrator, err := lifecycle.New(cfg,
		lifecycle.WithClean(clean),
		lifecycle.WithReporter(newBuildReporter(cmd.OutOrStdout())),
		lifecycle.WithOutput(cmd.OutOrStdout(), cmd.ErrOrStderr()),
	)
	if err != nil {
		return failure(err)
	}

	if _, err := orchestrator.Run(ctx, project); err != nil {
		return failure(explainBuildError(err, project))
	}
	return nil
}

// applyUIConfig lets the config file turn on verbose output and pick the
// guidance style. The --verbose flag always wins.
func applyUIConfig(cfg *config.Config) {
	if !verbose {
		verbose = cfg.UI.Verbose
	}
	switch cfg.UI.ColorScheme {
	case config.ColorSchemeDark:
		glamourStyle = "dark"
	case config.ColorSchemeLight:
		glamourStyle = "light"
	default:
		glamourStyle = "auto"
	}
}

// newLogger returns a slog logger backed by a charmbracelet/log handler
// writing to w.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	handler := log.NewWithOptions(w, log.Options{
		Prefix: config.AppName,
		Level:  level,
	})
	return slog.New(handler)
}
