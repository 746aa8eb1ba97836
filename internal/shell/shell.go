// SPDX-License-Identifier: MPL-2.0

package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/buildpkg/buildpkg/pkg/confine"
	"github.com/buildpkg/buildpkg/pkg/types"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// devNull is always writable, whatever the roots are.
const devNull = "/dev/null"

type (
	// Runner executes scripts with the source root as working directory.
	Runner struct {
		src      confine.Source
		pkg      confine.Package
		env      []string
		stdout   io.Writer
		stderr   io.Writer
		builtins *Registry
	}

	// Option configures a Runner.
	Option func(*Runner)

	// ExitError reports a script that finished with a non-zero status.
	ExitError struct {
		Code types.ExitCode
	}
)

// Error implements the error interface.
func (e *ExitError) Error() string {
	return fmt.Sprintf("shell script exited with status %s", e.Code)
}

// WithStdIO sets the writers receiving the script's output.
func WithStdIO(stdout, stderr io.Writer) Option {
	return func(r *Runner) {
		r.stdout = stdout
		r.stderr = stderr
	}
}

// WithEnv appends KEY=VALUE pairs to the inherited environment.
func WithEnv(env ...string) Option {
	return func(r *Runner) {
		r.env = append(r.env, env...)
	}
}

// New creates a Runner bound to the given scopes.
func New(src confine.Source, pkg confine.Package, opts ...Option) *Runner {
	r := &Runner{
		src:    src,
		pkg:    pkg,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.builtins = newBuiltinRegistry(r)
	return r
}

// Run parses and executes script with errexit enabled. A non-zero exit is
// reported as *ExitError; parse failures and interpreter faults are returned
// as plain errors.
func (r *Runner) Run(ctx context.Context, script string) error {
	prog, err := syntax.NewParser().Parse(strings.NewReader(script), "shell")
	if err != nil {
		return fmt.Errorf("failed to parse script: %w", err)
	}

	env := append(os.Environ(),
		"SRC_DIR="+r.src.Root(),
		"PKG_DIR="+r.pkg.Root(),
	)
	env = append(env, r.env...)

	runner, err := interp.New(
		interp.Dir(r.src.Root()),
		interp.Env(expand.ListEnviron(env...)),
		interp.StdIO(nil, r.stdout, r.stderr),
		interp.Params("-e"),
		interp.OpenHandler(r.openHandler),
		interp.ExecHandlers(r.execHandler),
	)
	if err != nil {
		return fmt.Errorf("failed to create interpreter: %w", err)
	}

	if err := runner.Run(ctx, prog); err != nil {
		var exitStatus interp.ExitStatus
		if errors.As(err, &exitStatus) {
			return &ExitError{Code: types.ExitCode(exitStatus)}
		}
		return fmt.Errorf("script execution failed: %w", err)
	}
	return nil
}

// openHandler confines every redirection target. Violations are returned as
// *os.PathError so the interpreter treats them as a failed command rather
// than a fatal fault.
func (r *Runner) openHandler(ctx context.Context, path string, flag int, perm os.FileMode) (io.ReadWriteCloser, error) {
	if path != devNull {
		abs := r.absPath(interp.HandlerCtx(ctx).Dir, path)
		if err := r.check(abs, true); err != nil {
			return nil, &os.PathError{Op: "open", Path: path, Err: err}
		}
	}
	return interp.DefaultOpenHandler()(ctx, path, flag, perm)
}

// execHandler serves registered builtins and defers everything else to next.
func (r *Runner) execHandler(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
	return func(ctx context.Context, args []string) error {
		if len(args) == 0 {
			return next(ctx, args)
		}
		cmd, found := r.builtins.Lookup(args[0])
		if !found {
			return next(ctx, args)
		}

		hc := interp.HandlerCtx(ctx)
		if err := cmd.Run(ctx, hc.Dir, args[1:]); err != nil {
			fmt.Fprintf(hc.Stderr, "%s: %v\n", args[0], err)
			return interp.ExitStatus(1)
		}
		return nil
	}
}

func (r *Runner) absPath(dir, path string) string {
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	return filepath.Clean(path)
}

// check reports whether abs lies inside the source or package root once
// symlinks are resolved. With follow false the last component is taken as
// is.
func (r *Runner) check(abs string, follow bool) error {
	within := confine.EntryWithin
	if follow {
		within = confine.ResolvesWithin
	}
	if within(r.src.Root(), abs) || within(r.pkg.Root(), abs) {
		return nil
	}
	return &confine.PathError{
		Op:     "confine",
		Path:   abs,
		Reason: "outside source and package roots",
		Err:    confine.ErrNotInTargetDir,
	}
}
