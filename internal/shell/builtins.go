// SPDX-License-Identifier: MPL-2.0

package shell

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/buildpkg/buildpkg/pkg/confine"

	"github.com/u-root/u-root/pkg/core/cp"
)

var errUsage = errors.New("missing operand")

// confinedCommand is a builtin whose path operands must resolve inside the
// runner's roots.
type confinedCommand struct {
	name  string
	flags string
	run   func(r *Runner, flags map[rune]bool, paths []string) error
	r     *Runner
}

func newBuiltinRegistry(r *Runner) *Registry {
	reg := NewRegistry()
	for _, c := range []confinedCommand{
		{name: "cp", flags: "rRfPL", run: runCp},
		{name: "mkdir", flags: "p", run: runMkdir},
		{name: "ln", flags: "sf", run: runLn},
		{name: "rm", flags: "rRf", run: runRm},
	} {
		c.r = r
		reg.Register(&c)
	}
	return reg
}

func (c *confinedCommand) Name() string { return c.name }

func (c *confinedCommand) Run(ctx context.Context, dir string, args []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	flags, operands, err := parseFlags(args, c.flags)
	if err != nil {
		return err
	}

	paths := make([]string, len(operands))
	for i, op := range operands {
		// ln -s keeps its target literal; only the link location is confined.
		if c.name == "ln" && flags['s'] && i < len(operands)-1 {
			paths[i] = op
			continue
		}
		abs := c.r.absPath(dir, op)
		if err := c.r.check(abs, c.follows(flags, i, len(operands))); err != nil {
			return err
		}
		paths[i] = abs
	}
	return c.run(c.r, flags, paths)
}

// follows reports whether operand i is dereferenced by the command. rm and
// ln act on the entry itself; cp reads its sources through links only
// with -L.
func (c *confinedCommand) follows(flags map[rune]bool, i, n int) bool {
	switch c.name {
	case "rm", "ln":
		return false
	case "cp":
		return i == n-1 || (flags['L'] && !flags['P'])
	default:
		return true
	}
}

// parseFlags splits leading single-letter flags from operands. "--" ends
// flag parsing.
func parseFlags(args []string, allowed string) (map[rune]bool, []string, error) {
	flags := make(map[rune]bool)
	i := 0
	for ; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			i++
			break
		}
		if len(arg) < 2 || !strings.HasPrefix(arg, "-") {
			break
		}
		for _, f := range arg[1:] {
			if !strings.ContainsRune(allowed, f) {
				return nil, nil, fmt.Errorf("invalid option -- '%c'", f)
			}
			flags[f] = true
		}
	}
	return flags, args[i:], nil
}

func runCp(_ *Runner, flags map[rune]bool, paths []string) error {
	if len(paths) < 2 {
		return errUsage
	}
	// Symlinks are copied as links unless -L asks to dereference them.
	opts := cp.NoFollowSymlinks
	if flags['L'] && !flags['P'] {
		opts = cp.Default
	}
	opts.PreCallback = func(_, dst string, _ os.FileInfo) error {
		return confine.CheckCreate(dst)
	}
	recursive := flags['r'] || flags['R']

	dst := paths[len(paths)-1]
	srcs := paths[:len(paths)-1]
	dstInfo, err := os.Stat(dst)
	dstIsDir := err == nil && dstInfo.IsDir()
	if len(srcs) > 1 && !dstIsDir {
		return fmt.Errorf("target %q is not a directory", dst)
	}

	for _, src := range srcs {
		target := dst
		if dstIsDir {
			target = filepath.Join(dst, filepath.Base(src))
		}
		stat := os.Lstat
		if !opts.NoFollowSymlinks {
			stat = os.Stat
		}
		info, err := stat(src)
		if err != nil {
			return err
		}
		if info.IsDir() {
			if !recursive {
				return fmt.Errorf("-r not specified; omitting directory %q", src)
			}
			err = opts.CopyTree(src, target)
		} else {
			err = opts.Copy(src, target)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func runMkdir(_ *Runner, flags map[rune]bool, paths []string) error {
	if len(paths) == 0 {
		return errUsage
	}
	for _, p := range paths {
		var err error
		if flags['p'] {
			err = os.MkdirAll(p, 0o755)
		} else {
			err = os.Mkdir(p, 0o755)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func runLn(_ *Runner, flags map[rune]bool, paths []string) error {
	if len(paths) != 2 {
		return errUsage
	}
	target, link := paths[0], paths[1]
	if flags['f'] {
		if err := os.Remove(link); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	if flags['s'] {
		return os.Symlink(target, link)
	}
	return os.Link(target, link)
}

func runRm(r *Runner, flags map[rune]bool, paths []string) error {
	if len(paths) == 0 {
		if flags['f'] {
			return nil
		}
		return errUsage
	}
	recursive := flags['r'] || flags['R']
	for _, p := range paths {
		if p == r.src.Root() || p == r.pkg.Root() {
			return fmt.Errorf("refusing to remove root %q", p)
		}
		var err error
		if recursive {
			err = os.RemoveAll(p)
		} else {
			err = os.Remove(p)
		}
		if err != nil && !(flags['f'] && errors.Is(err, fs.ErrNotExist)) {
			return err
		}
	}
	return nil
}
