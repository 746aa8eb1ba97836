// SPDX-License-Identifier: MPL-2.0

package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/buildpkg/buildpkg/internal/config"
	"github.com/buildpkg/buildpkg/internal/fetch"
	"github.com/buildpkg/buildpkg/internal/hostapi"
	"github.com/buildpkg/buildpkg/internal/packager"
	"github.com/buildpkg/buildpkg/internal/recipe"
	"github.com/buildpkg/buildpkg/internal/shell"
	"github.com/buildpkg/buildpkg/pkg/confine"
	"github.com/buildpkg/buildpkg/pkg/platform"
)

// Directory names created next to the recipe.
const (
	SourceDirName  = "src"
	PackageDirName = "pkg"
)

type (
	// Orchestrator runs builds with a fixed configuration. It holds no
	// per-build state, so one Orchestrator may run several builds in turn.
	Orchestrator struct {
		cfg        *config.Config
		archiver   packager.Archiver
		arch       string
		downloader hostapi.Downloader
		reporter   Reporter
		clean      bool
		stdout     io.Writer
		stderr     io.Writer
	}

	// Option configures an Orchestrator.
	Option func(*Orchestrator)

	// Result describes a successful build.
	Result struct {
		// Metadata is the validated metadata with the resolved version.
		Metadata *recipe.Metadata
		// Manifest holds the entries written to .pkgfiles.
		Manifest []string
		// MetadataFile is the path of package.json or package.toml.
		MetadataFile string
		// Artifact is the path of the package tarball.
		Artifact string
		// Cleaned is true when src/ and pkg/ were removed afterwards.
		Cleaned bool
	}

	// build is the state of one Run.
	build struct {
		o          *Orchestrator
		rc         *recipe.Context
		projectDir string
		src        confine.Source
		pkg        confine.Package
	}
)

// WithArchiver overrides the archiver selected by the config.
func WithArchiver(a packager.Archiver) Option {
	return func(o *Orchestrator) { o.archiver = a }
}

// WithArch overrides the host architecture.
func WithArch(arch string) Option {
	return func(o *Orchestrator) { o.arch = arch }
}

// WithDownloader replaces the HTTP client used by download().
func WithDownloader(d hostapi.Downloader) Option {
	return func(o *Orchestrator) { o.downloader = d }
}

// WithReporter sets the progress reporter.
func WithReporter(r Reporter) Option {
	return func(o *Orchestrator) { o.reporter = r }
}

// WithClean removes the source and package roots after a successful build.
func WithClean(clean bool) Option {
	return func(o *Orchestrator) { o.clean = clean }
}

// WithOutput sets where shell() scripts write.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(o *Orchestrator) {
		o.stdout = stdout
		o.stderr = stderr
	}
}

// New creates an Orchestrator. A nil cfg means the defaults.
func New(cfg *config.Config, opts ...Option) (*Orchestrator, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	o := &Orchestrator{
		cfg:      cfg,
		arch:     platform.HostArch(),
		reporter: nopReporter{},
		stdout:   os.Stdout,
		stderr:   os.Stderr,
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.archiver == nil {
		a, err := packager.New(cfg.Archiver)
		if err != nil {
			return nil, err
		}
		o.archiver = a
	}
	if o.downloader == nil {
		o.downloader = fetch.NewClient(
			fetch.WithUserAgent(cfg.Download.UserAgent),
			fetch.WithTimeout(cfg.Download.Timeout),
		)
	}
	return o, nil
}

// Run builds the package described by project, which is either a directory
// holding the recipe or the recipe file itself.
func (o *Orchestrator) Run(ctx context.Context, project string) (*Result, error) {
	recipePath, projectDir, err := recipe.Locate(project, o.cfg.RecipeFile)
	if err != nil {
		return nil, err
	}

	srcDir, err := confine.NewBaseDir(filepath.Join(projectDir, SourceDirName), confine.RoleSource)
	if err != nil {
		return nil, err
	}
	pkgDir, err := confine.NewBaseDir(filepath.Join(projectDir, PackageDirName), confine.RolePackage)
	if err != nil {
		return nil, err
	}

	b := &build{
		o:          o,
		rc:         recipe.NewContext(),
		projectDir: projectDir,
		src:        confine.NewSource(srcDir),
		pkg:        confine.NewPackage(pkgDir),
	}
	defer b.rc.Close()

	o.host(b.src, b.pkg).Register(b.rc.State())

	slog.Info("building package", "recipe", recipePath, "arch", o.arch)
	return b.run(ctx, recipePath)
}

func (o *Orchestrator) host(src confine.Source, pkg confine.Package) *hostapi.Host {
	opts := []hostapi.Option{
		hostapi.WithArch(o.arch),
		hostapi.WithDownloader(o.downloader),
	}
	if o.cfg.Shell.Enabled {
		opts = append(opts, hostapi.WithShell(shell.New(src, pkg, shell.WithStdIO(o.stdout, o.stderr))))
	}
	return hostapi.New(src, pkg, opts...)
}

func (b *build) enter(stage Stage) {
	slog.Debug("entering stage", "stage", stage)
	b.o.reporter.StageStarted(stage)
}

func (b *build) run(ctx context.Context, recipePath string) (*Result, error) {
	b.enter(StageLoad)
	if err := b.rc.Load(ctx, recipePath); err != nil {
		if errors.Is(err, recipe.ErrRecipeNotFound) {
			return nil, err
		}
		return nil, &ScriptError{Stage: StageLoad, Err: err}
	}

	b.enter(StageValidateMetadata)
	decoded, err := b.rc.Metadata()
	if err != nil {
		return nil, err
	}
	m := *decoded
	if m.Dev {
		b.o.reporter.DevMode(&m)
	}

	b.enter(StageFetchSources)
	if err := b.call(ctx, StageFetchSources, recipe.CallbackSources); err != nil {
		return nil, err
	}

	b.enter(StageResolveVersion)
	if !m.HasVersion() {
		v, err := b.rc.CallString(ctx, recipe.CallbackVersion)
		if err != nil {
			return nil, &ScriptError{Stage: StageResolveVersion, Callback: recipe.CallbackVersion, Err: err}
		}
		m.Version = v
	}
	b.o.reporter.Building(&m)

	b.enter(StageArchitectureGate)
	if !platform.Supports(m.Arch, b.o.arch) {
		return nil, &ArchError{Host: b.o.arch, Declared: m.Arch}
	}

	b.enter(StagePrepare)
	if err := b.call(ctx, StagePrepare, recipe.CallbackPrepare); err != nil {
		return nil, err
	}

	b.enter(StagePackage)
	if err := b.call(ctx, StagePackage, recipe.CallbackPackage); err != nil {
		return nil, err
	}

	b.enter(StageFinalize)
	res, err := b.finalize(ctx, &m)
	if err != nil {
		return nil, err
	}
	b.o.reporter.Finished(res)
	return res, nil
}

// call runs a mandatory callback.
func (b *build) call(ctx context.Context, stage Stage, name string) error {
	if _, err := b.rc.Call(ctx, name); err != nil {
		return &ScriptError{Stage: stage, Callback: name, Err: err}
	}
	return nil
}

func (b *build) finalize(ctx context.Context, m *recipe.Metadata) (*Result, error) {
	root := b.pkg.Root()

	entries, err := Manifest(ctx, root, b.o.cfg.MetadataFormat)
	if err != nil {
		return nil, err
	}
	if _, err := WriteManifest(root, entries); err != nil {
		return nil, err
	}
	slog.Debug("wrote manifest", "entries", len(entries))

	metaPath, err := WriteMetadata(root, NewPackageInfo(m), b.o.cfg.MetadataFormat)
	if err != nil {
		return nil, err
	}

	artifact := filepath.Join(b.projectDir, packager.FileName(m.Name, m.Version, b.o.arch))
	if err := b.o.archiver.Archive(ctx, root, artifact); err != nil {
		return nil, err
	}
	slog.Info("package written", "path", artifact)

	res := &Result{
		Metadata:     m,
		Manifest:     entries,
		MetadataFile: metaPath,
		Artifact:     artifact,
	}
	if b.o.clean {
		if err := b.cleanup(); err != nil {
			return nil, err
		}
		res.Cleaned = true
	}
	return res, nil
}

func (b *build) cleanup() error {
	for _, dir := range []string{b.src.Root(), b.pkg.Root()} {
		slog.Debug("removing build directory", "path", dir)
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("clean %s: %w", dir, err)
		}
	}
	return nil
}
