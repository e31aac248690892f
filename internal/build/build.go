// Package build drives the recipe lifecycle inside a workspace and caches
// finished package trees.
package build

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/goplus/xsltpkg/formula"
	"github.com/goplus/xsltpkg/internal/env"
	"github.com/goplus/xsltpkg/internal/fetch"
	"github.com/goplus/xsltpkg/internal/recipe"
	"github.com/goplus/xsltpkg/internal/shell"
	"github.com/goplus/xsltpkg/mod/module"
)

// Options configures a Builder.
type Options struct {
	// WorkspaceDir holds caches and package trees; empty means the
	// per-user default.
	WorkspaceDir string
	// Force rebuilds even when the cache has an entry.
	Force bool

	Runner  shell.Runner
	Fetcher *fetch.Fetcher
	Logger  *log.Logger

	// URL and SHA256 override the recipe's source location and digest.
	URL    string
	SHA256 string
	// HostOS and Jobs override the recipe's host detection.
	HostOS string
	Jobs   int
}

// Builder runs recipes in a workspace.
type Builder struct {
	workspaceDir string
	force        bool

	runner  shell.Runner
	fetcher *fetch.Fetcher
	logger  *log.Logger

	url    string
	sha256 string
	hostOS string
	jobs   int
}

// Result describes a package tree produced, or found in the cache, by Build.
type Result struct {
	Ref        module.Reference
	Matrix     string
	PackageDir string
	Resolved   recipe.Resolved
	CppInfo    formula.CppInfo
	// Cached reports that the tree came from an earlier build.
	Cached bool
}

// NewBuilder returns a Builder for opts, creating the default workspace
// when none is given.
func NewBuilder(opts Options) (*Builder, error) {
	dir := opts.WorkspaceDir
	if dir == "" {
		var err error
		if dir, err = env.WorkspaceDir(); err != nil {
			return nil, err
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Builder{
		workspaceDir: dir,
		force:        opts.Force,
		runner:       opts.Runner,
		fetcher:      opts.Fetcher,
		logger:       logger,
		url:          opts.URL,
		sha256:       opts.SHA256,
		hostOS:       opts.HostOS,
		jobs:         opts.Jobs,
	}, nil
}

// WorkspaceDir returns the directory the builder works in.
func (b *Builder) WorkspaceDir() string {
	return b.workspaceDir
}

// Recipe returns a recipe laid out in the workspace for s and opts. The
// caller drives its lifecycle; Build does so for the whole of it.
func (b *Builder) Recipe(s formula.Settings, opts formula.Options, deps formula.Deps) (*recipe.Recipe, error) {
	ref := recipe.Reference()
	matrix := s.Matrix(opts).String()
	pkgDir, err := b.packageDir(ref, matrix)
	if err != nil {
		return nil, err
	}
	workDir, err := b.workDir(ref, matrix)
	if err != nil {
		return nil, err
	}
	r := recipe.New(s, opts, deps, formula.NewProject(workDir, recipe.SourceDir, pkgDir))
	r.URL = b.url
	r.SHA256 = b.sha256
	r.Runner = b.runner
	r.Fetcher = b.fetcher
	r.Logger = b.logger
	if b.hostOS != "" {
		r.HostOS = b.hostOS
	}
	if b.jobs > 0 {
		r.Jobs = b.jobs
	}
	return r, nil
}

// Lookup returns the cached package tree for s and opts, if any.
func (b *Builder) Lookup(s formula.Settings, opts formula.Options) (Result, bool) {
	ref := recipe.Reference()
	matrix := s.Matrix(opts).String()
	cache, err := b.loadCache(ref.Name)
	if err != nil {
		return Result{}, false
	}
	entry, ok := cache.get(ref.Version, matrix)
	if !ok {
		return Result{}, false
	}
	pkgDir, err := b.packageDir(ref, matrix)
	if err != nil || !isDir(pkgDir) {
		return Result{}, false
	}
	return Result{
		Ref:        ref,
		Matrix:     matrix,
		PackageDir: pkgDir,
		Resolved:   recipe.Resolve(s, opts),
		CppInfo:    formula.CppInfo{Libs: strings.Fields(entry.Metadata)},
		Cached:     true,
	}, true
}

// Build runs source, configure, build, package and package_info for s and
// opts, in that order. The first failing step aborts the build; nothing is
// cleaned up.
func (b *Builder) Build(ctx context.Context, s formula.Settings, opts formula.Options, deps formula.Deps) (Result, error) {
	ref := recipe.Reference()
	matrix := s.Matrix(opts).String()

	if !b.force {
		if res, ok := b.Lookup(s, opts); ok {
			b.logger.Info("using cached package", "ref", ref, "matrix", matrix)
			return res, nil
		}
	}

	r, err := b.Recipe(s, opts, deps)
	if err != nil {
		return Result{}, err
	}
	proj := r.Project
	for _, dir := range []string{proj.PackageDir, proj.WorkDir} {
		if err := os.RemoveAll(dir); err != nil {
			return Result{}, err
		}
	}
	if err := os.MkdirAll(proj.WorkDir, 0o755); err != nil {
		return Result{}, err
	}

	b.logger.Info("building package", "ref", ref, "matrix", matrix)
	start := time.Now()
	if err := r.Source(ctx); err != nil {
		return Result{}, fmt.Errorf("%s: %w", ref, err)
	}
	res := r.Configure()
	if err := r.Build(ctx, res); err != nil {
		return Result{}, fmt.Errorf("%s: %w", ref, err)
	}
	if err := r.Package(ctx); err != nil {
		return Result{}, fmt.Errorf("%s: %w", ref, err)
	}
	info := r.PackageInfo()
	if err := recipe.WriteManifest(proj.PackageDir, r.Manifest(res)); err != nil {
		return Result{}, fmt.Errorf("%s: writing manifest: %w", ref, err)
	}

	cache, err := b.loadCache(ref.Name)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			b.logger.Warn("discarding unreadable build cache", "err", err)
		}
		cache = &buildCache{}
	}
	cache.set(ref.Version, matrix, &buildEntry{
		Metadata:  strings.Join(info.Libs, " "),
		Shared:    res.Shared,
		BuildTime: time.Now(),
	})
	if err := b.saveCache(ref.Name, cache); err != nil {
		return Result{}, err
	}
	b.logger.Info("package ready", "dir", proj.PackageDir, "elapsed", time.Since(start).Round(time.Millisecond))

	return Result{
		Ref:        ref,
		Matrix:     matrix,
		PackageDir: proj.PackageDir,
		Resolved:   res,
		CppInfo:    info,
	}, nil
}

// BuildAll builds every value of the shared option for s, static first.
func (b *Builder) BuildAll(ctx context.Context, s formula.Settings, deps formula.Deps) ([]Result, error) {
	m := s.OptionsMatrix()
	var results []Result
	for _, variant := range m.Expand() {
		res, err := b.Build(ctx, s, formula.OptionsOf(variant), deps)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// Remove drops the package tree, sources and cache entry for s and opts.
func (b *Builder) Remove(s formula.Settings, opts formula.Options) error {
	ref := recipe.Reference()
	matrix := s.Matrix(opts).String()
	pkgDir, err := b.packageDir(ref, matrix)
	if err != nil {
		return err
	}
	for _, dir := range []string{pkgDir, pkgDir + ".src"} {
		if err := os.RemoveAll(dir); err != nil {
			return err
		}
	}
	cache, err := b.loadCache(ref.Name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	} else if err != nil {
		return err
	}
	cache.delete(ref.Version, matrix)
	return b.saveCache(ref.Name, cache)
}

func isDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}
