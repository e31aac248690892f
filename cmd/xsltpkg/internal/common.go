package internal

import (
	"context"
	"os"

	"github.com/goplus/xsltpkg/internal/build"
	"github.com/goplus/xsltpkg/internal/config"
	"github.com/goplus/xsltpkg/internal/fetch"
	"github.com/goplus/xsltpkg/internal/recipe"
	"github.com/goplus/xsltpkg/internal/shell"
	"github.com/goplus/xsltpkg/internal/testpkg"
	"github.com/goplus/xsltpkg/mod/module"
)

func loadProfile() (*config.Profile, error) {
	p, err := config.Load(profilePath)
	if err != nil {
		return nil, err
	}
	logger.Debug("loaded profile", "path", profilePath, "settings", p.Settings, "shared", p.Options.Shared)
	return p, nil
}

// newRunner returns a process runner; build tool output is only shown with
// --verbose.
func newRunner() shell.Runner {
	if verbose {
		return &shell.Exec{Stdout: os.Stderr, Stderr: os.Stderr}
	}
	return &shell.Exec{}
}

func newBuilder(p *config.Profile, force bool) (*build.Builder, error) {
	return build.NewBuilder(build.Options{
		WorkspaceDir: p.Workspace,
		Force:        force,
		Runner:       newRunner(),
		Fetcher:      fetch.New(logger),
		Logger:       logger,
		URL:          p.URL,
		SHA256:       p.SHA256,
	})
}

// newRecipe returns a recipe laid out in the profile's workspace, for the
// step commands.
func newRecipe(p *config.Profile) (*recipe.Recipe, error) {
	b, err := newBuilder(p, false)
	if err != nil {
		return nil, err
	}
	return b.Recipe(p.Settings, p.Options, p.Deps)
}

func runTest(ctx context.Context, p *config.Profile, ref module.Reference, res build.Result) error {
	tr := testpkg.New(ref, p.Settings, res.PackageDir, p.Deps, res.PackageDir+".test")
	tr.Runner = newRunner()
	tr.Logger = logger
	if err := tr.Run(ctx); err != nil {
		return err
	}
	logger.Info("package test passed", "ref", ref, "matrix", res.Matrix)
	return nil
}
