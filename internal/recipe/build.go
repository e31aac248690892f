package recipe

import (
	"context"
	"fmt"

	"github.com/goplus/xsltpkg/pkgs/buildsys"
	"github.com/goplus/xsltpkg/pkgs/buildsys/autotools"
	"github.com/goplus/xsltpkg/pkgs/buildsys/nmake"
)

// Build compiles the source tree with the strategy chosen by res.
func (r *Recipe) Build(ctx context.Context, res Resolved) error {
	s, err := r.Strategy(res)
	if err != nil {
		return fmt.Errorf("build: %w", err)
	}
	r.logger().Info("building", "strategy", s.Kind(), "shared", res.Shared)
	if err := s.Run(ctx); err != nil {
		return fmt.Errorf("build: %w", err)
	}
	return nil
}

// Strategy returns the configured build strategy for res.
func (r *Recipe) Strategy(res Resolved) (buildsys.Strategy, error) {
	switch res.Strategy {
	case buildsys.NativeToolchain:
		return r.nativeToolchain(res), nil
	case buildsys.ConfigureScript:
		return r.configureScript(res)
	}
	return nil, fmt.Errorf("unknown strategy %v", res.Strategy)
}

func (r *Recipe) nativeToolchain(res Resolved) *nmake.NMake {
	n := nmake.New(r.runner(), r.Project.SourceDir)
	n.Logger(r.logger())
	n.Runtime(r.Settings.Runtime)
	for _, name := range r.Deps.Names() {
		n.Use(r.Deps[name])
	}
	libs := append([]string(nil), r.Deps[ICU].Libs...)
	n.Libs(append(libs, nmake.SocketLib)...)
	n.Flags(res.Flags...)
	return n
}

func (r *Recipe) configureScript(res Resolved) (*autotools.AutoTools, error) {
	xml2, ok := r.Deps[XML2]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingDependency, XML2)
	}
	a := autotools.New(r.runner(), r.Project.SourceDir, r.Project.BuildDir, r.Project.PackageDir)
	a.Logger(r.logger())
	a.HostOS(r.HostOS)
	a.Jobs(r.Jobs)
	for _, name := range r.Deps.Names() {
		a.Use(r.Deps[name])
	}
	a.XMLConfig(xml2.RootPath)
	a.Flags(res.Flags...)
	return a, nil
}
