// Package recipe builds and packages libxslt. A Recipe is evaluated by
// calling its lifecycle methods in order: Source, Configure, Build, Package,
// PackageInfo.
package recipe

import (
	"errors"
	"io"
	"runtime"

	"github.com/charmbracelet/log"
	"github.com/goplus/xsltpkg/formula"
	"github.com/goplus/xsltpkg/internal/fetch"
	"github.com/goplus/xsltpkg/internal/shell"
	"github.com/goplus/xsltpkg/mod/module"
)

// Package identity.
const (
	Name      = "libxslt"
	Version   = "1.1.29"
	User      = "vitallium"
	Channel   = "testing"
	License   = "https://git.gnome.org/browse/libxslt/tree/Copyright"
	Homepage  = "http://github.com/vitallium/conan-libxslt"
	SourceURL = "http://xmlsoft.org/sources/libxslt-" + Version + ".tar.gz"
	SourceDir = "libxslt-" + Version
	Requires  = "libxml2/2.9.4@vitallium/testing"
)

// Dependency names the recipe reads from Deps.
const (
	XML2 = "libxml2"
	ICU  = "icu"
)

// ErrMissingDependency is returned when a required dependency has no info.
var ErrMissingDependency = errors.New("missing dependency info")

// Reference returns the reference of the package this recipe produces.
func Reference() module.Reference {
	return module.Reference{Name: Name, Version: Version, User: User, Channel: Channel}
}

// Recipe is one evaluation of the libxslt recipe.
type Recipe struct {
	Settings formula.Settings
	Options  formula.Options
	Deps     formula.Deps
	Project  *formula.Project

	// URL overrides SourceURL.
	URL string
	// SHA256 of the source archive; empty skips verification.
	SHA256 string
	// HostOS is the GOOS of the machine running the build.
	HostOS string
	// Jobs is the make parallelism; zero means the CPU count.
	Jobs int

	Runner  shell.Runner
	Fetcher *fetch.Fetcher
	Logger  *log.Logger
}

// New returns a Recipe for settings and options laid out in proj.
func New(settings formula.Settings, opts formula.Options, deps formula.Deps, proj *formula.Project) *Recipe {
	return &Recipe{
		Settings: settings,
		Options:  opts,
		Deps:     deps,
		Project:  proj,
		HostOS:   runtime.GOOS,
		Jobs:     runtime.NumCPU(),
	}
}

func (r *Recipe) logger() *log.Logger {
	if r.Logger == nil {
		return log.New(io.Discard)
	}
	return r.Logger
}

func (r *Recipe) runner() shell.Runner {
	if r.Runner == nil {
		return &shell.Exec{}
	}
	return r.Runner
}

func (r *Recipe) url() string {
	if r.URL != "" {
		return r.URL
	}
	return SourceURL
}
