// Package autotools wraps the classic configure/make/make-install workflow.
package autotools

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/goplus/xsltpkg/formula"
	"github.com/goplus/xsltpkg/internal/shell"
	"github.com/goplus/xsltpkg/pkgs/buildsys"
)

// AutoTools drives Autotools-style builds.
type AutoTools struct {
	runner     shell.Runner
	logger     *log.Logger
	sourceDir  string
	buildDir   string
	installDir string
	hostOS     string
	jobs       int
	flags      []string
	env        map[string]string
}

var _ buildsys.Strategy = (*AutoTools)(nil)

// New returns a ready-to-use AutoTools. configure runs out of tree in
// buildDir and installs into installDir.
func New(runner shell.Runner, sourceDir, buildDir, installDir string) *AutoTools {
	return &AutoTools{
		runner:     runner,
		sourceDir:  sourceDir,
		buildDir:   buildDir,
		installDir: installDir,
		hostOS:     runtime.GOOS,
		jobs:       runtime.NumCPU(),
		env:        make(map[string]string),
	}
}

// Kind implements buildsys.Strategy.
func (a *AutoTools) Kind() buildsys.Kind { return buildsys.ConfigureScript }

// Logger sets the logger commands are reported to.
func (a *AutoTools) Logger(l *log.Logger) { a.logger = l }

// HostOS overrides the GOOS of the machine running the build. On windows
// paths handed to the shell use forward slashes.
func (a *AutoTools) HostOS(goos string) { a.hostOS = goos }

// Jobs sets the parallelism of make.
func (a *AutoTools) Jobs(n int) { a.jobs = n }

// Flags implements buildsys.Strategy.
func (a *AutoTools) Flags(flags ...string) { a.flags = append(a.flags, flags...) }

// Env sets key=value for every command spawned later.
func (a *AutoTools) Env(key, value string) { a.env[key] = value }

// Environ returns a copy of the environment overrides.
func (a *AutoTools) Environ() map[string]string {
	env := make(map[string]string, len(a.env))
	for k, v := range a.env {
		env[k] = v
	}
	return env
}

// Use adds include/lib/pkgconfig paths and libs of a dependency to the
// environment of every command.
func (a *AutoTools) Use(dep formula.DepInfo) {
	for _, dir := range dep.IncludePaths {
		a.appendFlag("CPPFLAGS", "-I"+a.normalize(dir))
	}
	for _, dir := range dep.LibPaths {
		a.appendFlag("LDFLAGS", "-L"+a.normalize(dir))
		pc := filepath.Join(dir, "pkgconfig")
		if _, err := os.Stat(pc); err == nil {
			a.prependPath("PKG_CONFIG_PATH", a.normalize(pc))
		}
	}
	for _, lib := range dep.Libs {
		a.appendFlag("LIBS", "-l"+lib)
	}
}

// XMLConfig points configure at the xml2-config helper of the libxml2
// package rooted at root.
func (a *AutoTools) XMLConfig(root string) {
	a.Env("XML_CONFIG", path.Join(a.normalize(root), "bin", "xml2-config"))
}

// Configure runs "sh <sourceDir>/configure" inside buildDir.
// --prefix is prepended automatically when installDir is set.
// The configured flags, then extra args, follow.
func (a *AutoTools) Configure(ctx context.Context, args ...string) error {
	if err := os.MkdirAll(a.workDir(), 0o755); err != nil {
		return err
	}
	configure := a.normalize(filepath.Join(a.sourceDir, "configure"))
	cmdArgs := []string{configure}
	if a.installDir != "" {
		cmdArgs = append(cmdArgs, "--prefix="+a.normalize(a.installDir))
	}
	cmdArgs = append(cmdArgs, a.flags...)
	return a.run(ctx, "sh", append(cmdArgs, args...))
}

// Build runs "make -j <jobs>" with optional extra arguments.
func (a *AutoTools) Build(ctx context.Context, args ...string) error {
	cmdArgs := []string{}
	if a.jobs > 0 {
		cmdArgs = append(cmdArgs, "-j", strconv.Itoa(a.jobs))
	}
	return a.run(ctx, "make", append(cmdArgs, args...))
}

// Install runs "make install" with optional extra arguments appended.
func (a *AutoTools) Install(ctx context.Context, args ...string) error {
	return a.run(ctx, "make", append([]string{"install"}, args...))
}

// Run implements buildsys.Strategy: configure, make, make install.
func (a *AutoTools) Run(ctx context.Context) error {
	if err := a.Configure(ctx); err != nil {
		return err
	}
	if err := a.Build(ctx); err != nil {
		return err
	}
	return a.Install(ctx)
}

func (a *AutoTools) workDir() string {
	if a.buildDir == "" {
		return "."
	}
	return a.buildDir
}

func (a *AutoTools) run(ctx context.Context, name string, args []string) error {
	cmd := shell.Cmd{Name: name, Args: args, Dir: a.workDir(), Env: a.Environ()}
	return buildsys.Exec(ctx, a.runner, a.logger, cmd)
}

// normalize turns backslashes into forward slashes when the host is
// Windows, where configure runs under an msys-style sh.
func (a *AutoTools) normalize(p string) string {
	if a.hostOS == "windows" {
		return strings.ReplaceAll(p, `\`, "/")
	}
	return p
}

// prependPath prepends value to a PATH-style env var.
func (a *AutoTools) prependPath(key, value string) {
	sep := ":"
	if a.hostOS == "windows" {
		sep = ";"
	}
	if cur := a.env[key]; cur != "" {
		value += sep + cur
	}
	a.env[key] = value
}

// appendFlag appends a space-separated flag to an env var.
func (a *AutoTools) appendFlag(key, flag string) {
	if cur := a.env[key]; cur != "" {
		flag = cur + " " + flag
	}
	a.env[key] = flag
}
