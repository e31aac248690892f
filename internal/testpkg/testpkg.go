// Package testpkg is the package test: it builds a small consumer project
// against a libxslt package tree and runs the resulting binary.
package testpkg

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/goplus/xsltpkg/formula"
	"github.com/goplus/xsltpkg/internal/recipe"
	"github.com/goplus/xsltpkg/internal/shell"
	"github.com/goplus/xsltpkg/mod/module"
	"github.com/goplus/xsltpkg/pkgs/buildsys/cmake"
)

// Environment variables selecting the reference under test.
const (
	EnvUsername = "XSLTPKG_USERNAME"
	EnvChannel  = "XSLTPKG_CHANNEL"
)

// Binary is the consumer executable built by the project.
const Binary = "tst_libxslt"

var (
	// ErrTestFailed is returned when the consumer binary exits non-zero.
	ErrTestFailed = errors.New("package test failed")
	// ErrWrongPackage is returned when the package tree holds another package.
	ErrWrongPackage = errors.New("package tree does not match requirement")
)

//go:embed project
var project embed.FS

// Requires returns the reference under test. Empty username or channel
// fall back to the environment, then to the recipe's own.
func Requires(username, channel string) module.Reference {
	if username == "" {
		username = getenv(EnvUsername, recipe.User)
	}
	if channel == "" {
		channel = getenv(EnvChannel, recipe.Channel)
	}
	return module.Reference{Name: recipe.Name, Version: recipe.Version, User: username, Channel: channel}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// TestRecipe builds and runs the consumer project.
type TestRecipe struct {
	Ref      module.Reference
	Settings formula.Settings
	// PackageDir is the package tree under test.
	PackageDir string
	// Deps are the package's own dependencies, needed to link the binary.
	Deps formula.Deps
	// ProjectDir holds CMakeLists.txt; WriteProject populates it.
	ProjectDir string
	BuildDir   string
	// Generator overrides the CMake generator chosen from Settings.
	Generator string

	Runner shell.Runner
	Logger *log.Logger
}

// New returns a TestRecipe for the package tree at pkgDir that builds in workDir.
func New(ref module.Reference, s formula.Settings, pkgDir string, deps formula.Deps, workDir string) *TestRecipe {
	return &TestRecipe{
		Ref:        ref,
		Settings:   s,
		PackageDir: pkgDir,
		Deps:       deps,
		ProjectDir: filepath.Join(workDir, "project"),
		BuildDir:   filepath.Join(workDir, "build"),
	}
}

func (t *TestRecipe) logger() *log.Logger {
	if t.Logger == nil {
		return log.New(io.Discard)
	}
	return t.Logger
}

func (t *TestRecipe) runner() shell.Runner {
	if t.Runner == nil {
		return &shell.Exec{}
	}
	return t.Runner
}

// WriteProject writes the consumer project sources into dir.
func WriteProject(dir string) error {
	sub, err := fs.Sub(project, "project")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.CopyFS(dir, sub)
}

// Build generates the build info for the package tree and compiles the
// consumer project with CMake.
func (t *TestRecipe) Build(ctx context.Context) error {
	m, err := recipe.ReadManifest(t.PackageDir)
	if err != nil {
		return fmt.Errorf("test build: %w", err)
	}
	got, err := module.Parse(m.Reference)
	if err != nil {
		return fmt.Errorf("test build: %w", err)
	}
	if got.Name != t.Ref.Name || got.Version != t.Ref.Version {
		return fmt.Errorf("%w: have %s, want %s", ErrWrongPackage, got, t.Ref)
	}
	if got != t.Ref {
		t.logger().Warn("package tree was built for another user/channel", "have", got, "want", t.Ref)
	}

	if _, err := os.Stat(filepath.Join(t.ProjectDir, "CMakeLists.txt")); errors.Is(err, fs.ErrNotExist) {
		if err := WriteProject(t.ProjectDir); err != nil {
			return fmt.Errorf("test build: %w", err)
		}
	}
	if err := os.MkdirAll(t.BuildDir, 0o755); err != nil {
		return err
	}
	info := NewBuildInfo(t.PackageDir, m.CppInfo, t.Deps)
	if err := WriteBuildInfo(t.BuildDir, info); err != nil {
		return fmt.Errorf("test build: %w", err)
	}

	c := cmake.New(t.runner(), t.ProjectDir, t.BuildDir)
	c.Logger(t.logger())
	c.Use(t.PackageDir)
	if g := t.generator(); g != "" {
		c.Generator(g)
	}
	c.BuildType(t.Settings.BuildType)
	c.Define("XSLTPKG_BUILDINFO", filepath.ToSlash(filepath.Join(t.BuildDir, BuildInfoFile)))
	if err := c.Configure(ctx); err != nil {
		return fmt.Errorf("test build: %w", err)
	}
	if err := c.Build(ctx); err != nil {
		return fmt.Errorf("test build: %w", err)
	}
	return nil
}

func (t *TestRecipe) generator() string {
	if t.Generator != "" {
		return t.Generator
	}
	if !t.Settings.IsVisualStudio() {
		return "Unix Makefiles"
	}
	if t.Settings.Arch == "x86_64" {
		return "Visual Studio 15 2017 Win64"
	}
	return "Visual Studio 15 2017"
}

// Imports copies the package's runtime libraries next to the binary. It
// returns the number of files copied.
func (t *TestRecipe) Imports() (int, error) {
	src := filepath.Join(t.PackageDir, "bin")
	entries, err := os.ReadDir(src)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	} else if err != nil {
		return 0, err
	}
	dst := filepath.Join(t.BuildDir, "bin")
	n := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if ok, _ := filepath.Match("*.dll", e.Name()); !ok {
			continue
		}
		if err := copyFile(filepath.Join(src, e.Name()), filepath.Join(dst, e.Name())); err != nil {
			return n, fmt.Errorf("imports: %w", err)
		}
		n++
	}
	return n, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Test runs the consumer binary from the build dir.
func (t *TestRecipe) Test(ctx context.Context) error {
	name := Binary
	if t.Settings.IsWindows() {
		name += ".exe"
	}
	cmd := shell.Command(t.BuildDir, "."+string(filepath.Separator)+filepath.Join("bin", name))
	t.logger().Info("running package test", "cmd", cmd)
	res := t.runner().Run(ctx, cmd)
	if res.Err != nil {
		return fmt.Errorf("test: %w", res.Err)
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("%w: %w", ErrTestFailed, res.Check())
	}
	return nil
}

// Run builds, imports and tests, in that order.
func (t *TestRecipe) Run(ctx context.Context) error {
	if err := t.Build(ctx); err != nil {
		return err
	}
	n, err := t.Imports()
	if err != nil {
		return err
	}
	t.logger().Debug("imported runtime libraries", "files", n)
	return t.Test(ctx)
}
