// Package cmake wraps the cmake configure/build workflow used to compile
// consumer projects against a package tree.
package cmake

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/goplus/xsltpkg/internal/shell"
	"github.com/goplus/xsltpkg/pkgs/buildsys"
)

type defineValue struct {
	value    string
	typeName string
}

// CMake drives CMake-based builds.
type CMake struct {
	runner    shell.Runner
	logger    *log.Logger
	sourceDir string
	buildDir  string
	generator string
	buildType string
	hostOS    string
	defines   map[string]defineValue
	env       map[string]string
}

// New returns a ready-to-use CMake.
func New(runner shell.Runner, sourceDir, buildDir string) *CMake {
	return &CMake{
		runner:    runner,
		sourceDir: sourceDir,
		buildDir:  buildDir,
		hostOS:    runtime.GOOS,
		defines:   make(map[string]defineValue),
		env:       make(map[string]string),
	}
}

// Logger sets the logger commands are reported to.
func (c *CMake) Logger(l *log.Logger) { c.logger = l }

// HostOS overrides the GOOS used for path list separators.
func (c *CMake) HostOS(goos string) { c.hostOS = goos }

// Generator sets the CMake generator (e.g. "Ninja", "Unix Makefiles").
func (c *CMake) Generator(name string) { c.generator = name }

// BuildType sets CMAKE_BUILD_TYPE (e.g. "Release", "Debug").
func (c *CMake) BuildType(name string) { c.buildType = name }

// Define adds a -D<key>:STRING=<value> definition.
func (c *CMake) Define(key, value string) {
	c.defines[key] = defineValue{value: value, typeName: "STRING"}
}

// Use makes headers and libraries of the package tree at root visible to
// CMake's find_* commands.
func (c *CMake) Use(root string) {
	c.prependPath("CMAKE_PREFIX_PATH", root)
	if dir := filepath.Join(root, "include"); exists(dir) {
		c.prependPath("CMAKE_INCLUDE_PATH", dir)
	}
	if dir := filepath.Join(root, "lib"); exists(dir) {
		c.prependPath("CMAKE_LIBRARY_PATH", dir)
	}
	if dir := filepath.Join(root, "lib", "pkgconfig"); exists(dir) {
		c.prependPath("PKG_CONFIG_PATH", dir)
	}
}

// Environ returns a copy of the environment overrides.
func (c *CMake) Environ() map[string]string {
	env := make(map[string]string, len(c.env))
	for k, v := range c.env {
		env[k] = v
	}
	return env
}

// Configure runs "cmake -S <source> -B <build>" with all configured options.
// Extra args are appended at the end.
func (c *CMake) Configure(ctx context.Context, args ...string) error {
	if err := os.MkdirAll(c.buildDir, 0o755); err != nil {
		return err
	}
	cmakeArgs := []string{"-S", c.sourceDir, "-B", c.buildDir}
	if c.generator != "" {
		cmakeArgs = append(cmakeArgs, "-G", c.generator)
	}
	if c.buildType != "" {
		c.Define("CMAKE_BUILD_TYPE", c.buildType)
	}
	cmakeArgs = append(cmakeArgs, c.definesArgs()...)
	cmakeArgs = append(cmakeArgs, args...)
	return c.run(ctx, cmakeArgs)
}

// Build runs "cmake --build <build>" with optional extra arguments.
func (c *CMake) Build(ctx context.Context, args ...string) error {
	cmakeArgs := []string{"--build", c.buildDir}
	if c.buildType != "" {
		cmakeArgs = append(cmakeArgs, "--config", c.buildType)
	}
	cmakeArgs = append(cmakeArgs, args...)
	return c.run(ctx, cmakeArgs)
}

func (c *CMake) run(ctx context.Context, args []string) error {
	cmd := shell.Cmd{Name: "cmake", Args: args, Dir: c.buildDir, Env: c.Environ()}
	return buildsys.Exec(ctx, c.runner, c.logger, cmd)
}

func (c *CMake) definesArgs() []string {
	if len(c.defines) == 0 {
		return nil
	}
	keys := make([]string, 0, len(c.defines))
	for k := range c.defines {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	args := make([]string, 0, len(keys))
	for _, k := range keys {
		d := c.defines[k]
		args = append(args, "-D"+k+":"+d.typeName+"="+d.value)
	}
	return args
}

// prependPath prepends value to a PATH-style env var.
func (c *CMake) prependPath(key, value string) {
	sep := ":"
	if c.hostOS == "windows" {
		sep = ";"
	}
	if cur := c.env[key]; cur != "" {
		value += sep + cur
	}
	c.env[key] = value
}

func exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
