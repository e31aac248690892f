// Package nmake drives the Windows native build of libxslt: the
// win32/configure.js generator followed by nmake.
package nmake

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/goplus/xsltpkg/formula"
	"github.com/goplus/xsltpkg/internal/shell"
	"github.com/goplus/xsltpkg/internal/textenc"
	"github.com/goplus/xsltpkg/pkgs/buildsys"
)

const (
	// Makefile is the vendored makefile, relative to the win32 directory.
	Makefile = "Makefile.msvc"
	// SocketLib is the platform socket library the makefile links.
	SocketLib = "wsock32"
)

// socketToken is the hardcoded link token rewritten by PatchText.
const socketToken = SocketLib + ".lib"

// NMake drives configure.js + nmake builds.
type NMake struct {
	runner    shell.Runner
	logger    *log.Logger
	sourceDir string
	runtime   string
	includes  []string
	libPaths  []string
	libs      []string
	flags     []string
}

var _ buildsys.Strategy = (*NMake)(nil)

// New returns a ready-to-use NMake for the source tree at sourceDir.
func New(runner shell.Runner, sourceDir string) *NMake {
	return &NMake{runner: runner, sourceDir: sourceDir}
}

// Kind implements buildsys.Strategy.
func (n *NMake) Kind() buildsys.Kind { return buildsys.NativeToolchain }

// Logger sets the logger commands are reported to.
func (n *NMake) Logger(l *log.Logger) { n.logger = l }

// Runtime sets the C runtime variant (MD, MDd, MT, MTd).
func (n *NMake) Runtime(rt string) { n.runtime = rt }

// Flags implements buildsys.Strategy.
func (n *NMake) Flags(flags ...string) { n.flags = append(n.flags, flags...) }

// Use adds the include and library paths of a dependency.
func (n *NMake) Use(dep formula.DepInfo) {
	n.includes = append(n.includes, dep.IncludePaths...)
	n.libPaths = append(n.libPaths, dep.LibPaths...)
}

// Libs sets the libraries injected into the makefile in place of the
// socket library token.
func (n *NMake) Libs(libs ...string) { n.libs = append(n.libs, libs...) }

// Win32Dir returns the directory holding configure.js and the makefile.
func (n *NMake) Win32Dir() string {
	return filepath.Join(n.sourceDir, "win32")
}

// PatchText replaces the socket library token in content with libs, each
// suffixed ".lib" and separated by spaces. Text that already carries the
// replacement is returned unchanged, so patching twice is a no-op.
func PatchText(content string, libs []string) (string, bool) {
	names := make([]string, len(libs))
	for i, lib := range libs {
		names[i] = lib + ".lib"
	}
	replacement := strings.Join(names, " ")
	if replacement == socketToken || !strings.Contains(content, socketToken) {
		return content, false
	}
	if strings.Contains(content, replacement) {
		return content, false
	}
	return strings.ReplaceAll(content, socketToken, replacement), true
}

// PatchMakefile rewrites the vendored makefile in place, keeping its
// encoding. It reports whether the file changed.
func (n *NMake) PatchMakefile() (bool, error) {
	path := filepath.Join(n.Win32Dir(), Makefile)
	enc, err := textenc.DetectByBOM(path, textenc.UTF8)
	if err != nil {
		return false, fmt.Errorf("patch %s: %w", Makefile, err)
	}
	content, err := textenc.Load(path, enc)
	if err != nil {
		return false, fmt.Errorf("patch %s: %w", Makefile, err)
	}
	patched, changed := PatchText(content, n.libs)
	if n.logger != nil {
		n.logger.Debug("patch makefile", "path", path, "encoding", enc, "changed", changed)
	}
	if !changed {
		return false, nil
	}
	if err := textenc.Save(path, patched, enc); err != nil {
		return false, fmt.Errorf("patch %s: %w", Makefile, err)
	}
	return true, nil
}

// Configure runs "cscript configure.js" in the win32 directory.
func (n *NMake) Configure(ctx context.Context) error {
	args := []string{
		"configure.js",
		"cruntime=/" + n.runtime,
		"include=" + strings.Join(n.includes, ";"),
		"lib=" + strings.Join(n.libPaths, ";"),
	}
	args = append(args, n.flags...)
	return n.run(ctx, "cscript", args...)
}

// Build runs "nmake /f Makefile.msvc" in the win32 directory.
func (n *NMake) Build(ctx context.Context) error {
	return n.run(ctx, "nmake", "/f", Makefile)
}

// Run implements buildsys.Strategy: patch the makefile, configure, build.
// A failure leaves the patched makefile in place.
func (n *NMake) Run(ctx context.Context) error {
	if _, err := n.PatchMakefile(); err != nil {
		return err
	}
	if err := n.Configure(ctx); err != nil {
		return err
	}
	return n.Build(ctx)
}

func (n *NMake) run(ctx context.Context, name string, args ...string) error {
	return buildsys.Exec(ctx, n.runner, n.logger, shell.Command(n.Win32Dir(), name, args...))
}
