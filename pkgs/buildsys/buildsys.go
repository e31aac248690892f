// Package buildsys selects how an unpacked source tree is turned into a
// package tree. Exactly two strategies exist: the Windows native toolchain
// (configure.js + nmake) and the POSIX configure script (configure + make).
package buildsys

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/goplus/xsltpkg/formula"
	"github.com/goplus/xsltpkg/internal/shell"
)

// Kind names a build strategy.
type Kind int

const (
	// ConfigureScript runs ./configure, make and make install.
	ConfigureScript Kind = iota
	// NativeToolchain runs win32/configure.js and nmake.
	NativeToolchain
)

func (k Kind) String() string {
	switch k {
	case ConfigureScript:
		return "configure-script"
	case NativeToolchain:
		return "native-toolchain"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Select returns the strategy for s. Only the compiler matters: the
// native toolchain is used for Visual Studio, everything else goes through
// the configure script.
func Select(s formula.Settings) Kind {
	if s.IsVisualStudio() {
		return NativeToolchain
	}
	return ConfigureScript
}

// Strategy captures the lifecycle shared by the build helpers.
type Strategy interface {
	// Kind reports which strategy this is.
	Kind() Kind

	// Use injects a dependency's paths into the build.
	Use(dep formula.DepInfo)

	// Flags sets the configure flags.
	Flags(flags ...string)

	// Run configures, builds and installs. The first failing step aborts.
	Run(ctx context.Context) error
}

// Exec runs cmd, logging the command line first, and turns a failed result
// into an error.
func Exec(ctx context.Context, r shell.Runner, logger *log.Logger, cmd shell.Cmd) error {
	if logger != nil {
		logger.Info("run", "dir", cmd.Dir, "cmd", cmd.String())
	}
	res := r.Run(ctx, cmd)
	if logger != nil && res.Failed() {
		logger.Error("command failed", "cmd", cmd.Name, "exit", res.ExitCode)
	}
	return res.Check()
}
