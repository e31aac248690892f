package recipe

import (
	"strings"

	"github.com/goplus/xsltpkg/formula"
	"github.com/goplus/xsltpkg/pkgs/buildsys"
)

// Resolved is the build configuration derived from settings and options.
// It is computed once per build and not modified afterwards.
type Resolved struct {
	// Shared is the effective link mode.
	Shared bool
	// ForcedStatic is set when a shared build was requested but the
	// static MSVC runtime forced a static one.
	ForcedStatic bool
	Strategy     buildsys.Kind
	Flags        []string
}

// FlagString returns the flags separated by single spaces.
func (r Resolved) FlagString() string {
	return strings.Join(r.Flags, " ")
}

// Options returns the effective options.
func (r Resolved) Options() formula.Options {
	return formula.Options{Shared: r.Shared}
}

var (
	msvcFlags = []string{"iconv=no", "xslt_debug=no", "debugger=no"}

	configureFlags = []string{
		"--without-python",
		"--without-crypto",
		"--without-debugger",
		"--without-plugins",
	}
	sharedFlags = []string{"--disable-static", "--enable-shared"}
	staticFlags = []string{"--enable-static", "--disable-shared"}
)

// Resolve computes the build configuration for s and opts. It has no side
// effects: a shared request that the runtime cannot honor is reported
// through Resolved.ForcedStatic instead of rewriting opts.
func Resolve(s formula.Settings, opts formula.Options) Resolved {
	res := Resolved{
		Shared:   opts.Shared,
		Strategy: buildsys.Select(s),
	}
	if res.Strategy == buildsys.NativeToolchain {
		if opts.Shared && strings.Contains(s.Runtime, "MT") {
			res.Shared = false
			res.ForcedStatic = true
		}
		res.Flags = append([]string(nil), msvcFlags...)
		return res
	}

	res.Flags = append([]string(nil), configureFlags...)
	if res.Shared {
		res.Flags = append(res.Flags, sharedFlags...)
	} else {
		res.Flags = append(res.Flags, staticFlags...)
	}
	return res
}

// Configure resolves the recipe's settings and options, warning when the
// shared option was overridden.
func (r *Recipe) Configure() Resolved {
	res := Resolve(r.Settings, r.Options)
	if res.ForcedStatic {
		r.logger().Warn("shared build is not supported with a static MSVC runtime, building static",
			"runtime", r.Settings.Runtime)
	}
	r.logger().Debug("configured", "strategy", res.Strategy, "shared", res.Shared, "flags", res.FlagString())
	return res
}
