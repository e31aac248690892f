package recipe

import (
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goplus/xsltpkg/formula"
	"github.com/goplus/xsltpkg/pkgs/buildsys"
)

func TestResolveMSVCStaticRuntimeForcesStatic(t *testing.T) {
	for _, rt := range []string{"MT", "MTd"} {
		s := formula.Settings{OS: formula.Windows, Compiler: formula.VisualStudio, Runtime: rt, Arch: "x86_64", BuildType: "Release"}
		res := Resolve(s, formula.Options{Shared: true})
		if res.Shared || !res.ForcedStatic {
			t.Errorf("runtime %s: Shared=%v ForcedStatic=%v, want static and forced", rt, res.Shared, res.ForcedStatic)
		}

		res = Resolve(s, formula.Options{Shared: false})
		if res.Shared || res.ForcedStatic {
			t.Errorf("runtime %s static request: Shared=%v ForcedStatic=%v", rt, res.Shared, res.ForcedStatic)
		}
	}
}

func TestResolveMSVCDynamicRuntimeKeepsShared(t *testing.T) {
	for _, rt := range []string{"MD", "MDd"} {
		s := formula.Settings{OS: formula.Windows, Compiler: formula.VisualStudio, Runtime: rt}
		res := Resolve(s, formula.Options{Shared: true})
		if !res.Shared || res.ForcedStatic {
			t.Errorf("runtime %s: Shared=%v ForcedStatic=%v, want shared", rt, res.Shared, res.ForcedStatic)
		}
		if res.Strategy != buildsys.NativeToolchain {
			t.Errorf("runtime %s: Strategy = %v", rt, res.Strategy)
		}
		if got := res.FlagString(); got != "iconv=no xslt_debug=no debugger=no" {
			t.Errorf("runtime %s: flags = %q", rt, got)
		}
	}
}

func TestResolveDoesNotMutateOptions(t *testing.T) {
	opts := formula.Options{Shared: true}
	Resolve(formula.Settings{Compiler: formula.VisualStudio, Runtime: "MT"}, opts)
	if !opts.Shared {
		t.Fatal("Resolve mutated its options")
	}
}

func TestResolveConfigureFlags(t *testing.T) {
	var all []formula.Settings
	for _, target := range []string{formula.Linux, formula.Macos, formula.Windows} {
		for _, cc := range []string{formula.GCC, formula.Clang, formula.AppleClang} {
			for _, bt := range []string{"Release", "Debug"} {
				all = append(all, formula.Settings{OS: target, Compiler: cc, BuildType: bt, Arch: "x86_64"})
			}
		}
	}

	for _, s := range all {
		for _, shared := range []bool{false, true} {
			res := Resolve(s, formula.Options{Shared: shared})
			if res.Strategy != buildsys.ConfigureScript {
				t.Fatalf("%+v: Strategy = %v", s, res.Strategy)
			}
			if res.Shared != shared || res.ForcedStatic {
				t.Fatalf("%+v: option changed", s)
			}

			hasShared := slices.Contains(res.Flags, "--enable-shared") && slices.Contains(res.Flags, "--disable-static")
			hasStatic := slices.Contains(res.Flags, "--enable-static") && slices.Contains(res.Flags, "--disable-shared")
			if hasShared == hasStatic {
				t.Fatalf("%+v shared=%v: flags %q carry both or neither link pair", s, shared, res.FlagString())
			}
			if hasShared != shared {
				t.Fatalf("%+v shared=%v: wrong link pair in %q", s, shared, res.FlagString())
			}
			for _, f := range []string{"--without-python", "--without-crypto", "--without-debugger", "--without-plugins"} {
				if !slices.Contains(res.Flags, f) {
					t.Fatalf("%+v: flags %q missing %s", s, res.FlagString(), f)
				}
			}
		}
	}
}

func TestResolveLinuxStatic(t *testing.T) {
	res := Resolve(formula.Settings{OS: formula.Linux, Compiler: formula.GCC}, formula.Options{})
	want := []string{
		"--without-python", "--without-crypto", "--without-debugger", "--without-plugins",
		"--enable-static", "--disable-shared",
	}
	if diff := cmp.Diff(want, res.Flags); diff != "" {
		t.Fatalf("flags mismatch (-want +got):\n%s", diff)
	}
	if strings.Contains(res.FlagString(), "  ") {
		t.Fatalf("FlagString() = %q has double spaces", res.FlagString())
	}
}

func TestResolveFlagsNotShared(t *testing.T) {
	a := Resolve(formula.Settings{OS: formula.Linux, Compiler: formula.GCC}, formula.Options{})
	a.Flags[0] = "mutated"
	b := Resolve(formula.Settings{OS: formula.Linux, Compiler: formula.GCC}, formula.Options{})
	if b.Flags[0] != "--without-python" {
		t.Fatal("Resolve results share flag storage")
	}
}
