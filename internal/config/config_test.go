package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goplus/xsltpkg/formula"
)

func writeProfile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profile.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	p, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := Default()
	want.Deps = formula.Deps{}
	if diff := cmp.Diff(&want, p); diff != "" {
		t.Errorf("profile mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadProfileFile(t *testing.T) {
	path := writeProfile(t, `
settings:
  os: Windows
  arch: x86_64
  compiler: Visual Studio
  runtime: MT
  build_type: Release
options:
  shared: true
deps:
  libxml2:
    rootpath: C:/deps/libxml2
    libs: [libxml2]
  icu:
    rootpath: C:/deps/icu
    include_paths: [C:/deps/icu/include]
    lib_paths: [C:/deps/icu/lib64]
    libs: [icuuc, icuin]
workspace: /tmp/ws
sha256: abc123
`)
	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	wantSettings := formula.Settings{
		OS:        formula.Windows,
		Arch:      "x86_64",
		Compiler:  formula.VisualStudio,
		Runtime:   "MT",
		BuildType: "Release",
	}
	if diff := cmp.Diff(wantSettings, p.Settings); diff != "" {
		t.Errorf("settings mismatch (-want +got):\n%s", diff)
	}
	if !p.Options.Shared {
		t.Error("options.shared not read")
	}
	wantDeps := formula.Deps{
		"libxml2": {
			RootPath:     "C:/deps/libxml2",
			IncludePaths: []string{filepath.Join("C:/deps/libxml2", "include")},
			LibPaths:     []string{filepath.Join("C:/deps/libxml2", "lib")},
			Libs:         []string{"libxml2"},
		},
		"icu": {
			RootPath:     "C:/deps/icu",
			IncludePaths: []string{"C:/deps/icu/include"},
			LibPaths:     []string{"C:/deps/icu/lib64"},
			Libs:         []string{"icuuc", "icuin"},
		},
	}
	if diff := cmp.Diff(wantDeps, p.Deps); diff != "" {
		t.Errorf("deps mismatch (-want +got):\n%s", diff)
	}
	if p.Workspace != "/tmp/ws" || p.SHA256 != "abc123" {
		t.Errorf("workspace = %q, sha256 = %q", p.Workspace, p.SHA256)
	}
	if p.Username != "vitallium" || p.Channel != "testing" {
		t.Errorf("reference = %s/%s, want vitallium/testing", p.Username, p.Channel)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeProfile(t, "settings:\n  build_type: Debug\nusername: someone\n")
	t.Setenv("XSLTPKG_SETTINGS_BUILD_TYPE", "RelWithDebInfo")
	t.Setenv("XSLTPKG_OPTIONS_SHARED", "true")
	t.Setenv("XSLTPKG_USERNAME", "ci")
	t.Setenv("XSLTPKG_CHANNEL", "stable")
	t.Setenv("XSLTPKG_DEPS_LIBXML2_ROOTPATH", "/opt/libxml2")

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if p.Settings.BuildType != "RelWithDebInfo" {
		t.Errorf("build_type = %q, want env value", p.Settings.BuildType)
	}
	if !p.Options.Shared {
		t.Error("XSLTPKG_OPTIONS_SHARED not honored")
	}
	if p.Username != "ci" || p.Channel != "stable" {
		t.Errorf("reference = %s/%s, want ci/stable", p.Username, p.Channel)
	}
	xml2, ok := p.Deps["libxml2"]
	if !ok || xml2.RootPath != "/opt/libxml2" {
		t.Fatalf("deps = %+v, want libxml2 from env", p.Deps)
	}
	if diff := cmp.Diff([]string{filepath.Join("/opt/libxml2", "lib")}, xml2.LibPaths); diff != "" {
		t.Errorf("lib paths mismatch (-want +got):\n%s", diff)
	}
	if _, ok := p.Deps["icu"]; ok {
		t.Error("icu present without any configuration")
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil || !strings.Contains(err.Error(), "missing.yaml") {
		t.Fatalf("Load() error = %v, want one naming the file", err)
	}
}

func TestNormalizeDeps(t *testing.T) {
	got := normalizeDeps(formula.Deps{
		"empty": {},
		"libs":  {Libs: []string{"z"}},
	})
	want := formula.Deps{"libs": {Libs: []string{"z"}}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("normalizeDeps mismatch (-want +got):\n%s", diff)
	}
}
