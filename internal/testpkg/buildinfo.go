package testpkg

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/goplus/xsltpkg/formula"
)

// BuildInfoFile is included by the consumer project's CMakeLists.txt.
const BuildInfoFile = "xsltpkgbuildinfo.cmake"

// BuildInfo is what the consumer project needs to compile and link.
type BuildInfo struct {
	IncludeDirs []string
	LibDirs     []string
	Libs        []string
}

// NewBuildInfo collects the include dirs, lib dirs and libs of the package
// tree at pkgDir followed by those of its dependencies.
func NewBuildInfo(pkgDir string, info formula.CppInfo, deps formula.Deps) BuildInfo {
	b := BuildInfo{
		IncludeDirs: []string{filepath.Join(pkgDir, "include")},
		LibDirs:     []string{filepath.Join(pkgDir, "lib")},
		Libs:        append([]string(nil), info.Libs...),
	}
	b.IncludeDirs = append(b.IncludeDirs, deps.IncludePaths()...)
	b.LibDirs = append(b.LibDirs, deps.LibPaths()...)
	b.Libs = append(b.Libs, deps.Libs()...)
	return b
}

var cmakeEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, `$`, `\$`)

var buildInfoTmpl = template.Must(template.New(BuildInfoFile).Funcs(template.FuncMap{
	"quote": func(s string) string {
		return `"` + cmakeEscaper.Replace(filepath.ToSlash(s)) + `"`
	},
}).Parse(`# Generated by xsltpkg; do not edit.
set(XSLTPKG_INCLUDE_DIRS{{range .IncludeDirs}} {{quote .}}{{end}})
set(XSLTPKG_LIB_DIRS{{range .LibDirs}} {{quote .}}{{end}})
set(XSLTPKG_LIBS{{range .Libs}} {{quote .}}{{end}})

macro(xsltpkg_basic_setup)
    include_directories(${XSLTPKG_INCLUDE_DIRS})
    link_directories(${XSLTPKG_LIB_DIRS})
    set(CMAKE_RUNTIME_OUTPUT_DIRECTORY ${CMAKE_BINARY_DIR}/bin)
    foreach(config DEBUG RELEASE RELWITHDEBINFO MINSIZEREL)
        set(CMAKE_RUNTIME_OUTPUT_DIRECTORY_${config} ${CMAKE_BINARY_DIR}/bin)
    endforeach()
endmacro()
`))

// Render returns the CMake build info script.
func (b BuildInfo) Render() ([]byte, error) {
	var buf bytes.Buffer
	if err := buildInfoTmpl.Execute(&buf, b); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteBuildInfo writes b as BuildInfoFile into dir.
func WriteBuildInfo(dir string, b BuildInfo) error {
	data, err := b.Render()
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, BuildInfoFile), data, 0o644)
}
