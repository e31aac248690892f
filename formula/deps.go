package formula

import "sort"

// DepInfo is what an upstream dependency contributes to the build.
type DepInfo struct {
	RootPath     string   `mapstructure:"rootpath" yaml:"rootpath"`
	IncludePaths []string `mapstructure:"include_paths" yaml:"include_paths"`
	LibPaths     []string `mapstructure:"lib_paths" yaml:"lib_paths"`
	Libs         []string `mapstructure:"libs" yaml:"libs"`
}

// Deps maps a dependency name to its info.
type Deps map[string]DepInfo

// Names returns the dependency names in sorted order.
func (d Deps) Names() []string {
	names := make([]string, 0, len(d))
	for name := range d {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IncludePaths returns the include paths of every dependency.
func (d Deps) IncludePaths() []string {
	var paths []string
	for _, name := range d.Names() {
		paths = append(paths, d[name].IncludePaths...)
	}
	return paths
}

// LibPaths returns the library paths of every dependency.
func (d Deps) LibPaths() []string {
	var paths []string
	for _, name := range d.Names() {
		paths = append(paths, d[name].LibPaths...)
	}
	return paths
}

// Libs returns the libraries of every dependency.
func (d Deps) Libs() []string {
	var libs []string
	for _, name := range d.Names() {
		libs = append(libs, d[name].Libs...)
	}
	return libs
}

// CppInfo is the link contract a package declares to its consumers.
type CppInfo struct {
	Libs []string `yaml:"libs"`
}
