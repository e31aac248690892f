package formula

import (
	"runtime"
	"strings"
)

// Operating systems, as spelled by the package host.
const (
	Windows = "Windows"
	Linux   = "Linux"
	Macos   = "Macos"
)

// Compilers, as spelled by the package host.
const (
	VisualStudio = "Visual Studio"
	GCC          = "gcc"
	Clang        = "clang"
	AppleClang   = "apple-clang"
)

// Settings are the host-supplied build settings. They are read-only for the
// lifetime of a build.
type Settings struct {
	OS        string `mapstructure:"os" yaml:"os"`
	Arch      string `mapstructure:"arch" yaml:"arch"`
	Compiler  string `mapstructure:"compiler" yaml:"compiler"`
	Runtime   string `mapstructure:"runtime" yaml:"runtime,omitempty"` // compiler runtime: MD, MDd, MT, MTd
	BuildType string `mapstructure:"build_type" yaml:"build_type"`
}

// Options are the recipe options.
type Options struct {
	Shared bool `mapstructure:"shared" yaml:"shared"`
}

// DetectSettings returns the settings of the running host.
func DetectSettings() Settings {
	s := Settings{BuildType: "Release"}
	switch runtime.GOOS {
	case "windows":
		s.OS, s.Compiler, s.Runtime = Windows, VisualStudio, "MD"
	case "darwin":
		s.OS, s.Compiler = Macos, AppleClang
	default:
		s.OS, s.Compiler = Linux, GCC
	}
	switch runtime.GOARCH {
	case "amd64":
		s.Arch = "x86_64"
	case "386":
		s.Arch = "x86"
	case "arm64":
		s.Arch = "armv8"
	default:
		s.Arch = runtime.GOARCH
	}
	return s
}

// IsVisualStudio reports whether the compiler is the Windows native toolchain.
func (s Settings) IsVisualStudio() bool {
	return s.Compiler == VisualStudio
}

// IsWindows reports whether the target OS is Windows.
func (s Settings) IsWindows() bool {
	return s.OS == Windows
}

// Matrix returns the single-combination matrix describing s and opts.
func (s Settings) Matrix(opts Options) Matrix {
	require := map[string][]string{
		"os":         {token(s.OS)},
		"arch":       {token(s.Arch)},
		"compiler":   {token(s.Compiler)},
		"build_type": {token(s.BuildType)},
	}
	if s.Runtime != "" {
		require["runtime"] = []string{token(s.Runtime)}
	}
	return Matrix{
		Require: require,
		Options: map[string][]string{"shared": {opts.linkage()}},
	}
}

// OptionsMatrix returns a matrix over every value of the shared option,
// static by default.
func (s Settings) OptionsMatrix() Matrix {
	m := s.Matrix(Options{})
	m.Options = map[string][]string{"shared": {"static", "shared"}}
	m.DefaultOptions = map[string][]string{"shared": {"static"}}
	return m
}

// OptionsOf decodes the options of a single-combination matrix built by
// Settings.Matrix or Matrix.Expand.
func OptionsOf(m Matrix) Options {
	v := m.Options["shared"]
	return Options{Shared: len(v) > 0 && v[0] == "shared"}
}

func (o Options) linkage() string {
	if o.Shared {
		return "shared"
	}
	return "static"
}

func token(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, " ", ""))
}
