// Package config loads build profiles. A profile fixes the settings,
// options and dependency info a package is built with. Values come, in
// increasing precedence, from host defaults, a YAML profile file and
// XSLTPKG_* environment variables.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/goplus/xsltpkg/formula"
	"github.com/goplus/xsltpkg/internal/recipe"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "XSLTPKG"

// Profile is a fully resolved build profile.
type Profile struct {
	Settings formula.Settings `mapstructure:"settings"`
	Options  formula.Options  `mapstructure:"options"`
	Deps     formula.Deps     `mapstructure:"deps"`

	// Workspace overrides the default workspace directory.
	Workspace string `mapstructure:"workspace"`
	// Username and Channel select the reference the test recipe consumes.
	Username string `mapstructure:"username"`
	Channel  string `mapstructure:"channel"`
	// URL and SHA256 override the source archive location and digest.
	URL    string `mapstructure:"url"`
	SHA256 string `mapstructure:"sha256"`
}

// Default returns the profile of the running host.
func Default() Profile {
	s := formula.DetectSettings()
	m := s.OptionsMatrix()
	return Profile{
		Settings: s,
		Options:  formula.OptionsOf(m.Default()),
		Username: recipe.User,
		Channel:  recipe.Channel,
	}
}

// Load reads the profile at path, or only defaults and environment when
// path is empty.
func Load(path string) (*Profile, error) {
	v := viper.New()

	defaults := Default()
	v.SetDefault("settings.os", defaults.Settings.OS)
	v.SetDefault("settings.arch", defaults.Settings.Arch)
	v.SetDefault("settings.compiler", defaults.Settings.Compiler)
	v.SetDefault("settings.runtime", defaults.Settings.Runtime)
	v.SetDefault("settings.build_type", defaults.Settings.BuildType)
	v.SetDefault("options.shared", defaults.Options.Shared)
	v.SetDefault("workspace", "")
	v.SetDefault("username", defaults.Username)
	v.SetDefault("channel", defaults.Channel)
	v.SetDefault("url", "")
	v.SetDefault("sha256", "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, name := range []string{recipe.XML2, recipe.ICU} {
		for _, field := range []string{"rootpath", "include_paths", "lib_paths", "libs"} {
			if err := v.BindEnv("deps." + name + "." + field); err != nil {
				return nil, err
			}
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read profile %s: %w", path, err)
		}
	}

	var p Profile
	if err := v.Unmarshal(&p); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}
	p.Deps = normalizeDeps(p.Deps)
	return &p, nil
}

// normalizeDeps drops empty entries and fills include and lib paths from
// the root path when a dependency only names its root.
func normalizeDeps(deps formula.Deps) formula.Deps {
	out := make(formula.Deps, len(deps))
	for name, info := range deps {
		if info.RootPath == "" && len(info.IncludePaths) == 0 && len(info.LibPaths) == 0 && len(info.Libs) == 0 {
			continue
		}
		if info.RootPath != "" {
			if len(info.IncludePaths) == 0 {
				info.IncludePaths = []string{filepath.Join(info.RootPath, "include")}
			}
			if len(info.LibPaths) == 0 {
				info.LibPaths = []string{filepath.Join(info.RootPath, "lib")}
			}
		}
		out[name] = info
	}
	return out
}
