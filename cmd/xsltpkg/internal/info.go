package internal

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/goplus/xsltpkg/formula"
	"github.com/goplus/xsltpkg/internal/build"
	"github.com/goplus/xsltpkg/internal/config"
	"github.com/goplus/xsltpkg/internal/recipe"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the package and its resolved configuration",
	Long: `Info prints the package reference, its requirements, the configuration
resolved for the profile and, if already built, the package tree.`,
	Args: cobra.NoArgs,
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

type packageInfo struct {
	Reference string           `yaml:"reference"`
	License   string           `yaml:"license"`
	Homepage  string           `yaml:"homepage"`
	Requires  []string         `yaml:"requires"`
	Settings  formula.Settings `yaml:"settings"`
	Options   formula.Options  `yaml:"options"`
	Strategy  string           `yaml:"strategy"`
	Flags     []string         `yaml:"flags"`
	CppInfo   formula.CppInfo  `yaml:"cpp_info"`
	Matrix    string           `yaml:"matrix"`
	Package   string           `yaml:"package,omitempty"`
}

func describe(p *config.Profile, b *build.Builder) packageInfo {
	res := recipe.Resolve(p.Settings, p.Options)
	r := recipe.New(p.Settings, p.Options, p.Deps, nil)
	info := packageInfo{
		Reference: recipe.Reference().String(),
		License:   recipe.License,
		Homepage:  recipe.Homepage,
		Requires:  []string{recipe.Requires},
		Settings:  p.Settings,
		Options:   res.Options(),
		Strategy:  res.Strategy.String(),
		Flags:     res.Flags,
		CppInfo:   r.PackageInfo(),
		Matrix:    p.Settings.Matrix(p.Options).String(),
	}
	if cached, ok := b.Lookup(p.Settings, p.Options); ok {
		info.Package = cached.PackageDir
	}
	return info
}

func runInfo(cmd *cobra.Command, args []string) error {
	p, err := loadProfile()
	if err != nil {
		return err
	}
	b, err := newBuilder(p, false)
	if err != nil {
		return err
	}
	info := describe(p, b)
	if res := recipe.Resolve(p.Settings, p.Options); res.ForcedStatic {
		logger.Warn("shared build is not supported with a static MSVC runtime, building static", "runtime", p.Settings.Runtime)
	}
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(&info); err != nil {
		return err
	}
	return enc.Close()
}
