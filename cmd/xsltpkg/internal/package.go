package internal

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goplus/xsltpkg/internal/recipe"
)

var packageCmd = &cobra.Command{
	Use:   "package",
	Short: "Collect build outputs into the package tree",
	Long: `Package copies headers and libraries of a finished build into the package
tree and writes its manifest.`,
	Args: cobra.NoArgs,
	RunE: runPackage,
}

func init() {
	rootCmd.AddCommand(packageCmd)
}

func runPackage(cmd *cobra.Command, args []string) error {
	p, err := loadProfile()
	if err != nil {
		return err
	}
	r, err := newRecipe(p)
	if err != nil {
		return err
	}
	res := r.Configure()
	if err := r.Package(cmd.Context()); err != nil {
		return err
	}
	if err := recipe.WriteManifest(r.Project.PackageDir, r.Manifest(res)); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), r.Project.PackageDir)
	return nil
}
