package internal

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Configure and compile previously fetched sources",
	Long: `Build configures and compiles the sources fetched by "xsltpkg source",
using nmake for Visual Studio and configure/make otherwise.`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	p, err := loadProfile()
	if err != nil {
		return err
	}
	r, err := newRecipe(p)
	if err != nil {
		return err
	}
	if _, err := os.Stat(r.Project.SourceDir); errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("no sources at %s: run \"xsltpkg source\" first", r.Project.SourceDir)
	}
	return r.Build(cmd.Context(), r.Configure())
}
