package internal

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var sourceCmd = &cobra.Command{
	Use:   "source",
	Short: "Download and extract the libxslt sources",
	Long:  `Source downloads the libxslt source archive into the workspace and extracts it.`,
	Args:  cobra.NoArgs,
	RunE:  runSource,
}

func init() {
	rootCmd.AddCommand(sourceCmd)
}

func runSource(cmd *cobra.Command, args []string) error {
	p, err := loadProfile()
	if err != nil {
		return err
	}
	r, err := newRecipe(p)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(r.Project.WorkDir); err != nil {
		return err
	}
	if err := os.MkdirAll(r.Project.WorkDir, 0o755); err != nil {
		return err
	}
	if err := r.Source(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), r.Project.SourceDir)
	return nil
}
