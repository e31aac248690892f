package internal

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/goplus/xsltpkg/formula"
	"github.com/goplus/xsltpkg/internal/build"
	"github.com/goplus/xsltpkg/internal/config"
)

var removeAll bool

var removeCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove built packages from the workspace",
	Long: `Remove deletes the package tree, sources and cache entry built for the
profile. With --all every shared/static variant is removed.`,
	Args: cobra.NoArgs,
	RunE: runRemove,
}

func init() {
	removeCmd.Flags().BoolVarP(&removeAll, "all", "a", false, "Remove every value of the shared option")
	rootCmd.AddCommand(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	p, err := loadProfile()
	if err != nil {
		return err
	}
	b, err := newBuilder(p, false)
	if err != nil {
		return err
	}
	return removePackages(cmd.OutOrStdout(), b, p, removeAll)
}

// removePackages removes the profile's package, or every variant with all,
// printing the package dirs that existed.
func removePackages(w io.Writer, b *build.Builder, p *config.Profile, all bool) error {
	variants := []formula.Options{p.Options}
	if all {
		m := p.Settings.OptionsMatrix()
		variants = variants[:0]
		for _, sub := range m.Expand() {
			variants = append(variants, formula.OptionsOf(sub))
		}
	}
	for _, opts := range variants {
		res, found := b.Lookup(p.Settings, opts)
		if err := b.Remove(p.Settings, opts); err != nil {
			return err
		}
		if found {
			fmt.Fprintln(w, res.PackageDir)
		}
	}
	return nil
}
