package internal

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/goplus/xsltpkg/internal/build"
	"github.com/goplus/xsltpkg/internal/testpkg"
)

var (
	createAll    bool
	createTest   bool
	createForce  bool
	createOutput string
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Run the full recipe lifecycle",
	Long: `Create fetches, configures, builds and packages libxslt into the workspace.
With --all every shared/static variant is built; with --test each package
tree is verified with the test project.`,
	Args: cobra.NoArgs,
	RunE: runCreate,
}

func init() {
	createCmd.Flags().BoolVarP(&createAll, "all", "a", false, "Build every value of the shared option")
	createCmd.Flags().BoolVarP(&createTest, "test", "t", false, "Run the package test after building")
	createCmd.Flags().BoolVarP(&createForce, "force", "f", false, "Rebuild even if the package is cached")
	createCmd.Flags().StringVarP(&createOutput, "output", "o", "", "Copy the package tree to a directory or .zip file")
	rootCmd.AddCommand(createCmd)
}

func runCreate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	p, err := loadProfile()
	if err != nil {
		return err
	}
	// Resolve output path to absolute before build
	if createOutput != "" {
		abs, err := filepath.Abs(createOutput)
		if err != nil {
			return fmt.Errorf("failed to resolve output path: %w", err)
		}
		createOutput = abs
	}

	b, err := newBuilder(p, createForce)
	if err != nil {
		return fmt.Errorf("failed to create builder: %w", err)
	}

	var results []build.Result
	if createAll {
		results, err = b.BuildAll(ctx, p.Settings, p.Deps)
	} else {
		var res build.Result
		res, err = b.Build(ctx, p.Settings, p.Options, p.Deps)
		results = append(results, res)
	}
	if err != nil {
		return err
	}

	for _, res := range results {
		if res.Resolved.ForcedStatic {
			logger.Warn("shared build is not supported with a static MSVC runtime, built static", "runtime", p.Settings.Runtime)
		}
		fmt.Fprintln(cmd.OutOrStdout(), res.PackageDir)
	}

	if createTest {
		ref := testpkg.Requires(p.Username, p.Channel)
		for _, res := range results {
			if err := runTest(ctx, p, ref, res); err != nil {
				return err
			}
		}
	}

	if createOutput != "" {
		for _, res := range results {
			dest := outputPath(createOutput, res.Matrix, len(results) > 1)
			if err := outputResult(res.PackageDir, dest); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
			logger.Info("wrote package", "dest", dest)
		}
	}
	return nil
}
