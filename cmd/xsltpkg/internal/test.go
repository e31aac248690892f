package internal

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goplus/xsltpkg/internal/build"
	"github.com/goplus/xsltpkg/internal/recipe"
	"github.com/goplus/xsltpkg/internal/testpkg"
	"github.com/goplus/xsltpkg/mod/module"
)

var testCmd = &cobra.Command{
	Use:   "test [name/version@user/channel]",
	Short: "Build and run the test project against the package tree",
	Long: `Test compiles a small consumer project against the package tree built for
the profile and runs it. The reference defaults to XSLTPKG_USERNAME and
XSLTPKG_CHANNEL, then vitallium/testing.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTestCmd,
}

func init() {
	rootCmd.AddCommand(testCmd)
}

// testReference returns the reference named by args, or the default one.
func testReference(args []string, username, channel string) (module.Reference, error) {
	ref := testpkg.Requires(username, channel)
	if len(args) == 0 {
		return ref, nil
	}
	arg, err := module.Parse(args[0])
	if err != nil {
		return module.Reference{}, err
	}
	if arg.Name != ref.Name || arg.Version != ref.Version {
		return module.Reference{}, fmt.Errorf("%w: cannot test %s/%s, this recipe packages %s/%s",
			module.ErrInvalidReference, arg.Name, arg.Version, ref.Name, ref.Version)
	}
	if arg.User != "" {
		ref.User, ref.Channel = arg.User, arg.Channel
	}
	return ref, nil
}

func runTestCmd(cmd *cobra.Command, args []string) error {
	p, err := loadProfile()
	if err != nil {
		return err
	}
	ref, err := testReference(args, p.Username, p.Channel)
	if err != nil {
		return err
	}
	r, err := newRecipe(p)
	if err != nil {
		return err
	}
	res := build.Result{
		Ref:        recipe.Reference(),
		Matrix:     p.Settings.Matrix(p.Options).String(),
		PackageDir: r.Project.PackageDir,
	}
	return runTest(cmd.Context(), p, ref, res)
}
