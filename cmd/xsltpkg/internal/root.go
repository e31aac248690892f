package internal

import (
	"context"
	"os"
	"os/signal"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	profilePath string
	verbose     bool
)

var logger = log.NewWithOptions(os.Stderr, log.Options{
	Prefix:          "xsltpkg",
	ReportTimestamp: true,
})

var rootCmd = &cobra.Command{
	Use:   "xsltpkg",
	Short: "xsltpkg packages libxslt",
	Long: `xsltpkg fetches, configures, builds and packages libxslt 1.1.29 for a
build profile, and tests the resulting package tree with a consumer project.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			logger.SetLevel(log.DebugLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&profilePath, "profile", "p", "", "Build profile (YAML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose build output")
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		logger.Fatal(err)
	}
}
