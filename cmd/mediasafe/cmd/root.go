package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mediasafe",
	Short: "MediaSafe is an encrypted media storage toolkit",
	Long: `Key management and encrypted storage tooling for MediaSafe deployments.
Complete documentation is available at https://github.com/jmcleod/mediasafe`,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
