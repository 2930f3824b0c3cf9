package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmcleod/mediasafe/crypto"
)

var recoveryCmd = &cobra.Command{
	Use:   "recovery-key",
	Short: "Recovery key tools",
	Long:  `Commands for generating and checking account recovery keys.`,
}

var recoveryNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Generate a new recovery key",
	Long: `Generates a fresh recovery key and prints its display form. Store it
somewhere safe; it is the only way to regain access after a forgotten
password.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rk, err := crypto.NewRecoveryKey()
		if err != nil {
			return fmt.Errorf("failed to generate recovery key: %w", err)
		}
		defer rk.Wipe()

		fmt.Println(rk.String())
		return nil
	},
}

var recoveryCheckCmd = &cobra.Command{
	Use:   "check [key]",
	Short: "Check that a recovery key is well formed",
	Long: `Parses a recovery key in display form and reports whether it is valid.
Case and separators are ignored, so keys can be checked as transcribed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rk, err := crypto.ParseRecoveryKey(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid recovery key: %v\n", err)
			os.Exit(1)
		}
		defer rk.Wipe()

		fmt.Println("Recovery key is valid")
		fmt.Printf("Canonical form: %s\n", rk.String())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(recoveryCmd)
	recoveryCmd.AddCommand(recoveryNewCmd)
	recoveryCmd.AddCommand(recoveryCheckCmd)
}
