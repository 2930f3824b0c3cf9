package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmcleod/mediasafe/crypto"
	"github.com/jmcleod/mediasafe/internal/util"
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a master key and KDF salt",
	Long: `Generates a random master key and a password derivation salt, printed
as hex. Intended for provisioning scripts; the master key should be wrapped
before it is stored anywhere.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		masterKey, err := crypto.GenerateMasterKey()
		if err != nil {
			return fmt.Errorf("failed to generate master key: %w", err)
		}
		defer util.WipeBytes(masterKey)

		salt, err := crypto.GenerateSalt()
		if err != nil {
			return fmt.Errorf("failed to generate salt: %w", err)
		}

		fmt.Printf("master-key: %s\n", util.HexEncode(masterKey))
		fmt.Printf("salt:       %s\n", util.HexEncode(salt))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(keygenCmd)
}
