package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmcleod/mediasafe/envelope"
	bboltkeystore "github.com/jmcleod/mediasafe/keystore/bbolt"
)

var (
	statusDBPath     string
	statusUserID     string
	statusJSONOutput bool
)

type statusReport struct {
	UserID   string `json:"user_id"`
	Legacy   int    `json:"legacy"`
	Envelope int    `json:"envelope"`
	Total    int    `json:"total"`
	Complete bool   `json:"complete"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report a user's key migration status",
	Long: `Reads the key store and reports how many of a user's objects still use
legacy master key encryption versus per-object content keys.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := bboltkeystore.NewStoreFromFile(statusDBPath, nil)
		if err != nil {
			return fmt.Errorf("failed to open key store: %w", err)
		}
		defer store.Close()

		m := envelope.NewManager(store)
		status, err := m.GetMigrationStatus(statusUserID)
		if err != nil {
			return fmt.Errorf("failed to read migration status: %w", err)
		}

		report := statusReport{
			UserID:   statusUserID,
			Legacy:   status.Legacy,
			Envelope: status.Envelope,
			Total:    status.Total,
			Complete: status.Complete,
		}

		if statusJSONOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}

		fmt.Printf("Migration status for %s\n", report.UserID)
		fmt.Printf("Objects:  %d\n", report.Total)
		fmt.Printf("Envelope: %d\n", report.Envelope)
		fmt.Printf("Legacy:   %d\n", report.Legacy)
		if report.Complete {
			fmt.Println("Result: COMPLETE")
		} else {
			fmt.Println("Result: IN PROGRESS")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().StringVar(&statusDBPath, "db", "./data/keys.db", "Path to the key store database")
	statusCmd.Flags().StringVar(&statusUserID, "user", "", "User ID to report on")
	_ = statusCmd.MarkFlagRequired("user")
}
