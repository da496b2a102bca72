// Command toursctl is the operator CLI for the tours service.
package main

import (
	"fmt"
	"os"

	"tours/internal/config"
	"tours/internal/database"
	"tours/internal/observability"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// loadConfig is replaced in tests.
var loadConfig = config.LoadConfig

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "toursctl",
		Short:         "Operate the tours service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			observability.SetGlobalLogger(observability.NewLogger(os.Getenv("APP_ENV")))
		},
	}
	root.AddCommand(
		newMigrateCmd(),
		newSeedCmd(),
		newTokenCmd(),
		newEventsCmd(),
		newRevokeCmd(),
	)
	return root
}

// openDB loads configuration and connects to the configured database.
func openDB() (*config.Config, *gorm.DB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
