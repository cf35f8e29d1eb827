// Package commands implements the vinoctl command tree.
package commands

import (
	"context"
	"fmt"
	"os"

	"vinoteca/internal/bootstrap"
	"vinoteca/internal/config"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var jsonOutput bool

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "vinoctl",
	Short: "Vinoteca operations CLI",
	Long: `vinoctl manages the Vinoteca database: schema migrations and demo data.

Connection settings come from the same environment variables and .env file
as the API server (DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME, ...).`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
}

// connect loads configuration and opens the primary database without
// touching the schema.
func connect(ctx context.Context) (*config.Config, *gorm.DB, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	db, _, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{})
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}
