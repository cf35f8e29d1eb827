package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"vinoteca/internal/database"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var downVersion int

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long: `Run the embedded SQL migrations.

Subcommands:
  up      - Apply pending migrations
  down    - Roll back the latest (or a given) migration
  status  - Show applied and pending migrations`,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, db, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer closeDB(db)
		return runMigrateUp(cmd, db)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back a migration",
	Long: `Roll back applied migrations.

Examples:
  vinoctl migrate down               # Roll back the latest migration
  vinoctl migrate down --version 2   # Roll back migration 000002`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, db, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer closeDB(db)
		return runMigrateDown(cmd, db, downVersion)
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show migration status",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, db, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer closeDB(db)

		status, err := database.GetSchemaStatus(cmd.Context(), db, cfg)
		if err != nil {
			return fmt.Errorf("schema status: %w", err)
		}
		return printStatus(cmd.OutOrStdout(), status, jsonOutput)
	},
}

func init() {
	migrateDownCmd.Flags().IntVar(&downVersion, "version", 0, "Version to roll back (default: latest applied)")

	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateStatusCmd)
	rootCmd.AddCommand(migrateCmd)
}

func runMigrateUp(cmd *cobra.Command, db *gorm.DB) error {
	if err := database.RunMigrations(cmd.Context(), db); err != nil {
		return fmt.Errorf("sql migrations failed: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "sql migrations applied")
	return nil
}

func runMigrateDown(cmd *cobra.Command, db *gorm.DB, version int) error {
	if version > 0 {
		if err := database.RollbackMigration(cmd.Context(), db, version); err != nil {
			return fmt.Errorf("rollback failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "rolled back migration %06d\n", version)
		return nil
	}

	m, err := database.RollbackLatest(cmd.Context(), db)
	if errors.Is(err, database.ErrNothingToRollback) {
		fmt.Fprintln(cmd.OutOrStdout(), "nothing to roll back")
		return nil
	}
	if err != nil {
		return fmt.Errorf("rollback failed: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "rolled back migration %s\n", m)
	return nil
}

type statusView struct {
	Mode    string   `json:"mode"`
	Env     string   `json:"env"`
	RunSQL  bool     `json:"runSql"`
	RunAuto bool     `json:"runAuto"`
	Applied []int    `json:"applied"`
	Pending []string `json:"pending"`
}

func printStatus(w io.Writer, status *database.SchemaStatus, asJSON bool) error {
	view := statusView{
		Mode:    status.Mode,
		Env:     status.Environment,
		RunSQL:  status.WillRunSQL,
		RunAuto: status.WillRunAutoMigrate,
		Applied: status.AppliedVersions,
		Pending: make([]string, 0, len(status.PendingMigrations)),
	}
	for _, m := range status.PendingMigrations {
		view.Pending = append(view.Pending, m.String())
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "MODE\t%s\n", view.Mode)
	fmt.Fprintf(tw, "ENV\t%s\n", view.Env)
	fmt.Fprintf(tw, "RUN SQL\t%t\n", view.RunSQL)
	fmt.Fprintf(tw, "RUN AUTO\t%t\n", view.RunAuto)
	fmt.Fprintf(tw, "APPLIED\t%d\n", len(view.Applied))
	fmt.Fprintf(tw, "PENDING\t%d\n", len(view.Pending))
	for _, p := range view.Pending {
		fmt.Fprintf(tw, "  pending\t%s\n", p)
	}
	return tw.Flush()
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
