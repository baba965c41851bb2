package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/erazemk/trznica/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Database migration management",
	Long: `Apply or inspect the bundled migrations of the main database.

Examples:
  # Run all pending migrations
  trznica migrate up

  # Check migration status
  trznica migrate status`,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Run pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			database, err := db.Open(cfg.DB)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer database.Close()

			if err := db.Migrate(cmd.Context(), database, db.DialectSQLite); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied.")
			return nil
		},
	})
	migrateCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			database, err := db.Open(cfg.DB)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer database.Close()

			statuses, version, err := db.Status(cmd.Context(), database, db.DialectSQLite)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Current version: %d\n", version)
			for _, s := range statuses {
				state := "pending"
				if s.Applied {
					state = "applied"
				}
				fmt.Fprintf(out, "  %05d  %-8s %s\n", s.Version, state, s.Name)
			}
			return nil
		},
	})
}
