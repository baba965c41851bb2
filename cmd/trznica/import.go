package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/erazemk/trznica/internal/market"
	"github.com/erazemk/trznica/internal/store"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "import <file>",
		Short: "Import listings from a JSON export",
		Long: `Merge listings from a JSON file into the catalog. The file may be a
stored catalog document or a bare array of records in the old export
format. Malformed records are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading import file: %w", err)
			}
			listings, err := store.Products.Decode(string(data))
			if err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			database, err := openDB(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer database.Close()

			res, err := market.NewService(database, nil).Merge(cmd.Context(), listings)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d listings: %d added, %d updated, %d skipped.\n", len(listings), res.Added, res.Updated, res.Skipped)
			return nil
		},
	})
}
