package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/erazemk/trznica/internal/market"
	"github.com/erazemk/trznica/internal/store"
)

var mirrorCmd = &cobra.Command{
	Use:   "mirror",
	Short: "Synchronize listings with the remote mirror",
	Long: `Copy listings between this server and the mirror configured under
mirror.url. Listings are matched by ID.

Examples:
  # Add and update local listings from the mirror
  trznica mirror pull -c trznica.yaml

  # Send every local listing to the mirror
  trznica mirror push -c trznica.yaml`,
}

func init() {
	rootCmd.AddCommand(mirrorCmd)
	mirrorCmd.AddCommand(&cobra.Command{
		Use:   "pull",
		Short: "Merge the mirror's listings into the local catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Mirror.URL == "" {
				return errors.New("mirror.url is not set")
			}
			database, err := openDB(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer database.Close()

			out := cmd.OutOrStdout()
			last, ok, err := store.GetSetting(cmd.Context(), database, store.SettingMirrorPulled)
			if err != nil {
				return err
			}
			if ok {
				fmt.Fprintf(out, "Previous pull: %s\n", last)
			}

			listings, err := newMirrorClient(cfg).FetchAll(cmd.Context())
			if err != nil {
				return err
			}
			res, err := market.NewService(database, nil).Merge(cmd.Context(), listings)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Pulled %d listings: %d added, %d updated, %d skipped.\n", len(listings), res.Added, res.Updated, res.Skipped)
			return store.PutSetting(cmd.Context(), database, store.SettingMirrorPulled, time.Now().UTC().Format(time.RFC3339))
		},
	})
	mirrorCmd.AddCommand(&cobra.Command{
		Use:   "push",
		Short: "Send every local listing to the mirror",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Mirror.URL == "" {
				return errors.New("mirror.url is not set")
			}
			database, err := openDB(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer database.Close()

			listings, err := store.Products.Load(cmd.Context(), database)
			if err != nil {
				return err
			}
			client := newMirrorClient(cfg)
			failed := 0
			for _, l := range listings {
				if _, err := client.Upsert(cmd.Context(), l); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", l.ID, err)
					failed++
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pushed %d of %d listings.\n", len(listings)-failed, len(listings))
			if failed > 0 {
				return fmt.Errorf("%d listings failed", failed)
			}
			return nil
		},
	})
}
