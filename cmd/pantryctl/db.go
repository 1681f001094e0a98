package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fekuna/pantry-service/internal/database"
	invRepoPkg "github.com/fekuna/pantry-service/internal/inventory/repository"
	ledgerRepoPkg "github.com/fekuna/pantry-service/internal/ledger/repository"
	"github.com/fekuna/pantry-service/internal/metrics"
	"github.com/fekuna/pantry-service/internal/priority"
)

var (
	windowDays int
	summary    bool
)

func init() {
	rankCmd.Flags().IntVar(&windowDays, "window", 0, "consumption window in days (default from config)")
	rankCmd.Flags().BoolVar(&summary, "summary", false, "print the full dashboard summary instead of the ranking")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(rankCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		defer log.Sync()

		db, err := openDB(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := database.Migrate(cmd.Context(), db); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
		return nil
	},
}

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank an owner's items by urgency",
	Long: `Rank items by days to expiry or days until empty at the recent
consumption rate, most urgent first.

Examples:
  pantryctl rank --owner u1
  pantryctl rank --owner u1 --window 30 --summary`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if ownerID == "" {
			return errors.New("--owner is required")
		}
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		defer log.Sync()

		db, err := openDB(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		scorer := priority.NewScorer(invRepoPkg.NewPGRepository(db), ledgerRepoPkg.NewPGRepository(db), priority.Config{
			WindowDays:     cfg.Priority.WindowDays,
			TopN:           cfg.Priority.TopN,
			UseByDays:      cfg.Priority.UseByDays,
			BestBeforeDays: cfg.Priority.BestBeforeDays,
		}, metrics.NewNop(), log)

		if summary {
			s, err := scorer.Summary(cmd.Context(), ownerID, windowDays)
			if err != nil {
				return err
			}
			return printJSON(cmd, s)
		}
		entries, err := scorer.Rank(cmd.Context(), ownerID, windowDays)
		if err != nil {
			return err
		}
		return printJSON(cmd, entries)
	},
}
