package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fekuna/pantry-service/internal/cache"
	cookRepoPkg "github.com/fekuna/pantry-service/internal/cook/repository"
	"github.com/fekuna/pantry-service/internal/database"
	invRepoPkg "github.com/fekuna/pantry-service/internal/inventory/repository"
	ledgerRepoPkg "github.com/fekuna/pantry-service/internal/ledger/repository"
	"github.com/fekuna/pantry-service/internal/metrics"
	"github.com/fekuna/pantry-service/internal/reconcile"
	"github.com/fekuna/pantry-service/internal/shelflife"
	shopRepoPkg "github.com/fekuna/pantry-service/internal/shopping/repository"
)

func init() {
	rootCmd.AddCommand(restockCmd)
}

var restockCmd = &cobra.Command{
	Use:   "restock",
	Short: "Add pending shopping tasks for every low-stock item",
	Long: `Create one pending low_stock task per item at or below its minimum
stock. Items that already have a pending task of the same name are skipped,
so the command is safe to run from cron. When Redis is enabled the same
item locks as the server are used.`,
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

		var locker cache.Locker = cache.NewLocalLocker()
		if cfg.Redis.Enabled {
			client, err := cache.NewRedisClient(&cache.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
			if err != nil {
				return err
			}
			defer client.Close()
			locker = cache.NewRedisLocker(client)
		}

		m := metrics.NewNop()
		est := shelflife.New(shelflife.DefaultRules, nil, shelflife.Config{
			MaxDays:     cfg.ShelfLife.MaxDays,
			DefaultDays: cfg.ShelfLife.DefaultDays,
		}, m, log)
		engine := reconcile.NewEngine(database.NewTxManager(db),
			invRepoPkg.NewPGRepository(db),
			ledgerRepoPkg.NewPGRepository(db),
			shopRepoPkg.NewPGRepository(db),
			cookRepoPkg.NewPGRepository(db),
			locker, est, nil, m, log)

		tasks, err := engine.GenerateLowStockTasks(cmd.Context(), ownerID)
		if err != nil {
			return err
		}
		for _, t := range tasks {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s %s\n", t.Name, t.Quantity, t.Unit)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d task(s) created\n", len(tasks))
		return nil
	},
}
