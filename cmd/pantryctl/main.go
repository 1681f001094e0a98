// Package main implements pantryctl, a command-line tool for maintenance and
// one-off queries against the pantry database.
package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/fekuna/pantry-service/config"
	"github.com/fekuna/pantry-service/internal/database"
	"github.com/fekuna/pantry-service/internal/logger"
)

var (
	// ownerID scopes every query
	ownerID string
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pantryctl",
	Short: "Maintenance and query tool for the pantry service",
	Long: `pantryctl talks to the pantry database directly, using the same
PANTRY_* configuration as the gRPC server.`,
	Version:      version,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&ownerID, "owner", "", "owner id to act for")
}

func loadConfig() (*config.Config, logger.ZapLogger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	log := logger.NewZapLogger(&logger.ZapLoggerConfig{
		Encoding:          "console",
		Level:             cfg.Logger.Level,
		DisableCaller:     true,
		DisableStacktrace: true,
	})
	return cfg, log, nil
}

func openDB(cfg *config.Config) (*sqlx.DB, error) {
	if cfg.Postgres.Driver == "sqlite3" {
		return database.NewSQLite(cfg.Postgres.DBName)
	}
	return database.NewPostgres(&database.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    2,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
	})
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
