package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/fekuna/pantry-service/internal/model"
)

// schema is kept to the subset of DDL that Postgres and SQLite both accept.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS inventory_items (
		id          TEXT PRIMARY KEY,
		owner_id    TEXT NOT NULL,
		name        TEXT NOT NULL,
		name_key    TEXT NOT NULL DEFAULT '',
		category    TEXT NOT NULL DEFAULT '',
		location    TEXT NOT NULL DEFAULT '',
		container   TEXT NOT NULL DEFAULT '',
		quantity    NUMERIC(12,2) NOT NULL DEFAULT 0 CHECK (quantity >= 0),
		unit        TEXT NOT NULL DEFAULT 'pcs',
		min_stock   NUMERIC(12,2) NOT NULL DEFAULT 0,
		barcode     TEXT NOT NULL DEFAULT '',
		brand       TEXT NOT NULL DEFAULT '',
		tags        TEXT NOT NULL DEFAULT '',
		notes       TEXT NOT NULL DEFAULT '',
		expiry_type TEXT NOT NULL DEFAULT 'best_before',
		expiry_date DATE NULL,
		version     BIGINT NOT NULL DEFAULT 0,
		created_at  TIMESTAMP NOT NULL,
		updated_at  TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_inventory_items_owner_name ON inventory_items (owner_id, name)`,
	`CREATE TABLE IF NOT EXISTS consumption_events (
		id         TEXT PRIMARY KEY,
		owner_id   TEXT NOT NULL,
		item_id    TEXT NOT NULL REFERENCES inventory_items (id) ON DELETE CASCADE,
		action     TEXT NOT NULL DEFAULT 'adjust',
		delta      NUMERIC(12,2) NOT NULL,
		note       TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_consumption_events_owner_created ON consumption_events (owner_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_consumption_events_item ON consumption_events (item_id)`,
	`CREATE TABLE IF NOT EXISTS shopping_tasks (
		id         TEXT PRIMARY KEY,
		owner_id   TEXT NOT NULL,
		item_id    TEXT NULL REFERENCES inventory_items (id) ON DELETE SET NULL,
		name       TEXT NOT NULL,
		name_key   TEXT NOT NULL DEFAULT '',
		quantity   NUMERIC(12,2) NOT NULL DEFAULT 1,
		unit       TEXT NOT NULL DEFAULT 'pcs',
		status     TEXT NOT NULL DEFAULT 'pending',
		source     TEXT NOT NULL DEFAULT 'manual',
		due_date   DATE NULL,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_shopping_tasks_owner_status ON shopping_tasks (owner_id, status)`,
	`CREATE TABLE IF NOT EXISTS cook_histories (
		id         TEXT PRIMARY KEY,
		owner_id   TEXT NOT NULL,
		title      TEXT NOT NULL,
		lines      TEXT NOT NULL DEFAULT '[]',
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_cook_histories_owner ON cook_histories (owner_id, created_at)`,
}

// upgrades add columns to tables created by earlier releases.
var upgrades = []string{
	`ALTER TABLE inventory_items ADD COLUMN name_key TEXT NOT NULL DEFAULT ''`,
	`ALTER TABLE shopping_tasks ADD COLUMN name_key TEXT NOT NULL DEFAULT ''`,
}

var keyIndexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_inventory_items_owner_name_key ON inventory_items (owner_id, name_key)`,
	`CREATE INDEX IF NOT EXISTS idx_shopping_tasks_owner_name_key ON shopping_tasks (owner_id, status, name_key)`,
}

// Migrate creates any missing tables and columns. It is safe to run on every
// start.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration step %d failed: %w", i, err)
		}
	}
	for i, stmt := range upgrades {
		if _, err := db.ExecContext(ctx, stmt); err != nil && !columnExists(err) {
			return fmt.Errorf("upgrade step %d failed: %w", i, err)
		}
	}
	for i, stmt := range keyIndexes {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("index step %d failed: %w", i, err)
		}
	}
	return backfillNameKeys(ctx, db)
}

// columnExists matches the duplicate column errors of SQLite and Postgres.
func columnExists(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "duplicate column") || strings.Contains(msg, "already exists")
}

// backfillNameKeys computes name_key in Go for rows written before the column
// existed; SQL lower() does not fold non-ASCII letters on every driver.
func backfillNameKeys(ctx context.Context, db *sqlx.DB) error {
	for _, table := range []string{"inventory_items", "shopping_tasks"} {
		var rows []struct {
			ID   string `db:"id"`
			Name string `db:"name"`
		}
		if err := db.SelectContext(ctx, &rows, "SELECT id, name FROM "+table+" WHERE name_key = ''"); err != nil {
			return fmt.Errorf("failed to read %s names: %w", table, err)
		}
		update := db.Rebind("UPDATE " + table + " SET name_key = ? WHERE id = ?")
		for _, row := range rows {
			if _, err := db.ExecContext(ctx, update, model.NormalizeName(row.Name), row.ID); err != nil {
				return fmt.Errorf("failed to backfill %s name key: %w", table, err)
			}
		}
	}
	return nil
}
