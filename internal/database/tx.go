package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// TxManager opens a unit of work: every write made through the Querier handed
// to fn commits together, or none of them do.
type TxManager struct {
	db *sqlx.DB
}

func NewTxManager(db *sqlx.DB) *TxManager {
	return &TxManager{db: db}
}

// DB returns the non-transactional handle for plain reads.
func (m *TxManager) DB() *sqlx.DB {
	return m.db
}

// WithinTx runs fn in a transaction. The transaction is rolled back if fn
// returns an error or panics, and committed otherwise.
func (m *TxManager) WithinTx(ctx context.Context, fn func(q Querier) error) (err error) {
	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
