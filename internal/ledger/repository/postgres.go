package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/fekuna/pantry-service/internal/database"
	"github.com/fekuna/pantry-service/internal/ledger"
	"github.com/fekuna/pantry-service/internal/ledger/dto"
	"github.com/fekuna/pantry-service/internal/model"
)

type PGRepository struct {
	DB database.Querier
}

func NewPGRepository(db database.Querier) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) WithTx(q database.Querier) ledger.Repository {
	return &PGRepository{DB: q}
}

func (r *PGRepository) Record(ctx context.Context, ev *model.ConsumptionEvent) error {
	if !ev.Action.Valid() {
		return fmt.Errorf("unknown ledger action %q", ev.Action)
	}
	if ev.Delta.IsZero() {
		return errors.New("ledger entry without a quantity change")
	}
	query := `
        INSERT INTO consumption_events (id, owner_id, item_id, action, delta, note, created_at)
        VALUES (:id, :owner_id, :item_id, :action, :delta, :note, :created_at)
    `
	_, err := r.DB.NamedExecContext(ctx, query, ev)
	if err != nil {
		return fmt.Errorf("failed to record consumption event: %w", err)
	}
	return nil
}

func (r *PGRepository) RecentDeltas(ctx context.Context, ownerID string, since time.Time) ([]model.Delta, error) {
	deltas := []model.Delta{}
	query := r.DB.Rebind(`
        SELECT item_id, delta, created_at FROM consumption_events
        WHERE owner_id = ? AND created_at >= ?
        ORDER BY created_at, id
    `)
	err := r.DB.SelectContext(ctx, &deltas, query, ownerID, since.UTC())
	return deltas, err
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.EventFilters) ([]model.ConsumptionEvent, int, error) {
	events := []model.ConsumptionEvent{}
	var count int

	conditions := []string{"e.owner_id = :owner_id"}
	args := map[string]interface{}{"owner_id": f.OwnerID}

	if f.ItemID != "" {
		conditions = append(conditions, "e.item_id = :item_id")
		args["item_id"] = f.ItemID
	}
	if f.Action != "" {
		conditions = append(conditions, "e.action = :action")
		args["action"] = f.Action
	}
	if f.StartDate != nil {
		conditions = append(conditions, "e.created_at >= :start_date")
		args["start_date"] = f.StartDate.UTC()
	}
	if f.EndDate != nil {
		conditions = append(conditions, "e.created_at < :end_date")
		args["end_date"] = f.EndDate.UTC()
	}

	whereClause := " WHERE " + strings.Join(conditions, " AND ")

	countQuery, countArgs, err := sqlx.Named("SELECT count(*) FROM consumption_events e"+whereClause, args)
	if err != nil {
		return nil, 0, err
	}
	if err := r.DB.GetContext(ctx, &count, r.DB.Rebind(countQuery), countArgs...); err != nil {
		return nil, 0, err
	}

	query := `SELECT e.*, i.name AS item_name FROM consumption_events e
        JOIN inventory_items i ON i.id = e.item_id` + whereClause + " ORDER BY e.created_at DESC, e.id"
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (page-1)*f.PageSize)
	}
	selectQuery, selectArgs, err := sqlx.Named(query, args)
	if err != nil {
		return nil, 0, err
	}
	err = r.DB.SelectContext(ctx, &events, r.DB.Rebind(selectQuery), selectArgs...)
	return events, count, err
}

func (r *PGRepository) SumByItem(ctx context.Context, ownerID, itemID string) (decimal.Decimal, error) {
	var deltas []decimal.Decimal
	query := r.DB.Rebind(`SELECT delta FROM consumption_events WHERE owner_id = ? AND item_id = ?`)
	if err := r.DB.SelectContext(ctx, &deltas, query, ownerID, itemID); err != nil {
		return decimal.Zero, err
	}
	return decimal.Sum(decimal.Zero, deltas...), nil
}

func (r *PGRepository) DeleteByItem(ctx context.Context, ownerID, itemID string) error {
	query := r.DB.Rebind(`DELETE FROM consumption_events WHERE owner_id = ? AND item_id = ?`)
	_, err := r.DB.ExecContext(ctx, query, ownerID, itemID)
	return err
}
