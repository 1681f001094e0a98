package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/fekuna/pantry-service/internal/database"
	"github.com/fekuna/pantry-service/internal/model"
	"github.com/fekuna/pantry-service/internal/shopping"
	"github.com/fekuna/pantry-service/internal/shopping/dto"
)

type PGRepository struct {
	DB database.Querier
}

func NewPGRepository(db database.Querier) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) WithTx(q database.Querier) shopping.Repository {
	return &PGRepository{DB: q}
}

func (r *PGRepository) Create(ctx context.Context, task *model.ShoppingTask) error {
	task.NameKey = model.NormalizeName(task.Name)
	query := `
        INSERT INTO shopping_tasks (id, owner_id, item_id, name, name_key, quantity, unit, status, source, due_date, created_at)
        VALUES (:id, :owner_id, :item_id, :name, :name_key, :quantity, :unit, :status, :source, :due_date, :created_at)
    `
	_, err := r.DB.NamedExecContext(ctx, query, task)
	return err
}

func (r *PGRepository) GetByID(ctx context.Context, ownerID, id string) (*model.ShoppingTask, error) {
	var task model.ShoppingTask
	query := r.DB.Rebind(`SELECT * FROM shopping_tasks WHERE owner_id = ? AND id = ?`)
	err := r.DB.GetContext(ctx, &task, query, ownerID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &task, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.TaskFilters) ([]model.ShoppingTask, int, error) {
	tasks := []model.ShoppingTask{}
	var count int

	conditions := []string{"owner_id = :owner_id"}
	args := map[string]interface{}{"owner_id": f.OwnerID}

	if f.Status != "" {
		conditions = append(conditions, "status = :status")
		args["status"] = f.Status
	}
	if f.Source != "" {
		conditions = append(conditions, "source = :source")
		args["source"] = f.Source
	}

	whereClause := " WHERE " + strings.Join(conditions, " AND ")

	countQuery, countArgs, err := sqlx.Named("SELECT count(*) FROM shopping_tasks"+whereClause, args)
	if err != nil {
		return nil, 0, err
	}
	if err := r.DB.GetContext(ctx, &count, r.DB.Rebind(countQuery), countArgs...); err != nil {
		return nil, 0, err
	}

	// 'pending' sorts after 'done', so order on an explicit rank.
	query := "SELECT * FROM shopping_tasks" + whereClause +
		" ORDER BY CASE WHEN status = 'pending' THEN 0 ELSE 1 END, created_at DESC, id"
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
	err = r.DB.SelectContext(ctx, &tasks, r.DB.Rebind(selectQuery), selectArgs...)
	return tasks, count, err
}

func (r *PGRepository) FindPendingByName(ctx context.Context, ownerID, name string) (*model.ShoppingTask, error) {
	var task model.ShoppingTask
	query := r.DB.Rebind(`
        SELECT * FROM shopping_tasks
        WHERE owner_id = ? AND status = ? AND name_key = ?
        ORDER BY created_at DESC, id
        LIMIT 1
    `)
	err := r.DB.GetContext(ctx, &task, query, ownerID, model.TaskPending, model.NormalizeName(name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &task, nil
}

func (r *PGRepository) MarkDone(ctx context.Context, ownerID, id string) error {
	query := r.DB.Rebind(`UPDATE shopping_tasks SET status = ? WHERE owner_id = ? AND id = ? AND status = ?`)
	res, err := r.DB.ExecContext(ctx, query, model.TaskDone, ownerID, id, model.TaskPending)
	if err != nil {
		return fmt.Errorf("failed to mark task done: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return model.ErrTaskAlreadyDone
	}
	return nil
}

func (r *PGRepository) Update(ctx context.Context, task *model.ShoppingTask) error {
	task.NameKey = model.NormalizeName(task.Name)
	query := `
        UPDATE shopping_tasks SET
            item_id = :item_id,
            name = :name,
            name_key = :name_key,
            quantity = :quantity,
            unit = :unit,
            due_date = :due_date
        WHERE id = :id AND owner_id = :owner_id
    `
	res, err := r.DB.NamedExecContext(ctx, query, task)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *PGRepository) Delete(ctx context.Context, ownerID, id string) error {
	query := r.DB.Rebind(`DELETE FROM shopping_tasks WHERE owner_id = ? AND id = ?`)
	res, err := r.DB.ExecContext(ctx, query, ownerID, id)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *PGRepository) UnlinkItem(ctx context.Context, ownerID, itemID string) error {
	query := r.DB.Rebind(`UPDATE shopping_tasks SET item_id = NULL WHERE owner_id = ? AND item_id = ?`)
	_, err := r.DB.ExecContext(ctx, query, ownerID, itemID)
	return err
}

func (r *PGRepository) CountBySource(ctx context.Context, ownerID, status string) ([]model.SourceCount, error) {
	counts := []model.SourceCount{}
	query := `SELECT source, count(*) AS count FROM shopping_tasks WHERE owner_id = ?`
	args := []interface{}{ownerID}
	if status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}
	query += " GROUP BY source ORDER BY source"
	err := r.DB.SelectContext(ctx, &counts, r.DB.Rebind(query), args...)
	return counts, err
}
