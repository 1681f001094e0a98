package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fekuna/pantry-service/internal/cook"
	"github.com/fekuna/pantry-service/internal/cook/dto"
	"github.com/fekuna/pantry-service/internal/database"
	"github.com/fekuna/pantry-service/internal/model"
)

type PGRepository struct {
	DB database.Querier
}

func NewPGRepository(db database.Querier) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) WithTx(q database.Querier) cook.Repository {
	return &PGRepository{DB: q}
}

func (r *PGRepository) Create(ctx context.Context, h *model.CookHistory) error {
	query := `
        INSERT INTO cook_histories (id, owner_id, title, lines, created_at)
        VALUES (:id, :owner_id, :title, :lines, :created_at)
    `
	if _, err := r.DB.NamedExecContext(ctx, query, h); err != nil {
		return fmt.Errorf("failed to create cook history: %w", err)
	}
	return nil
}

func (r *PGRepository) GetByID(ctx context.Context, ownerID, id string) (*model.CookHistory, error) {
	var h model.CookHistory
	query := r.DB.Rebind(`SELECT * FROM cook_histories WHERE owner_id = ? AND id = ?`)
	err := r.DB.GetContext(ctx, &h, query, ownerID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &h, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.HistoryFilters) ([]model.CookHistory, int, error) {
	histories := []model.CookHistory{}
	var count int

	countQuery := r.DB.Rebind(`SELECT count(*) FROM cook_histories WHERE owner_id = ?`)
	if err := r.DB.GetContext(ctx, &count, countQuery, f.OwnerID); err != nil {
		return nil, 0, err
	}

	query := `SELECT * FROM cook_histories WHERE owner_id = ? ORDER BY created_at DESC, id`
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (page-1)*f.PageSize)
	}
	err := r.DB.SelectContext(ctx, &histories, r.DB.Rebind(query), f.OwnerID)
	return histories, count, err
}
