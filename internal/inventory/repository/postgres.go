package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/fekuna/pantry-service/internal/database"
	"github.com/fekuna/pantry-service/internal/inventory"
	"github.com/fekuna/pantry-service/internal/inventory/dto"
	"github.com/fekuna/pantry-service/internal/model"
)

type PGRepository struct {
	DB database.Querier
}

func NewPGRepository(db database.Querier) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) WithTx(q database.Querier) inventory.Repository {
	return &PGRepository{DB: q}
}

func (r *PGRepository) GetByID(ctx context.Context, ownerID, id string) (*model.InventoryItem, error) {
	var item model.InventoryItem
	query := r.DB.Rebind(`SELECT * FROM inventory_items WHERE owner_id = ? AND id = ?`)
	err := r.DB.GetContext(ctx, &item, query, ownerID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *PGRepository) FindByName(ctx context.Context, ownerID, name string) (*model.InventoryItem, error) {
	var item model.InventoryItem
	query := r.DB.Rebind(`
        SELECT * FROM inventory_items
        WHERE owner_id = ? AND name_key = ?
        ORDER BY updated_at DESC, id
        LIMIT 1
    `)
	err := r.DB.GetContext(ctx, &item, query, ownerID, model.NormalizeName(name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.InventoryFilters) ([]model.InventoryItem, int, error) {
	items := []model.InventoryItem{}
	var count int

	conditions := []string{"owner_id = :owner_id"}
	args := map[string]interface{}{"owner_id": f.OwnerID}

	if f.Query != "" {
		conditions = append(conditions, "(name_key LIKE :q OR lower(category) LIKE :q OR lower(location) LIKE :q)")
		args["q"] = "%" + model.NormalizeName(f.Query) + "%"
	}
	if f.ItemIDs != nil {
		if len(f.ItemIDs) == 0 {
			return items, 0, nil
		}
		conditions = append(conditions, "id IN (:ids)")
		args["ids"] = f.ItemIDs
	}
	for col, val := range map[string]string{
		"category":  f.Category,
		"location":  f.Location,
		"container": f.Container,
		"unit":      f.Unit,
	} {
		if val != "" {
			conditions = append(conditions, fmt.Sprintf("%s = :%s", col, col))
			args[col] = val
		}
	}
	if f.Expired {
		conditions = append(conditions, "expiry_date IS NOT NULL AND expiry_date < :today")
		args["today"] = model.DateOf(f.Today)
	}
	if f.ExpiresBy != nil {
		conditions = append(conditions, "expiry_date IS NOT NULL AND expiry_date <= :expires_by")
		args["expires_by"] = model.DateOf(*f.ExpiresBy)
	}
	if f.LowStock {
		conditions = append(conditions, "quantity <= min_stock")
	}

	whereClause := " WHERE " + strings.Join(conditions, " AND ")

	countQuery, countArgs, err := r.bind("SELECT count(*) FROM inventory_items"+whereClause, args)
	if err != nil {
		return nil, 0, err
	}
	if err := r.DB.GetContext(ctx, &count, countQuery, countArgs...); err != nil {
		return nil, 0, err
	}

	query := "SELECT * FROM inventory_items" + whereClause + " ORDER BY name, updated_at DESC"
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (page-1)*f.PageSize)
	}
	selectQuery, selectArgs, err := r.bind(query, args)
	if err != nil {
		return nil, 0, err
	}
	err = r.DB.SelectContext(ctx, &items, selectQuery, selectArgs...)
	return items, count, err
}

// bind expands named args (including IN lists) and rebinds for the driver.
func (r *PGRepository) bind(query string, args map[string]interface{}) (string, []interface{}, error) {
	q, a, err := sqlx.Named(query, args)
	if err != nil {
		return "", nil, err
	}
	q, a, err = sqlx.In(q, a...)
	if err != nil {
		return "", nil, err
	}
	return r.DB.Rebind(q), a, nil
}

func (r *PGRepository) ListByOwner(ctx context.Context, ownerID string) ([]model.InventoryItem, error) {
	items := []model.InventoryItem{}
	query := r.DB.Rebind(`SELECT * FROM inventory_items WHERE owner_id = ? ORDER BY name, updated_at DESC`)
	err := r.DB.SelectContext(ctx, &items, query, ownerID)
	return items, err
}

func (r *PGRepository) Create(ctx context.Context, item *model.InventoryItem) error {
	if item.Quantity.IsNegative() {
		return model.ErrNegativeQuantity
	}
	item.NameKey = model.NormalizeName(item.Name)
	query := `
        INSERT INTO inventory_items (
            id, owner_id, name, name_key, category, location, container,
            quantity, unit, min_stock, barcode, brand, tags, notes,
            expiry_type, expiry_date, version, created_at, updated_at
        )
        VALUES (
            :id, :owner_id, :name, :name_key, :category, :location, :container,
            :quantity, :unit, :min_stock, :barcode, :brand, :tags, :notes,
            :expiry_type, :expiry_date, :version, :created_at, :updated_at
        )
    `
	_, err := r.DB.NamedExecContext(ctx, query, item)
	return err
}

func (r *PGRepository) Update(ctx context.Context, item *model.InventoryItem) error {
	if item.Quantity.IsNegative() {
		return model.ErrNegativeQuantity
	}
	item.NameKey = model.NormalizeName(item.Name)
	query := `
        UPDATE inventory_items SET
            name = :name,
            name_key = :name_key,
            category = :category,
            location = :location,
            container = :container,
            quantity = :quantity,
            unit = :unit,
            min_stock = :min_stock,
            barcode = :barcode,
            brand = :brand,
            tags = :tags,
            notes = :notes,
            expiry_type = :expiry_type,
            expiry_date = :expiry_date,
            version = version + 1,
            updated_at = :updated_at
        WHERE id = :id AND owner_id = :owner_id AND version = :version
    `
	res, err := r.DB.NamedExecContext(ctx, query, item)
	if err != nil {
		return fmt.Errorf("failed to update inventory item: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return model.ErrConcurrentUpdate
	}
	item.Version++
	return nil
}

func (r *PGRepository) AdjustQuantity(ctx context.Context, item *model.InventoryItem, delta decimal.Decimal) (decimal.Decimal, error) {
	before := item.Quantity
	next := before.Add(delta)
	if next.IsNegative() {
		return before, fmt.Errorf("%w: %s %s%s", model.ErrNegativeQuantity, item.Name, before.String(), delta.String())
	}
	item.Quantity = next
	if err := r.Update(ctx, item); err != nil {
		item.Quantity = before
		return before, err
	}
	return next, nil
}

func (r *PGRepository) Delete(ctx context.Context, ownerID, id string) error {
	query := r.DB.Rebind(`DELETE FROM inventory_items WHERE owner_id = ? AND id = ?`)
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
