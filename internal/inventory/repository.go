package inventory

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/fekuna/pantry-service/internal/database"
	"github.com/fekuna/pantry-service/internal/inventory/dto"
	"github.com/fekuna/pantry-service/internal/model"
)

type Repository interface {
	// WithTx returns a repository bound to the given unit of work.
	WithTx(q database.Querier) Repository

	GetByID(ctx context.Context, ownerID, id string) (*model.InventoryItem, error)
	// FindByName matches case-insensitively; among legacy duplicates the most
	// recently updated wins.
	FindByName(ctx context.Context, ownerID, name string) (*model.InventoryItem, error)
	FindAll(ctx context.Context, filters *dto.InventoryFilters) ([]model.InventoryItem, int, error)
	ListByOwner(ctx context.Context, ownerID string) ([]model.InventoryItem, error)

	Create(ctx context.Context, item *model.InventoryItem) error
	// Update writes every mutable column if the stored version still equals
	// item.Version, then bumps item.Version. It fails with
	// model.ErrConcurrentUpdate otherwise.
	Update(ctx context.Context, item *model.InventoryItem) error
	// AdjustQuantity applies delta and persists the item. It fails with
	// model.ErrNegativeQuantity before writing if the result would be below zero.
	AdjustQuantity(ctx context.Context, item *model.InventoryItem, delta decimal.Decimal) (decimal.Decimal, error)
	Delete(ctx context.Context, ownerID, id string) error
}
