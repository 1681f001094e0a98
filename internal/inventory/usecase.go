package inventory

import (
	"context"

	"github.com/fekuna/pantry-service/internal/inventory/dto"
	ledgerdto "github.com/fekuna/pantry-service/internal/ledger/dto"
	"github.com/fekuna/pantry-service/internal/model"
)

type UseCase interface {
	GetItem(ctx context.Context, ownerID, id string) (*model.InventoryItem, error)
	ListItems(ctx context.Context, filters *dto.InventoryFilters) ([]model.InventoryItem, int, error)
	ListLowStock(ctx context.Context, ownerID string, page, pageSize int) ([]model.InventoryItem, int, error)
	UpdateItem(ctx context.Context, input *dto.UpdateItemInput) (*model.InventoryItem, error)
	DeleteItem(ctx context.Context, ownerID, id string) error
	ListEvents(ctx context.Context, filters *ledgerdto.EventFilters) ([]model.ConsumptionEvent, int, error)
}

// Indexer mirrors items into a search engine. Implementations may be slow or
// down; callers treat every error as non-fatal.
type Indexer interface {
	IndexItem(ctx context.Context, item *model.InventoryItem) error
	DeleteItem(ctx context.Context, ownerID, id string) error
	SearchIDs(ctx context.Context, ownerID, query string, limit int) ([]string, error)
}
