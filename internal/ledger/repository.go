package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fekuna/pantry-service/internal/database"
	"github.com/fekuna/pantry-service/internal/ledger/dto"
	"github.com/fekuna/pantry-service/internal/model"
)

// Repository is the append-only consumption ledger. Record must run in the
// same unit of work as the quantity change it describes.
type Repository interface {
	WithTx(q database.Querier) Repository

	Record(ctx context.Context, ev *model.ConsumptionEvent) error
	// RecentDeltas returns entries created at or after since, oldest first.
	RecentDeltas(ctx context.Context, ownerID string, since time.Time) ([]model.Delta, error)
	FindAll(ctx context.Context, filters *dto.EventFilters) ([]model.ConsumptionEvent, int, error)
	SumByItem(ctx context.Context, ownerID, itemID string) (decimal.Decimal, error)
	// DeleteByItem is only used when the item itself is deleted.
	DeleteByItem(ctx context.Context, ownerID, itemID string) error
}
