package shopping

import (
	"context"

	"github.com/fekuna/pantry-service/internal/database"
	"github.com/fekuna/pantry-service/internal/model"
	"github.com/fekuna/pantry-service/internal/shopping/dto"
)

type Repository interface {
	WithTx(q database.Querier) Repository

	Create(ctx context.Context, task *model.ShoppingTask) error
	GetByID(ctx context.Context, ownerID, id string) (*model.ShoppingTask, error)
	// FindAll lists pending tasks first, newest first within each status.
	FindAll(ctx context.Context, filters *dto.TaskFilters) ([]model.ShoppingTask, int, error)
	// FindPendingByName matches case-insensitively.
	FindPendingByName(ctx context.Context, ownerID, name string) (*model.ShoppingTask, error)
	// MarkDone moves a pending task to done. It returns
	// model.ErrTaskAlreadyDone when the task was no longer pending.
	MarkDone(ctx context.Context, ownerID, id string) error
	Update(ctx context.Context, task *model.ShoppingTask) error
	Delete(ctx context.Context, ownerID, id string) error
	// UnlinkItem clears the item reference of every task pointing at itemID.
	UnlinkItem(ctx context.Context, ownerID, itemID string) error
	CountBySource(ctx context.Context, ownerID, status string) ([]model.SourceCount, error)
}
