package cook

import (
	"context"

	"github.com/fekuna/pantry-service/internal/cook/dto"
	"github.com/fekuna/pantry-service/internal/database"
	"github.com/fekuna/pantry-service/internal/model"
)

type Repository interface {
	WithTx(q database.Querier) Repository

	Create(ctx context.Context, history *model.CookHistory) error
	GetByID(ctx context.Context, ownerID, id string) (*model.CookHistory, error)
	FindAll(ctx context.Context, filters *dto.HistoryFilters) ([]model.CookHistory, int, error)
}
