package shopping

import (
	"context"

	"github.com/fekuna/pantry-service/internal/assistant"
	"github.com/fekuna/pantry-service/internal/model"
	"github.com/fekuna/pantry-service/internal/shopping/dto"
)

// UseCase covers the task list itself. Purchases credit stock and so belong
// to the reconciliation engine.
type UseCase interface {
	CreateTask(ctx context.Context, input *dto.CreateTaskInput) (*model.ShoppingTask, error)
	GetTask(ctx context.Context, ownerID, id string) (*model.ShoppingTask, error)
	ListTasks(ctx context.Context, filters *dto.TaskFilters) ([]model.ShoppingTask, int, error)
	UpdateTask(ctx context.Context, input *dto.UpdateTaskInput) (*model.ShoppingTask, error)
	DeleteTask(ctx context.Context, ownerID, id string) error
	Summary(ctx context.Context, ownerID string) (*dto.Summary, error)
	SuggestRestock(ctx context.Context, ownerID string, horizonDays int) ([]assistant.Suggestion, error)
}
