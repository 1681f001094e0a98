package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fekuna/pantry-service/internal/assistant"
	"github.com/fekuna/pantry-service/internal/inventory"
	"github.com/fekuna/pantry-service/internal/logger"
	"github.com/fekuna/pantry-service/internal/model"
	"github.com/fekuna/pantry-service/internal/shopping"
	"github.com/fekuna/pantry-service/internal/shopping/dto"
)

const DefaultHorizonDays = 7

type shoppingUseCase struct {
	repo      shopping.Repository
	items     inventory.Repository
	suggester assistant.Suggester
	logger    logger.ZapLogger
	now       func() time.Time
}

func NewShoppingUseCase(repo shopping.Repository, items inventory.Repository, suggester assistant.Suggester, log logger.ZapLogger) shopping.UseCase {
	return &shoppingUseCase{
		repo:      repo,
		items:     items,
		suggester: suggester,
		logger:    log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateTask adds a task by hand. Unlike the automated generators it does not
// check for a pending task of the same name.
func (uc *shoppingUseCase) CreateTask(ctx context.Context, input *dto.CreateTaskInput) (*model.ShoppingTask, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", model.ErrInvalidLine)
	}
	qty := input.Quantity
	if qty.IsZero() {
		qty = decimal.NewFromInt(1)
	}
	if qty.IsNegative() {
		return nil, fmt.Errorf("%w: quantity must be positive", model.ErrInvalidLine)
	}
	source := input.Source
	if source == "" {
		source = model.SourceManual
	}
	if !source.Valid() {
		return nil, fmt.Errorf("%w: unknown source %q", model.ErrInvalidLine, source)
	}

	task := &model.ShoppingTask{
		ID:        uuid.New().String(),
		OwnerID:   input.OwnerID,
		Name:      name,
		Quantity:  qty,
		Unit:      strings.TrimSpace(input.Unit),
		Status:    model.TaskPending,
		Source:    source,
		CreatedAt: uc.now(),
	}
	if input.DueDate != nil {
		d := model.DateOf(*input.DueDate)
		task.DueDate = &d
	}
	if err := uc.link(ctx, task, input.ItemID); err != nil {
		return nil, err
	}

	if err := uc.repo.Create(ctx, task); err != nil {
		uc.logger.Error("failed to create shopping task", zap.String("owner_id", input.OwnerID), zap.Error(err))
		return nil, err
	}
	return task, nil
}

func (uc *shoppingUseCase) GetTask(ctx context.Context, ownerID, id string) (*model.ShoppingTask, error) {
	task, err := uc.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, model.ErrNotFound
	}
	return task, nil
}

func (uc *shoppingUseCase) ListTasks(ctx context.Context, filters *dto.TaskFilters) ([]model.ShoppingTask, int, error) {
	return uc.repo.FindAll(ctx, filters)
}

func (uc *shoppingUseCase) UpdateTask(ctx context.Context, input *dto.UpdateTaskInput) (*model.ShoppingTask, error) {
	task, err := uc.GetTask(ctx, input.OwnerID, input.ID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: empty name", model.ErrInvalidLine)
		}
		task.Name = name
	}
	if input.Quantity != nil {
		if !input.Quantity.IsPositive() {
			return nil, fmt.Errorf("%w: quantity must be positive", model.ErrInvalidLine)
		}
		task.Quantity = *input.Quantity
	}
	if input.Unit != nil {
		task.Unit = strings.TrimSpace(*input.Unit)
	}
	if input.DueDate != nil {
		d := model.DateOf(*input.DueDate)
		task.DueDate = &d
	}
	if input.ItemID != nil {
		task.ItemID = nil
		if err := uc.link(ctx, task, input.ItemID); err != nil {
			return nil, err
		}
	}

	if err := uc.repo.Update(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (uc *shoppingUseCase) DeleteTask(ctx context.Context, ownerID, id string) error {
	return uc.repo.Delete(ctx, ownerID, id)
}

func (uc *shoppingUseCase) Summary(ctx context.Context, ownerID string) (*dto.Summary, error) {
	pending, err := uc.repo.CountBySource(ctx, ownerID, string(model.TaskPending))
	if err != nil {
		return nil, err
	}
	done, err := uc.repo.CountBySource(ctx, ownerID, string(model.TaskDone))
	if err != nil {
		return nil, err
	}

	summary := &dto.Summary{BySource: pending}
	for _, c := range pending {
		summary.Pending += c.Count
	}
	for _, c := range done {
		summary.Done += c.Count
	}
	return summary, nil
}

// SuggestRestock asks the suggester what to buy for the next horizonDays.
// Nothing is written; callers turn the suggestions into tasks if they want.
func (uc *shoppingUseCase) SuggestRestock(ctx context.Context, ownerID string, horizonDays int) ([]assistant.Suggestion, error) {
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}
	items, err := uc.items.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if uc.suggester == nil {
		return assistant.LowStockSuggestions(items), nil
	}
	return uc.suggester.SuggestRestock(ctx, items, horizonDays)
}

// link points task at an item of the owner. An empty id clears the link;
// otherwise the item must exist.
func (uc *shoppingUseCase) link(ctx context.Context, task *model.ShoppingTask, itemID *string) error {
	if itemID == nil || strings.TrimSpace(*itemID) == "" {
		if task.Unit == "" {
			task.Unit = model.DefaultUnit
		}
		return nil
	}
	item, err := uc.items.GetByID(ctx, task.OwnerID, strings.TrimSpace(*itemID))
	if err != nil {
		return err
	}
	if item == nil {
		return fmt.Errorf("item %s: %w", *itemID, model.ErrNotFound)
	}
	id := item.ID
	task.ItemID = &id
	if task.Unit == "" {
		task.Unit = item.Unit
	}
	return nil
}
