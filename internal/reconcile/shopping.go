package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	invdto "github.com/fekuna/pantry-service/internal/inventory/dto"
	"github.com/fekuna/pantry-service/internal/model"
	shopdto "github.com/fekuna/pantry-service/internal/shopping/dto"
)

// PurchaseTask credits a pending task to stock and marks it done in the same
// transaction. Purchasing a task that is already done is a no-op reported as
// skipped, not an error.
func (e *Engine) PurchaseTask(ctx context.Context, ownerID string, input shopdto.PurchaseInput) (LineResult, error) {
	res, err := e.purchase(ctx, ownerID, input)
	e.metrics.LineOutcomes.WithLabelValues("purchase", outcomeLabel(res.Outcome)).Inc()
	return res, err
}

func (e *Engine) PurchaseBatch(ctx context.Context, ownerID string, inputs []shopdto.PurchaseInput) []LineResult {
	return e.batch(ctx, "purchase_batch", len(inputs), func(i int) LineResult {
		res, _ := e.purchase(ctx, ownerID, inputs[i])
		return res
	})
}

// purchase always returns a filled LineResult; the error is returned as well
// so single-task callers can map it.
func (e *Engine) purchase(ctx context.Context, ownerID string, input shopdto.PurchaseInput) (LineResult, error) {
	res := LineResult{TaskID: input.TaskID}
	fail := func(err error) (LineResult, error) {
		res.fail(err)
		return res, err
	}

	if strings.TrimSpace(input.TaskID) == "" {
		return fail(fmt.Errorf("%w: missing task id", model.ErrInvalidLine))
	}
	task, err := e.tasks.GetByID(ctx, ownerID, input.TaskID)
	if err != nil {
		return fail(err)
	}
	if task == nil {
		return fail(fmt.Errorf("task %s: %w", input.TaskID, model.ErrNotFound))
	}
	res.Name = task.Name
	if task.Status == model.TaskDone {
		res.Outcome = OutcomeSkipped
		return res, nil
	}

	qty := task.Quantity
	if input.Quantity != nil {
		qty = *input.Quantity
	}
	if !qty.IsPositive() {
		return fail(fmt.Errorf("%w: quantity must be positive", model.ErrInvalidLine))
	}
	res.Requested = qty

	var explicit *time.Time
	if input.ExpiryDate != nil {
		d := model.DateOf(*input.ExpiryDate)
		explicit = &d
	}

	current, err := e.purchaseTarget(ctx, ownerID, task)
	if err != nil {
		return fail(err)
	}
	lockName := task.Name
	if current != nil {
		lockName = current.Name
	}
	estimated := e.estimateFor(ctx, task.Name, explicit, current)

	var item *model.InventoryItem
	var created bool
	err = e.locked(ctx, itemLockKey(ownerID, lockName), func(u unit) error {
		fresh, err := u.tasks.GetByID(ctx, ownerID, task.ID)
		if err != nil {
			return err
		}
		if fresh == nil {
			return fmt.Errorf("task %s: %w", task.ID, model.ErrNotFound)
		}
		if fresh.Status == model.TaskDone {
			return model.ErrTaskAlreadyDone
		}

		created = false
		var target *model.InventoryItem
		if fresh.ItemID != nil {
			if target, err = u.items.GetByID(ctx, ownerID, *fresh.ItemID); err != nil {
				return err
			}
		}
		if target == nil {
			if target, err = u.items.FindByName(ctx, ownerID, fresh.Name); err != nil {
				return err
			}
		}
		if target == nil {
			target = e.newItem(ownerID, Line{Name: fresh.Name, Meta: model.ItemMetadata{Unit: fresh.Unit}})
			if err := u.items.Create(ctx, target); err != nil {
				return fmt.Errorf("failed to create item: %w", err)
			}
			created = true
		}

		switch {
		case explicit != nil:
			target.ExpiryDate = explicit
		case target.ExpiryDate == nil && estimated != nil:
			target.ExpiryDate = estimated
		}
		if err := e.apply(ctx, u, target, qty, model.ActionAdd, fmt.Sprintf("purchase task #%s", fresh.ID)); err != nil {
			return err
		}

		if fresh.ItemID == nil || *fresh.ItemID != target.ID {
			id := target.ID
			fresh.ItemID = &id
			if err := u.tasks.Update(ctx, fresh); err != nil {
				return err
			}
		}
		if err := u.tasks.MarkDone(ctx, ownerID, fresh.ID); err != nil {
			return err
		}
		item = target
		return nil
	})
	if errors.Is(err, model.ErrTaskAlreadyDone) {
		res.Outcome = OutcomeSkipped
		return res, nil
	}
	if err != nil {
		e.logger.Warn("purchase failed", zap.String("owner_id", ownerID), zap.String("task_id", task.ID), zap.Error(err))
		return fail(err)
	}

	e.metrics.Adjustments.WithLabelValues(string(model.ActionAdd)).Inc()
	e.syncIndex(item)

	res.Outcome = OutcomeApplied
	res.ItemID = item.ID
	res.Name = item.Name
	res.Created = created
	res.Delta = qty
	res.Quantity = item.Quantity
	res.ExpiryDate = item.ExpiryDate
	return res, nil
}

// purchaseTarget is a lock-free read of the item a task will credit.
func (e *Engine) purchaseTarget(ctx context.Context, ownerID string, task *model.ShoppingTask) (*model.InventoryItem, error) {
	if task.ItemID != nil {
		item, err := e.items.GetByID(ctx, ownerID, *task.ItemID)
		if err != nil || item != nil {
			return item, err
		}
	}
	return e.items.FindByName(ctx, ownerID, task.Name)
}

// GenerateLowStockTasks creates a low_stock task for every item at or below
// its minimum that has no pending task under the same name yet. The check and
// the inserts share one transaction under the owner's task lock.
func (e *Engine) GenerateLowStockTasks(ctx context.Context, ownerID string) ([]model.ShoppingTask, error) {
	created := []model.ShoppingTask{}
	err := e.locked(ctx, taskLockKey(ownerID), func(u unit) error {
		created = created[:0]
		low, _, err := u.items.FindAll(ctx, &invdto.InventoryFilters{OwnerID: ownerID, LowStock: true})
		if err != nil {
			return err
		}
		seen := map[string]bool{}
		for _, it := range low {
			key := model.NormalizeName(it.Name)
			if seen[key] {
				continue
			}
			seen[key] = true

			pending, err := u.tasks.FindPendingByName(ctx, ownerID, it.Name)
			if err != nil {
				return err
			}
			if pending != nil {
				continue
			}

			qty := it.MinStock.Sub(it.Quantity)
			if qty.LessThan(decimal.NewFromInt(1)) {
				qty = decimal.NewFromInt(1)
			}
			id := it.ID
			task := model.ShoppingTask{
				ID:        uuid.New().String(),
				OwnerID:   ownerID,
				ItemID:    &id,
				Name:      it.Name,
				Quantity:  qty,
				Unit:      it.Unit,
				Status:    model.TaskPending,
				Source:    model.SourceLowStock,
				CreatedAt: e.now(),
			}
			if err := u.tasks.Create(ctx, &task); err != nil {
				return fmt.Errorf("failed to create shopping task: %w", err)
			}
			created = append(created, task)
		}
		return nil
	})
	if err != nil {
		e.logger.Error("failed to generate low stock tasks", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, err
	}
	e.metrics.TasksGenerated.WithLabelValues(string(model.SourceLowStock)).Add(float64(len(created)))
	return created, nil
}

// AddShoppingLines turns lines into pending tasks of the given source. A line
// whose name already has a pending task is skipped; the task is linked to the
// item of the same name when one exists.
func (e *Engine) AddShoppingLines(ctx context.Context, ownerID string, source model.TaskSource, lines []RawLine) []LineResult {
	if !source.Valid() {
		source = model.SourceManual
	}
	results := e.batch(ctx, "add_shopping", len(lines), func(i int) LineResult {
		res := LineResult{Name: strings.TrimSpace(lines[i].Name)}
		line, err := lines[i].Normalize()
		if err != nil {
			res.fail(err)
			return res
		}
		res.Requested = line.Quantity

		var task *model.ShoppingTask
		var existing bool
		err = e.locked(ctx, taskLockKey(ownerID), func(u unit) error {
			pending, err := u.tasks.FindPendingByName(ctx, ownerID, line.Name)
			if err != nil {
				return err
			}
			if pending != nil {
				task, existing = pending, true
				return nil
			}

			t := &model.ShoppingTask{
				ID:        uuid.New().String(),
				OwnerID:   ownerID,
				Name:      line.Name,
				Quantity:  line.Quantity,
				Unit:      line.Unit,
				Status:    model.TaskPending,
				Source:    source,
				CreatedAt: e.now(),
			}
			if line.ExpiryDate != nil {
				t.DueDate = line.ExpiryDate
			}
			item, err := u.items.FindByName(ctx, ownerID, line.Name)
			if err != nil {
				return err
			}
			if item != nil {
				id := item.ID
				t.ItemID = &id
				if t.Unit == "" {
					t.Unit = item.Unit
				}
			}
			if t.Unit == "" {
				t.Unit = model.DefaultUnit
			}
			if err := u.tasks.Create(ctx, t); err != nil {
				return fmt.Errorf("failed to create shopping task: %w", err)
			}
			task = t
			return nil
		})
		if err != nil {
			res.fail(err)
			return res
		}

		res.TaskID = task.ID
		res.Name = task.Name
		res.Quantity = task.Quantity
		if task.ItemID != nil {
			res.ItemID = *task.ItemID
		}
		if existing {
			res.Outcome = OutcomeSkipped
			return res
		}
		res.Outcome = OutcomeApplied
		res.Created = true
		return res
	})

	applied, _, _ := Tally(results)
	e.metrics.TasksGenerated.WithLabelValues(string(source)).Add(float64(applied))
	return results
}
