package reconcile

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fekuna/pantry-service/internal/model"
)

const defaultCookTitle = "Cooked"

// Cook consumes ingredients. A line asking for more than is on hand uses
// what is there; the shortfall is visible as Requested vs -Delta on the
// result. Names not in stock are skipped, never created. One CookHistory is
// written after all lines ran, including when ctx was canceled part way.
func (e *Engine) Cook(ctx context.Context, ownerID, title string, lines []RawLine) (*model.CookHistory, []LineResult, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = defaultCookTitle
	}
	note := "cook: " + title

	cooked := make(model.CookLines, 0, len(lines))
	results := e.batch(ctx, "cook", len(lines), func(i int) LineResult {
		res := LineResult{Name: strings.TrimSpace(lines[i].Name)}
		line, err := lines[i].Normalize()
		if err != nil {
			res.fail(err)
			return res
		}
		res.Requested = line.Quantity

		entry := model.CookLine{
			Name:     line.Name,
			Quantity: line.Quantity,
			Unit:     line.Unit,
			Used:     decimal.Zero,
		}
		item, used, err := e.consumeLine(ctx, ownerID, line, note)
		switch {
		case err != nil:
			e.logger.Warn("cook line failed", zap.String("owner_id", ownerID), zap.String("name", line.Name), zap.Error(err))
			res.fail(err)
		case item == nil:
			res.Outcome = OutcomeSkipped
		default:
			id := item.ID
			entry.ItemID = &id
			entry.Used = used
			if entry.Unit == "" {
				entry.Unit = item.Unit
			}
			res.ItemID = item.ID
			res.Quantity = item.Quantity
			res.Delta = used.Neg()
			res.Outcome = OutcomeApplied
			if used.IsZero() {
				res.Outcome = OutcomeSkipped
			}
		}
		cooked = append(cooked, entry)
		return res
	})

	history := &model.CookHistory{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		Title:     title,
		Lines:     cooked,
		CreatedAt: e.now(),
	}
	if err := e.cooks.Create(context.WithoutCancel(ctx), history); err != nil {
		return nil, results, fmt.Errorf("failed to record cook history: %w", err)
	}
	return history, results, nil
}

// consumeLine draws down min(requested, on hand). It returns a nil item when
// the name is not in stock.
func (e *Engine) consumeLine(ctx context.Context, ownerID string, line Line, note string) (*model.InventoryItem, decimal.Decimal, error) {
	var current *model.InventoryItem
	var err error
	if line.ItemID != "" {
		current, err = e.items.GetByID(ctx, ownerID, line.ItemID)
	} else {
		current, err = e.items.FindByName(ctx, ownerID, line.Name)
	}
	if err != nil || current == nil {
		return nil, decimal.Zero, err
	}

	var item *model.InventoryItem
	used := decimal.Zero
	err = e.locked(ctx, itemLockKey(ownerID, current.Name), func(u unit) error {
		fresh, err := u.items.GetByID(ctx, ownerID, current.ID)
		if err != nil {
			return err
		}
		if fresh == nil {
			return fmt.Errorf("item %s: %w", current.ID, model.ErrNotFound)
		}
		used = decimal.Min(line.Quantity, fresh.Quantity)
		if used.IsPositive() {
			if err := e.apply(ctx, u, fresh, used.Neg(), model.ActionConsume, note); err != nil {
				return err
			}
		}
		item = fresh
		return nil
	})
	if err != nil {
		return nil, decimal.Zero, err
	}

	if used.IsPositive() {
		e.metrics.Adjustments.WithLabelValues(string(model.ActionConsume)).Inc()
		e.syncIndex(item)
	}
	return item, used, nil
}
