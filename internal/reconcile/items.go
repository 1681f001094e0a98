package reconcile

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	invdto "github.com/fekuna/pantry-service/internal/inventory/dto"
	"github.com/fekuna/pantry-service/internal/model"
)

const (
	noteInitialStock = "initial stock"
	noteQuickAdd     = "quick-add"
	noteBulkCreate   = "bulk create"
	noteImport       = "ai import"
)

// CreateItem adds a new item by hand. A second item with the same
// case-insensitive name is rejected with model.ErrItemExists. A non-zero
// starting quantity is recorded in the ledger like any other addition.
func (e *Engine) CreateItem(ctx context.Context, input *invdto.CreateItemInput) (*model.InventoryItem, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", model.ErrInvalidLine)
	}
	if input.Quantity.IsNegative() {
		return nil, model.ErrNegativeQuantity
	}
	if input.MinStock.IsNegative() {
		return nil, fmt.Errorf("%w: min stock must not be negative", model.ErrInvalidLine)
	}
	switch input.ExpiryType {
	case "", model.ExpiryUseBy, model.ExpiryBestBefore:
	default:
		return nil, fmt.Errorf("%w: expiry type %q", model.ErrInvalidLine, input.ExpiryType)
	}

	now := e.now()
	item := &model.InventoryItem{
		ID:         uuid.New().String(),
		OwnerID:    input.OwnerID,
		Name:       name,
		Category:   input.Category,
		Location:   input.Location,
		Container:  input.Container,
		Quantity:   decimal.Zero,
		Unit:       input.Unit,
		MinStock:   input.MinStock,
		Barcode:    input.Barcode,
		Brand:      input.Brand,
		Tags:       input.Tags,
		Notes:      input.Notes,
		ExpiryType: input.ExpiryType,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if item.Unit == "" {
		item.Unit = model.DefaultUnit
	}
	if item.ExpiryType == "" {
		item.ExpiryType = model.ExpiryBestBefore
	}
	if input.ExpiryDate != nil {
		d := model.DateOf(*input.ExpiryDate)
		item.ExpiryDate = &d
	}

	err := e.locked(ctx, itemLockKey(input.OwnerID, name), func(u unit) error {
		existing, err := u.items.FindByName(ctx, input.OwnerID, name)
		if err != nil {
			return err
		}
		if existing != nil {
			return model.ErrItemExists
		}
		created := *item
		if err := u.items.Create(ctx, &created); err != nil {
			return fmt.Errorf("failed to create item: %w", err)
		}
		if input.Quantity.IsPositive() {
			if err := e.apply(ctx, u, &created, input.Quantity, model.ActionAdd, noteInitialStock); err != nil {
				return err
			}
		}
		*item = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.metrics.Adjustments.WithLabelValues(string(model.ActionAdd)).Inc()
	e.syncIndex(item)
	return item, nil
}

// Adjust applies a manual delta to one item. Unlike cook consumption it does
// not clamp: a result below zero fails with model.ErrNegativeQuantity.
func (e *Engine) Adjust(ctx context.Context, input *invdto.AdjustInput) (*model.InventoryItem, error) {
	action := input.Action
	if action == "" {
		action = model.ActionAdjust
	}
	if !action.Valid() {
		return nil, fmt.Errorf("%w: unknown action %q", model.ErrInvalidLine, action)
	}
	if input.Delta.IsZero() {
		return nil, fmt.Errorf("%w: delta must not be zero", model.ErrInvalidLine)
	}

	current, err := e.items.GetByID(ctx, input.OwnerID, input.ItemID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, model.ErrNotFound
	}

	var item *model.InventoryItem
	err = e.locked(ctx, itemLockKey(input.OwnerID, current.Name), func(u unit) error {
		fresh, err := u.items.GetByID(ctx, input.OwnerID, input.ItemID)
		if err != nil {
			return err
		}
		if fresh == nil {
			return model.ErrNotFound
		}
		if err := e.apply(ctx, u, fresh, input.Delta, action, input.Note); err != nil {
			return err
		}
		item = fresh
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.metrics.Adjustments.WithLabelValues(string(action)).Inc()
	e.syncIndex(item)
	return item, nil
}

func (e *Engine) QuickAdd(ctx context.Context, ownerID string, lines []RawLine) []LineResult {
	return e.addLines(ctx, ownerID, "quick_add", noteQuickAdd, lines)
}

// BulkCreate takes full item records; names already in stock are merged like
// quick-add instead of creating duplicates.
func (e *Engine) BulkCreate(ctx context.Context, ownerID string, lines []RawLine) []LineResult {
	return e.addLines(ctx, ownerID, "bulk_create", noteBulkCreate, lines)
}

// Import adds lines recovered from free text.
func (e *Engine) Import(ctx context.Context, ownerID string, lines []RawLine) []LineResult {
	return e.addLines(ctx, ownerID, "import", noteImport, lines)
}

func (e *Engine) addLines(ctx context.Context, ownerID, op, note string, lines []RawLine) []LineResult {
	return e.batch(ctx, op, len(lines), func(i int) LineResult {
		res := LineResult{Name: strings.TrimSpace(lines[i].Name)}
		line, err := lines[i].Normalize()
		if err != nil {
			res.fail(err)
			return res
		}
		res.Requested = line.Quantity

		item, created, err := e.addLine(ctx, ownerID, line, note)
		if err != nil {
			e.logger.Warn("batch line failed",
				zap.String("operation", op),
				zap.String("owner_id", ownerID),
				zap.String("name", line.Name),
				zap.Error(err),
			)
			res.fail(err)
			return res
		}
		res.Outcome = OutcomeApplied
		res.ItemID = item.ID
		res.Name = item.Name
		res.Created = created
		res.Delta = line.Quantity
		res.Quantity = item.Quantity
		res.ExpiryDate = item.ExpiryDate
		return res
	})
}

// addLine merges one additive line into stock: explicit link, then name,
// then a new item starting at zero.
func (e *Engine) addLine(ctx context.Context, ownerID string, line Line, note string) (*model.InventoryItem, bool, error) {
	lockName := line.Name
	var current *model.InventoryItem
	var err error
	if line.ItemID != "" {
		current, err = e.items.GetByID(ctx, ownerID, line.ItemID)
		if err != nil {
			return nil, false, err
		}
		if current == nil {
			return nil, false, fmt.Errorf("item %s: %w", line.ItemID, model.ErrNotFound)
		}
		lockName = current.Name
	} else {
		current, err = e.items.FindByName(ctx, ownerID, line.Name)
		if err != nil {
			return nil, false, err
		}
	}
	estimated := e.estimateFor(ctx, line.Name, line.ExpiryDate, current)

	var item *model.InventoryItem
	var created bool
	err = e.locked(ctx, itemLockKey(ownerID, lockName), func(u unit) error {
		var target *model.InventoryItem
		var err error
		created = false
		if line.ItemID != "" {
			target, err = u.items.GetByID(ctx, ownerID, line.ItemID)
		} else {
			target, err = u.items.FindByName(ctx, ownerID, line.Name)
		}
		if err != nil {
			return err
		}
		if target == nil {
			if line.ItemID != "" {
				return fmt.Errorf("item %s: %w", line.ItemID, model.ErrNotFound)
			}
			target = e.newItem(ownerID, line)
			if err := u.items.Create(ctx, target); err != nil {
				return fmt.Errorf("failed to create item: %w", err)
			}
			created = true
		} else {
			target.FillMissing(line.Meta)
		}
		if target.ExpiryDate == nil && estimated != nil {
			target.ExpiryDate = estimated
		}
		if err := e.apply(ctx, u, target, line.Quantity, model.ActionAdd, note); err != nil {
			return err
		}
		item = target
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	e.metrics.Adjustments.WithLabelValues(string(model.ActionAdd)).Inc()
	e.syncIndex(item)
	return item, created, nil
}
