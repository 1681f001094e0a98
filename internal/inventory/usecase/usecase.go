package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fekuna/pantry-service/internal/cache"
	"github.com/fekuna/pantry-service/internal/database"
	"github.com/fekuna/pantry-service/internal/inventory"
	"github.com/fekuna/pantry-service/internal/inventory/dto"
	"github.com/fekuna/pantry-service/internal/ledger"
	ledgerdto "github.com/fekuna/pantry-service/internal/ledger/dto"
	"github.com/fekuna/pantry-service/internal/logger"
	"github.com/fekuna/pantry-service/internal/model"
	"github.com/fekuna/pantry-service/internal/shopping"
)

const (
	searchLimit  = 200
	indexTimeout = 5 * time.Second
)

type inventoryUseCase struct {
	tx     *database.TxManager
	repo   inventory.Repository
	events ledger.Repository
	tasks  shopping.Repository
	locker cache.Locker
	index  inventory.Indexer
	logger logger.ZapLogger
	now    func() time.Time
}

// NewInventoryUseCase serves reads and the edits that never move quantity.
// index may be nil, in which case search runs against the database only.
func NewInventoryUseCase(
	tx *database.TxManager,
	repo inventory.Repository,
	events ledger.Repository,
	tasks shopping.Repository,
	locker cache.Locker,
	index inventory.Indexer,
	log logger.ZapLogger,
) inventory.UseCase {
	return &inventoryUseCase{
		tx:     tx,
		repo:   repo,
		events: events,
		tasks:  tasks,
		locker: locker,
		index:  index,
		logger: log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (uc *inventoryUseCase) GetItem(ctx context.Context, ownerID, id string) (*model.InventoryItem, error) {
	item, err := uc.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, model.ErrNotFound
	}
	return item, nil
}

// ListItems answers a text query from the search index when one is wired and
// reachable; the database LIKE filter is the fallback.
func (uc *inventoryUseCase) ListItems(ctx context.Context, filters *dto.InventoryFilters) ([]model.InventoryItem, int, error) {
	f := *filters
	if f.Today.IsZero() {
		f.Today = model.DateOf(uc.now())
	}

	if q := strings.TrimSpace(f.Query); q != "" && uc.index != nil {
		ids, err := uc.index.SearchIDs(ctx, f.OwnerID, q, searchLimit)
		if err == nil {
			f.Query = ""
			f.ItemIDs = ids
		} else {
			uc.logger.Warn("search index unavailable, falling back to database", zap.String("owner_id", f.OwnerID), zap.Error(err))
		}
	}
	return uc.repo.FindAll(ctx, &f)
}

func (uc *inventoryUseCase) ListLowStock(ctx context.Context, ownerID string, page, pageSize int) ([]model.InventoryItem, int, error) {
	return uc.repo.FindAll(ctx, &dto.InventoryFilters{
		OwnerID:  ownerID,
		LowStock: true,
		Page:     page,
		PageSize: pageSize,
	})
}

// UpdateItem edits descriptive fields. Renaming onto another item's name is
// rejected with model.ErrItemExists; both names are locked for the duration.
func (uc *inventoryUseCase) UpdateItem(ctx context.Context, input *dto.UpdateItemInput) (*model.InventoryItem, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", model.ErrInvalidLine)
	}
	if input.MinStock.IsNegative() {
		return nil, fmt.Errorf("%w: min stock must not be negative", model.ErrInvalidLine)
	}
	switch input.ExpiryType {
	case "", model.ExpiryUseBy, model.ExpiryBestBefore:
	default:
		return nil, fmt.Errorf("%w: expiry type %q", model.ErrInvalidLine, input.ExpiryType)
	}

	current, err := uc.GetItem(ctx, input.OwnerID, input.ID)
	if err != nil {
		return nil, err
	}

	unlock, err := uc.lockNames(ctx, input.OwnerID, current.Name, name)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var item *model.InventoryItem
	err = uc.tx.WithinTx(ctx, func(q database.Querier) error {
		repo := uc.repo.WithTx(q)
		fresh, err := repo.GetByID(ctx, input.OwnerID, input.ID)
		if err != nil {
			return err
		}
		if fresh == nil {
			return model.ErrNotFound
		}
		if model.NormalizeName(name) != model.NormalizeName(fresh.Name) {
			other, err := repo.FindByName(ctx, input.OwnerID, name)
			if err != nil {
				return err
			}
			if other != nil && other.ID != fresh.ID {
				return model.ErrItemExists
			}
		}

		fresh.Name = name
		fresh.Category = strings.TrimSpace(input.Category)
		fresh.Location = strings.TrimSpace(input.Location)
		fresh.Container = strings.TrimSpace(input.Container)
		if u := strings.TrimSpace(input.Unit); u != "" {
			fresh.Unit = u
		}
		fresh.MinStock = input.MinStock
		fresh.Barcode = strings.TrimSpace(input.Barcode)
		fresh.Brand = strings.TrimSpace(input.Brand)
		fresh.Tags = strings.TrimSpace(input.Tags)
		fresh.Notes = input.Notes
		if input.ExpiryType != "" {
			fresh.ExpiryType = input.ExpiryType
		}
		fresh.ExpiryDate = nil
		if input.ExpiryDate != nil {
			d := model.DateOf(*input.ExpiryDate)
			fresh.ExpiryDate = &d
		}
		fresh.UpdatedAt = uc.now()

		if err := repo.Update(ctx, fresh); err != nil {
			return err
		}
		item = fresh
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.sync(func(ctx context.Context) error { return uc.index.IndexItem(ctx, item) }, item.ID)
	return item, nil
}

// DeleteItem removes the item with its ledger history. Shopping tasks that
// pointed at it keep their name and lose the link.
func (uc *inventoryUseCase) DeleteItem(ctx context.Context, ownerID, id string) error {
	current, err := uc.GetItem(ctx, ownerID, id)
	if err != nil {
		return err
	}

	unlock, err := uc.locker.Lock(ctx, inventory.LockKey(ownerID, current.Name))
	if err != nil {
		return err
	}
	defer unlock()

	err = uc.tx.WithinTx(ctx, func(q database.Querier) error {
		if err := uc.events.WithTx(q).DeleteByItem(ctx, ownerID, id); err != nil {
			return err
		}
		if err := uc.tasks.WithTx(q).UnlinkItem(ctx, ownerID, id); err != nil {
			return err
		}
		return uc.repo.WithTx(q).Delete(ctx, ownerID, id)
	})
	if err != nil {
		return err
	}

	uc.sync(func(ctx context.Context) error { return uc.index.DeleteItem(ctx, ownerID, id) }, id)
	return nil
}

func (uc *inventoryUseCase) ListEvents(ctx context.Context, filters *ledgerdto.EventFilters) ([]model.ConsumptionEvent, int, error) {
	return uc.events.FindAll(ctx, filters)
}

// lockNames takes the item lock for every distinct name in sorted order.
func (uc *inventoryUseCase) lockNames(ctx context.Context, ownerID string, names ...string) (func(), error) {
	keys := map[string]bool{}
	for _, n := range names {
		keys[inventory.LockKey(ownerID, n)] = true
	}
	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	unlocks := make([]func(), 0, len(sorted))
	release := func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}
	for _, k := range sorted {
		unlock, err := uc.locker.Lock(ctx, k)
		if err != nil {
			release()
			return nil, err
		}
		unlocks = append(unlocks, unlock)
	}
	return release, nil
}

func (uc *inventoryUseCase) sync(fn func(ctx context.Context) error, itemID string) {
	if uc.index == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), indexTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			uc.logger.Error("failed to sync search index", zap.String("item_id", itemID), zap.Error(err))
		}
	}()
}
