package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fekuna/pantry-service/internal/cache"
	"github.com/fekuna/pantry-service/internal/cook"
	"github.com/fekuna/pantry-service/internal/database"
	"github.com/fekuna/pantry-service/internal/inventory"
	invdto "github.com/fekuna/pantry-service/internal/inventory/dto"
	"github.com/fekuna/pantry-service/internal/ledger"
	"github.com/fekuna/pantry-service/internal/logger"
	"github.com/fekuna/pantry-service/internal/metrics"
	"github.com/fekuna/pantry-service/internal/model"
	"github.com/fekuna/pantry-service/internal/shelflife"
	"github.com/fekuna/pantry-service/internal/shopping"
	shopdto "github.com/fekuna/pantry-service/internal/shopping/dto"
)

const (
	maxConflictRetries = 3
	indexTimeout       = 5 * time.Second
)

// Reconciler applies stock changes. Batch operations never fail as a whole:
// every line gets its own LineResult.
type Reconciler interface {
	CreateItem(ctx context.Context, input *invdto.CreateItemInput) (*model.InventoryItem, error)
	Adjust(ctx context.Context, input *invdto.AdjustInput) (*model.InventoryItem, error)
	QuickAdd(ctx context.Context, ownerID string, lines []RawLine) []LineResult
	BulkCreate(ctx context.Context, ownerID string, lines []RawLine) []LineResult
	Import(ctx context.Context, ownerID string, lines []RawLine) []LineResult
	Cook(ctx context.Context, ownerID, title string, lines []RawLine) (*model.CookHistory, []LineResult, error)
	PurchaseTask(ctx context.Context, ownerID string, input shopdto.PurchaseInput) (LineResult, error)
	PurchaseBatch(ctx context.Context, ownerID string, inputs []shopdto.PurchaseInput) []LineResult
	GenerateLowStockTasks(ctx context.Context, ownerID string) ([]model.ShoppingTask, error)
	AddShoppingLines(ctx context.Context, ownerID string, source model.TaskSource, lines []RawLine) []LineResult
}

// Engine is the only writer of item quantities. Each line runs under the
// item's lock in its own transaction; the quantity update and its ledger
// entry always commit together.
type Engine struct {
	tx        *database.TxManager
	items     inventory.Repository
	events    ledger.Repository
	tasks     shopping.Repository
	cooks     cook.Repository
	locker    cache.Locker
	estimator shelflife.Estimator
	index     inventory.Indexer
	metrics   *metrics.Metrics
	logger    logger.ZapLogger
	now       func() time.Time
}

var _ Reconciler = (*Engine)(nil)

// NewEngine wires the engine. index may be nil.
func NewEngine(
	tx *database.TxManager,
	items inventory.Repository,
	events ledger.Repository,
	tasks shopping.Repository,
	cooks cook.Repository,
	locker cache.Locker,
	estimator shelflife.Estimator,
	index inventory.Indexer,
	m *metrics.Metrics,
	log logger.ZapLogger,
) *Engine {
	if m == nil {
		m = metrics.NewNop()
	}
	return &Engine{
		tx:        tx,
		items:     items,
		events:    events,
		tasks:     tasks,
		cooks:     cooks,
		locker:    locker,
		estimator: estimator,
		index:     index,
		metrics:   m,
		logger:    log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// unit is the set of repositories bound to one transaction.
type unit struct {
	items  inventory.Repository
	events ledger.Repository
	tasks  shopping.Repository
	cooks  cook.Repository
}

func itemLockKey(ownerID, name string) string {
	return inventory.LockKey(ownerID, name)
}

func taskLockKey(ownerID string) string {
	return fmt.Sprintf("lock:pantry:tasks:%s", ownerID)
}

// locked runs fn in a transaction while holding key. A transaction that lost
// an optimistic version check is retried from scratch.
func (e *Engine) locked(ctx context.Context, key string, fn func(u unit) error) error {
	start := time.Now()
	unlock, err := e.locker.Lock(ctx, key)
	e.metrics.LockWait.Observe(time.Since(start).Seconds())
	if err != nil {
		return err
	}
	defer unlock()

	for attempt := 0; ; attempt++ {
		err = e.tx.WithinTx(ctx, func(q database.Querier) error {
			return fn(unit{
				items:  e.items.WithTx(q),
				events: e.events.WithTx(q),
				tasks:  e.tasks.WithTx(q),
				cooks:  e.cooks.WithTx(q),
			})
		})
		if errors.Is(err, model.ErrConcurrentUpdate) && attempt < maxConflictRetries {
			e.metrics.ConflictRetries.Inc()
			e.logger.Debug("retrying after concurrent item update", zap.String("lock", key), zap.Int("attempt", attempt+1))
			continue
		}
		return err
	}
}

// apply is the atomic adjust primitive: quantity change plus its ledger
// entry, both through the same unit. Pending metadata changes on item are
// written by the same update.
func (e *Engine) apply(ctx context.Context, u unit, item *model.InventoryItem, delta decimal.Decimal, action model.EventAction, note string) error {
	now := e.now()
	item.UpdatedAt = now
	if _, err := u.items.AdjustQuantity(ctx, item, delta); err != nil {
		return err
	}
	return u.events.Record(ctx, &model.ConsumptionEvent{
		ID:        uuid.New().String(),
		OwnerID:   item.OwnerID,
		ItemID:    item.ID,
		Action:    action,
		Delta:     delta,
		Note:      note,
		CreatedAt: now,
	})
}

// newItem builds an empty item for a name seen for the first time.
func (e *Engine) newItem(ownerID string, line Line) *model.InventoryItem {
	now := e.now()
	item := &model.InventoryItem{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		Name:      line.Name,
		Quantity:  decimal.Zero,
		MinStock:  decimal.Zero,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if line.MinStock != nil {
		item.MinStock = *line.MinStock
	}
	item.FillMissing(line.Meta)
	if item.Unit == "" {
		item.Unit = model.DefaultUnit
	}
	if item.ExpiryType == "" {
		item.ExpiryType = model.ExpiryBestBefore
	}
	return item
}

// batch runs fn for each index in order. Once ctx is done the remaining lines
// are reported as canceled without being attempted.
func (e *Engine) batch(ctx context.Context, op string, n int, fn func(i int) LineResult) []LineResult {
	results := make([]LineResult, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			results[i] = LineResult{Index: i}
			results[i].fail(err)
		} else {
			results[i] = fn(i)
			results[i].Index = i
		}
		e.metrics.LineOutcomes.WithLabelValues(op, outcomeLabel(results[i].Outcome)).Inc()
	}
	return results
}

// syncIndex mirrors item into the search index after commit.
func (e *Engine) syncIndex(item *model.InventoryItem) {
	if e.index == nil || item == nil {
		return
	}
	snapshot := *item
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), indexTimeout)
		defer cancel()
		if err := e.index.IndexItem(ctx, &snapshot); err != nil {
			e.logger.Error("failed to sync item to search index", zap.String("item_id", snapshot.ID), zap.Error(err))
		}
	}()
}

// estimateFor returns an estimated expiry when neither the line nor the
// current item carries one. It runs before any lock or transaction.
func (e *Engine) estimateFor(ctx context.Context, name string, explicit *time.Time, current *model.InventoryItem) *time.Time {
	if explicit != nil || e.estimator == nil {
		return nil
	}
	if current != nil && current.ExpiryDate != nil {
		return nil
	}
	d := shelflife.ExpiryFor(ctx, e.estimator, name, e.now())
	return &d
}
