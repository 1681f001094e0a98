package priority

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fekuna/pantry-service/internal/database"
	invrepo "github.com/fekuna/pantry-service/internal/inventory/repository"
	ledgerrepo "github.com/fekuna/pantry-service/internal/ledger/repository"
	"github.com/fekuna/pantry-service/internal/logger"
	"github.com/fekuna/pantry-service/internal/metrics"
	"github.com/fekuna/pantry-service/internal/model"
)

var today = time.Date(2026, 3, 30, 9, 0, 0, 0, time.UTC)

func item(id, name string, qty int64, expiresIn *int) model.InventoryItem {
	it := model.InventoryItem{ID: id, Name: name, Quantity: decimal.NewFromInt(qty), ExpiryType: model.ExpiryBestBefore}
	if expiresIn != nil {
		d := model.DateOf(today).AddDate(0, 0, *expiresIn)
		it.ExpiryDate = &d
	}
	return it
}

func days(n int) *int { return &n }

func consume(itemID string, qty int64) model.Delta {
	return model.Delta{ItemID: itemID, Delta: decimal.NewFromInt(-qty), CreatedAt: today.Add(-time.Hour)}
}

func TestScore(t *testing.T) {
	tests := []struct {
		name    string
		items   []model.InventoryItem
		deltas  []model.Delta
		window  int
		want    []string // item ids in rank order
		reasons []string
	}{
		{
			name:    "expiry only",
			items:   []model.InventoryItem{item("a", "Milk", 1, days(3)), item("b", "Cheese", 1, days(1))},
			window:  7,
			want:    []string{"b", "a"},
			reasons: []string{ReasonExpiry, ReasonExpiry},
		},
		{
			name:   "items with neither term are excluded",
			items:  []model.InventoryItem{item("a", "Salt", 5, nil), item("b", "Milk", 1, days(2))},
			window: 7,
			want:   []string{"b"},
		},
		{
			name:    "rate divides by window, not by event count",
			items:   []model.InventoryItem{item("a", "Rice", 10, nil)},
			deltas:  []model.Delta{consume("a", 1), consume("a", 1), consume("a", 3)},
			window:  10,
			want:    []string{"a"},
			reasons: []string{ReasonEmpty},
		},
		{
			name:  "additions do not count as consumption",
			items: []model.InventoryItem{item("a", "Rice", 10, nil)},
			deltas: []model.Delta{
				{ItemID: "a", Delta: decimal.NewFromInt(5), CreatedAt: today},
			},
			window: 7,
			want:   []string{},
		},
		{
			name:    "tie favors expiry",
			items:   []model.InventoryItem{item("a", "Bread", 4, days(4))},
			deltas:  []model.Delta{consume("a", 7)},
			window:  7,
			want:    []string{"a"},
			reasons: []string{ReasonExpiry},
		},
		{
			name:    "smaller term wins",
			items:   []model.InventoryItem{item("a", "Eggs", 2, days(10)), item("b", "Ham", 10, days(1))},
			deltas:  []model.Delta{consume("a", 7), consume("b", 7)},
			window:  7,
			want:    []string{"b", "a"},
			reasons: []string{ReasonExpiry, ReasonEmpty},
		},
		{
			name:    "expired first",
			items:   []model.InventoryItem{item("a", "Milk", 1, days(0)), item("b", "Cream", 1, days(-2))},
			window:  7,
			want:    []string{"b", "a"},
			reasons: []string{ReasonExpiry, ReasonExpiry},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.items, tt.deltas, tt.window, today)
			ids := []string{}
			reasons := []string{}
			for _, e := range got {
				ids = append(ids, e.Item.ID)
				reasons = append(reasons, e.Reason)
			}
			assert.Equal(t, tt.want, ids)
			if tt.reasons != nil {
				assert.Equal(t, tt.reasons, reasons)
			}
		})
	}
}

func TestScore_RateValue(t *testing.T) {
	got := Score([]model.InventoryItem{item("a", "Rice", 10, nil)},
		[]model.Delta{consume("a", 1), consume("a", 1), consume("a", 3)}, 10, today)
	require.Len(t, got, 1)
	// 5 consumed over 10 days: 0.5/day, 10 on hand
	assert.Equal(t, "20", got[0].DaysToEmpty.String())
	assert.Nil(t, got[0].DaysToExpiry)
}

type fixture struct {
	scorer  *Scorer
	items   *invrepo.PGRepository
	events  *ledgerrepo.PGRepository
	metrics *metrics.Metrics
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	db := database.NewTestDB(t)
	f := &fixture{
		items:   invrepo.NewPGRepository(db),
		events:  ledgerrepo.NewPGRepository(db),
		metrics: metrics.New(prometheus.NewRegistry()),
	}
	f.scorer = NewScorer(f.items, f.events, cfg, f.metrics, logger.NewNop())
	return f
}

func (f *fixture) seed(t *testing.T, name string, qty, min int64, expiry *time.Time, expiryType model.ExpiryType) *model.InventoryItem {
	t.Helper()
	now := time.Now().UTC()
	it := &model.InventoryItem{
		ID:         uuid.New().String(),
		OwnerID:    "u1",
		Name:       name,
		Quantity:   decimal.NewFromInt(qty),
		MinStock:   decimal.NewFromInt(min),
		Unit:       model.DefaultUnit,
		ExpiryType: expiryType,
		ExpiryDate: expiry,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, f.items.Create(context.Background(), it))
	return it
}

func (f *fixture) record(t *testing.T, itemID string, delta int64, at time.Time) {
	t.Helper()
	action := model.ActionAdd
	if delta < 0 {
		action = model.ActionConsume
	}
	require.NoError(t, f.events.Record(context.Background(), &model.ConsumptionEvent{
		ID:        uuid.New().String(),
		OwnerID:   "u1",
		ItemID:    itemID,
		Action:    action,
		Delta:     decimal.NewFromInt(delta),
		CreatedAt: at.UTC(),
	}))
}

func TestScorer_RankYogurt(t *testing.T) {
	f := newFixture(t, Config{})
	now := time.Now().UTC()

	yogurt := f.seed(t, "Yogurt", 10, 2, nil, model.ExpiryBestBefore)
	f.record(t, yogurt.ID, 20, now.AddDate(0, 0, -20))
	f.record(t, yogurt.ID, -3, now.AddDate(0, 0, -10)) // outside the window
	f.record(t, yogurt.ID, -3, now.AddDate(0, 0, -6))
	f.record(t, yogurt.ID, -2, now.AddDate(0, 0, -4))
	f.record(t, yogurt.ID, -2, now.Add(-time.Hour))
	f.seed(t, "Salt", 3, 0, nil, model.ExpiryBestBefore)

	ranked, err := f.scorer.Rank(context.Background(), "u1", 7)
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.Equal(t, "Yogurt", ranked[0].Item.Name)
	assert.Equal(t, ReasonEmpty, ranked[0].Reason)
	assert.Nil(t, ranked[0].DaysToExpiry)
	require.NotNil(t, ranked[0].DaysToEmpty)
	assert.InDelta(t, 10.0, ranked[0].DaysToEmpty.InexactFloat64(), 0.01)
	assert.Equal(t, 1, testutil.CollectAndCount(f.metrics.RankDuration))
}

func TestScorer_RankTruncatesAndScopesByOwner(t *testing.T) {
	f := newFixture(t, Config{TopN: 3})
	base := model.DateOf(time.Now().UTC())

	for i := 0; i < 5; i++ {
		d := base.AddDate(0, 0, i)
		f.seed(t, string(rune('A'+i)), 1, 0, &d, model.ExpiryBestBefore)
	}
	other := base.AddDate(0, 0, -1)
	require.NoError(t, f.items.Create(context.Background(), &model.InventoryItem{
		ID:         uuid.New().String(),
		OwnerID:    "u2",
		Name:       "Other",
		Quantity:   decimal.NewFromInt(1),
		Unit:       model.DefaultUnit,
		ExpiryType: model.ExpiryBestBefore,
		ExpiryDate: &other,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}))

	ranked, err := f.scorer.Rank(context.Background(), "u1", 0)
	require.NoError(t, err)
	require.Len(t, ranked, 3)
	assert.Equal(t, []string{"A", "B", "C"}, []string{ranked[0].Item.Name, ranked[1].Item.Name, ranked[2].Item.Name})
	assert.Equal(t, 0, *ranked[0].DaysToExpiry)
}

func TestScorer_Summary(t *testing.T) {
	f := newFixture(t, Config{WindowDays: 14, UseByDays: 2, BestBeforeDays: 5})
	base := model.DateOf(time.Now().UTC())
	in := func(n int) *time.Time {
		d := base.AddDate(0, 0, n)
		return &d
	}

	f.seed(t, "Chicken", 1, 0, in(2), model.ExpiryUseBy)
	f.seed(t, "Fish", 1, 0, in(3), model.ExpiryUseBy)
	f.seed(t, "Bread", 1, 0, in(5), model.ExpiryBestBefore)
	f.seed(t, "Crackers", 1, 0, in(6), model.ExpiryBestBefore)
	f.seed(t, "Cream", 1, 0, in(-1), model.ExpiryUseBy)
	f.seed(t, "Milk", 1, 2, nil, model.ExpiryBestBefore)

	summary, err := f.scorer.Summary(context.Background(), "u1", 0)
	require.NoError(t, err)

	names := []string{}
	for _, n := range summary.NearExpiry {
		names = append(names, n.Item.Name)
	}
	assert.Equal(t, []string{"Cream", "Chicken", "Bread"}, names)
	assert.Equal(t, -1, summary.NearExpiry[0].DaysToExpiry)

	require.Len(t, summary.LowStock, 1)
	assert.Equal(t, "Milk", summary.LowStock[0].Name)
	assert.Equal(t, Thresholds{UseByDays: 2, BestBeforeDays: 5}, summary.Thresholds)
	assert.Equal(t, 14, summary.WindowDays)
	require.NotEmpty(t, summary.Priority)
	assert.Equal(t, "Cream", summary.Priority[0].Item.Name)
}
