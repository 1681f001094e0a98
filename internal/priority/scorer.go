package priority

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fekuna/pantry-service/internal/inventory"
	"github.com/fekuna/pantry-service/internal/ledger"
	"github.com/fekuna/pantry-service/internal/logger"
	"github.com/fekuna/pantry-service/internal/metrics"
	"github.com/fekuna/pantry-service/internal/model"
)

const (
	ReasonExpiry = "expiry"
	ReasonEmpty  = "empty"

	DefaultWindowDays = 14
	DefaultTopN       = 10
)

// Entry is one ranked item. Score is the smaller of the defined day counts;
// smaller is more urgent and may be negative for expired stock.
type Entry struct {
	Item         model.InventoryItem `json:"item"`
	DaysToExpiry *int                `json:"days_to_expiry"`
	DaysToEmpty  *decimal.Decimal    `json:"days_to_empty"`
	Reason       string              `json:"reason"`
	Score        decimal.Decimal     `json:"score"`
}

type Config struct {
	WindowDays     int
	TopN           int
	UseByDays      int
	BestBeforeDays int
}

type Scorer struct {
	items   inventory.Repository
	events  ledger.Repository
	cfg     Config
	metrics *metrics.Metrics
	logger  logger.ZapLogger
	now     func() time.Time
}

func NewScorer(items inventory.Repository, events ledger.Repository, cfg Config, m *metrics.Metrics, log logger.ZapLogger) *Scorer {
	if cfg.WindowDays <= 0 {
		cfg.WindowDays = DefaultWindowDays
	}
	if cfg.TopN <= 0 {
		cfg.TopN = DefaultTopN
	}
	if cfg.UseByDays <= 0 {
		cfg.UseByDays = 2
	}
	if cfg.BestBeforeDays <= 0 {
		cfg.BestBeforeDays = 5
	}
	if m == nil {
		m = metrics.NewNop()
	}
	return &Scorer{
		items:   items,
		events:  events,
		cfg:     cfg,
		metrics: m,
		logger:  log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Rank reads the owner's stock and the ledger of the trailing windowDays and
// returns the most urgent items first. windowDays <= 0 uses the configured
// window. It never writes.
func (s *Scorer) Rank(ctx context.Context, ownerID string, windowDays int) ([]Entry, error) {
	start := time.Now()
	defer func() { s.metrics.RankDuration.Observe(time.Since(start).Seconds()) }()

	if windowDays <= 0 {
		windowDays = s.cfg.WindowDays
	}
	now := s.now()

	items, err := s.items.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	deltas, err := s.events.RecentDeltas(ctx, ownerID, now.AddDate(0, 0, -windowDays))
	if err != nil {
		return nil, err
	}

	entries := Score(items, deltas, windowDays, now)
	if len(entries) > s.cfg.TopN {
		entries = entries[:s.cfg.TopN]
	}
	s.logger.Debug("ranked items",
		zap.String("owner_id", ownerID),
		zap.Int("items", len(items)),
		zap.Int("deltas", len(deltas)),
		zap.Int("ranked", len(entries)),
	)
	return entries, nil
}

// Score ranks items by urgency. The consumption rate of an item is the sum of
// its negative deltas divided by windowDays, not by the number of events.
// Items with neither an expiry date nor a positive rate are left out. The
// result is sorted but not truncated.
func Score(items []model.InventoryItem, deltas []model.Delta, windowDays int, today time.Time) []Entry {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	consumed := map[string]decimal.Decimal{}
	for _, d := range deltas {
		if d.Delta.IsNegative() {
			consumed[d.ItemID] = consumed[d.ItemID].Add(d.Delta.Neg())
		}
	}
	window := decimal.NewFromInt(int64(windowDays))

	entries := make([]Entry, 0, len(items))
	for _, it := range items {
		e := Entry{Item: it, DaysToExpiry: it.DaysToExpiry(today)}

		if rate := consumed[it.ID].Div(window); rate.IsPositive() {
			d := it.Quantity.Div(rate).Round(2)
			e.DaysToEmpty = &d
		}

		switch {
		case e.DaysToExpiry != nil && e.DaysToEmpty != nil:
			expiry := decimal.NewFromInt(int64(*e.DaysToExpiry))
			if expiry.LessThanOrEqual(*e.DaysToEmpty) {
				e.Score, e.Reason = expiry, ReasonExpiry
			} else {
				e.Score, e.Reason = *e.DaysToEmpty, ReasonEmpty
			}
		case e.DaysToExpiry != nil:
			e.Score, e.Reason = decimal.NewFromInt(int64(*e.DaysToExpiry)), ReasonExpiry
		case e.DaysToEmpty != nil:
			e.Score, e.Reason = *e.DaysToEmpty, ReasonEmpty
		default:
			continue
		}
		entries = append(entries, e)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.Score.Equal(b.Score) {
			return a.Score.LessThan(b.Score)
		}
		if a.Reason != b.Reason {
			return a.Reason == ReasonExpiry
		}
		return a.Item.Name < b.Item.Name
	})
	return entries
}
