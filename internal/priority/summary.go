package priority

import (
	"context"
	"sort"
	"time"

	"github.com/fekuna/pantry-service/internal/inventory/dto"
	"github.com/fekuna/pantry-service/internal/model"
)

type NearExpiry struct {
	Item         model.InventoryItem `json:"item"`
	DaysToExpiry int                 `json:"days_to_expiry"`
}

type Thresholds struct {
	UseByDays      int `json:"use_by_days"`
	BestBeforeDays int `json:"best_before_days"`
}

// Summary is the dashboard view of one owner's stock.
type Summary struct {
	LowStock   []model.InventoryItem `json:"low_stock"`
	NearExpiry []NearExpiry          `json:"near_expiry"`
	Priority   []Entry               `json:"priority"`
	Thresholds Thresholds            `json:"thresholds"`
	WindowDays int                   `json:"window_days"`
}

// Summary combines low stock, items close to expiry and the priority ranking.
// Use-by items count as near expiry within UseByDays, everything else within
// BestBeforeDays; expired items are included.
func (s *Scorer) Summary(ctx context.Context, ownerID string, windowDays int) (*Summary, error) {
	if windowDays <= 0 {
		windowDays = s.cfg.WindowDays
	}

	low, _, err := s.items.FindAll(ctx, &dto.InventoryFilters{OwnerID: ownerID, LowStock: true})
	if err != nil {
		return nil, err
	}
	all, err := s.items.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	ranked, err := s.Rank(ctx, ownerID, windowDays)
	if err != nil {
		return nil, err
	}

	thresholds := Thresholds{UseByDays: s.cfg.UseByDays, BestBeforeDays: s.cfg.BestBeforeDays}
	return &Summary{
		LowStock:   low,
		NearExpiry: nearExpiry(all, thresholds, model.DateOf(s.now())),
		Priority:   ranked,
		Thresholds: thresholds,
		WindowDays: windowDays,
	}, nil
}

func nearExpiry(items []model.InventoryItem, th Thresholds, today time.Time) []NearExpiry {
	out := []NearExpiry{}
	for _, it := range items {
		days := it.DaysToExpiry(today)
		if days == nil {
			continue
		}
		limit := th.BestBeforeDays
		if it.ExpiryType == model.ExpiryUseBy {
			limit = th.UseByDays
		}
		if *days <= limit {
			out = append(out, NearExpiry{Item: it, DaysToExpiry: *days})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DaysToExpiry != out[j].DaysToExpiry {
			return out[i].DaysToExpiry < out[j].DaysToExpiry
		}
		return out[i].Item.Name < out[j].Item.Name
	})
	return out
}
