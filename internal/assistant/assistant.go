package assistant

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fekuna/pantry-service/internal/logger"
	"github.com/fekuna/pantry-service/internal/model"
)

const lowStockReason = "restock due to low stock"

// Assistant answers with the remote collaborator when one is configured and
// falls back to local rules when it fails or has nothing to say.
type Assistant struct {
	parser    Parser
	suggester Suggester
	logger    logger.ZapLogger
	now       func() time.Time
}

// New accepts nil collaborators; the local rules are then used directly.
func New(parser Parser, suggester Suggester, log logger.ZapLogger) *Assistant {
	return &Assistant{
		parser:    parser,
		suggester: suggester,
		logger:    log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (a *Assistant) ParseItems(ctx context.Context, text string) ([]ParsedItem, error) {
	if a.parser != nil {
		items, err := a.parser.ParseItems(ctx, text)
		if err == nil && len(items) > 0 {
			return items, nil
		}
		if err != nil {
			a.logger.Warn("text interpretation failed, using local parser", zap.Error(err))
		}
	}
	return ParseLocal(text, a.now()), nil
}

func (a *Assistant) SuggestRestock(ctx context.Context, inventory []model.InventoryItem, horizonDays int) ([]Suggestion, error) {
	if a.suggester != nil {
		suggestions, err := a.suggester.SuggestRestock(ctx, inventory, horizonDays)
		if err == nil && len(suggestions) > 0 {
			return suggestions, nil
		}
		if err != nil {
			a.logger.Warn("restock suggestion failed, using low stock", zap.Error(err))
		}
	}
	return LowStockSuggestions(inventory), nil
}

// LowStockSuggestions proposes one unit of every item at or below its
// minimum stock.
func LowStockSuggestions(inventory []model.InventoryItem) []Suggestion {
	out := []Suggestion{}
	for _, it := range inventory {
		if !it.IsLowStock() {
			continue
		}
		one := decimal.NewFromInt(1)
		out = append(out, Suggestion{
			Name:     it.Name,
			Quantity: &one,
			Unit:     it.Unit,
			Reason:   lowStockReason,
		})
	}
	return out
}
