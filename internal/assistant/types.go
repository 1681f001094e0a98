package assistant

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fekuna/pantry-service/internal/model"
)

// ParsedItem is one entry recovered from free text. Nil fields were not
// present in the text.
type ParsedItem struct {
	Name       string           `json:"name"`
	Quantity   *decimal.Decimal `json:"quantity,omitempty"`
	Unit       string           `json:"unit,omitempty"`
	ExpiryDate *time.Time       `json:"expiry_date,omitempty"`
}

type Suggestion struct {
	Name     string           `json:"name"`
	Quantity *decimal.Decimal `json:"quantity,omitempty"`
	Unit     string           `json:"unit,omitempty"`
	Reason   string           `json:"reason,omitempty"`
}

// Parser turns free text into item records.
type Parser interface {
	ParseItems(ctx context.Context, text string) ([]ParsedItem, error)
}

// Suggester proposes restock purchases for the next horizonDays.
type Suggester interface {
	SuggestRestock(ctx context.Context, inventory []model.InventoryItem, horizonDays int) ([]Suggestion, error)
}
