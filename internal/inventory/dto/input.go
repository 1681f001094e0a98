package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fekuna/pantry-service/internal/model"
)

type CreateItemInput struct {
	OwnerID    string
	Name       string
	Category   string
	Location   string
	Container  string
	Quantity   decimal.Decimal
	Unit       string
	MinStock   decimal.Decimal
	Barcode    string
	Brand      string
	Tags       string
	Notes      string
	ExpiryType model.ExpiryType
	ExpiryDate *time.Time
}

// UpdateItemInput is an explicit edit. Quantity is not editable here; it only
// moves through adjustments so the ledger stays complete.
type UpdateItemInput struct {
	ID         string
	OwnerID    string
	Name       string
	Category   string
	Location   string
	Container  string
	Unit       string
	MinStock   decimal.Decimal
	Barcode    string
	Brand      string
	Tags       string
	Notes      string
	ExpiryType model.ExpiryType
	ExpiryDate *time.Time
}

// AdjustInput is a manual quantity change. A result below zero is rejected
// rather than clamped.
type AdjustInput struct {
	OwnerID string
	ItemID  string
	Delta   decimal.Decimal
	Action  model.EventAction
	Note    string
}
