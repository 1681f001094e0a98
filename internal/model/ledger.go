package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type EventAction string

const (
	ActionConsume EventAction = "consume"
	ActionAdd     EventAction = "add"
	ActionAdjust  EventAction = "adjust"
)

func (a EventAction) Valid() bool {
	switch a {
	case ActionConsume, ActionAdd, ActionAdjust:
		return true
	}
	return false
}

// ConsumptionEvent is one immutable ledger entry. Negative deltas are consumption.
type ConsumptionEvent struct {
	ID        string          `db:"id" json:"id"`
	OwnerID   string          `db:"owner_id" json:"owner_id"`
	ItemID    string          `db:"item_id" json:"item_id"`
	ItemName  string          `db:"item_name" json:"item_name"` // Joined data
	Action    EventAction     `db:"action" json:"action"`
	Delta     decimal.Decimal `db:"delta" json:"delta"`
	Note      string          `db:"note" json:"note"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// Delta is the projection of a ledger entry used for rate estimation.
type Delta struct {
	ItemID    string          `db:"item_id"`
	Delta     decimal.Decimal `db:"delta"`
	CreatedAt time.Time       `db:"created_at"`
}
