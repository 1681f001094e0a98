package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type TaskStatus string

const (
	TaskPending TaskStatus = "pending"
	TaskDone    TaskStatus = "done"
)

type TaskSource string

const (
	SourceManual   TaskSource = "manual"
	SourceLowStock TaskSource = "low_stock"
	SourcePlan     TaskSource = "plan"
	SourceAI       TaskSource = "ai"
)

func (s TaskSource) Valid() bool {
	switch s {
	case SourceManual, SourceLowStock, SourcePlan, SourceAI:
		return true
	}
	return false
}

type ShoppingTask struct {
	ID        string          `db:"id" json:"id"`
	OwnerID   string          `db:"owner_id" json:"owner_id"`
	ItemID    *string         `db:"item_id" json:"item_id"` // Nullable, may refer to a not-yet-existing item by name
	Name      string          `db:"name" json:"name"`
	NameKey   string          `db:"name_key" json:"-"`
	Quantity  decimal.Decimal `db:"quantity" json:"quantity"`
	Unit      string          `db:"unit" json:"unit"`
	Status    TaskStatus      `db:"status" json:"status"`
	Source    TaskSource      `db:"source" json:"source"`
	DueDate   *time.Time      `db:"due_date" json:"due_date"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

type SourceCount struct {
	Source TaskSource `db:"source" json:"source"`
	Count  int        `db:"count" json:"count"`
}
