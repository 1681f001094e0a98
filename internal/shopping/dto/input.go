package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fekuna/pantry-service/internal/model"
)

type CreateTaskInput struct {
	OwnerID  string
	ItemID   *string
	Name     string
	Quantity decimal.Decimal
	Unit     string
	Source   model.TaskSource
	DueDate  *time.Time
}

// UpdateTaskInput edits a task. Nil fields are left untouched; status is not
// editable here, purchases go through the reconciliation engine.
type UpdateTaskInput struct {
	OwnerID  string
	ID       string
	Name     *string
	Quantity *decimal.Decimal
	Unit     *string
	DueDate  *time.Time
	ItemID   *string
}

// PurchaseInput optionally overrides the task quantity and the expiry of the
// credited stock.
type PurchaseInput struct {
	TaskID     string
	Quantity   *decimal.Decimal
	ExpiryDate *time.Time
}
