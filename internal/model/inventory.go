package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type ExpiryType string

const (
	ExpiryUseBy      ExpiryType = "use_by"
	ExpiryBestBefore ExpiryType = "best_before"
)

const DefaultUnit = "pcs"

// QuantityPlaces is the scale of every stored quantity column.
const QuantityPlaces = 2

// FitsQuantity reports whether d is storable without rounding.
func FitsQuantity(d decimal.Decimal) bool {
	return d.Equal(d.Round(QuantityPlaces))
}

type InventoryItem struct {
	ID         string          `db:"id" json:"id"`
	OwnerID    string          `db:"owner_id" json:"owner_id"`
	Name       string          `db:"name" json:"name"`
	NameKey    string          `db:"name_key" json:"-"` // NormalizeName(Name), the merge key
	Category   string          `db:"category" json:"category"`
	Location   string          `db:"location" json:"location"`
	Container  string          `db:"container" json:"container"`
	Quantity   decimal.Decimal `db:"quantity" json:"quantity"`
	Unit       string          `db:"unit" json:"unit"`
	MinStock   decimal.Decimal `db:"min_stock" json:"min_stock"`
	Barcode    string          `db:"barcode" json:"barcode"`
	Brand      string          `db:"brand" json:"brand"`
	Tags       string          `db:"tags" json:"tags"` // comma separated
	Notes      string          `db:"notes" json:"notes"`
	ExpiryType ExpiryType      `db:"expiry_type" json:"expiry_type"`
	ExpiryDate *time.Time      `db:"expiry_date" json:"expiry_date"` // Nullable, date only
	Version    int64           `db:"version" json:"-"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at" json:"updated_at"`
}

// IsLowStock reports whether the item is at or below its restock threshold.
func (i *InventoryItem) IsLowStock() bool {
	return i.Quantity.LessThanOrEqual(i.MinStock)
}

// DaysToExpiry returns whole days between today and the expiry date, or nil.
func (i *InventoryItem) DaysToExpiry(today time.Time) *int {
	if i.ExpiryDate == nil {
		return nil
	}
	d := DaysBetween(today, *i.ExpiryDate)
	return &d
}

// ItemMetadata carries the classification fields that quick-add, import and
// purchase lines may contribute to an item. Empty values mean "not supplied".
type ItemMetadata struct {
	Category   string
	Location   string
	Container  string
	Unit       string
	Barcode    string
	Brand      string
	Tags       string
	Notes      string
	ExpiryType ExpiryType
	ExpiryDate *time.Time
}

// FillMissing copies metadata onto the item only where the item's value is
// empty. It reports whether anything changed.
func (i *InventoryItem) FillMissing(m ItemMetadata) bool {
	changed := false
	fill := func(dst *string, v string) {
		if v != "" && *dst == "" {
			*dst = v
			changed = true
		}
	}
	fill(&i.Category, m.Category)
	fill(&i.Location, m.Location)
	fill(&i.Container, m.Container)
	fill(&i.Unit, m.Unit)
	fill(&i.Barcode, m.Barcode)
	fill(&i.Brand, m.Brand)
	fill(&i.Tags, m.Tags)
	fill(&i.Notes, m.Notes)
	if m.ExpiryType != "" && i.ExpiryType == "" {
		i.ExpiryType = m.ExpiryType
		changed = true
	}
	if m.ExpiryDate != nil && i.ExpiryDate == nil {
		d := DateOf(*m.ExpiryDate)
		i.ExpiryDate = &d
		changed = true
	}
	return changed
}

// NormalizeName is the merge key for case-insensitive name matching.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// DateOf truncates t to a UTC calendar date.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween counts calendar days from a to b (negative if b is earlier).
func DaysBetween(a, b time.Time) int {
	return int(DateOf(b).Sub(DateOf(a)).Hours() / 24)
}
