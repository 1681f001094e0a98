package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDaysBetween(t *testing.T) {
	a := time.Date(2030, 1, 30, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, 0, DaysBetween(a, a.Add(-time.Hour)))
	assert.Equal(t, 2, DaysBetween(a, time.Date(2030, 2, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, -30, DaysBetween(a, time.Date(2029, 12, 31, 12, 0, 0, 0, time.UTC)))
}

func TestFitsQuantity(t *testing.T) {
	for _, v := range []string{"1", "0.5", "0.25", "1.500", "12.30"} {
		assert.True(t, FitsQuantity(decimal.RequireFromString(v)), v)
	}
	for _, v := range []string{"0.125", "0.001", "3.14159"} {
		assert.False(t, FitsQuantity(decimal.RequireFromString(v)), v)
	}
}

func TestInventoryItem_IsLowStock(t *testing.T) {
	item := InventoryItem{Quantity: decimal.Zero, MinStock: decimal.Zero}
	assert.True(t, item.IsLowStock())

	item.Quantity = decimal.RequireFromString("1.5")
	item.MinStock = decimal.NewFromInt(1)
	assert.False(t, item.IsLowStock())
}

func TestInventoryItem_FillMissing(t *testing.T) {
	expiry := time.Date(2030, 5, 1, 15, 30, 0, 0, time.UTC)
	item := InventoryItem{Name: "Milk", Location: "fridge"}

	changed := item.FillMissing(ItemMetadata{
		Location:   "pantry",
		Category:   "dairy",
		ExpiryType: ExpiryUseBy,
		ExpiryDate: &expiry,
	})
	assert.True(t, changed)
	assert.Equal(t, "fridge", item.Location)
	assert.Equal(t, "dairy", item.Category)
	assert.Equal(t, ExpiryUseBy, item.ExpiryType)
	require.NotNil(t, item.ExpiryDate)
	assert.True(t, item.ExpiryDate.Equal(time.Date(2030, 5, 1, 0, 0, 0, 0, time.UTC)))

	later := expiry.AddDate(0, 0, 10)
	assert.False(t, item.FillMissing(ItemMetadata{Category: "other", ExpiryDate: &later}))
	assert.Equal(t, 0, *item.DaysToExpiry(expiry))
}

func TestCookLines_RoundTrip(t *testing.T) {
	id := "item-1"
	lines := CookLines{{Name: "Egg", Quantity: decimal.NewFromInt(3), Unit: "pcs", ItemID: &id, Used: decimal.NewFromInt(2)}}
	v, err := lines.Value()
	require.NoError(t, err)

	var back CookLines
	require.NoError(t, back.Scan(v))
	require.Len(t, back, 1)
	assert.Equal(t, "Egg", back[0].Name)
	assert.True(t, back[0].Used.Equal(decimal.NewFromInt(2)))

	require.NoError(t, back.Scan(nil))
	assert.Empty(t, back)
	assert.Error(t, back.Scan(42))
}
