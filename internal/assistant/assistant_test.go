package assistant

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fekuna/pantry-service/internal/logger"
	"github.com/fekuna/pantry-service/internal/model"
)

type stubParser struct {
	items []ParsedItem
	err   error
}

func (s stubParser) ParseItems(context.Context, string) ([]ParsedItem, error) {
	return s.items, s.err
}

type stubSuggester struct {
	out []Suggestion
	err error
}

func (s stubSuggester) SuggestRestock(context.Context, []model.InventoryItem, int) ([]Suggestion, error) {
	return s.out, s.err
}

func TestAssistant_ParseItems(t *testing.T) {
	remote := []ParsedItem{{Name: "Kimchi"}}

	got, err := New(stubParser{items: remote}, nil, logger.NewNop()).ParseItems(context.Background(), "3 eggs")
	require.NoError(t, err)
	assert.Equal(t, remote, got)

	for _, p := range []Parser{nil, stubParser{err: errors.New("timeout")}, stubParser{}} {
		a := New(p, nil, logger.NewNop())
		a.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }

		got, err := a.ParseItems(context.Background(), "3 eggs")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "eggs", got[0].Name)
	}
}

func TestAssistant_SuggestRestockFallsBackToLowStock(t *testing.T) {
	inv := []model.InventoryItem{
		{Name: "Milk", Quantity: decimal.NewFromInt(1), MinStock: decimal.NewFromInt(2), Unit: "l"},
		{Name: "Rice", Quantity: decimal.NewFromInt(5), MinStock: decimal.NewFromInt(1), Unit: "kg"},
		{Name: "Salt", Quantity: decimal.Zero, MinStock: decimal.Zero, Unit: "g"},
	}

	a := New(nil, stubSuggester{err: errors.New("no key")}, logger.NewNop())
	got, err := a.SuggestRestock(context.Background(), inv, 3)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Milk", got[0].Name)
	assert.Equal(t, "Salt", got[1].Name)
	assert.True(t, got[0].Quantity.Equal(decimal.NewFromInt(1)))
	assert.Equal(t, lowStockReason, got[0].Reason)
	assert.Equal(t, "l", got[0].Unit)

	remote := []Suggestion{{Name: "Bananas"}}
	got, err = New(nil, stubSuggester{out: remote}, logger.NewNop()).SuggestRestock(context.Background(), inv, 3)
	require.NoError(t, err)
	assert.Equal(t, remote, got)
}
