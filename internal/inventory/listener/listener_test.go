package listener

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fekuna/pantry-service/internal/assistant"
	invdto "github.com/fekuna/pantry-service/internal/inventory/dto"
	"github.com/fekuna/pantry-service/internal/logger"
	"github.com/fekuna/pantry-service/internal/model"
	"github.com/fekuna/pantry-service/internal/reconcile"
	shopdto "github.com/fekuna/pantry-service/internal/shopping/dto"
)

type MockEngine struct {
	mock.Mock
}

func (m *MockEngine) CreateItem(ctx context.Context, input *invdto.CreateItemInput) (*model.InventoryItem, error) {
	args := m.Called(ctx, input)
	item, _ := args.Get(0).(*model.InventoryItem)
	return item, args.Error(1)
}

func (m *MockEngine) Adjust(ctx context.Context, input *invdto.AdjustInput) (*model.InventoryItem, error) {
	args := m.Called(ctx, input)
	item, _ := args.Get(0).(*model.InventoryItem)
	return item, args.Error(1)
}

func (m *MockEngine) QuickAdd(ctx context.Context, ownerID string, lines []reconcile.RawLine) []reconcile.LineResult {
	return m.Called(ctx, ownerID, lines).Get(0).([]reconcile.LineResult)
}

func (m *MockEngine) BulkCreate(ctx context.Context, ownerID string, lines []reconcile.RawLine) []reconcile.LineResult {
	return m.Called(ctx, ownerID, lines).Get(0).([]reconcile.LineResult)
}

func (m *MockEngine) Import(ctx context.Context, ownerID string, lines []reconcile.RawLine) []reconcile.LineResult {
	return m.Called(ctx, ownerID, lines).Get(0).([]reconcile.LineResult)
}

func (m *MockEngine) Cook(ctx context.Context, ownerID, title string, lines []reconcile.RawLine) (*model.CookHistory, []reconcile.LineResult, error) {
	args := m.Called(ctx, ownerID, title, lines)
	h, _ := args.Get(0).(*model.CookHistory)
	return h, args.Get(1).([]reconcile.LineResult), args.Error(2)
}

func (m *MockEngine) PurchaseTask(ctx context.Context, ownerID string, input shopdto.PurchaseInput) (reconcile.LineResult, error) {
	args := m.Called(ctx, ownerID, input)
	return args.Get(0).(reconcile.LineResult), args.Error(1)
}

func (m *MockEngine) PurchaseBatch(ctx context.Context, ownerID string, inputs []shopdto.PurchaseInput) []reconcile.LineResult {
	return m.Called(ctx, ownerID, inputs).Get(0).([]reconcile.LineResult)
}

func (m *MockEngine) GenerateLowStockTasks(ctx context.Context, ownerID string) ([]model.ShoppingTask, error) {
	args := m.Called(ctx, ownerID)
	tasks, _ := args.Get(0).([]model.ShoppingTask)
	return tasks, args.Error(1)
}

func (m *MockEngine) AddShoppingLines(ctx context.Context, ownerID string, source model.TaskSource, lines []reconcile.RawLine) []reconcile.LineResult {
	return m.Called(ctx, ownerID, source, lines).Get(0).([]reconcile.LineResult)
}

type stubParser struct {
	items []assistant.ParsedItem
	err   error
}

func (s stubParser) ParseItems(context.Context, string) ([]assistant.ParsedItem, error) {
	return s.items, s.err
}

// chanReader hands out queued messages, then blocks until ctx is done.
type chanReader struct {
	msgs chan kafka.Message
	errs chan error
}

func (r *chanReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-r.msgs:
		return m, nil
	case err := <-r.errs:
		return kafka.Message{}, err
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func newListener(engine *MockEngine, parser TextParser) (*InventoryListener, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return NewInventoryListener(&chanReader{}, engine, parser, logger.New(zap.New(core))), logs
}

func TestProcessMessage_Import(t *testing.T) {
	engine := new(MockEngine)
	two := decimal.NewFromInt(2)
	l, logs := newListener(engine, stubParser{items: []assistant.ParsedItem{{Name: "eggs", Quantity: &two}}})

	engine.On("Import", mock.Anything, "u1", []reconcile.RawLine{
		{Name: "Milk", Quantity: "1"},
		{Name: "eggs", Quantity: "2"},
	}).Return([]reconcile.LineResult{
		{Index: 0, Name: "Milk", Outcome: reconcile.OutcomeApplied},
		{Index: 1, Name: "eggs", Outcome: "error:busy", Error: "lock"},
	})

	l.processMessage(context.Background(), []byte(`{
		"event_id": "e1",
		"event_type": "InventoryImport",
		"payload": {"owner_id": "u1", "text": "2 eggs", "items": [{"name": "Milk", "quantity": 1}]}
	}`))

	engine.AssertExpectations(t)
	failed := logs.FilterMessage("Event line failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, "eggs", failed[0].ContextMap()["name"])
}

func TestProcessMessage_RestockSuggested(t *testing.T) {
	engine := new(MockEngine)
	l, _ := newListener(engine, nil)

	engine.On("AddShoppingLines", mock.Anything, "u1", model.SourceAI, []reconcile.RawLine{{Name: "Rice", Quantity: "1", Unit: "kg"}}).
		Return([]reconcile.LineResult{{Name: "Rice", Outcome: reconcile.OutcomeApplied}})

	l.processMessage(context.Background(), []byte(`{"event_type":"RestockSuggested","payload":{"owner_id":"u1","items":[{"name":"Rice","quantity":"1","unit":"kg"}]}}`))
	engine.AssertExpectations(t)
}

func TestProcessMessage_Ignored(t *testing.T) {
	tests := []struct {
		name    string
		message string
		log     string
	}{
		{"bad json", `{`, "Failed to unmarshal event"},
		{"other event", `{"event_type":"OrderCreated","payload":{}}`, ""},
		{"no owner", `{"event_type":"InventoryImport","payload":{"items":[{"name":"Milk"}]}}`, "Dropping event without owner"},
		{"no lines", `{"event_type":"InventoryImport","payload":{"owner_id":"u1","items":[]}}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := new(MockEngine)
			l, logs := newListener(engine, nil)
			l.processMessage(context.Background(), []byte(tt.message))
			engine.AssertNotCalled(t, "Import", mock.Anything, mock.Anything, mock.Anything)
			if tt.log != "" {
				assert.Equal(t, 1, logs.FilterMessage(tt.log).Len())
			}
		})
	}
}

func TestStart_StopsOnCancel(t *testing.T) {
	engine := new(MockEngine)
	reader := &chanReader{msgs: make(chan kafka.Message, 1), errs: make(chan error)}
	core, logs := observer.New(zap.DebugLevel)
	l := NewInventoryListener(reader, engine, nil, logger.New(zap.New(core)))
	l.backoff = time.Millisecond

	processed := make(chan struct{})
	engine.On("Import", mock.Anything, "u1", mock.Anything).
		Run(func(mock.Arguments) { close(processed) }).
		Return([]reconcile.LineResult{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Start(ctx)
		close(done)
	}()

	reader.errs <- errors.New("broker down")
	reader.msgs <- kafka.Message{Value: []byte(`{"event_type":"InventoryImport","payload":{"owner_id":"u1","items":[{"name":"Milk"}]}}`)}

	select {
	case <-processed:
	case <-time.After(2 * time.Second):
		t.Fatal("message was not processed")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not stop")
	}
	assert.Equal(t, 1, logs.FilterMessage("Failed to read kafka message").Len())
}
