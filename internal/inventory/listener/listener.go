package listener

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/fekuna/pantry-service/internal/assistant"
	"github.com/fekuna/pantry-service/internal/logger"
	"github.com/fekuna/pantry-service/internal/model"
	"github.com/fekuna/pantry-service/internal/reconcile"
)

const (
	EventInventoryImport  = "InventoryImport"
	EventRestockSuggested = "RestockSuggested"
)

type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// TextParser turns free text into item records; see assistant.Assistant.
type TextParser interface {
	ParseItems(ctx context.Context, text string) ([]assistant.ParsedItem, error)
}

// InventoryListener applies stock events published by other services.
type InventoryListener struct {
	consumer MessageReader
	engine   reconcile.Reconciler
	parser   TextParser
	logger   logger.ZapLogger
	backoff  time.Duration
}

func NewInventoryListener(consumer MessageReader, engine reconcile.Reconciler, parser TextParser, logger logger.ZapLogger) *InventoryListener {
	return &InventoryListener{
		consumer: consumer,
		engine:   engine,
		parser:   parser,
		logger:   logger,
		backoff:  time.Second,
	}
}

// Start blocks until ctx is done.
func (l *InventoryListener) Start(ctx context.Context) {
	l.logger.Info("Starting Inventory Kafka Listener")
	for {
		msg, err := l.consumer.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				l.logger.Info("Stopping Inventory Kafka Listener")
				return
			}
			l.logger.Error("Failed to read kafka message", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(l.backoff):
			}
			continue
		}
		l.processMessage(ctx, msg.Value)
	}
}

type Event struct {
	EventID   string          `json:"event_id"`
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// LinesPayload carries either structured items or free text to parse.
type LinesPayload struct {
	OwnerID string              `json:"owner_id"`
	Text    string              `json:"text,omitempty"`
	Items   []reconcile.RawLine `json:"items"`
}

func (l *InventoryListener) processMessage(ctx context.Context, value []byte) {
	var event Event
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		return
	}

	switch event.EventType {
	case EventInventoryImport, EventRestockSuggested:
	default:
		return
	}

	var payload LinesPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		l.logger.Error("Failed to unmarshal event payload", zap.String("event_id", event.EventID), zap.Error(err))
		return
	}
	if payload.OwnerID == "" {
		l.logger.Warn("Dropping event without owner", zap.String("event_id", event.EventID), zap.String("event_type", event.EventType))
		return
	}

	lines := payload.Items
	if payload.Text != "" && l.parser != nil {
		parsed, err := l.parser.ParseItems(ctx, payload.Text)
		if err != nil {
			l.logger.Error("Failed to parse event text", zap.String("event_id", event.EventID), zap.Error(err))
		}
		lines = append(lines, reconcile.LinesFromParsed(parsed)...)
	}
	if len(lines) == 0 {
		return
	}

	l.logger.Info("Processing event",
		zap.String("event_id", event.EventID),
		zap.String("event_type", event.EventType),
		zap.String("owner_id", payload.OwnerID),
		zap.Int("lines", len(lines)),
	)

	var results []reconcile.LineResult
	if event.EventType == EventInventoryImport {
		results = l.engine.Import(ctx, payload.OwnerID, lines)
	} else {
		results = l.engine.AddShoppingLines(ctx, payload.OwnerID, model.SourceAI, lines)
	}

	for _, r := range results {
		if r.Failed() {
			l.logger.Warn("Event line failed",
				zap.String("event_id", event.EventID),
				zap.Int("index", r.Index),
				zap.String("name", r.Name),
				zap.String("outcome", r.Outcome),
				zap.String("error", r.Error),
			)
		}
	}
}
