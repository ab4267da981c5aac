package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"dailytrack/internal/model"
	"dailytrack/internal/repository"
	"dailytrack/pkg/idgen"

	"gorm.io/gorm"
)

const (
	EventLogin              = "Login"
	EventDailyRewardUpdated = "DailyRewardUpdated"
	EventTokensDeposited    = "TokensDeposited"
	EventTokensWithdrawn    = "TokensWithdrawn"
	EventNFTListed          = "NFTListed"
	EventNFTPurchased       = "NFTPurchased"
	EventListingCancelled   = "ListingCancelled"
	EventPlatformFeeUpdated = "PlatformFeeUpdated"
	EventFeeWithdrawn       = "FeeWithdrawn"
)

// EventWriter stores events in the outbox inside the caller's transaction.
// An event therefore exists exactly when its operation committed.
type EventWriter struct {
	outbox *repository.OutboxRepository
	topic  string
}

func NewEventWriter(db *gorm.DB, topic string) *EventWriter {
	return &EventWriter{
		outbox: repository.NewOutboxRepository(db),
		topic:  topic,
	}
}

func (w *EventWriter) Emit(ctx context.Context, tx *gorm.DB, eventType string, at time.Time, fields map[string]interface{}) error {
	payload := make(map[string]interface{}, len(fields)+2)
	for k, v := range fields {
		payload[k] = v
	}
	payload["type"] = eventType
	payload["occurred_at"] = at.UTC().Format(time.RFC3339)

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", eventType, err)
	}

	msg := &model.OutboxMessage{
		MessageKey: idgen.GenerateEventKey(),
		Topic:      w.topic,
		EventType:  eventType,
		Payload:    string(payloadBytes),
		Status:     model.OutboxStatusPending,
	}
	if err := w.outbox.Create(ctx, tx, msg); err != nil {
		return fmt.Errorf("write %s event: %w", eventType, err)
	}
	return nil
}
