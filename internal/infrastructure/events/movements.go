// Package events connects domain follow-ups to the transactional outbox.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"stockreturn/internal/domain/registers/stock"
	"stockreturn/internal/infrastructure/storage/postgres"
)

// Publisher writes outbox events isolated from the caller's transaction.
type Publisher interface {
	PublishIsolated(ctx context.Context, event postgres.DomainEvent) error
}

// MovementRecorder queues stock movements through the outbox. It satisfies
// goods_return.MovementRecorder.
type MovementRecorder struct {
	publisher Publisher
}

// NewMovementRecorder creates a recorder over publisher.
func NewMovementRecorder(publisher Publisher) *MovementRecorder {
	return &MovementRecorder{publisher: publisher}
}

// RecordReturnMovement enqueues a movement for the relay.
func (r *MovementRecorder) RecordReturnMovement(ctx context.Context, movement stock.StockMovement) error {
	return r.publisher.PublishIsolated(ctx, postgres.DomainEvent{
		AggregateType: stock.AggregateGoodsReturn,
		AggregateID:   movement.RecorderID,
		EventType:     stock.EventMovementRequested,
		Payload:       movement,
	})
}

// MovementWriter appends movements to the register.
type MovementWriter interface {
	RecordMovements(ctx context.Context, movements []stock.StockMovement) error
}

// MovementHandler is the relay side: it decodes a queued movement and
// writes it on the relay's transaction.
type MovementHandler struct {
	writer MovementWriter
}

// NewMovementHandler creates a handler writing through writer.
func NewMovementHandler(writer MovementWriter) *MovementHandler {
	return &MovementHandler{writer: writer}
}

// Handle implements postgres.OutboxHandler.
func (h *MovementHandler) Handle(ctx context.Context, msg *postgres.OutboxMessage) error {
	var movement stock.StockMovement
	if err := json.Unmarshal(msg.Payload, &movement); err != nil {
		return fmt.Errorf("decode movement %s: %w", msg.ID, err)
	}
	return h.writer.RecordMovements(ctx, []stock.StockMovement{movement})
}

// NewRouter wires every outbox event type handled by this service.
func NewRouter(stockService MovementWriter) *postgres.OutboxRouter {
	router := postgres.NewOutboxRouter()
	router.Register(stock.EventMovementRequested, NewMovementHandler(stockService))
	return router
}

var _ postgres.OutboxHandler = (*MovementHandler)(nil)
