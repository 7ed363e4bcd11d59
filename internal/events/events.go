package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	TypeVisitOpened      = "visit.opened"
	TypeVisitClosed      = "visit.closed"
	TypeVisitGuestAdded  = "visit.guest_added"
	TypeCatchRecorded    = "catch.recorded"
	TypeCatchUpdated     = "catch.updated"
	TypeCatchDeleted     = "catch.deleted"
	TypeSeasonCreated    = "season.created"
	TypeSeasonActivated  = "season.activated"
	TypePlanItemUpserted = "season.plan_item_upserted"
	TypeBookingCreated   = "booking.created"
	TypeBookingUpdated   = "booking.updated"
	TypeBookingCancelled = "booking.cancelled"
	TypeBookingDeleted   = "booking.deleted"
)

// Event represents a lightweight domain event.
type Event struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// New builds an event with a fresh id and a JSON-encoded payload.
func New(eventType string, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Payload:   data,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// EventHandler reacts to an event.
type EventHandler func(ctx context.Context, event Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	wildcard    []EventHandler
	mu          sync.RWMutex
	logger      *zerolog.Logger
}

// NewEventBus constructs an empty bus.
func NewEventBus(logger *zerolog.Logger) *EventBus {
	l := logger.With().Str("component", "events").Logger()
	return &EventBus{
		subscribers: make(map[string][]EventHandler),
		logger:      &l,
	}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// SubscribeAll registers a handler for every event type.
func (b *EventBus) SubscribeAll(handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.wildcard = append(b.wildcard, handler)
}

// Publish builds an event from payload and notifies subscribers.
// Handler failures are logged and do not reach the caller.
func (b *EventBus) Publish(ctx context.Context, eventType string, payload any) {
	event, err := New(eventType, payload)
	if err != nil {
		b.logger.Error().Err(err).Str("type", eventType).Msg("Failed to build event")
		return
	}
	b.Dispatch(ctx, event)
}

// Dispatch notifies subscribers of the event type.
func (b *EventBus) Dispatch(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	handlers = append(handlers, b.wildcard...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		if err := handler(ctx, event); err != nil {
			b.logger.Warn().Err(err).Str("type", event.Type).Str("event_id", event.ID).Msg("Event handler failed")
		}
	}
}
