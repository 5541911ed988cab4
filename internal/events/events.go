package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/matsalen/desafio-procion/internal/domain"
)

const TypeOrderCreated = "order.created"

// OrderCreated is published once an order and all of its lines are committed.
// It carries the hydrated order so consumers never need to read the database.
type OrderCreated struct {
	EventID    string       `json:"eventId"`
	Type       string       `json:"type"`
	OrderID    int64        `json:"orderId"`
	OccurredAt time.Time    `json:"occurredAt"`
	Order      domain.Order `json:"order"`
}

func NewOrderCreated(o *domain.Order) OrderCreated {
	return OrderCreated{
		EventID:    uuid.NewString(),
		Type:       TypeOrderCreated,
		OrderID:    o.ID,
		OccurredAt: time.Now().UTC(),
		Order:      *o,
	}
}

// Decode parses an OrderCreated message body.
func Decode(body []byte) (OrderCreated, error) {
	var ev OrderCreated
	if err := json.Unmarshal(body, &ev); err != nil {
		return ev, fmt.Errorf("decode event: %w", err)
	}
	if ev.Type != TypeOrderCreated {
		return ev, fmt.Errorf("unexpected event type %q", ev.Type)
	}
	if ev.OrderID == 0 {
		ev.OrderID = ev.Order.ID
	}
	return ev, nil
}

// Publisher delivers events to a transport.
type Publisher interface {
	Publish(ctx context.Context, ev OrderCreated) error
}

// MessageSender is satisfied by the SQS publisher.
type MessageSender interface {
	SendOrderMessage(ctx context.Context, body string, attributes map[string]string) error
}

// QueuePublisher sends events as JSON message bodies through a MessageSender.
type QueuePublisher struct {
	Sender MessageSender
}

func (p QueuePublisher) Publish(ctx context.Context, ev OrderCreated) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	attrs := map[string]string{
		"event_id":   ev.EventID,
		"event_type": ev.Type,
		"order_id":   strconv.FormatInt(ev.OrderID, 10),
	}
	return p.Sender.SendOrderMessage(ctx, string(body), attrs)
}

// LogPublisher only logs the event. Used when no transport is configured.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, ev OrderCreated) error {
	zap.L().Info("order event",
		zap.String("event_id", ev.EventID),
		zap.String("type", ev.Type),
		zap.Int64("order_id", ev.OrderID))
	return nil
}
