package messagequeue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// OrderPlacedEvent is published after an order commits.
type OrderPlacedEvent struct {
	OrderID       string           `json:"orderId"`
	UserID        string           `json:"userId"`
	Amount        float64          `json:"amount"`
	Status        string           `json:"status"`
	PaymentMethod string           `json:"paymentMethod"`
	Items         []OrderEventItem `json:"items"`
	PlacedAt      time.Time        `json:"placedAt"`
}

// OrderEventItem is one line of an OrderPlacedEvent.
type OrderEventItem struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// OrderEvents publishes and decodes order events on one queue.
type OrderEvents struct {
	mq    MessageQueue
	queue string
}

// NewOrderEvents binds order events to queue.
func NewOrderEvents(mq MessageQueue, queue string) *OrderEvents {
	return &OrderEvents{mq: mq, queue: queue}
}

// PublishOrderPlaced encodes and publishes e.
func (o *OrderEvents) PublishOrderPlaced(ctx context.Context, e OrderPlacedEvent) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode order event: %w", err)
	}
	return o.mq.Publish(ctx, o.queue, body)
}

// ConsumeOrderPlaced decodes each message and passes it to fn until ctx is cancelled.
func (o *OrderEvents) ConsumeOrderPlaced(ctx context.Context, fn func(ctx context.Context, e OrderPlacedEvent) error) error {
	return o.mq.Consume(ctx, o.queue, func(ctx context.Context, body []byte) error {
		var e OrderPlacedEvent
		if err := json.Unmarshal(body, &e); err != nil {
			return fmt.Errorf("decode order event: %w", err)
		}
		return fn(ctx, e)
	})
}
