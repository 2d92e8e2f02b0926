// Package stream fans order status changes out over Redis pub/sub so any
// API instance can push them to connected websockets.
package stream

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"taniconnect_back_end/internal/models"
)

type StatusMessage struct {
	Type     string             `json:"type"`
	OrderID  string             `json:"orderId"`
	Status   models.OrderStatus `json:"status"`
	Previous models.OrderStatus `json:"previous,omitempty"`
}

const TypeStatusChanged = "status_changed"

type StatusStream struct {
	client *redis.Client
}

func NewStatusStream(client *redis.Client) *StatusStream {
	return &StatusStream{client: client}
}

func Channel(orderID string) string {
	return "order-status:" + orderID
}

func (s *StatusStream) OrderStatusChanged(ctx context.Context, order models.Order, previous models.OrderStatus) error {
	payload, err := json.Marshal(StatusMessage{
		Type:     TypeStatusChanged,
		OrderID:  order.ID,
		Status:   order.Status,
		Previous: previous,
	})
	if err != nil {
		return err
	}
	if err := s.client.Publish(ctx, Channel(order.ID), payload).Err(); err != nil {
		return fmt.Errorf("redis publish failed: %w", err)
	}
	return nil
}

// Subscribe returns a subscription to one order's status channel. The
// caller closes it.
func (s *StatusStream) Subscribe(ctx context.Context, orderID string) *redis.PubSub {
	return s.client.Subscribe(ctx, Channel(orderID))
}

// Decode parses a published status message.
func Decode(payload string) (StatusMessage, error) {
	var m StatusMessage
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		return StatusMessage{}, fmt.Errorf("invalid status message: %w", err)
	}
	return m, nil
}
