package repository

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// CartStore is the Redis-backed cart owned by the cart endpoints. The order
// workflow only ever drops a whole cart.
type CartStore struct {
	client *redis.Client
}

func NewCartStore(client *redis.Client) *CartStore {
	return &CartStore{client: client}
}

// Clear deletes the buyer's cart and notifies open cart sync sockets.
// Clearing an absent cart is not an error.
func (s *CartStore) Clear(ctx context.Context, buyerID string) error {
	key := cartKey(buyerID)
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	if err := s.client.Publish(ctx, key, "cleared").Err(); err != nil {
		return fmt.Errorf("redis publish failed: %w", err)
	}
	return nil
}

func cartKey(buyerID string) string {
	return fmt.Sprintf("cart:%s", buyerID)
}
