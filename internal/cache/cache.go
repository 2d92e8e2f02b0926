package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"taniconnect_back_end/internal/models"
)

const UserCacheTTL = 5 * time.Minute

type UserFinder interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// UserCache resolves authenticated user ids to principals, reading through
// Redis before hitting the users collection.
type UserCache struct {
	client *redis.Client
	users  UserFinder
	ttl    time.Duration
}

func NewUserCache(client *redis.Client, users UserFinder) *UserCache {
	return &UserCache{client: client, users: users, ttl: UserCacheTTL}
}

func userKey(id string) string {
	return "user:" + id
}

// Principal returns the cached principal for id, loading and caching it on
// a miss. Redis failures fall back to the store.
func (c *UserCache) Principal(ctx context.Context, id string) (*models.Principal, error) {
	key := userKey(id)

	data, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var p models.Principal
		if json.Unmarshal(data, &p) == nil {
			return &p, nil
		}
	} else if err != redis.Nil {
		log.Printf("⚠️ Redis user cache read failed for %s: %v", id, err)
	}

	user, err := c.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p := user.Principal()

	if encoded, err := json.Marshal(p); err == nil {
		if err := c.client.Set(ctx, key, encoded, c.ttl).Err(); err != nil {
			log.Printf("⚠️ Redis user cache write failed for %s: %v", id, err)
		}
	}
	return &p, nil
}

// Invalidate drops the cached principal, e.g. after a role change.
func (c *UserCache) Invalidate(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, userKey(id)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}
