package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"taniconnect_back_end/internal/models"
	"taniconnect_back_end/internal/repository"
)

type countingFinder struct {
	users map[string]models.User
	calls int
}

func (f *countingFinder) FindByID(_ context.Context, id string) (*models.User, error) {
	f.calls++
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &u, nil
}

func setup(t *testing.T) (*UserCache, *countingFinder, *miniredis.Miniredis, models.User) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	u := models.User{ID: primitive.NewObjectID(), Name: "Siti", Email: "siti@example.com", PhoneNumber: "0812", Role: models.RoleBuyer}
	finder := &countingFinder{users: map[string]models.User{u.ID.Hex(): u}}
	return NewUserCache(client, finder), finder, mr, u
}

func TestPrincipal_CachesAfterFirstLoad(t *testing.T) {
	c, finder, mr, u := setup(t)
	ctx := context.Background()

	first, err := c.Principal(ctx, u.ID.Hex())
	require.NoError(t, err)
	second, err := c.Principal(ctx, u.ID.Hex())
	require.NoError(t, err)

	assert.Equal(t, 1, finder.calls)
	assert.Equal(t, first, second)
	assert.Equal(t, "0812", second.Phone)
	assert.True(t, mr.Exists("user:"+u.ID.Hex()))
	assert.Equal(t, UserCacheTTL, mr.TTL("user:"+u.ID.Hex()))
}

func TestPrincipal_ExpiresWithTTL(t *testing.T) {
	c, finder, mr, u := setup(t)
	ctx := context.Background()

	_, err := c.Principal(ctx, u.ID.Hex())
	require.NoError(t, err)
	mr.FastForward(UserCacheTTL + time.Second)
	_, err = c.Principal(ctx, u.ID.Hex())
	require.NoError(t, err)

	assert.Equal(t, 2, finder.calls)
}

func TestPrincipal_UnknownUser(t *testing.T) {
	c, _, _, _ := setup(t)

	_, err := c.Principal(context.Background(), primitive.NewObjectID().Hex())

	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestPrincipal_RedisDownFallsBackToStore(t *testing.T) {
	c, finder, mr, u := setup(t)
	mr.Close()

	p, err := c.Principal(context.Background(), u.ID.Hex())

	require.NoError(t, err)
	assert.Equal(t, "Siti", p.Name)
	assert.Equal(t, 1, finder.calls)
}

func TestInvalidate(t *testing.T) {
	c, finder, _, u := setup(t)
	ctx := context.Background()

	_, _ = c.Principal(ctx, u.ID.Hex())
	require.NoError(t, c.Invalidate(ctx, u.ID.Hex()))
	_, _ = c.Principal(ctx, u.ID.Hex())

	assert.Equal(t, 2, finder.calls)
}
