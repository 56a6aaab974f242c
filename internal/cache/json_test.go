package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedItem struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestJSONRoundTrip(t *testing.T) {
	mr, rdb := newTestRedis(t)
	ctx := context.Background()

	in := []cachedItem{{Name: "Daily Herald", Price: 5.5}}
	require.NoError(t, SetJSON(ctx, rdb, "catalog:newspaper", in, time.Minute))

	var out []cachedItem
	require.NoError(t, GetJSON(ctx, rdb, "catalog:newspaper", &out))
	assert.Equal(t, in, out)

	mr.FastForward(2 * time.Minute)
	assert.ErrorIs(t, GetJSON(ctx, rdb, "catalog:newspaper", &out), ErrMiss)
}

func TestInvalidate(t *testing.T) {
	_, rdb := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, SetJSON(ctx, rdb, "k", cachedItem{Name: "x"}, 0))
	require.NoError(t, Invalidate(ctx, rdb, "k"))
	var out cachedItem
	assert.ErrorIs(t, GetJSON(ctx, rdb, "k", &out), ErrMiss)
	assert.NoError(t, Invalidate(ctx, rdb))
}

func TestGetJSON_BadPayload(t *testing.T) {
	mr, rdb := newTestRedis(t)
	require.NoError(t, mr.Set("k", "not-json"))
	var out cachedItem
	err := GetJSON(context.Background(), rdb, "k", &out)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMiss)
}
