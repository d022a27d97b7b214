package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisAdapter_SetNXAndDel(t *testing.T) {
	//Arrange
	ctx := context.Background()
	mr := miniredis.RunT(t)
	a := NewRedisAdapter(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	//Act
	first, err := a.SetNX(ctx, "dedup:k", "processing", time.Minute)
	require.NoError(t, err)
	second, err := a.SetNX(ctx, "dedup:k", "processing", time.Minute)
	require.NoError(t, err)

	//Assert
	assert.True(t, first)
	assert.False(t, second)
	assert.NoError(t, a.Ping(ctx))

	require.NoError(t, a.Del(ctx, "dedup:k"))
	again, err := a.SetNX(ctx, "dedup:k", "processing", time.Minute)
	require.NoError(t, err)
	assert.True(t, again)

	mr.FastForward(2 * time.Minute)
	assert.False(t, mr.Exists("dedup:k"))
}
