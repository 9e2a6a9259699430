package repo

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chashi-bhai/server/internal/agent/model"
)

func TestMemoryRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryUserContextRepository()

	got, err := r.Load(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	uc := &model.UserContext{UserID: "u1", CropInterests: []string{"rice"}}
	require.NoError(t, r.Save(ctx, uc))

	// stored copy is isolated from the caller's slice
	uc.CropInterests[0] = "jute"

	got, err = r.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"rice"}, got.CropInterests)
}

func TestRedisRepositoryRoundTrip(t *testing.T) {
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL not set")
	}
	opt, err := redis.ParseURL(url)
	require.NoError(t, err)
	rdb := redis.NewClient(opt)
	defer rdb.Close()

	ctx := context.Background()
	r := NewRedisUserContextRepository(rdb, time.Minute)
	id := "test-" + time.Now().Format("150405.000000")
	defer rdb.Del(ctx, r.userKey(id))

	got, err := r.Load(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got)

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, r.Save(ctx, &model.UserContext{
		UserID:          id,
		QueryHistory:    []model.HistoryEntry{{Query: "rice", Timestamp: now}},
		Location:        "Dhaka",
		LastInteraction: &now,
	}))

	got, err = r.Load(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Dhaka", got.Location)
	assert.True(t, now.Equal(got.QueryHistory[0].Timestamp))

	ttl, err := rdb.TTL(ctx, r.userKey(id)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}
