package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	errx "github.com/chashi-bhai/server/internal/core/error"
	logx "github.com/chashi-bhai/server/pkg/logger"
	"github.com/chashi-bhai/server/pkg/telemetry"
)

const redisPrefix = "chashi:cache:"

// envelope is the stored form of one entry.
type envelope struct {
	StoredAt time.Time `json:"stored_at"`
	Value    []byte    `json:"value"`
}

// RedisStore shares the cache between processes. Values are wrapped in an
// envelope carrying storedAt so the per-read TTL still applies; maxTTL is a
// physical expiry so abandoned keys do not accumulate.
type RedisStore struct {
	rdb     redis.Cmdable
	maxTTL  time.Duration
	now     Clock
	metrics *telemetry.Metrics
}

func NewRedisStore(rdb redis.Cmdable, maxTTL time.Duration, metrics *telemetry.Metrics) *RedisStore {
	return &RedisStore{rdb: rdb, maxTTL: maxTTL, now: time.Now, metrics: metrics}
}

func (r *RedisStore) key(k string) string {
	return redisPrefix + k
}

func (r *RedisStore) Get(ctx context.Context, key string, ttl time.Duration) ([]byte, bool, error) {
	raw, err := r.rdb.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			r.metrics.RecordCache(ctx, namespace(key), false)
			return nil, false, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to read cache entry from redis")
		return nil, false, errx.WrapRedis(err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		logx.Warn().Err(err).Str("key", key).Msg("dropping malformed cache envelope")
		_ = r.Delete(ctx, key)
		return nil, false, nil
	}
	if expired(env.StoredAt, r.now(), ttl) {
		_ = r.Delete(ctx, key)
		r.metrics.RecordCache(ctx, namespace(key), false)
		return nil, false, nil
	}
	r.metrics.RecordCache(ctx, namespace(key), true)
	return env.Value, true, nil
}

func (r *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	b, err := json.Marshal(envelope{StoredAt: r.now(), Value: value})
	if err != nil {
		return errKey("set", key, err)
	}
	if err := r.rdb.Set(ctx, r.key(key), b, r.maxTTL).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to write cache entry to redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, key string) error {
	if err := r.rdb.Del(ctx, r.key(key)).Err(); err != nil {
		return errx.WrapRedis(err)
	}
	return nil
}

// Len is not tracked for Redis; it reports -1.
func (r *RedisStore) Len() int {
	return -1
}

var _ Store = (*RedisStore)(nil)
