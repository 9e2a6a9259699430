package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	logx "github.com/chashi-bhai/server/pkg/logger"
)

// TTLs per cached concern.
const (
	TTLPower          = time.Hour
	TTLModis          = 2 * time.Hour
	TTLLandsat        = time.Hour
	TTLGldas          = time.Hour
	TTLGrace          = 2 * time.Hour
	TTLFAO            = 24 * time.Hour
	TTLLocalResearch  = 24 * time.Hour
	TTLTranslation    = 24 * time.Hour
	TTLTranslateBack  = time.Hour
	TTLIPLocation     = time.Hour
	TTLResponse       = 30 * time.Minute
	TTLSearch         = time.Hour
	TTLForecast       = 30 * time.Minute
	DefaultMaxEntries = 10000
)

// Store is a key/value store with TTL checked on read.
//
// Set stamps the value with the current time and overwrites any prior entry.
// Get returns the value only while now-storedAt < ttl; an expired entry is
// evicted by the read that finds it.
type Store interface {
	Get(ctx context.Context, key string, ttl time.Duration) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Len() int
}

// Clock lets tests control expiry.
type Clock func() time.Time

// GetJSON decodes a cached JSON value. Decode failures count as a miss.
func GetJSON[T any](ctx context.Context, s Store, key string, ttl time.Duration) (T, bool) {
	var zero T
	b, ok, err := s.Get(ctx, key, ttl)
	if err != nil {
		logx.Warn().Err(err).Str("key", key).Msg("cache get failed")
		return zero, false
	}
	if !ok {
		return zero, false
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		logx.Warn().Err(err).Str("key", key).Msg("cache entry is not valid json; ignoring")
		return zero, false
	}
	return v, true
}

// SetJSON encodes and stores v. Errors are logged; callers treat the cache as best effort.
func SetJSON(ctx context.Context, s Store, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		logx.Warn().Err(err).Str("key", key).Msg("cache value is not serializable")
		return
	}
	if err := s.Set(ctx, key, b); err != nil {
		logx.Warn().Err(err).Str("key", key).Msg("cache set failed")
	}
}

// GetString is GetJSON for plain strings.
func GetString(ctx context.Context, s Store, key string, ttl time.Duration) (string, bool) {
	return GetJSON[string](ctx, s, key, ttl)
}

func expired(storedAt, now time.Time, ttl time.Duration) bool {
	return ttl <= 0 || now.Sub(storedAt) >= ttl
}

func errKey(op, key string, err error) error {
	return fmt.Errorf("cache %s %q: %w", op, key, err)
}
