package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/chashi-bhai/server/internal/agent/model"
	errx "github.com/chashi-bhai/server/internal/core/error"
	logx "github.com/chashi-bhai/server/pkg/logger"
)

type RedisUserContextRepository struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisUserContextRepository(rdb redis.Cmdable, ttl time.Duration) *RedisUserContextRepository {
	return &RedisUserContextRepository{rdb: rdb, ttl: ttl}
}

func (r *RedisUserContextRepository) userKey(userID string) string {
	return fmt.Sprintf("usercontext:%s", userID)
}

func (r *RedisUserContextRepository) Load(ctx context.Context, userID string) (*model.UserContext, error) {
	key := r.userKey(userID)

	raw, err := r.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load user context from redis")
		return nil, errx.WrapRedis(err)
	}

	var uc model.UserContext
	if err := json.Unmarshal(raw, &uc); err != nil {
		logx.Error().Err(err).Str("userID", userID).Msg("failed to unmarshal user context")
		return nil, fmt.Errorf("unmarshal user context: %w", err)
	}
	return &uc, nil
}

func (r *RedisUserContextRepository) Save(ctx context.Context, uc *model.UserContext) error {
	b, err := json.Marshal(uc)
	if err != nil {
		logx.Error().Err(err).Str("userID", uc.UserID).Msg("failed to marshal user context")
		return fmt.Errorf("marshal user context: %w", err)
	}
	key := r.userKey(uc.UserID)

	// SET with expiry refreshes the TTL on every touch
	if err := r.rdb.Set(ctx, key, b, r.ttl).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to save user context to redis")
		return errx.WrapRedis(err)
	}
	return nil
}

var _ model.UserContextRepository = (*RedisUserContextRepository)(nil)
