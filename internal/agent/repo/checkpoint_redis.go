package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/storechat/server/internal/agent/model"
	errx "github.com/storechat/server/internal/core/error"
	logx "github.com/storechat/server/pkg/logger"
)

// RedisCheckpointStore keeps one JSON blob per thread under thread:<id>:state.
type RedisCheckpointStore struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisCheckpointStore(rdb redis.Cmdable, ttl time.Duration) *RedisCheckpointStore {
	return &RedisCheckpointStore{rdb: rdb, ttl: ttl}
}

func (r *RedisCheckpointStore) threadKey(threadID string) string {
	return fmt.Sprintf("thread:%s:state", threadID)
}

func (r *RedisCheckpointStore) Load(ctx context.Context, threadID string) (*model.ConversationState, error) {
	key := r.threadKey(threadID)

	raw, err := r.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.NewConversationState(threadID), nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load checkpoint from redis")
		return nil, errx.WrapRedis(err)
	}

	var state model.ConversationState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		logx.Error().Err(err).Str("thread_id", threadID).Msg("failed to unmarshal checkpoint")
		return nil, fmt.Errorf("unmarshal checkpoint: %w", err)
	}
	state.ThreadID = threadID
	return &state, nil
}

func (r *RedisCheckpointStore) Save(ctx context.Context, state *model.ConversationState) error {
	b, err := json.Marshal(state)
	if err != nil {
		logx.Error().Err(err).Str("thread_id", state.ThreadID).Msg("failed to marshal checkpoint")
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	key := r.threadKey(state.ThreadID)
	if err := r.rdb.Set(ctx, key, b, r.ttl).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to write checkpoint to redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisCheckpointStore) Clear(ctx context.Context, threadID string) error {
	key := r.threadKey(threadID)
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to delete checkpoint from redis")
		return errx.WrapRedis(err)
	}
	return nil
}

var _ model.CheckpointStore = (*RedisCheckpointStore)(nil)
