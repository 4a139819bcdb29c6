package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// recordScript prunes expired members, checks the count against the limit
// and records the new timestamp in one atomic server-side step.
var recordScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, 0, now - window)
local count = redis.call('ZCARD', key)
if count < limit then
	redis.call('ZADD', key, now, member)
	redis.call('PEXPIRE', key, window)
	return {1, count + 1}
end
return {0, count}
`)

// RedisStore keeps per-key windows in Redis sorted sets, scored by
// millisecond timestamps, so multiple portal instances share one limit.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a Redis-backed store. Keys are namespaced under
// the given prefix; an empty prefix defaults to "ratelimit".
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(key string) string {
	return s.prefix + ":" + key
}

func (s *RedisStore) RecordIfAllowed(ctx context.Context, key string, ts time.Time, window time.Duration, limit int) (bool, int64, error) {
	nowMs := ts.UnixMilli()
	member := fmt.Sprintf("%d", ts.UnixNano())

	res, err := recordScript.Run(ctx, s.client,
		[]string{s.key(key)},
		nowMs, window.Milliseconds(), limit, member,
	).Int64Slice()
	if err != nil {
		return false, 0, err
	}
	if len(res) != 2 {
		return false, 0, fmt.Errorf("ratelimit: unexpected script reply of length %d", len(res))
	}

	return res[0] == 1, res[1], nil
}

func (s *RedisStore) CountInWindow(ctx context.Context, key string, window time.Duration) (int64, error) {
	now := time.Now().UnixMilli()
	cutoff := now - window.Milliseconds()

	pipe := s.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, s.key(key), "0", fmt.Sprintf("%d", cutoff))
	card := pipe.ZCard(ctx, s.key(key))
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return card.Val(), nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key)).Err()
}
