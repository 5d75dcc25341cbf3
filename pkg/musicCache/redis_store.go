package musiccache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"lyricsync/pkg/redis"
)

const keyPrefix = "lyricsync:track:"

// RedisStore 把缓存写入Redis，进程重启后仍可命中
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore 创建Redis存储，ttl为0表示永不过期
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Load(ctx context.Context, trackID string) (*Entry, error) {
	data, err := s.client.GetBytes(ctx, keyPrefix+trackID)
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	if data == nil {
		return nil, nil
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to decode cache entry: %w", err)
	}
	return &entry, nil
}

func (s *RedisStore) Save(ctx context.Context, trackID string, entry *Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	return s.client.SetWithExpiration(ctx, keyPrefix+trackID, data, s.ttl)
}

func (s *RedisStore) Clear(ctx context.Context) error {
	_, err := s.client.DelPattern(ctx, keyPrefix+"*")
	return err
}
