package redis

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// Client Redis客户端包装器
type Client struct {
	rdb *redis.Client
}

// NewClient 创建新的Redis客户端
func NewClient(addr string, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	client := &Client{
		rdb: rdb,
	}

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx); err != nil {
		rdb.Close()
		return nil, err
	}

	return client, nil
}

// Ping 测试连接
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// SetWithExpiration 设置键值对（带过期时间，0为永久）
func (c *Client) SetWithExpiration(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return c.rdb.Set(ctx, key, value, expiration).Err()
}

// GetBytes 获取字节数组值，键不存在时返回nil
func (c *Client) GetBytes(ctx context.Context, key string) ([]byte, error) {
	result := c.rdb.Get(ctx, key)
	if result.Err() == redis.Nil {
		return nil, nil
	}
	return result.Bytes()
}

// Del 删除键
func (c *Client) Del(ctx context.Context, keys ...string) (int64, error) {
	return c.rdb.Del(ctx, keys...).Result()
}

// DelPattern 删除匹配pattern的所有键
func (c *Client) DelPattern(ctx context.Context, pattern string) (int64, error) {
	var deleted int64
	iter := c.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		n, err := c.rdb.Del(ctx, iter.Val()).Result()
		if err != nil {
			return deleted, err
		}
		deleted += n
	}
	return deleted, iter.Err()
}

// Close 关闭客户端连接
func (c *Client) Close() error {
	return c.rdb.Close()
}
