package redisclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func accessKey(userID, courseID int64) string {
	return fmt.Sprintf("access:%d:%d", userID, courseID)
}

// GetAccessLevel retrieves a cached access decision. Returns "" on miss.
func (c *Client) GetAccessLevel(ctx context.Context, userID, courseID int64) (string, error) {
	level, err := c.rdb.Get(ctx, accessKey(userID, courseID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return level, nil
}

// SetAccessLevel caches an access decision with a TTL
func (c *Client) SetAccessLevel(ctx context.Context, userID, courseID int64, level string, ttl time.Duration) error {
	return c.rdb.Set(ctx, accessKey(userID, courseID), level, ttl).Err()
}

// InvalidateAccessLevel drops the cached decision for (user, course)
func (c *Client) InvalidateAccessLevel(ctx context.Context, userID, courseID int64) error {
	return c.rdb.Del(ctx, accessKey(userID, courseID)).Err()
}

// ClaimConfirmation claims an incoming payment confirmation by session
// reference. Returns false when the same confirmation was already
// claimed within the TTL (replay).
func (c *Client) ClaimConfirmation(ctx context.Context, sessionID string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, fmt.Sprintf("confirmation:%s", sessionID), "1", ttl).Result()
}

// GetCatalog retrieves the cached course catalog into dest. Returns
// false on miss.
func (c *Client) GetCatalog(ctx context.Context, dest interface{}) (bool, error) {
	raw, err := c.rdb.Get(ctx, "catalog").Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(raw, dest)
}

// SetCatalog caches the course catalog with a TTL
func (c *Client) SetCatalog(ctx context.Context, catalog interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(catalog)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, "catalog", raw, ttl).Err()
}

// InvalidateCatalog drops the cached catalog
func (c *Client) InvalidateCatalog(ctx context.Context) error {
	return c.rdb.Del(ctx, "catalog").Err()
}
