package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/comment-insight/backend/internal/analysis"
	"github.com/comment-insight/backend/internal/models"
	"github.com/comment-insight/backend/pkg/logger"
	"github.com/comment-insight/backend/pkg/utils"
)

// Client is a verdict cache keyed by the hash of the exact comment text.
type Client struct {
	client *redis.Client
}

var _ analysis.Cache = (*Client)(nil)

func NewClient(ctx context.Context, host string, port int, password string, db int) (*Client, error) {
	addr := fmt.Sprintf("%s:%d", host, port)
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis client initialized", zap.String("addr", addr))

	return &Client{client: client}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) SetVerdict(ctx context.Context, text string, v models.Verdict, ttl time.Duration) error {
	data, err := encodeVerdict(v)
	if err != nil {
		return err
	}

	key := utils.VerdictKey(text)
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set verdict cache: %w", err)
	}

	logger.Debug("Verdict cached", zap.String("key", key), zap.Duration("ttl", ttl))
	return nil
}

// GetVerdict returns nil without error on a miss.
func (c *Client) GetVerdict(ctx context.Context, text string) (*models.Verdict, error) {
	key := utils.VerdictKey(text)
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get verdict cache: %w", err)
	}

	v, err := decodeVerdict(data)
	if err != nil {
		return nil, err
	}

	logger.Debug("Verdict cache hit", zap.String("key", key))
	return v, nil
}

// Flush removes every cached verdict and reports how many were dropped.
func (c *Client) Flush(ctx context.Context) (int, error) {
	removed := 0
	iter := c.client.Scan(ctx, 0, "verdict:*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			logger.Warn("Failed to delete cache key", zap.String("key", iter.Val()), zap.Error(err))
			continue
		}
		removed++
	}

	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("failed to iterate cache keys: %w", err)
	}

	logger.Info("Verdict cache flushed", zap.Int("removed", removed))
	return removed, nil
}

func encodeVerdict(v models.Verdict) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal verdict: %w", err)
	}
	return data, nil
}

// decodeVerdict rejects entries whose label is not a success label, so a
// stale or foreign value is never served as a verdict.
func decodeVerdict(data []byte) (*models.Verdict, error) {
	var v models.Verdict
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to unmarshal verdict: %w", err)
	}
	sentiment, ok := models.ParseSentiment(string(v.Sentiment))
	if !ok {
		return nil, fmt.Errorf("cached verdict has invalid sentiment %q", v.Sentiment)
	}
	v.Sentiment = sentiment
	if v.Keywords == nil {
		v.Keywords = []string{}
	}
	return &v, nil
}
