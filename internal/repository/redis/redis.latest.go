// FilePath: internal/repository/redis/redis.latest.go
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sensormagics/telemetry-hub/internal/config"
	"github.com/sensormagics/telemetry-hub/internal/models"
	"github.com/sensormagics/telemetry-hub/internal/repository"
	nuts "github.com/vaudience/go-nuts"
)

// LatestCache keeps each device's newest reading in redis so dashboard
// "latest" lookups never touch the time-series store. Entries expire so
// dead devices age out of the cache.
type LatestCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewLatestCache(cfg config.RedisConfig) (*LatestCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("error connecting to redis: %w", err)
	}

	ttl := cfg.LatestTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	nuts.L.Infof("[Redis] Connected to %s:%d", cfg.Host, cfg.Port)
	return &LatestCache{client: client, ttl: ttl}, nil
}

func (c *LatestCache) Set(ctx context.Context, reading *models.Reading) error {
	payload, err := json.Marshal(reading)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, latestKey(reading.DeviceID), payload, c.ttl).Err()
}

func (c *LatestCache) Get(ctx context.Context, deviceID string) (*models.Reading, error) {
	payload, err := c.client.Get(ctx, latestKey(deviceID)).Bytes()
	if err == redis.Nil {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	reading := &models.Reading{}
	if err := json.Unmarshal(payload, reading); err != nil {
		return nil, err
	}
	return reading, nil
}

func (c *LatestCache) Close() error {
	return c.client.Close()
}

func latestKey(deviceID string) string {
	return "reading:latest:" + deviceID
}
