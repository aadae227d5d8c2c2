package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Domenick1991/parking/config"
	"github.com/Domenick1991/parking/internal/domain"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client  *redis.Client
	lotsTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, lotsTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:  redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		lotsTTL: lotsTTL,
	}
}

// GetLots returns the cached catalogue. A miss is (nil, nil).
func (c *RedisCache) GetLots(ctx context.Context) ([]domain.LotAvailability, error) {
	data, err := c.client.Get(ctx, lotsKey()).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var lots []domain.LotAvailability
	if err := json.Unmarshal(data, &lots); err != nil {
		return nil, err
	}
	return lots, nil
}

func (c *RedisCache) SetLots(ctx context.Context, lots []domain.LotAvailability) error {
	payload, err := json.Marshal(lots)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, lotsKey(), payload, c.lotsTTL).Err()
}

func (c *RedisCache) InvalidateLots(ctx context.Context) error {
	return c.client.Del(ctx, lotsKey()).Err()
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func lotsKey() string {
	return "cache:parking_lots"
}
