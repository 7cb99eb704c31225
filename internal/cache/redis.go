package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/airreservation/config"
	"github.com/Domenick1991/airreservation/internal/domain"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client     redis.Cmdable
	flightsTTL time.Duration
	weatherTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, flightsTTL, weatherTTL time.Duration) *RedisCache {
	return NewRedisCacheWithClient(
		redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		flightsTTL, weatherTTL,
	)
}

func NewRedisCacheWithClient(client redis.Cmdable, flightsTTL, weatherTTL time.Duration) *RedisCache {
	return &RedisCache{client: client, flightsTTL: flightsTTL, weatherTTL: weatherTTL}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	if closer, ok := c.client.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

// GetFlights returns nil, nil on a miss.
func (c *RedisCache) GetFlights(ctx context.Context, region domain.Region) ([]domain.Flight, error) {
	data, err := c.client.Get(ctx, flightsKey(region)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var flights []domain.Flight
	if err := json.Unmarshal(data, &flights); err != nil {
		return nil, err
	}
	return flights, nil
}

func (c *RedisCache) SetFlights(ctx context.Context, region domain.Region, flights []domain.Flight) error {
	payload, err := json.Marshal(flights)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, flightsKey(region), payload, c.flightsTTL).Err()
}

func (c *RedisCache) InvalidateFlights(ctx context.Context) error {
	return c.client.Del(ctx,
		flightsKey(""),
		flightsKey(domain.RegionLocal),
		flightsKey(domain.RegionInternational),
	).Err()
}

// GetWeather returns nil, nil on a miss.
func (c *RedisCache) GetWeather(ctx context.Context, route string) (*domain.WeatherReport, error) {
	data, err := c.client.Get(ctx, weatherKey(route)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var report domain.WeatherReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

func (c *RedisCache) SetWeather(ctx context.Context, report domain.WeatherReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, weatherKey(report.Route), payload, c.weatherTTL).Err()
}

// AcquireLock takes a named lock for ttl. It reports false when someone else holds it.
func (c *RedisCache) AcquireLock(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, lockKey(name), "locked", ttl).Result()
}

func flightsKey(region domain.Region) string {
	if region == "" {
		return "cache:flights:all"
	}
	return "cache:flights:" + strings.ToLower(string(region))
}

func weatherKey(route string) string {
	return fmt.Sprintf("cache:weather:%s", route)
}

func lockKey(name string) string {
	return "lock:" + name
}
