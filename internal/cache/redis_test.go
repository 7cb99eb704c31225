package cache

import (
	"context"
	"testing"
	"time"

	"github.com/Domenick1991/airreservation/config"
	"github.com/Domenick1991/airreservation/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "cache:flights:all", flightsKey(""))
	assert.Equal(t, "cache:flights:local", flightsKey(domain.RegionLocal))
	assert.Equal(t, "cache:flights:international", flightsKey(domain.RegionInternational))
	assert.Equal(t, "cache:weather:MNL → CEB", weatherKey("MNL → CEB"))
	assert.Equal(t, "lock:simulator", lockKey("simulator"))
}

func TestNewRedisCache(t *testing.T) {
	c := NewRedisCache(config.RedisConfig{Addr: "localhost:6379"}, time.Minute, time.Minute)
	assert.NotNil(t, c)
	assert.Equal(t, time.Minute, c.flightsTTL)
	assert.NoError(t, c.Close())
}

func TestUnreachableRedisReturnsErrors(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	defer client.Close()
	c := NewRedisCacheWithClient(client, time.Minute, time.Minute)
	ctx := context.Background()

	flights, err := c.GetFlights(ctx, "")
	assert.Error(t, err)
	assert.Nil(t, flights)

	report, err := c.GetWeather(ctx, "MNL → CEB")
	assert.Error(t, err)
	assert.Nil(t, report)

	assert.Error(t, c.InvalidateFlights(ctx))
}
