package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/curator/console/internal/models"
)

var RedisClient *redis.Client

func NewRedisClient(redisURL string) (*redis.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	RedisClient = client
	log.Info().Msg("Connected to Redis")

	return client, nil
}

func CloseRedis() {
	if RedisClient != nil {
		if err := RedisClient.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing Redis connection")
		} else {
			log.Info().Msg("Closed Redis connection")
		}
	}
}

// Redis key prefixes for organization
const (
	KeyPrefixRisk      = "risk:"
	KeyPrefixDuty      = "duty:"
	KeyPrefixRateLimit = "ratelimit:"
)

// Risk profile cache

func SetRiskProfile(ctx context.Context, qq string, profile models.RiskProfile, expiry time.Duration) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	return RedisClient.Set(ctx, KeyPrefixRisk+qq, data, expiry).Err()
}

func GetRiskProfile(ctx context.Context, qq string) (models.RiskProfile, bool, error) {
	var profile models.RiskProfile
	data, err := RedisClient.Get(ctx, KeyPrefixRisk+qq).Bytes()
	if err == redis.Nil {
		return profile, false, nil
	}
	if err != nil {
		return profile, false, err
	}
	if err := json.Unmarshal(data, &profile); err != nil {
		return profile, false, err
	}
	return profile, true, nil
}

// Operator duty state

func SetOperatorDuty(ctx context.Context, operatorID string, expiry time.Duration) error {
	return RedisClient.Set(ctx, KeyPrefixDuty+operatorID, "on", expiry).Err()
}

func ClearOperatorDuty(ctx context.Context, operatorID string) error {
	return RedisClient.Del(ctx, KeyPrefixDuty+operatorID).Err()
}

func IsOperatorOnDuty(ctx context.Context, operatorID string) (bool, error) {
	n, err := RedisClient.Exists(ctx, KeyPrefixDuty+operatorID).Result()
	return n > 0, err
}

// Rate limiting
func IncrementRateLimit(ctx context.Context, key string, window time.Duration) (int64, error) {
	fullKey := KeyPrefixRateLimit + key
	pipe := RedisClient.Pipeline()
	incr := pipe.Incr(ctx, fullKey)
	pipe.Expire(ctx, fullKey, window)
	_, err := pipe.Exec(ctx)
	if err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

func GetRateLimit(ctx context.Context, key string) (int64, error) {
	val, err := RedisClient.Get(ctx, KeyPrefixRateLimit+key).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return val, err
}

// Pub/Sub for real-time events
func Publish(ctx context.Context, channel string, message interface{}) error {
	return RedisClient.Publish(ctx, channel, message).Err()
}

func Subscribe(ctx context.Context, channels ...string) *redis.PubSub {
	return RedisClient.Subscribe(ctx, channels...)
}
