package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

var errRedisDisabled = fmt.Errorf("redis client not initialized")

// RedisService is optional: with REDIS_ADDR unset every helper degrades to
// a no-op or a cache miss.
type RedisService struct {
	appContext.DefaultService
	redis *redis.Client
}

const REDIS_SVC = "redis_svc"

func (svc RedisService) Id() string {
	return REDIS_SVC
}

func (svc *RedisService) Configure(ctx *appContext.Context) error {
	svc.initRedisClient()
	return svc.DefaultService.Configure(ctx)
}

func (svc *RedisService) Start() error {
	if svc.redis == nil {
		log.Info().Msg("Redis disabled, caching and locks are local no-ops")
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := svc.redis.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return nil
}

func (svc *RedisService) Shutdown() {
	if svc.redis != nil {
		_ = svc.redis.Close()
	}
}

func (svc *RedisService) initRedisClient() {
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		return
	}

	redisDB := 0
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		if db, err := strconv.Atoi(dbStr); err == nil {
			redisDB = db
		}
	}

	svc.redis = redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       redisDB,
	})
}

// NewRedisService wraps an existing client.
func NewRedisService(client *redis.Client) *RedisService {
	return &RedisService{redis: client}
}

func (svc *RedisService) Enabled() bool {
	return svc != nil && svc.redis != nil
}

func (svc *RedisService) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if !svc.Enabled() {
		return errRedisDisabled
	}

	var data []byte
	var err error

	switch v := value.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		data, err = json.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to marshal value: %w", err)
		}
	}

	return svc.redis.Set(ctx, key, data, expiration).Err()
}

// GetJSON decodes key into dest. Returns false on a miss.
func (svc *RedisService) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !svc.Enabled() {
		return false, nil
	}

	result, err := svc.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, json.Unmarshal([]byte(result), dest)
}

func (svc *RedisService) Delete(ctx context.Context, keys ...string) error {
	if !svc.Enabled() {
		return nil
	}
	return svc.redis.Del(ctx, keys...).Err()
}

// IncrementWindow increments a fixed window counter, setting its expiry on
// the first hit. Returns the new count and the time left in the window.
func (svc *RedisService) IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if !svc.Enabled() {
		return 0, 0, errRedisDisabled
	}

	count, err := svc.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, 0, err
	}
	if count == 1 {
		if err := svc.redis.Expire(ctx, key, window).Err(); err != nil {
			return count, window, err
		}
		return count, window, nil
	}

	ttl, err := svc.redis.TTL(ctx, key).Result()
	if err != nil || ttl < 0 {
		// a key left without expiry would never reset
		svc.redis.Expire(ctx, key, window)
		ttl = window
	}
	return count, ttl, nil
}

// Lock takes a short lived exclusive key. The returned release func is safe
// to call when the lock was not taken. With redis disabled the lock is
// always granted.
func (svc *RedisService) Lock(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	noop := func() {}
	if !svc.Enabled() {
		return noop, true, nil
	}

	token := strconv.FormatInt(time.Now().UnixNano(), 36)
	ok, err := svc.redis.SetNX(ctx, key, token, ttl).Result()
	if err != nil || !ok {
		return noop, false, err
	}

	release := func() {
		current, err := svc.redis.Get(context.Background(), key).Result()
		if err == nil && current == token {
			svc.redis.Del(context.Background(), key)
		}
	}
	return release, true, nil
}
