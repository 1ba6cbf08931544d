package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string // пространство ключей сервиса, например "marketplace:"
}

type RedisClient struct {
	client *redis.Client
	prefix string
	log    *zap.Logger
}

func NewRedisClient(opt Options, log *zap.Logger) (*RedisClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opt.Addr,
		Password: opt.Password,
		DB:       opt.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Info("Redis connected successfully", zap.String("addr", opt.Addr))

	return FromClient(rdb, opt.Prefix, log), nil
}

// FromClient оборачивает готовый клиент (в тестах поверх miniredis).
func FromClient(rdb *redis.Client, prefix string, log *zap.Logger) *RedisClient {
	return &RedisClient{client: rdb, prefix: prefix, log: log}
}

func (r *RedisClient) Close() error {
	return r.client.Close()
}

func (r *RedisClient) key(k string) string { return r.prefix + k }

func (r *RedisClient) SetRateLimit(ctx context.Context, key string, ttl time.Duration) error {
	return r.client.Set(ctx, r.key(key), "1", ttl).Err()
}

func (r *RedisClient) CheckRateLimit(ctx context.Context, key string) (bool, error) {
	exists, err := r.client.Exists(ctx, r.key(key)).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}

// Incr увеличивает счётчик; TTL ставится при создании ключа и не продлевается.
func (r *RedisClient) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	k := r.key(key)
	n, err := r.client.Incr(ctx, k).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 && ttl > 0 {
		if err := r.client.Expire(ctx, k, ttl).Err(); err != nil {
			return n, err
		}
	}
	return n, nil
}

// Blacklist для токенов
func (r *RedisClient) BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error {
	return r.client.Set(ctx, r.key("blacklist:"+jti), "1", ttl).Err()
}

func (r *RedisClient) IsTokenBlacklisted(ctx context.Context, jti string) (bool, error) {
	exists, err := r.client.Exists(ctx, r.key("blacklist:"+jti)).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}

func (r *RedisClient) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = r.key(k)
	}
	return r.client.Del(ctx, full...).Err()
}

func (r *RedisClient) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
