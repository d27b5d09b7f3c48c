package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const redisPrefix = "boatyard:sess:"

// RedisStore keeps sessions in Redis so several server processes can share
// one login flow.
type RedisStore struct {
	client *goredis.Client
}

// RedisConfig holds connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// OpenRedisStore connects and pings the server.
func OpenRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisStore{client: client}, nil
}

// Put implements Store.
func (s *RedisStore) Put(ctx context.Context, id string, st State, ttl time.Duration) error {
	data, err := encode(st)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, redisPrefix+id, data, ttl).Err()
}

// Take implements Store.
func (s *RedisStore) Take(ctx context.Context, id string) (*State, error) {
	data, err := s.client.GetDel(ctx, redisPrefix+id).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis getdel: %w", err)
	}
	return decode(data)
}

// Close implements Store.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks that the server still answers.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
