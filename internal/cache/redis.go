package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/pribylovaa/session-auth/internal/models"
	"github.com/redis/go-redis/v9"
)

// Redis — кэш сессий поверх Redis. Ключ: prefix + "user:" + id, значение — JSON.
// Записи хранятся без expiry, как и в памяти.
type Redis struct {
	rdb    *redis.Client
	prefix string
}

// NewRedis создаёт клиент Redis из URL (например, redis://:pass@host:6379/0)
// и проверяет соединение.
func NewRedis(ctx context.Context, redisURL, prefix string) (*Redis, error) {
	const op = "cache.NewRedis"

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rdb := redis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Redis{rdb: rdb, prefix: prefix}, nil
}

func (c *Redis) key(id uuid.UUID) string { return c.prefix + Key(id) }

func (c *Redis) Put(ctx context.Context, id uuid.UUID, user models.SessionUser) error {
	const op = "cache.redis.Put"

	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := c.rdb.Set(ctx, c.key(id), raw, 0).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (c *Redis) Get(ctx context.Context, id uuid.UUID) (models.SessionUser, bool, error) {
	const op = "cache.redis.Get"

	raw, err := c.rdb.Get(ctx, c.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.SessionUser{}, false, nil
		}

		return models.SessionUser{}, false, fmt.Errorf("%s: %w", op, err)
	}

	var user models.SessionUser
	if err := json.Unmarshal(raw, &user); err != nil {
		return models.SessionUser{}, false, fmt.Errorf("%s: %w", op, err)
	}

	return user, true, nil
}

func (c *Redis) Delete(ctx context.Context, id uuid.UUID) error {
	const op = "cache.redis.Delete"

	if err := c.rdb.Del(ctx, c.key(id)).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Ping проверяет доступность Redis (readiness).
func (c *Redis) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *Redis) Close() error { return c.rdb.Close() }

var _ SessionCache = (*Redis)(nil)
