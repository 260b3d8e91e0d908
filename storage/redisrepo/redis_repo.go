// Package redisrepo keeps the credential store in a single Redis hash so that
// Clear is one DEL and the whole session disappears atomically.
package redisrepo

import (
	"context"
	"errors"
	"fmt"

	apperrors "github.com/jrsteele09/go-appeals-client/internal/errors"
	"github.com/jrsteele09/go-appeals-client/storage"
	"github.com/redis/go-redis/v9"
)

var _ storage.Repo = (*RedisRepo)(nil)

type RedisRepo struct {
	client redis.UniversalClient
	key    string
}

// New stores every logical key as a field of the hash named key.
func New(client redis.UniversalClient, key string) *RedisRepo {
	return &RedisRepo{client: client, key: key}
}

// Connect opens a client and verifies the server answers PING.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("[redisrepo.Connect] ping %s: %w", addr, err)
	}
	return client, nil
}

func (r *RedisRepo) Get(ctx context.Context, key string) (string, error) {
	v, err := r.client.HGet(ctx, r.key, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", apperrors.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("[RedisRepo.Get] %s: %w", key, err)
	}
	return v, nil
}

func (r *RedisRepo) Set(ctx context.Context, key, value string) error {
	if err := r.client.HSet(ctx, r.key, key, value).Err(); err != nil {
		return fmt.Errorf("[RedisRepo.Set] %s: %w", key, err)
	}
	return nil
}

func (r *RedisRepo) Remove(ctx context.Context, key string) error {
	if err := r.client.HDel(ctx, r.key, key).Err(); err != nil {
		return fmt.Errorf("[RedisRepo.Remove] %s: %w", key, err)
	}
	return nil
}

func (r *RedisRepo) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("[RedisRepo.Clear] %w", err)
	}
	return nil
}
