package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tallyfy/denizen-assets/internal/database"
)

const keyPrefix = "asset:"

type DigestRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewDigestRepository(client *redis.Client, ttl time.Duration) *DigestRepository {
	return &DigestRepository{
		client: client,
		ttl:    ttl,
	}
}

// NewClient opens a client and pings it, so misconfiguration shows up at
// start-up rather than on the first asset.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return client, nil
}

var _ database.DigestCache = (*DigestRepository)(nil)

func (r *DigestRepository) GetDigest(ctx context.Context, name string) (string, bool, error) {
	digest, err := r.client.Get(ctx, keyPrefix+name).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return digest, true, nil
}

func (r *DigestRepository) SetDigest(ctx context.Context, name, digest string) error {
	return r.client.Set(ctx, keyPrefix+name, digest, r.ttl).Err()
}

func (r *DigestRepository) DeleteDigest(ctx context.Context, name string) error {
	return r.client.Del(ctx, keyPrefix+name).Err()
}
