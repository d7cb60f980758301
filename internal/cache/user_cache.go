package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"gopher-accounts/internal/model"
)

// tombstone marks a deleted id. It is not valid JSON, so it cannot collide
// with a stored projection.
const tombstone = "deleted"

// UserCache stores public user projections; password digests never reach redis.
// Fill uses SET NX so it never replaces a projection or tombstone written by
// an update or delete.
type UserCache struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewUserCache(client *redisv9.Client, ttl time.Duration) *UserCache {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &UserCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *UserCache) Get(ctx context.Context, id uint) (*model.UserOut, bool, error) {
	raw, err := c.client.Get(ctx, c.key(id)).Bytes()
	if errors.Is(err, redisv9.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get user failed: %w", err)
	}
	return decodeEntry(raw)
}

func (c *UserCache) Fill(ctx context.Context, user model.UserOut) error {
	payload, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal user cache failed: %w", err)
	}
	if err := c.client.SetNX(ctx, c.key(user.ID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis fill user failed: %w", err)
	}
	return nil
}

func (c *UserCache) Set(ctx context.Context, user model.UserOut) error {
	payload, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal user cache failed: %w", err)
	}
	if err := c.client.Set(ctx, c.key(user.ID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set user failed: %w", err)
	}
	return nil
}

func (c *UserCache) MarkDeleted(ctx context.Context, id uint) error {
	if err := c.client.Set(ctx, c.key(id), tombstone, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis mark user deleted failed: %w", err)
	}
	return nil
}

func (c *UserCache) Delete(ctx context.Context, id uint) error {
	if err := c.client.Del(ctx, c.key(id)).Err(); err != nil {
		return fmt.Errorf("redis delete user failed: %w", err)
	}
	return nil
}

func (c *UserCache) key(id uint) string {
	return fmt.Sprintf("accounts:user:%d", id)
}

func decodeEntry(raw []byte) (*model.UserOut, bool, error) {
	if string(raw) == tombstone {
		return nil, true, nil
	}
	var user model.UserOut
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached user failed: %w", err)
	}
	return &user, true, nil
}
