package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"delegatebooking/internal/domain"
)

const cartKeyPrefix = "cart:session:"

// cmdable is the part of the go-redis client used by the store.
type cmdable interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type redisCartStore struct {
	client cmdable
	ttl    time.Duration
}

// NewRedisCartStore returns a CartSessionStore that keeps carts as JSON under a TTL.
func NewRedisCartStore(client *redis.Client, ttl time.Duration) domain.CartSessionStore {
	return &redisCartStore{client: client, ttl: ttl}
}

func (s *redisCartStore) Save(ctx context.Context, sessionID string, c *domain.Cart) error {
	body, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}
	return s.client.Set(ctx, cartKeyPrefix+sessionID, body, s.ttl).Err()
}

// Load returns domain.ErrNotFound when the session has no cart or it expired.
func (s *redisCartStore) Load(ctx context.Context, sessionID string) (*domain.Cart, error) {
	raw, err := s.client.Get(ctx, cartKeyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	c := &domain.Cart{}
	if err := json.Unmarshal(raw, c); err != nil {
		return nil, fmt.Errorf("unmarshal cart: %w", err)
	}
	if c.DelegateIDs == nil {
		c.DelegateIDs = make(map[int]string)
	}
	return c, nil
}

func (s *redisCartStore) Delete(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, cartKeyPrefix+sessionID).Err()
}
