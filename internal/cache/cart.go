// Package cache holds the Redis-backed collaborators: the cart session store
// and a read-through cache in front of the menu.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/xenking/hotel-delivery/internal/domain/cart"
)

var _ cart.Store = (*CartStore)(nil)

// CartStore keeps cart sessions in Redis. Every save restarts the TTL, so
// abandoned carts expire on their own.
type CartStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCartStore returns a CartStore expiring idle carts after ttl.
func NewCartStore(client *redis.Client, ttl time.Duration) *CartStore {
	return &CartStore{client: client, ttl: ttl}
}

// Get loads a session. Unknown or expired carts yield cart.ErrNotFound.
func (s *CartStore) Get(ctx context.Context, id string) (*cart.Session, error) {
	data, err := s.client.Get(ctx, cartKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, cart.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get cart %q: %w", id, err)
	}

	var sess cart.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("unmarshal cart %q: %w", id, err)
	}
	return &sess, nil
}

// Save stores a session and resets its TTL.
func (s *CartStore) Save(ctx context.Context, sess *cart.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal cart %q: %w", sess.ID, err)
	}
	if err := s.client.Set(ctx, cartKey(sess.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set cart %q: %w", sess.ID, err)
	}
	return nil
}

// Delete removes a session. Deleting a missing cart is not an error.
func (s *CartStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, cartKey(id)).Err(); err != nil {
		return fmt.Errorf("redis delete cart %q: %w", id, err)
	}
	return nil
}

func cartKey(id string) string {
	return fmt.Sprintf("cart:%s", id)
}
