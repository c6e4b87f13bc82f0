package cache

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/hotel-delivery/internal/domain/menu"
)

const menuKey = "menu:all"

var _ menu.Repository = (*Menu)(nil)

// Menu is a read-through cache of the full menu list in front of a
// menu.Repository. Every write through Menu drops the cached list.
//
// Single-item reads bypass the cache: checkout must see current
// availability and prices.
type Menu struct {
	next   menu.Repository
	client *redis.Client
	ttl    time.Duration
}

// NewMenu wraps next with a cache whose entries live for ttl plus up to
// 20% jitter.
func NewMenu(next menu.Repository, client *redis.Client, ttl time.Duration) *Menu {
	return &Menu{next: next, client: client, ttl: ttl}
}

// List serves the menu from Redis, loading it from the repository on a miss.
// Redis failures degrade to a direct read.
func (m *Menu) List(ctx context.Context) ([]menu.Item, error) {
	lg := zctx.From(ctx)

	data, err := m.client.Get(ctx, menuKey).Bytes()
	switch {
	case err == nil:
		var items []menu.Item
		if err := json.Unmarshal(data, &items); err == nil {
			return items, nil
		}
		lg.Warn("Discarding corrupt menu cache entry")
	case !errors.Is(err, redis.Nil):
		lg.Warn("Menu cache read failed", zap.Error(err))
	}

	items, err := m.next.List(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(items); err == nil {
		if err := m.client.Set(ctx, menuKey, data, m.expiry()).Err(); err != nil {
			lg.Warn("Menu cache write failed", zap.Error(err))
		}
	}
	return items, nil
}

func (m *Menu) GetByID(ctx context.Context, id string) (*menu.Item, error) {
	return m.next.GetByID(ctx, id)
}

func (m *Menu) GetByIDs(ctx context.Context, ids []string) ([]menu.Item, error) {
	return m.next.GetByIDs(ctx, ids)
}

func (m *Menu) Create(ctx context.Context, item *menu.Item) error {
	if err := m.next.Create(ctx, item); err != nil {
		return err
	}
	m.invalidate(ctx)
	return nil
}

func (m *Menu) Update(ctx context.Context, item *menu.Item) error {
	if err := m.next.Update(ctx, item); err != nil {
		return err
	}
	m.invalidate(ctx)
	return nil
}

func (m *Menu) Delete(ctx context.Context, id string) error {
	if err := m.next.Delete(ctx, id); err != nil {
		return err
	}
	m.invalidate(ctx)
	return nil
}

// SetPackagingCharges writes the materialized charges and drops the cached list.
func (m *Menu) SetPackagingCharges(ctx context.Context, charges map[string]decimal.Decimal) error {
	if err := m.next.SetPackagingCharges(ctx, charges); err != nil {
		return err
	}
	m.invalidate(ctx)
	return nil
}

func (m *Menu) invalidate(ctx context.Context) {
	if err := m.client.Del(ctx, menuKey).Err(); err != nil {
		zctx.From(ctx).Warn("Menu cache invalidation failed", zap.Error(err))
	}
}

func (m *Menu) expiry() time.Duration {
	if m.ttl <= 0 {
		return 0
	}
	jitter := time.Duration(rand.Int64N(int64(m.ttl)/5 + 1))
	return m.ttl + jitter
}
