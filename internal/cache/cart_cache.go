package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/GTDGit/carniceria_api/internal/models"
)

// CartTTL is how long an untouched cart is kept.
const CartTTL = 30 * 24 * time.Hour

// CartStore persists cart items by cart id. Load returns an empty list for an
// unknown cart.
type CartStore interface {
	Load(ctx context.Context, id string) ([]models.CartItem, error)
	Save(ctx context.Context, id string, items []models.CartItem) error
	Delete(ctx context.Context, id string) error
}

// CartCache stores carts in Redis as JSON under cart:{id}.
type CartCache struct {
	redis *RedisClient
	ttl   time.Duration
}

// NewCartCache creates a new CartCache.
func NewCartCache(redis *RedisClient) *CartCache {
	return &CartCache{redis: redis, ttl: CartTTL}
}

func (c *CartCache) key(id string) string {
	return fmt.Sprintf("cart:%s", id)
}

// Load reads the cart. Every item goes through product normalization on the
// way in.
func (c *CartCache) Load(ctx context.Context, id string) ([]models.CartItem, error) {
	raw, err := c.redis.Get(ctx, c.key(id))
	if errors.Is(err, ErrMiss) {
		return []models.CartItem{}, nil
	}
	if err != nil {
		return nil, err
	}

	var items []models.CartItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cart: %w", err)
	}
	return items, nil
}

// Save replaces the cart and refreshes its TTL.
func (c *CartCache) Save(ctx context.Context, id string, items []models.CartItem) error {
	if items == nil {
		items = []models.CartItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to marshal cart: %w", err)
	}
	return c.redis.Set(ctx, c.key(id), string(data), c.ttl)
}

// Delete removes the cart.
func (c *CartCache) Delete(ctx context.Context, id string) error {
	return c.redis.Delete(ctx, c.key(id))
}

// MemoryCarts is the CartStore used when Redis is disabled.
type MemoryCarts struct {
	mu    sync.RWMutex
	carts map[string][]models.CartItem
}

// NewMemoryCarts creates an empty MemoryCarts.
func NewMemoryCarts() *MemoryCarts {
	return &MemoryCarts{carts: make(map[string][]models.CartItem)}
}

func (m *MemoryCarts) Load(_ context.Context, id string) ([]models.CartItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	items := m.carts[id]
	out := make([]models.CartItem, len(items))
	for i, it := range items {
		out[i] = models.CartItem{Product: it.Product.Clone(), Quantity: it.Quantity}
	}
	return out, nil
}

func (m *MemoryCarts) Save(_ context.Context, id string, items []models.CartItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := make([]models.CartItem, len(items))
	for i, it := range items {
		stored[i] = models.CartItem{Product: it.Product.Clone(), Quantity: it.Quantity}
	}
	m.carts[id] = stored
	return nil
}

func (m *MemoryCarts) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.carts, id)
	m.mu.Unlock()
	return nil
}
