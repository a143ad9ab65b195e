package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/GTDGit/carniceria_api/internal/utils"
)

// SessionStore keeps the admin session flags.
type SessionStore interface {
	Create(ctx context.Context) (string, error)
	Valid(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
}

// SessionCache stores admin sessions in Redis as session:{id} = "true".
// Sessions do not expire; logout removes them.
type SessionCache struct {
	redis *RedisClient
}

// NewSessionCache creates a new SessionCache.
func NewSessionCache(redis *RedisClient) *SessionCache {
	return &SessionCache{redis: redis}
}

func (c *SessionCache) key(id string) string {
	return fmt.Sprintf("session:%s", id)
}

// Create stores a new session flag and returns its id.
func (c *SessionCache) Create(ctx context.Context) (string, error) {
	id, err := utils.GenerateSessionID()
	if err != nil {
		return "", err
	}
	if err := c.redis.Set(ctx, c.key(id), "true", 0); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}
	return id, nil
}

// Valid reports whether the session flag is set.
func (c *SessionCache) Valid(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, nil
	}
	v, err := c.redis.Get(ctx, c.key(id))
	if errors.Is(err, ErrMiss) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return v == "true", nil
}

// Delete clears the session flag.
func (c *SessionCache) Delete(ctx context.Context, id string) error {
	return c.redis.Delete(ctx, c.key(id))
}

// MemorySessions is the SessionStore used when Redis is disabled.
type MemorySessions struct {
	mu       sync.RWMutex
	sessions map[string]struct{}
}

// NewMemorySessions creates an empty MemorySessions.
func NewMemorySessions() *MemorySessions {
	return &MemorySessions{sessions: make(map[string]struct{})}
}

func (m *MemorySessions) Create(context.Context) (string, error) {
	id, err := utils.GenerateSessionID()
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	m.sessions[id] = struct{}{}
	m.mu.Unlock()
	return id, nil
}

func (m *MemorySessions) Valid(_ context.Context, id string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.sessions[id]
	return ok, nil
}

func (m *MemorySessions) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}
