package cache

import (
	"context"
	"sync"
	"time"

	"estatehub/internal/permission"

	"github.com/google/uuid"
)

// PrincipalCache keeps resolved admin principals so authenticated requests
// do not reload the admin row every time. Entries must be invalidated when
// an admin is edited or deleted.
type PrincipalCache interface {
	Get(ctx context.Context, adminID uuid.UUID) (permission.Principal, bool)
	Set(ctx context.Context, p permission.Principal)
	Invalidate(ctx context.Context, adminID uuid.UUID)
}

type memoryEntry struct {
	principal permission.Principal
	expiresAt time.Time
}

type MemoryCache struct {
	entries sync.Map // adminID -> memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{ttl: ttl, now: time.Now}
}

func (c *MemoryCache) Get(_ context.Context, adminID uuid.UUID) (permission.Principal, bool) {
	v, ok := c.entries.Load(adminID)
	if !ok {
		return permission.Principal{}, false
	}
	entry := v.(memoryEntry)
	if !c.now().Before(entry.expiresAt) {
		c.entries.Delete(adminID)
		return permission.Principal{}, false
	}
	return entry.principal, true
}

func (c *MemoryCache) Set(_ context.Context, p permission.Principal) {
	c.entries.Store(p.ID, memoryEntry{principal: p, expiresAt: c.now().Add(c.ttl)})
}

func (c *MemoryCache) Invalidate(_ context.Context, adminID uuid.UUID) {
	c.entries.Delete(adminID)
}

// Clear drops every entry.
func (c *MemoryCache) Clear() {
	c.entries.Range(func(key, _ interface{}) bool {
		c.entries.Delete(key)
		return true
	})
}
