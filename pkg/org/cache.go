package org

import (
	"sync"

	"github.com/tendant/org-mgmt/pkg/domain"
)

// Cache is an optional process-wide cache of organization lookups, keyed by
// normalized name. It is passed explicitly into the registry, never held as
// an ambient singleton, and the registry invalidates entries on rename and
// delete. All methods are safe on a nil receiver so the cache stays optional.
type Cache struct {
	mu     sync.RWMutex
	byName map[string]domain.Organization
}

// NewCache creates an empty organization cache.
func NewCache() *Cache {
	return &Cache{byName: make(map[string]domain.Organization)}
}

func (c *Cache) get(name string) (*domain.Organization, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	org, ok := c.byName[name]
	if !ok {
		return nil, false
	}
	cp := org
	return &cp, true
}

func (c *Cache) put(org *domain.Organization) {
	if c == nil || org == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byName[org.Name] = *org
}

func (c *Cache) invalidate(names ...string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, name := range names {
		delete(c.byName, name)
	}
}
