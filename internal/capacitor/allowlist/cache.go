// Package allowlist holds the in-memory mirror of the monitored account set.
package allowlist

import "sort"

// Cache is a set of account identifiers. It is not safe for concurrent use;
// the engine serialises access with its own lock.
type Cache struct {
	ids map[string]struct{}
}

// NewCache builds a cache seeded with ids. Duplicates and empty ids are dropped.
func NewCache(ids ...string) *Cache {
	c := &Cache{ids: make(map[string]struct{}, len(ids))}
	c.Merge(ids)
	return c
}

// Contains reports exact-match membership.
func (c *Cache) Contains(id string) bool {
	_, ok := c.ids[id]
	return ok
}

// Add inserts id and reports whether it was new.
func (c *Cache) Add(id string) bool {
	if id == "" {
		return false
	}
	if _, ok := c.ids[id]; ok {
		return false
	}
	c.ids[id] = struct{}{}
	return true
}

// Merge adds every id and returns how many were new.
func (c *Cache) Merge(ids []string) int {
	added := 0
	for _, id := range ids {
		if c.Add(id) {
			added++
		}
	}
	return added
}

// Len returns the number of monitored accounts.
func (c *Cache) Len() int {
	return len(c.ids)
}

// List returns the monitored accounts in sorted order.
func (c *Cache) List() []string {
	out := make([]string, 0, len(c.ids))
	for id := range c.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
