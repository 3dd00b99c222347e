// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pipeline

import (
	"sync"
	"sync/atomic"
)

// ID is a small, stable handle for an interned State. IDs start at 1;
// 0 is never handed out.
type ID uint32

// Cache interns pipeline states by hash.
//
// Thread Safety:
// Cache is safe for concurrent use. Lookups take a read lock; the first
// Intern of a state takes the write lock with double-checked insertion.
type Cache struct {
	mu     sync.RWMutex
	ids    map[uint64]ID
	states []State

	// hits and misses count Intern results.
	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{ids: make(map[uint64]ID)}
}

// Intern returns the ID for s, assigning the next free one on first sight.
func (c *Cache) Intern(s State) ID {
	key := s.Hash()

	c.mu.RLock()
	id, ok := c.ids[key]
	c.mu.RUnlock()
	if ok {
		c.hits.Add(1)
		return id
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if id, ok := c.ids[key]; ok {
		c.hits.Add(1)
		return id
	}

	c.states = append(c.states, s)
	id = ID(len(c.states)) //nolint:gosec // pipeline count is far below uint32 max
	c.ids[key] = id
	c.misses.Add(1)
	return id
}

// State returns the state interned as id.
func (c *Cache) State(id ID) (State, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if id == 0 || int(id) > len(c.states) {
		return State{}, false
	}
	return c.states[id-1], true
}

// Len returns the number of interned states.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.states)
}

// Stats returns Intern hit and miss counts.
func (c *Cache) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}

// HitRate returns the fraction of Intern calls that found an existing state.
func (c *Cache) HitRate() float64 {
	hits, misses := c.Stats()
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
