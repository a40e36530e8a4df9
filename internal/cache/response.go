// Package cache holds recently resolved answers in memory.
package cache

import (
	"container/list"
	"sync"

	"github.com/descubra-ms/guata/internal/domain"
)

// DefaultCapacity is used when a non-positive capacity is requested.
const DefaultCapacity = 100

type entry struct {
	value   *domain.Response
	element *list.Element
}

// ResponseCache is a bounded FIFO cache of responses keyed by normalized
// question. Reads do not refresh an entry's position, and re-putting an
// existing key replaces its value in place.
type ResponseCache struct {
	mu       sync.Mutex
	capacity int
	items    map[string]*entry
	order    *list.List
}

// NewResponseCache creates a cache holding at most capacity responses.
func NewResponseCache(capacity int) *ResponseCache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &ResponseCache{
		capacity: capacity,
		items:    make(map[string]*entry, capacity),
		order:    list.New(),
	}
}

// Get returns a copy of the cached response for query.
func (c *ResponseCache) Get(query string) (*domain.Response, bool) {
	key := domain.NormalizeQuery(query)

	c.mu.Lock()
	defer c.mu.Unlock()

	ent, ok := c.items[key]
	if !ok {
		return nil, false
	}
	return ent.value.Copy(), true
}

// Put stores a copy of resp under the normalized query, evicting the oldest
// inserted entry when the cache is full.
func (c *ResponseCache) Put(query string, resp *domain.Response) {
	if resp == nil {
		return
	}
	key := domain.NormalizeQuery(query)
	stored := resp.Copy()

	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.items[key]; ok {
		ent.value = stored
		return
	}

	for len(c.items) >= c.capacity {
		c.evictOldest()
	}

	elem := c.order.PushBack(key)
	c.items[key] = &entry{value: stored, element: elem}
}

// Len reports the number of cached responses.
func (c *ResponseCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Capacity reports the configured bound.
func (c *ResponseCache) Capacity() int {
	return c.capacity
}

func (c *ResponseCache) evictOldest() {
	front := c.order.Front()
	if front == nil {
		return
	}
	key := front.Value.(string)
	c.order.Remove(front)
	delete(c.items, key)
}
