package lru

import (
	"sync"
	"time"
)

// EvictCallback is called with every entry leaving the cache
type EvictCallback[K comparable, V any] func(key K, value V)

// LRU thread-safe least recently used cache with optional expiry.
// Expired entries are dropped when they are next looked at.
type LRU[K comparable, V any] struct {
	mu      sync.Mutex
	size    int
	ttl     time.Duration
	items   map[K]*Entry[K, V]
	order   list[K, V]
	onEvict EvictCallback[K, V]
}

// NewLRU returns an empty cache.
//
// A size of 0 makes the cache unbounded. A ttl of 0 turns expiry off.
func NewLRU[K comparable, V any](size int, onEvict EvictCallback[K, V], ttl time.Duration) *LRU[K, V] {
	if size < 0 {
		size = 0
	}
	if ttl < 0 {
		ttl = 0
	}
	c := &LRU[K, V]{size: size, ttl: ttl, items: make(map[K]*Entry[K, V]), onEvict: onEvict}
	c.order.init()
	return c
}

// Add stores value under key as the newest entry. Returns true if the
// oldest entry was evicted to make room.
func (c *LRU[K, V]) Add(key K, value V) (evicted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.items[key]; ok {
		ent.Value, ent.ExpiresAt = value, c.expiry()
		c.order.moveToFront(ent)
		return false
	}

	ent := &Entry[K, V]{Key: key, Value: value, ExpiresAt: c.expiry()}
	c.order.pushFront(ent)
	c.items[key] = ent

	if c.size > 0 && c.order.len > c.size {
		c.removeEntry(c.order.back())
		return true
	}
	return false
}

// Get looks up key and marks it as the most recently used
func (c *LRU[K, V]) Get(key K) (value V, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ent, ok := c.items[key]
	if !ok {
		return value, false
	}
	if c.expired(ent, time.Now()) {
		c.removeEntry(ent)
		return value, false
	}
	c.order.moveToFront(ent)
	return ent.Value, true
}

// Remove evicts key, returning whether it was cached
func (c *LRU[K, V]) Remove(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ent, ok := c.items[key]; ok {
		c.removeEntry(ent)
		return true
	}
	return false
}

// Purge evicts every entry, oldest first
func (c *LRU[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for ent := c.order.back(); ent != nil; ent = c.order.back() {
		c.removeEntry(ent)
	}
}

// Keys live keys from oldest to newest
func (c *LRU[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]K, 0, c.order.len)
	now := time.Now()
	for ent := c.order.back(); ent != nil; ent = ent.prevEntry() {
		if !c.expired(ent, now) {
			keys = append(keys, ent.Key)
		}
	}
	return keys
}

// Values live values from oldest to newest
func (c *LRU[K, V]) Values() []V {
	c.mu.Lock()
	defer c.mu.Unlock()
	values := make([]V, 0, c.order.len)
	now := time.Now()
	for ent := c.order.back(); ent != nil; ent = ent.prevEntry() {
		if !c.expired(ent, now) {
			values = append(values, ent.Value)
		}
	}
	return values
}

// Len number of entries, expired ones not yet dropped included
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.len
}

// Cap returns the capacity of the cache
func (c *LRU[K, V]) Cap() int {
	return c.size
}

func (c *LRU[K, V]) expiry() time.Time {
	if c.ttl == 0 {
		return time.Time{}
	}
	return time.Now().Add(c.ttl)
}

func (c *LRU[K, V]) expired(ent *Entry[K, V], now time.Time) bool {
	return !ent.ExpiresAt.IsZero() && now.After(ent.ExpiresAt)
}

// removeEntry has to be called with lock
func (c *LRU[K, V]) removeEntry(ent *Entry[K, V]) {
	c.order.remove(ent)
	delete(c.items, ent.Key)
	if c.onEvict != nil {
		c.onEvict(ent.Key, ent.Value)
	}
}

// Entry is an LRU entry
type Entry[K comparable, V any] struct {
	next, prev *Entry[K, V]
	list       *list[K, V]

	Key   K
	Value V
	// zero when the entry never expires
	ExpiresAt time.Time
}

func (e *Entry[K, V]) prevEntry() *Entry[K, V] {
	if p := e.prev; e.list != nil && p != &e.list.root {
		return p
	}
	return nil
}

// list ring with a sentinel root, root.next is the newest entry
type list[K comparable, V any] struct {
	root Entry[K, V]
	len  int
}

func (l *list[K, V]) init() {
	l.root.next, l.root.prev = &l.root, &l.root
	l.len = 0
}

func (l *list[K, V]) back() *Entry[K, V] {
	if l.len == 0 {
		return nil
	}
	return l.root.prev
}

func (l *list[K, V]) pushFront(e *Entry[K, V]) {
	l.link(e, &l.root)
	e.list = l
	l.len++
}

func (l *list[K, V]) moveToFront(e *Entry[K, V]) {
	if e.list != l || l.root.next == e {
		return
	}
	l.unlink(e)
	l.link(e, &l.root)
}

func (l *list[K, V]) remove(e *Entry[K, V]) {
	l.unlink(e)
	e.next, e.prev, e.list = nil, nil, nil
	l.len--
}

// link inserts e after at
func (l *list[K, V]) link(e, at *Entry[K, V]) {
	e.prev, e.next = at, at.next
	e.prev.next = e
	e.next.prev = e
}

func (l *list[K, V]) unlink(e *Entry[K, V]) {
	e.prev.next = e.next
	e.next.prev = e.prev
}
