// Package cmap provides a sharded concurrent map keyed by string.
//
// It backs the per-session registries of TableSync: session IDs map to
// engines or action logs, and lookups from concurrent HTTP handlers must
// not serialize on a single mutex. Keys are spread over a fixed set of
// buckets, each guarded by its own RWMutex.
//
// @design DS-0102
package cmap

import (
	"hash/maphash"
	"sync"
)

// DefaultBuckets is the bucket count used by New. Sixteen buckets keep
// contention low for the session counts a single node serves.
const DefaultBuckets = 16

type bucket[V any] struct {
	mu    sync.RWMutex
	items map[string]V
}

// Map is a concurrent map from string keys to values of type V.
// The zero value is not usable; construct with New or NewWithBuckets.
type Map[V any] struct {
	buckets []*bucket[V]
	mask    uint64
	seed    maphash.Seed
}

// New creates a map with DefaultBuckets buckets.
func New[V any]() *Map[V] {
	return NewWithBuckets[V](DefaultBuckets)
}

// NewWithBuckets creates a map with n buckets. n must be a power of two;
// other values fall back to DefaultBuckets.
func NewWithBuckets[V any](n int) *Map[V] {
	if n <= 0 || n&(n-1) != 0 {
		n = DefaultBuckets
	}
	m := &Map[V]{
		buckets: make([]*bucket[V], n),
		mask:    uint64(n - 1),
		seed:    maphash.MakeSeed(),
	}
	for i := range m.buckets {
		m.buckets[i] = &bucket[V]{items: make(map[string]V)}
	}
	return m
}

func (m *Map[V]) bucketFor(key string) *bucket[V] {
	return m.buckets[maphash.String(m.seed, key)&m.mask]
}

// Get returns the value stored under key.
func (m *Map[V]) Get(key string) (V, bool) {
	b := m.bucketFor(key)
	b.mu.RLock()
	v, ok := b.items[key]
	b.mu.RUnlock()
	return v, ok
}

// Set stores value under key, replacing any previous value.
func (m *Map[V]) Set(key string, value V) {
	b := m.bucketFor(key)
	b.mu.Lock()
	b.items[key] = value
	b.mu.Unlock()
}

// SetIfAbsent stores value under key only when the key is not present.
// It reports whether the value was stored.
func (m *Map[V]) SetIfAbsent(key string, value V) bool {
	b := m.bucketFor(key)
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.items[key]; ok {
		return false
	}
	b.items[key] = value
	return true
}

// Has reports whether key is present.
func (m *Map[V]) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Delete removes key. Removing an absent key is a no-op.
func (m *Map[V]) Delete(key string) {
	b := m.bucketFor(key)
	b.mu.Lock()
	delete(b.items, key)
	b.mu.Unlock()
}

// Pop removes key and returns the value it held.
func (m *Map[V]) Pop(key string) (V, bool) {
	b := m.bucketFor(key)
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.items[key]
	if ok {
		delete(b.items, key)
	}
	return v, ok
}

// Count returns the number of stored keys.
func (m *Map[V]) Count() int {
	n := 0
	for _, b := range m.buckets {
		b.mu.RLock()
		n += len(b.items)
		b.mu.RUnlock()
	}
	return n
}

// Range calls fn for every key-value pair until fn returns false.
// Iteration locks one bucket at a time, so concurrent writes to buckets
// not yet visited may or may not be observed.
func (m *Map[V]) Range(fn func(key string, value V) bool) {
	for _, b := range m.buckets {
		b.mu.RLock()
		for k, v := range b.items {
			if !fn(k, v) {
				b.mu.RUnlock()
				return
			}
		}
		b.mu.RUnlock()
	}
}

// Keys returns all keys in unspecified order.
func (m *Map[V]) Keys() []string {
	keys := make([]string, 0, m.Count())
	m.Range(func(key string, _ V) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}

// Values returns all values in unspecified order.
func (m *Map[V]) Values() []V {
	values := make([]V, 0, m.Count())
	m.Range(func(_ string, value V) bool {
		values = append(values, value)
		return true
	})
	return values
}

// Clear removes every key.
func (m *Map[V]) Clear() {
	for _, b := range m.buckets {
		b.mu.Lock()
		b.items = make(map[string]V)
		b.mu.Unlock()
	}
}
