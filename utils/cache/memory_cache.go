/*
 * Copyright 2025 The RuleGo Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package cache provides the in-memory store used for computed interceptor chains.
//
// Package cache 提供拦截器链的内存缓存。
package cache

import (
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rulego/rulego-aop/api/types"
)

// ErrCacheNotInitialized is returned by a NamespaceCache without a backing cache.
var ErrCacheNotInitialized = errors.New("cache not initialized")

// MemoryCache is an in-memory cache implementation.
// It stores key-value pairs with optional expiration and counts hits and misses.
type MemoryCache struct {
	items      map[string]item
	mu         sync.RWMutex
	stopGc     chan struct{}
	ticker     *time.Ticker
	gcInterval time.Duration
	hits       int64
	misses     int64
}

// item represents a cached item with its value and expiration time.
// The expiration time is stored as Unix nano timestamp (int64).
// If expiration is 0, the item will never expire.
type item struct {
	value      interface{}
	expiration int64
}

// NewMemoryCache creates a new MemoryCache instance.
// Garbage collection of expired items starts when the first expirable item is stored.
func NewMemoryCache(gcInterval time.Duration) *MemoryCache {
	c := &MemoryCache{
		items:      make(map[string]item),
		stopGc:     make(chan struct{}),
		gcInterval: time.Minute * 5,
	}
	if gcInterval > 0 {
		c.gcInterval = gcInterval
	}
	return c
}

// Set stores a value with the given key. ttl is a duration string such as "10m";
// an empty ttl means the item never expires.
func (c *MemoryCache) Set(key string, value interface{}, ttl string) error {
	var expiration int64
	if ttl != "" {
		dur, err := time.ParseDuration(ttl)
		if err != nil {
			return err
		}
		if dur > 0 {
			expiration = time.Now().Add(dur).UnixNano()
		}
	}

	c.mu.Lock()
	c.items[key] = item{value: value, expiration: expiration}
	shouldStartGC := expiration > 0 && c.ticker == nil
	c.mu.Unlock()

	if shouldStartGC {
		c.StartGC()
	}
	return nil
}

// Get returns the value stored under key, or nil if absent or expired.
func (c *MemoryCache) Get(key string) interface{} {
	c.mu.RLock()
	it, found := c.items[key]
	c.mu.RUnlock()
	if !found || it.expired(time.Now().UnixNano()) {
		atomic.AddInt64(&c.misses, 1)
		return nil
	}
	atomic.AddInt64(&c.hits, 1)
	return it.value
}

// Has reports whether a live item exists under key.
func (c *MemoryCache) Has(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	it, found := c.items[key]
	return found && !it.expired(time.Now().UnixNano())
}

func (c *MemoryCache) Delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	return nil
}

// DeleteByPrefix removes all cache items with the given prefix.
func (c *MemoryCache) DeleteByPrefix(prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.items {
		if strings.HasPrefix(k, prefix) {
			delete(c.items, k)
		}
	}
	return nil
}

// Len returns the number of stored items, expired ones included until collected.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Stats returns the hit and miss counters.
func (c *MemoryCache) Stats() (hits, misses int64) {
	return atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses)
}

// StartGC starts periodic removal of expired items if any item can expire.
func (c *MemoryCache) StartGC() {
	c.mu.Lock()
	if c.ticker != nil || !c.hasExpirableLocked() {
		c.mu.Unlock()
		return
	}
	ticker := time.NewTicker(c.gcInterval)
	stop := make(chan struct{})
	c.ticker = ticker
	c.stopGc = stop
	c.mu.Unlock()

	go func() {
		for {
			select {
			case <-ticker.C:
				c.deleteExpired()
			case <-stop:
				ticker.Stop()
				c.mu.Lock()
				c.ticker = nil
				c.mu.Unlock()
				return
			}
		}
	}()
}

// StopGC stops the collector started by StartGC.
func (c *MemoryCache) StopGC() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ticker != nil && c.stopGc != nil {
		select {
		case <-c.stopGc:
		default:
			close(c.stopGc)
		}
	}
}

func (c *MemoryCache) hasExpirableLocked() bool {
	for _, itm := range c.items {
		if itm.expiration > 0 {
			return true
		}
	}
	return false
}

func (c *MemoryCache) deleteExpired() {
	now := time.Now().UnixNano()
	c.mu.Lock()
	for k, v := range c.items {
		if v.expired(now) {
			delete(c.items, k)
		}
	}
	remaining := c.hasExpirableLocked()
	c.mu.Unlock()

	if !remaining {
		c.StopGC()
	}
}

func (it item) expired(now int64) bool {
	return it.expiration > 0 && now > it.expiration
}

// NamespaceCache prefixes every key so several owners can share one cache.
// NamespaceCache 为所有键增加命名空间前缀，使多个使用方可以共享同一缓存。
type NamespaceCache struct {
	Cache     types.Cache // 底层缓存实现
	Namespace string      // 命名空间前缀
}

// NewNamespaceCache returns nil when cache is nil.
func NewNamespaceCache(cache types.Cache, namespace string) *NamespaceCache {
	if cache == nil {
		return nil
	}
	return &NamespaceCache{Cache: cache, Namespace: namespace}
}

func (c *NamespaceCache) Set(key string, value interface{}, ttl string) error {
	if c == nil || c.Cache == nil {
		return ErrCacheNotInitialized
	}
	return c.Cache.Set(c.Namespace+key, value, ttl)
}

func (c *NamespaceCache) Get(key string) interface{} {
	if c == nil || c.Cache == nil {
		return nil
	}
	return c.Cache.Get(c.Namespace + key)
}

func (c *NamespaceCache) Has(key string) bool {
	if c == nil || c.Cache == nil {
		return false
	}
	return c.Cache.Has(c.Namespace + key)
}

func (c *NamespaceCache) Delete(key string) error {
	if c == nil || c.Cache == nil {
		return ErrCacheNotInitialized
	}
	return c.Cache.Delete(c.Namespace + key)
}

func (c *NamespaceCache) DeleteByPrefix(prefix string) error {
	if c == nil || c.Cache == nil {
		return ErrCacheNotInitialized
	}
	return c.Cache.DeleteByPrefix(c.Namespace + prefix)
}

// Clear removes every key of this namespace.
func (c *NamespaceCache) Clear() error {
	return c.DeleteByPrefix("")
}

var _ types.Cache = (*NamespaceCache)(nil)

var _ types.Cache = (*MemoryCache)(nil)
