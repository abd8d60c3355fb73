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

package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute)

	t.Run("SetAndGet", func(t *testing.T) {
		assert.Nil(t, c.Set("key1", "value1", ""))
		assert.Equal(t, "value1", c.Get("key1"))

		// 测试过期时间
		assert.Nil(t, c.Set("key2", "value2", "50ms"))
		time.Sleep(100 * time.Millisecond)
		assert.Nil(t, c.Get("key2"))
		assert.False(t, c.Has("key2"))
	})

	t.Run("BadTTL", func(t *testing.T) {
		assert.Error(t, c.Set("key3", "value3", "abc"))
	})

	t.Run("DeleteByPrefix", func(t *testing.T) {
		_ = c.Set("a:1", 1, "")
		_ = c.Set("a:2", 2, "")
		_ = c.Set("b:1", 3, "")
		assert.Nil(t, c.DeleteByPrefix("a:"))
		assert.False(t, c.Has("a:1"))
		assert.False(t, c.Has("a:2"))
		assert.True(t, c.Has("b:1"))
	})

	t.Run("Stats", func(t *testing.T) {
		cc := NewMemoryCache(0)
		_ = cc.Set("k", "v", "")
		cc.Get("k")
		cc.Get("missing")
		hits, misses := cc.Stats()
		assert.Equal(t, int64(1), hits)
		assert.Equal(t, int64(1), misses)
		assert.Equal(t, 1, cc.Len())
	})
	c.StopGC()
}

func TestNamespaceCache(t *testing.T) {
	assert.Nil(t, NewNamespaceCache(nil, "x"))
	var nilCache *NamespaceCache
	assert.Equal(t, ErrCacheNotInitialized, nilCache.Set("k", 1, ""))
	assert.Nil(t, nilCache.Get("k"))

	shared := NewMemoryCache(0)
	ns1 := NewNamespaceCache(shared, "p1:")
	ns2 := NewNamespaceCache(shared, "p2:")
	_ = ns1.Set("m", 1, "")
	_ = ns2.Set("m", 2, "")
	assert.Equal(t, 1, ns1.Get("m"))
	assert.Equal(t, 2, ns2.Get("m"))

	assert.Nil(t, ns1.Clear())
	assert.False(t, ns1.Has("m"))
	assert.True(t, ns2.Has("m"))
	assert.True(t, shared.Has("p2:m"))
}
