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

package types

import (
	"math"

	"github.com/rulego/rulego-aop/utils/pool"
)

// Pool is the interface for a coroutine pool used by asynchronous proxy calls.
// Pool 协程池接口
type Pool interface {
	//Submit 往协程池提交一个任务
	//如果协程池满返回错误
	Submit(task func()) error
	//Release 释放
	Release()
}

// Cache stores method chains keyed by string. Implementations must be safe
// for concurrent use.
// Cache 方法拦截链缓存接口，实现必须并发安全。
type Cache interface {
	// Set stores a value, ttl "" means it never expires.
	Set(key string, value interface{}, ttl string) error
	// Get returns nil when the key is absent or expired.
	Get(key string) interface{}
	Has(key string) bool
	Delete(key string) error
	DeleteByPrefix(prefix string) error
}

// Config defines the configuration shared by proxy factories and proxies.
type Config struct {
	// Logger is the logging interface, defaulting to `SharedLogger()`.
	Logger Logger
	// Pool runs Proxy.InvokeAsync calls. If not configured, a WorkerPool is started lazily.
	Pool Pool
	// Invoker performs the real call at the end of the chain. Defaults to reflective invocation.
	Invoker Invoker
	// TypeResolver resolves type names in advice declarations, defaulting to DefaultTypeRegistry.
	TypeResolver TypeResolver
	// ChainCache stores computed interceptor chains per (method, target type).
	// If nil, each AdvisedSupport creates its own in-memory cache.
	ChainCache Cache
	// DisableChainCache recomputes the chain on every call.
	DisableChainCache bool
}

// NewConfig creates a new Config with default values and applies the provided options.
func NewConfig(opts ...Option) Config {
	c := &Config{
		Logger:       SharedLogger(),
		TypeResolver: DefaultTypeRegistry,
	}

	for _, opt := range opts {
		_ = opt(c)
	}
	return *c
}

// DefaultPool provides a default coroutine pool.
func DefaultPool() Pool {
	wp := &pool.WorkerPool{MaxWorkersCount: math.MaxInt32}
	wp.Start()
	return wp
}
