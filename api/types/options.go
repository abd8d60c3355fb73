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

// Option is a function type that modifies the Config.
type Option func(*Config) error

// WithLogger is an option that sets the logger of the Config.
func WithLogger(logger Logger) Option {
	return func(c *Config) error {
		c.Logger = logger
		return nil
	}
}

// WithPool is an option that sets the pool of the Config.
func WithPool(pool Pool) Option {
	return func(c *Config) error {
		c.Pool = pool
		return nil
	}
}

// WithDefaultPool starts a WorkerPool with the given maximum worker count (0 means unbounded).
func WithDefaultPool(maxWorkers int) Option {
	return func(c *Config) error {
		if maxWorkers <= 0 {
			maxWorkers = math.MaxInt32
		}
		wp := &pool.WorkerPool{MaxWorkersCount: maxWorkers}
		wp.Start()
		c.Pool = wp
		return nil
	}
}

// WithInvoker is an option that sets the invoker used at the end of every chain.
func WithInvoker(invoker Invoker) Option {
	return func(c *Config) error {
		c.Invoker = invoker
		return nil
	}
}

// WithTypeResolver is an option that sets the type resolver for advice declarations.
func WithTypeResolver(resolver TypeResolver) Option {
	return func(c *Config) error {
		c.TypeResolver = resolver
		return nil
	}
}

// WithChainCache is an option that sets a shared chain cache.
func WithChainCache(cache Cache) Option {
	return func(c *Config) error {
		c.ChainCache = cache
		return nil
	}
}

// WithoutChainCache disables chain caching.
func WithoutChainCache() Option {
	return func(c *Config) error {
		c.DisableChainCache = true
		return nil
	}
}
