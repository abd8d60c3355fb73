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

package interceptor

import (
	"fmt"
	"sync"

	"github.com/rulego/rulego-aop/api/types"
	"golang.org/x/time/rate"
)

var _ types.MethodInterceptor = (*RateLimitInterceptor)(nil)

// RateLimitInterceptor limits the call rate with one token bucket per method.
// By default calls over the rate fail with types.ErrRateLimited; with Wait
// they block until a token is available or the call context is done.
// RateLimitInterceptor 按方法限制调用速率。
type RateLimitInterceptor struct {
	Wait     bool
	limit    rate.Limit
	burst    int
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
}

// NewRateLimitInterceptor allows perSecond calls per method with bursts of burst.
func NewRateLimitInterceptor(perSecond float64, burst int) *RateLimitInterceptor {
	return &RateLimitInterceptor{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (i *RateLimitInterceptor) Order() int {
	return 15
}

func (i *RateLimitInterceptor) limiter(key string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()
	limiter, exists := i.limiters[key]
	if !exists {
		limiter = rate.NewLimiter(i.limit, i.burst)
		i.limiters[key] = limiter
	}
	return limiter
}

func (i *RateLimitInterceptor) Invoke(inv types.MethodInvocation) (interface{}, error) {
	key := inv.Method().String()
	limiter := i.limiter(key)
	if i.Wait {
		if err := limiter.Wait(inv.Context()); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", types.ErrRateLimited, key, err)
		}
	} else if !limiter.Allow() {
		return nil, fmt.Errorf("%w: %s", types.ErrRateLimited, key)
	}
	return inv.Proceed()
}
