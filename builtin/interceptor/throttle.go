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
	"sync/atomic"

	"github.com/rulego/rulego-aop/api/types"
)

var _ types.MethodInterceptor = (*ConcurrencyThrottleInterceptor)(nil)

// ConcurrencyThrottleInterceptor limits the number of calls running at the
// same time. Calls over the limit fail with types.ErrConcurrencyLimitReached
// without reaching the target.
//
// ConcurrencyThrottleInterceptor 并发限制拦截器，超过最大并发数的调用直接返回
// types.ErrConcurrencyLimitReached。
//
// Features:
// 功能特性：
//   - Compare-and-swap (CAS) for consistent state  比较并交换（CAS）确保状态一致性
//   - The slot is released when the call returns, also on error or panic  调用结束后释放，出错或panic时同样释放
type ConcurrencyThrottleInterceptor struct {
	Max          int64 // Maximum number of concurrent calls  最大并发调用数量
	currentCount int64 // Current number of concurrent calls  当前并发调用数量
}

// NewConcurrencyThrottleInterceptor creates a throttle allowing max concurrent calls.
func NewConcurrencyThrottleInterceptor(max int) *ConcurrencyThrottleInterceptor {
	return &ConcurrencyThrottleInterceptor{Max: int64(max)}
}

func (i *ConcurrencyThrottleInterceptor) Order() int {
	return 10
}

// Current returns the number of calls in flight.
func (i *ConcurrencyThrottleInterceptor) Current() int64 {
	return atomic.LoadInt64(&i.currentCount)
}

func (i *ConcurrencyThrottleInterceptor) Invoke(inv types.MethodInvocation) (interface{}, error) {
	for {
		current := atomic.LoadInt64(&i.currentCount)
		if current >= i.Max {
			return nil, types.ErrConcurrencyLimitReached
		}
		if atomic.CompareAndSwapInt64(&i.currentCount, current, current+1) {
			break
		}
	}
	defer atomic.AddInt64(&i.currentCount, -1)
	return inv.Proceed()
}
