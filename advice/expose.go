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

package advice

import (
	"context"
	"errors"

	"github.com/rulego/rulego-aop/api/types"
)

// ErrNoInvocation is returned when no invocation has been exposed on the context.
var ErrNoInvocation = errors.New("no method invocation found: check that an AOP invocation is in progress " +
	"and that the ExposeInvocationInterceptor is upfront in the interceptor chain")

// ExposeInvocationOrder places the expose interceptor ahead of every other advisor.
const ExposeInvocationOrder = types.HighestPrecedence + 1

type exposeInvocationInterceptor struct{}

// Invoke publishes inv on its context for the rest of the chain and restores
// the previous context afterwards.
func (exposeInvocationInterceptor) Invoke(inv types.MethodInvocation) (interface{}, error) {
	old := inv.Context()
	inv.SetContext(types.WithInvocation(old, inv))
	defer inv.SetContext(old)
	return inv.Proceed()
}

func (exposeInvocationInterceptor) Order() int {
	return ExposeInvocationOrder
}

func (exposeInvocationInterceptor) String() string {
	return "ExposeInvocationInterceptor"
}

var (
	// ExposeInvocationInterceptor makes the current invocation available through
	// CurrentInvocation to everything running further down the chain.
	// ExposeInvocationInterceptor 在上下文中暴露当前调用，单例。
	ExposeInvocationInterceptor types.MethodInterceptor = exposeInvocationInterceptor{}
	// ExposeInvocationAdvisor applies ExposeInvocationInterceptor to every method.
	ExposeInvocationAdvisor = NewPointcutAdvisor(nil, ExposeInvocationInterceptor)
)

// CurrentInvocation returns the invocation exposed on ctx.
func CurrentInvocation(ctx context.Context) (types.MethodInvocation, error) {
	if inv, ok := types.InvocationFromContext(ctx); ok {
		return inv, nil
	}
	return nil, ErrNoInvocation
}

// IsExposeInvocationAdvisor reports whether advisor exposes the invocation.
func IsExposeInvocationAdvisor(advisor types.Advisor) bool {
	_, ok := advisor.Advice().(exposeInvocationInterceptor)
	return ok
}
