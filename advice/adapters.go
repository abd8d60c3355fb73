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

// Package advice adapts every supported advice shape to the uniform
// types.MethodInterceptor contract, and provides advice backed by aspect methods.
//
// Package advice 将各种增强适配为统一的方法拦截器，并提供基于切面方法的增强。
package advice

import (
	"fmt"
	"sync"

	"github.com/rulego/rulego-aop/api/types"
)

// Adapter turns one advice shape into an interceptor.
type Adapter interface {
	// SupportsAdvice reports whether the adapter understands advice.
	SupportsAdvice(advice types.Advice) bool
	// Interceptor returns the interceptor running the advisor's advice.
	Interceptor(advisor types.Advisor) types.MethodInterceptor
}

type beforeAdapter struct{}

func (beforeAdapter) SupportsAdvice(advice types.Advice) bool {
	_, ok := advice.(types.BeforeAdvice)
	return ok
}

func (beforeAdapter) Interceptor(advisor types.Advisor) types.MethodInterceptor {
	return &BeforeInterceptor{Advice: advisor.Advice().(types.BeforeAdvice)}
}

type afterReturningAdapter struct{}

func (afterReturningAdapter) SupportsAdvice(advice types.Advice) bool {
	_, ok := advice.(types.AfterReturningAdvice)
	return ok
}

func (afterReturningAdapter) Interceptor(advisor types.Advisor) types.MethodInterceptor {
	return &AfterReturningInterceptor{Advice: advisor.Advice().(types.AfterReturningAdvice)}
}

type throwsAdapter struct{}

func (throwsAdapter) SupportsAdvice(advice types.Advice) bool {
	_, ok := advice.(types.ThrowsAdvice)
	return ok
}

func (throwsAdapter) Interceptor(advisor types.Advisor) types.MethodInterceptor {
	return &ThrowsInterceptor{Advice: advisor.Advice().(types.ThrowsAdvice)}
}

type afterAdapter struct{}

func (afterAdapter) SupportsAdvice(advice types.Advice) bool {
	_, ok := advice.(types.AfterAdvice)
	return ok
}

func (afterAdapter) Interceptor(advisor types.Advisor) types.MethodInterceptor {
	return &AfterInterceptor{Advice: advisor.Advice().(types.AfterAdvice)}
}

// AdapterRegistry turns advice and advisors into interceptors.
// AdapterRegistry 增强适配器注册表。
type AdapterRegistry struct {
	adapters []Adapter
	lock     sync.RWMutex
}

// DefaultAdapterRegistry knows the before, after-returning, throws and after shapes.
var DefaultAdapterRegistry = NewAdapterRegistry()

// NewAdapterRegistry creates a registry with the built-in adapters.
func NewAdapterRegistry() *AdapterRegistry {
	return &AdapterRegistry{
		adapters: []Adapter{beforeAdapter{}, afterReturningAdapter{}, throwsAdapter{}, afterAdapter{}},
	}
}

// Register adds an adapter for a custom advice shape.
func (r *AdapterRegistry) Register(adapter Adapter) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.adapters = append(r.adapters, adapter)
}

func (r *AdapterRegistry) snapshot() []Adapter {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return append([]Adapter(nil), r.adapters...)
}

// Supports reports whether advice can be adapted.
func (r *AdapterRegistry) Supports(advice types.Advice) bool {
	if _, ok := advice.(types.MethodInterceptor); ok {
		return true
	}
	for _, adapter := range r.snapshot() {
		if adapter.SupportsAdvice(advice) {
			return true
		}
	}
	return false
}

// Wrap returns advice as an advisor. Advisors are returned unchanged, any
// other supported advice is wrapped in an advisor matching every method.
func (r *AdapterRegistry) Wrap(advice interface{}) (types.Advisor, error) {
	if advisor, ok := advice.(types.Advisor); ok {
		return advisor, nil
	}
	if !r.Supports(advice) {
		return nil, fmt.Errorf("%w: %T", types.ErrUnknownAdviceType, advice)
	}
	return NewPointcutAdvisor(nil, advice), nil
}

// Interceptors returns the interceptors running the advisor's advice. An
// advice implementing several shapes yields one interceptor per shape.
func (r *AdapterRegistry) Interceptors(advisor types.Advisor) ([]types.MethodInterceptor, error) {
	advice := advisor.Advice()
	var interceptors []types.MethodInterceptor
	if mi, ok := advice.(types.MethodInterceptor); ok {
		interceptors = append(interceptors, mi)
	}
	for _, adapter := range r.snapshot() {
		if adapter.SupportsAdvice(advice) {
			interceptors = append(interceptors, adapter.Interceptor(advisor))
		}
	}
	if len(interceptors) == 0 {
		return nil, fmt.Errorf("%w: %T", types.ErrUnknownAdviceType, advice)
	}
	return interceptors, nil
}
