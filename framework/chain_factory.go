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

package framework

import (
	"reflect"

	"github.com/rulego/rulego-aop/advice"
	"github.com/rulego/rulego-aop/api/types"
	"github.com/rulego/rulego-aop/pointcut"
)

// InterceptorAndDynamicMethodMatcher is a chain entry whose matcher must be
// asked again with the live arguments before the interceptor runs.
type InterceptorAndDynamicMethodMatcher struct {
	Interceptor   types.MethodInterceptor
	MethodMatcher types.MethodMatcher
}

// AdvisorChainFactory computes the interceptor chain of a method.
// AdvisorChainFactory 拦截器链工厂。
type AdvisorChainFactory interface {
	InterceptorsFor(config *AdvisedSupport, method *types.Method, targetType reflect.Type) ([]interface{}, error)
}

// AdvisorChainFactoryFunc adapts a function to AdvisorChainFactory.
type AdvisorChainFactoryFunc func(config *AdvisedSupport, method *types.Method, targetType reflect.Type) ([]interface{}, error)

func (f AdvisorChainFactoryFunc) InterceptorsFor(config *AdvisedSupport, method *types.Method, targetType reflect.Type) ([]interface{}, error) {
	return f(config, method, targetType)
}

// DefaultAdvisorChainFactory keeps the advisors whose type filter and static
// method match accept the method, in precedence order.
var DefaultAdvisorChainFactory AdvisorChainFactory = AdvisorChainFactoryFunc(defaultInterceptorsFor)

func defaultInterceptorsFor(config *AdvisedSupport, method *types.Method, targetType reflect.Type) ([]interface{}, error) {
	registry := config.AdapterRegistry()
	if registry == nil {
		registry = advice.DefaultAdapterRegistry
	}
	preFiltered := config.IsPreFiltered()
	var chain []interface{}
	for _, advisor := range config.Advisors() {
		switch a := advisor.(type) {
		case types.PointcutAdvisor:
			pc := a.Pointcut()
			if pc == nil {
				pc = pointcut.TruePointcut
			}
			if !preFiltered && !pointcut.MatchesType(pc.TypeFilter(), targetType) {
				continue
			}
			mm := pc.MethodMatcher()
			if mm == nil {
				mm = pointcut.TrueMethodMatcher
			}
			if !mm.Matches(method, targetType) {
				continue
			}
			interceptors, err := registry.Interceptors(advisor)
			if err != nil {
				return nil, err
			}
			for _, interceptor := range interceptors {
				if mm.IsRuntime() {
					chain = append(chain, &InterceptorAndDynamicMethodMatcher{Interceptor: interceptor, MethodMatcher: mm})
				} else {
					chain = append(chain, interceptor)
				}
			}
		case types.IntroductionAdvisor:
			if !preFiltered && !pointcut.MatchesType(a.TypeFilter(), targetType) {
				continue
			}
			interceptors, err := registry.Interceptors(advisor)
			if err != nil {
				return nil, err
			}
			for _, interceptor := range interceptors {
				chain = append(chain, interceptor)
			}
		default:
			interceptors, err := registry.Interceptors(advisor)
			if err != nil {
				return nil, err
			}
			for _, interceptor := range interceptors {
				chain = append(chain, interceptor)
			}
		}
	}
	return chain, nil
}

// MakeAdvisorChainAspectCapable returns advisors with the expose-invocation
// advisor in front when aspect advice or expression pointcuts need the
// current invocation. The input is not modified.
func MakeAdvisorChainAspectCapable(advisors []types.Advisor) []types.Advisor {
	if len(advisors) == 0 {
		return advisors
	}
	needed := false
	for _, advisor := range advisors {
		if advice.IsExposeInvocationAdvisor(advisor) {
			return advisors
		}
		if isAspectAdvisor(advisor) {
			needed = true
		}
	}
	if !needed {
		return advisors
	}
	out := make([]types.Advisor, 0, len(advisors)+1)
	out = append(out, advice.ExposeInvocationAdvisor)
	return append(out, advisors...)
}

func isAspectAdvisor(advisor types.Advisor) bool {
	if _, ok := advisor.Advice().(*advice.AspectAdvice); ok {
		return true
	}
	if pa, ok := advisor.(types.PointcutAdvisor); ok {
		_, ok := pa.Pointcut().(*pointcut.ExpressionPointcut)
		return ok
	}
	return false
}
