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
	"context"
	"reflect"
)

// TypeFilter restricts a pointcut to a set of target types.
// TypeFilter 类型过滤器，限定切入点匹配的目标类型。
type TypeFilter interface {
	// Matches reports whether the selector applies to the given target type.
	Matches(targetType reflect.Type) bool
}

// MethodMatcher decides whether a method is a candidate for advice.
//
// A static matcher answers from the signature alone. A runtime matcher
// (IsRuntime returns true) is additionally asked MatchesRuntime with the
// live arguments on every call, after its static Matches returned true.
//
// MethodMatcher 方法匹配器。静态匹配器仅根据方法签名判断；动态匹配器在静态匹配
// 成功后，每次调用还会根据实际参数执行 MatchesRuntime。
type MethodMatcher interface {
	// Matches performs the static check.
	Matches(method *Method, targetType reflect.Type) bool
	// IsRuntime reports whether MatchesRuntime must be consulted on every call.
	IsRuntime() bool
	// MatchesRuntime performs the dynamic check with the call arguments.
	MatchesRuntime(ctx context.Context, method *Method, targetType reflect.Type, args []interface{}) bool
}

// Pointcut pairs a TypeFilter with a MethodMatcher.
// Pointcut 切入点，由类型过滤器和方法匹配器组成。
type Pointcut interface {
	TypeFilter() TypeFilter
	MethodMatcher() MethodMatcher
}

// JoinPointMatch carries the values bound by a dynamic match into the advice
// that runs for the same invocation. It never outlives one call.
// JoinPointMatch 动态匹配产生的绑定值，仅在一次调用内有效。
type JoinPointMatch struct {
	bindings map[string]interface{}
	order    []string
}

// NewJoinPointMatch creates an empty match.
func NewJoinPointMatch() *JoinPointMatch {
	return &JoinPointMatch{bindings: make(map[string]interface{})}
}

// Bind records a named value.
func (m *JoinPointMatch) Bind(name string, value interface{}) {
	if _, ok := m.bindings[name]; !ok {
		m.order = append(m.order, name)
	}
	m.bindings[name] = value
}

// Get returns the value bound to name.
func (m *JoinPointMatch) Get(name string) (interface{}, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.bindings[name]
	return v, ok
}

// Names returns the bound names in binding order.
func (m *JoinPointMatch) Names() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.order...)
}

// Len returns the number of bound values.
func (m *JoinPointMatch) Len() int {
	if m == nil {
		return 0
	}
	return len(m.bindings)
}
