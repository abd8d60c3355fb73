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

// Package pointcut provides the selectors that decide which join points receive advice.
//
// Selectors are pure predicates: a TypeFilter over target types and a MethodMatcher
// over methods, combined into a Pointcut. They are composed with Union, Intersection
// and Negate, which always return new values and never mutate their operands.
//
// Package pointcut 提供切入点：类型过滤器与方法匹配器，以及并集、交集和取反组合。
// 组合操作总是返回新对象，不修改操作数。
package pointcut

import (
	"context"
	"reflect"

	"github.com/rulego/rulego-aop/api/types"
)

type trueTypeFilter struct{}

func (f *trueTypeFilter) Matches(reflect.Type) bool { return true }

func (f *trueTypeFilter) String() string { return "TypeFilter.TRUE" }

type trueMethodMatcher struct{}

func (m *trueMethodMatcher) Matches(*types.Method, reflect.Type) bool { return true }

func (m *trueMethodMatcher) IsRuntime() bool { return false }

func (m *trueMethodMatcher) MatchesRuntime(context.Context, *types.Method, reflect.Type, []interface{}) bool {
	return true
}

func (m *trueMethodMatcher) String() string { return "MethodMatcher.TRUE" }

type truePointcut struct{}

func (p *truePointcut) TypeFilter() types.TypeFilter { return TrueTypeFilter }

func (p *truePointcut) MethodMatcher() types.MethodMatcher { return TrueMethodMatcher }

func (p *truePointcut) String() string { return "Pointcut.TRUE" }

var (
	// TrueTypeFilter matches every type. It is a process-wide singleton.
	// TrueTypeFilter 匹配所有类型，全局单例。
	TrueTypeFilter types.TypeFilter = &trueTypeFilter{}
	// TrueMethodMatcher matches every method. It is a process-wide singleton.
	TrueMethodMatcher types.MethodMatcher = &trueMethodMatcher{}
	// TruePointcut matches every join point. It is a process-wide singleton.
	TruePointcut types.Pointcut = &truePointcut{}
)

var (
	_ types.Pointcut      = (*Pointcut)(nil)
	_ types.TypeFilter    = TypeFilterFunc(nil)
	_ types.MethodMatcher = StaticMethodMatcherFunc(nil)
	_ types.MethodMatcher = DynamicMethodMatcherFunc(nil)
)

// Pointcut is a plain TypeFilter and MethodMatcher pair.
type Pointcut struct {
	typeFilter    types.TypeFilter
	methodMatcher types.MethodMatcher
}

// New creates a pointcut. A nil part is replaced by its TRUE singleton.
func New(typeFilter types.TypeFilter, methodMatcher types.MethodMatcher) *Pointcut {
	if typeFilter == nil {
		typeFilter = TrueTypeFilter
	}
	if methodMatcher == nil {
		methodMatcher = TrueMethodMatcher
	}
	return &Pointcut{typeFilter: typeFilter, methodMatcher: methodMatcher}
}

// ForTypeFilter creates a pointcut matching every method of the filtered types.
func ForTypeFilter(typeFilter types.TypeFilter) *Pointcut {
	return New(typeFilter, nil)
}

// ForMethodMatcher creates a pointcut matching the selected methods of every type.
func ForMethodMatcher(methodMatcher types.MethodMatcher) *Pointcut {
	return New(nil, methodMatcher)
}

func (p *Pointcut) TypeFilter() types.TypeFilter {
	return p.typeFilter
}

func (p *Pointcut) MethodMatcher() types.MethodMatcher {
	return p.methodMatcher
}

// TypeFilterFunc adapts a function to types.TypeFilter.
type TypeFilterFunc func(targetType reflect.Type) bool

func (f TypeFilterFunc) Matches(targetType reflect.Type) bool {
	return f(targetType)
}

// StaticMethodMatcherFunc adapts a function to a static types.MethodMatcher.
type StaticMethodMatcherFunc func(method *types.Method, targetType reflect.Type) bool

func (f StaticMethodMatcherFunc) Matches(method *types.Method, targetType reflect.Type) bool {
	return f(method, targetType)
}

func (f StaticMethodMatcherFunc) IsRuntime() bool {
	return false
}

func (f StaticMethodMatcherFunc) MatchesRuntime(_ context.Context, method *types.Method, targetType reflect.Type, _ []interface{}) bool {
	return f(method, targetType)
}

// DynamicMethodMatcherFunc adapts a function to a runtime types.MethodMatcher.
// Its static check always succeeds.
type DynamicMethodMatcherFunc func(ctx context.Context, method *types.Method, targetType reflect.Type, args []interface{}) bool

func (f DynamicMethodMatcherFunc) Matches(*types.Method, reflect.Type) bool {
	return true
}

func (f DynamicMethodMatcherFunc) IsRuntime() bool {
	return true
}

func (f DynamicMethodMatcherFunc) MatchesRuntime(ctx context.Context, method *types.Method, targetType reflect.Type, args []interface{}) bool {
	return f(ctx, method, targetType, args)
}

// MatchesType reports whether filter accepts targetType. A nil target type is
// accepted: the target is not known yet.
func MatchesType(filter types.TypeFilter, targetType reflect.Type) bool {
	return targetType == nil || filter.Matches(targetType)
}

// MatchesStatically reports whether pc can apply to method on targetType
// without looking at arguments.
func MatchesStatically(pc types.Pointcut, method *types.Method, targetType reflect.Type) bool {
	return MatchesType(pc.TypeFilter(), targetType) && pc.MethodMatcher().Matches(method, targetType)
}

// MatchesMethod evaluates mm the way an invocation does: the static check
// first, then the runtime check with args when mm is a runtime matcher.
func MatchesMethod(ctx context.Context, mm types.MethodMatcher, method *types.Method, targetType reflect.Type, args []interface{}) bool {
	if !mm.Matches(method, targetType) {
		return false
	}
	return !mm.IsRuntime() || mm.MatchesRuntime(ctx, method, targetType, args)
}

// Matches evaluates pc fully against one call.
// Matches 按调用过程完整评估切入点：类型过滤、静态匹配、动态匹配。
func Matches(ctx context.Context, pc types.Pointcut, method *types.Method, targetType reflect.Type, args []interface{}) bool {
	return MatchesType(pc.TypeFilter(), targetType) && MatchesMethod(ctx, pc.MethodMatcher(), method, targetType, args)
}
