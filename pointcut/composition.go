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

package pointcut

import (
	"context"
	"reflect"

	"github.com/rulego/rulego-aop/api/types"
)

type unionTypeFilter struct {
	filters []types.TypeFilter
}

func (f *unionTypeFilter) Matches(targetType reflect.Type) bool {
	for _, item := range f.filters {
		if item.Matches(targetType) {
			return true
		}
	}
	return false
}

type intersectionTypeFilter struct {
	filters []types.TypeFilter
}

func (f *intersectionTypeFilter) Matches(targetType reflect.Type) bool {
	for _, item := range f.filters {
		if !item.Matches(targetType) {
			return false
		}
	}
	return true
}

type negateTypeFilter struct {
	original types.TypeFilter
}

func (f *negateTypeFilter) Matches(targetType reflect.Type) bool {
	return !f.original.Matches(targetType)
}

// UnionTypeFilter matches a type when any of the filters does.
func UnionTypeFilter(a, b types.TypeFilter, more ...types.TypeFilter) types.TypeFilter {
	return &unionTypeFilter{filters: append([]types.TypeFilter{a, b}, more...)}
}

// IntersectionTypeFilter matches a type when all of the filters do.
func IntersectionTypeFilter(a, b types.TypeFilter, more ...types.TypeFilter) types.TypeFilter {
	return &intersectionTypeFilter{filters: append([]types.TypeFilter{a, b}, more...)}
}

// NegateTypeFilter inverts filter.
func NegateTypeFilter(filter types.TypeFilter) types.TypeFilter {
	return &negateTypeFilter{original: filter}
}

type unionMethodMatcher struct {
	a, b types.MethodMatcher
}

func (m *unionMethodMatcher) Matches(method *types.Method, targetType reflect.Type) bool {
	return m.a.Matches(method, targetType) || m.b.Matches(method, targetType)
}

func (m *unionMethodMatcher) IsRuntime() bool {
	return m.a.IsRuntime() || m.b.IsRuntime()
}

func (m *unionMethodMatcher) MatchesRuntime(ctx context.Context, method *types.Method, targetType reflect.Type, args []interface{}) bool {
	return MatchesMethod(ctx, m.a, method, targetType, args) || MatchesMethod(ctx, m.b, method, targetType, args)
}

// typeAwareUnionMethodMatcher is the method matcher of a pointcut union: a
// branch only counts when its own type filter accepts the target type.
type typeAwareUnionMethodMatcher struct {
	tfA types.TypeFilter
	a   types.MethodMatcher
	tfB types.TypeFilter
	b   types.MethodMatcher
}

func (m *typeAwareUnionMethodMatcher) Matches(method *types.Method, targetType reflect.Type) bool {
	return (MatchesType(m.tfA, targetType) && m.a.Matches(method, targetType)) ||
		(MatchesType(m.tfB, targetType) && m.b.Matches(method, targetType))
}

func (m *typeAwareUnionMethodMatcher) IsRuntime() bool {
	return m.a.IsRuntime() || m.b.IsRuntime()
}

func (m *typeAwareUnionMethodMatcher) MatchesRuntime(ctx context.Context, method *types.Method, targetType reflect.Type, args []interface{}) bool {
	return (MatchesType(m.tfA, targetType) && MatchesMethod(ctx, m.a, method, targetType, args)) ||
		(MatchesType(m.tfB, targetType) && MatchesMethod(ctx, m.b, method, targetType, args))
}

// intersectionMethodMatcher keeps static operands before runtime ones so a
// failing static operand short-circuits every runtime evaluation.
type intersectionMethodMatcher struct {
	a, b types.MethodMatcher
}

func (m *intersectionMethodMatcher) Matches(method *types.Method, targetType reflect.Type) bool {
	return m.a.Matches(method, targetType) && m.b.Matches(method, targetType)
}

func (m *intersectionMethodMatcher) IsRuntime() bool {
	return m.a.IsRuntime() || m.b.IsRuntime()
}

func (m *intersectionMethodMatcher) MatchesRuntime(ctx context.Context, method *types.Method, targetType reflect.Type, args []interface{}) bool {
	if !m.a.Matches(method, targetType) || !m.b.Matches(method, targetType) {
		return false
	}
	if m.a.IsRuntime() && !m.a.MatchesRuntime(ctx, method, targetType, args) {
		return false
	}
	return !m.b.IsRuntime() || m.b.MatchesRuntime(ctx, method, targetType, args)
}

// negateMethodMatcher inverts a matcher. For a runtime original the static
// check cannot be inverted, so it accepts and the decision is deferred.
type negateMethodMatcher struct {
	original types.MethodMatcher
}

func (m *negateMethodMatcher) Matches(method *types.Method, targetType reflect.Type) bool {
	if m.original.IsRuntime() {
		return true
	}
	return !m.original.Matches(method, targetType)
}

func (m *negateMethodMatcher) IsRuntime() bool {
	return m.original.IsRuntime()
}

func (m *negateMethodMatcher) MatchesRuntime(ctx context.Context, method *types.Method, targetType reflect.Type, args []interface{}) bool {
	return !MatchesMethod(ctx, m.original, method, targetType, args)
}

// UnionMethodMatcher matches a method when either matcher does.
// UnionMethodMatcher 方法匹配器并集。
func UnionMethodMatcher(a, b types.MethodMatcher) types.MethodMatcher {
	return &unionMethodMatcher{a: a, b: b}
}

// IntersectionMethodMatcher matches a method when both matchers do.
// A static operand is always evaluated before a runtime one.
// IntersectionMethodMatcher 方法匹配器交集，静态匹配器总是先于动态匹配器求值。
func IntersectionMethodMatcher(a, b types.MethodMatcher) types.MethodMatcher {
	if a.IsRuntime() && !b.IsRuntime() {
		a, b = b, a
	}
	return &intersectionMethodMatcher{a: a, b: b}
}

// NegateMethodMatcher inverts matcher.
func NegateMethodMatcher(matcher types.MethodMatcher) types.MethodMatcher {
	return &negateMethodMatcher{original: matcher}
}

// Union returns a pointcut matching what either pointcut matches. Each
// method matcher is only consulted for types its own filter accepts.
// Union 切入点并集。
func Union(a, b types.Pointcut) types.Pointcut {
	return &Pointcut{
		typeFilter: UnionTypeFilter(a.TypeFilter(), b.TypeFilter()),
		methodMatcher: &typeAwareUnionMethodMatcher{
			tfA: a.TypeFilter(), a: a.MethodMatcher(),
			tfB: b.TypeFilter(), b: b.MethodMatcher(),
		},
	}
}

// Intersection returns a pointcut matching what both pointcuts match.
// Intersection 切入点交集。
func Intersection(a, b types.Pointcut) types.Pointcut {
	return &Pointcut{
		typeFilter:    IntersectionTypeFilter(a.TypeFilter(), b.TypeFilter()),
		methodMatcher: IntersectionMethodMatcher(a.MethodMatcher(), b.MethodMatcher()),
	}
}

// Negate returns a pointcut matching the methods pc does not match.
// The type filter is kept: negation applies to methods of accepted types.
func Negate(pc types.Pointcut) types.Pointcut {
	return &Pointcut{
		typeFilter:    pc.TypeFilter(),
		methodMatcher: NegateMethodMatcher(pc.MethodMatcher()),
	}
}
