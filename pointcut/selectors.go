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
	"github.com/rulego/rulego-aop/utils/str"
)

// NameMatchMethodMatcher matches method names against simple "*" wildcard
// patterns such as "Set*", "*Name" or "get*Id".
// NameMatchMethodMatcher 按方法名称通配符匹配。
type NameMatchMethodMatcher struct {
	names []string
}

// NewNameMatchMethodMatcher creates a matcher for the given name patterns.
func NewNameMatchMethodMatcher(names ...string) *NameMatchMethodMatcher {
	return &NameMatchMethodMatcher{names: append([]string(nil), names...)}
}

// Names returns the configured patterns.
func (m *NameMatchMethodMatcher) Names() []string {
	return append([]string(nil), m.names...)
}

// AddName returns a copy with another pattern appended.
func (m *NameMatchMethodMatcher) AddName(name string) *NameMatchMethodMatcher {
	return NewNameMatchMethodMatcher(append(m.Names(), name)...)
}

func (m *NameMatchMethodMatcher) Matches(method *types.Method, _ reflect.Type) bool {
	return str.SimpleMatchAny(m.names, method.Name)
}

func (m *NameMatchMethodMatcher) IsRuntime() bool {
	return false
}

func (m *NameMatchMethodMatcher) MatchesRuntime(_ context.Context, method *types.Method, targetType reflect.Type, _ []interface{}) bool {
	return m.Matches(method, targetType)
}

// AssignableTypeFilter matches types assignable to Type: the type itself,
// implementations of an interface, and pointers to a matching struct.
type AssignableTypeFilter struct {
	Type reflect.Type
}

// NewAssignableTypeFilter creates a filter for the type of sample. Pass a nil
// interface pointer such as (*io.Reader)(nil) to select an interface.
func NewAssignableTypeFilter(sample interface{}) *AssignableTypeFilter {
	t := reflect.TypeOf(sample)
	if t != nil && t.Kind() == reflect.Ptr && t.Elem().Kind() == reflect.Interface {
		t = t.Elem()
	}
	return &AssignableTypeFilter{Type: t}
}

func (f *AssignableTypeFilter) Matches(targetType reflect.Type) bool {
	if targetType == nil || f.Type == nil {
		return false
	}
	if targetType.AssignableTo(f.Type) {
		return true
	}
	if f.Type.Kind() == reflect.Interface && targetType.Implements(f.Type) {
		return true
	}
	if targetType.Kind() == reflect.Ptr {
		return targetType.Elem().AssignableTo(f.Type)
	}
	return reflect.PointerTo(targetType).AssignableTo(f.Type)
}

// TypeNameFilter matches the qualified ("pkg.Type") or simple type name
// against a "*" wildcard pattern.
type TypeNameFilter struct {
	Pattern string
}

// NewTypeNameFilter creates a filter for pattern.
func NewTypeNameFilter(pattern string) *TypeNameFilter {
	return &TypeNameFilter{Pattern: pattern}
}

func (f *TypeNameFilter) Matches(targetType reflect.Type) bool {
	if targetType == nil {
		return false
	}
	return str.SimpleMatch(f.Pattern, types.QualifiedTypeName(targetType)) ||
		str.SimpleMatch(f.Pattern, types.TypeName(targetType))
}
