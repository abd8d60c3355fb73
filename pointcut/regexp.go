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
	"time"

	"github.com/dlclark/regexp2"
	"github.com/rulego/rulego-aop/api/types"
)

// regexpMatchTimeout bounds a single pattern evaluation.
const regexpMatchTimeout = 100 * time.Millisecond

// RegexpMethodPointcut matches the qualified method name "pkg.Type.Method"
// against full-match regular expressions. A method matches when any pattern
// matches and no exclusion pattern does. Both the declaring type and the
// target type are tried.
// RegexpMethodPointcut 使用正则表达式匹配限定方法名，支持排除模式。
type RegexpMethodPointcut struct {
	patterns          []string
	excludedPatterns  []string
	compiledPatterns  []*regexp2.Regexp
	compiledExclusion []*regexp2.Regexp
}

var (
	_ types.Pointcut      = (*RegexpMethodPointcut)(nil)
	_ types.MethodMatcher = (*RegexpMethodPointcut)(nil)
)

// NewRegexpMethodPointcut compiles patterns and excludedPatterns.
func NewRegexpMethodPointcut(patterns []string, excludedPatterns []string) (*RegexpMethodPointcut, error) {
	if len(patterns) == 0 {
		return nil, types.NewIllegalConfigError("at least one pattern is required")
	}
	p := &RegexpMethodPointcut{
		patterns:         append([]string(nil), patterns...),
		excludedPatterns: append([]string(nil), excludedPatterns...),
	}
	var err error
	if p.compiledPatterns, err = compilePatterns(patterns); err != nil {
		return nil, err
	}
	if p.compiledExclusion, err = compilePatterns(excludedPatterns); err != nil {
		return nil, err
	}
	return p, nil
}

func compilePatterns(patterns []string) ([]*regexp2.Regexp, error) {
	compiled := make([]*regexp2.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		re, err := regexp2.Compile("^(?:"+pattern+")$", regexp2.None)
		if err != nil {
			return nil, types.NewConfigError(err, "invalid pattern '%s'", pattern)
		}
		re.MatchTimeout = regexpMatchTimeout
		compiled = append(compiled, re)
	}
	return compiled, nil
}

// Patterns returns the inclusion patterns.
func (p *RegexpMethodPointcut) Patterns() []string {
	return append([]string(nil), p.patterns...)
}

// ExcludedPatterns returns the exclusion patterns.
func (p *RegexpMethodPointcut) ExcludedPatterns() []string {
	return append([]string(nil), p.excludedPatterns...)
}

func (p *RegexpMethodPointcut) TypeFilter() types.TypeFilter {
	return TrueTypeFilter
}

func (p *RegexpMethodPointcut) MethodMatcher() types.MethodMatcher {
	return p
}

func (p *RegexpMethodPointcut) Matches(method *types.Method, targetType reflect.Type) bool {
	if p.matchesName(method.String()) {
		return true
	}
	if targetType != nil {
		return p.matchesName(types.QualifiedTypeName(targetType) + "." + method.Name)
	}
	return false
}

func (p *RegexpMethodPointcut) matchesName(name string) bool {
	if !anyMatch(p.compiledPatterns, name) {
		return false
	}
	return !anyMatch(p.compiledExclusion, name)
}

func anyMatch(patterns []*regexp2.Regexp, name string) bool {
	for _, re := range patterns {
		if ok, err := re.MatchString(name); err == nil && ok {
			return true
		}
	}
	return false
}

func (p *RegexpMethodPointcut) IsRuntime() bool {
	return false
}

func (p *RegexpMethodPointcut) MatchesRuntime(_ context.Context, method *types.Method, targetType reflect.Type, _ []interface{}) bool {
	return p.Matches(method, targetType)
}
