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
	"strings"
	"sync/atomic"

	"github.com/rulego/rulego-aop/api/types"
	"github.com/rulego/rulego-aop/utils/runtime"
	"github.com/rulego/rulego-aop/utils/str"
)

// ControlFlowPointcut matches calls made, directly or indirectly, from inside a
// given function: a method of a type, or any function whose name matches a
// wildcard pattern. It inspects the goroutine stack on every evaluation, which
// is expensive, so the number of evaluations is counted.
// ControlFlowPointcut 控制流切入点：仅当调用发生在指定函数的调用栈中时匹配。
type ControlFlowPointcut struct {
	pattern         string
	matchFunc       func(funcName string) bool
	evaluationCount int64
}

var (
	_ types.Pointcut      = (*ControlFlowPointcut)(nil)
	_ types.MethodMatcher = (*ControlFlowPointcut)(nil)
)

// NewControlFlowPointcut matches calls below methodName of ownerType. An empty
// methodName matches any method of the type.
func NewControlFlowPointcut(ownerType reflect.Type, methodName string) *ControlFlowPointcut {
	base := ownerType
	for base.Kind() == reflect.Ptr {
		base = base.Elem()
	}
	prefixes := []string{
		base.PkgPath() + "." + base.Name() + ".",
		base.PkgPath() + ".(*" + base.Name() + ").",
	}
	return &ControlFlowPointcut{
		pattern: types.QualifiedTypeName(base) + "." + methodName,
		matchFunc: func(funcName string) bool {
			for _, prefix := range prefixes {
				if !strings.HasPrefix(funcName, prefix) {
					continue
				}
				if methodName == "" {
					return true
				}
				name := strings.TrimSuffix(funcName[len(prefix):], "-fm")
				if name == methodName {
					return true
				}
			}
			return false
		},
	}
}

// NewControlFlowPointcutFunc matches calls below any function whose short name
// ("pkg.Func", "pkg.(*Type).Method") matches the wildcard pattern.
func NewControlFlowPointcutFunc(pattern string) *ControlFlowPointcut {
	return &ControlFlowPointcut{
		pattern: pattern,
		matchFunc: func(funcName string) bool {
			return str.SimpleMatch(pattern, runtime.ShortFuncName(funcName))
		},
	}
}

// Pattern describes the control flow being matched.
func (p *ControlFlowPointcut) Pattern() string {
	return p.pattern
}

// EvaluationCount returns how many times the stack has been inspected.
func (p *ControlFlowPointcut) EvaluationCount() int64 {
	return atomic.LoadInt64(&p.evaluationCount)
}

func (p *ControlFlowPointcut) TypeFilter() types.TypeFilter {
	return TrueTypeFilter
}

func (p *ControlFlowPointcut) MethodMatcher() types.MethodMatcher {
	return p
}

func (p *ControlFlowPointcut) Matches(*types.Method, reflect.Type) bool {
	return true
}

func (p *ControlFlowPointcut) IsRuntime() bool {
	return true
}

func (p *ControlFlowPointcut) MatchesRuntime(context.Context, *types.Method, reflect.Type, []interface{}) bool {
	atomic.AddInt64(&p.evaluationCount, 1)
	for _, name := range runtime.CallerFunctions(1) {
		if p.matchFunc(name) {
			return true
		}
	}
	return false
}
