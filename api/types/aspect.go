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
	"math"
	"reflect"
)

// The interfaces below provide the AOP (Aspect Oriented Programming) mechanism. It is similar to an interceptor or
// hook mechanism, but selectors decide per method which advice applies and in which order.
//
//   - It allows adding extra behavior to any object without modifying its code.
//   - It allows separating common behaviors (such as logging, security, tracing, degradation, retry, caching) from the business logic.
//
// 以下接口提供 AOP(面向切面编程，Aspect Oriented Programming)机制，它类似拦截器或者hook机制，
// 但由切入点按方法决定执行哪些增强以及执行顺序。
//
//   - 它允许在不修改对象代码的情况下，为其添加额外的行为。
//   - 它允许把一些公共的行为（例如：日志、安全、调用跟踪、降级、重试、缓存）从业务逻辑中分离出来。

const (
	// HighestPrecedence is the smallest order value.
	HighestPrecedence = math.MinInt32
	// LowestPrecedence is the order applied when nothing declares one.
	LowestPrecedence = math.MaxInt32
)

// Ordered is implemented by advisors, advice and aspect instances that declare a precedence.
// Order returns the execution order, the smaller the value, the higher the priority.
// Order 返回执行顺序，值越小，优先级越高
type Ordered interface {
	Order() int
}

// AdviceKind classifies advice for precedence sorting and parameter binding.
type AdviceKind int

const (
	AdviceBefore AdviceKind = iota
	AdviceAfter
	AdviceAfterReturning
	AdviceAfterThrowing
	AdviceAround
)

var adviceKindNames = [...]string{"before", "after", "afterReturning", "afterThrowing", "around"}

func (k AdviceKind) String() string {
	if int(k) < len(adviceKindNames) {
		return adviceKindNames[k]
	}
	return "unknown"
}

// ParseAdviceKind converts a name such as "before" or "afterReturning" into an AdviceKind.
func ParseAdviceKind(name string) (AdviceKind, bool) {
	for i, n := range adviceKindNames {
		if n == name {
			return AdviceKind(i), true
		}
	}
	return 0, false
}

// IsBefore reports whether the advice runs before the join point.
func (k AdviceKind) IsBefore() bool {
	return k == AdviceBefore
}

// IsAfter reports whether the advice runs after the join point.
func (k AdviceKind) IsAfter() bool {
	return k == AdviceAfter || k == AdviceAfterReturning || k == AdviceAfterThrowing
}

// Advice is the marker for behavior attached at a join point. Concrete shapes:
// BeforeAdvice, AfterAdvice, AfterReturningAdvice, ThrowsAdvice and MethodInterceptor (around).
// Advice 增强的标记接口。
type Advice interface{}

// BeforeAdvice runs before the join point and then the chain continues
// unconditionally, unless it returns an error.
// BeforeAdvice 前置增强
type BeforeAdvice interface {
	Before(ctx context.Context, method *Method, args []interface{}, target interface{}) error
}

// BeforeAdviceFunc adapts a function to BeforeAdvice.
type BeforeAdviceFunc func(ctx context.Context, method *Method, args []interface{}, target interface{}) error

func (f BeforeAdviceFunc) Before(ctx context.Context, method *Method, args []interface{}, target interface{}) error {
	return f(ctx, method, args, target)
}

// AfterAdvice runs after the join point whether it returned or failed (finally).
// AfterAdvice 最终增强，无论是否出错都会执行
type AfterAdvice interface {
	After(ctx context.Context, method *Method, args []interface{}, target interface{}, err error) error
}

// AfterAdviceFunc adapts a function to AfterAdvice.
type AfterAdviceFunc func(ctx context.Context, method *Method, args []interface{}, target interface{}, err error) error

func (f AfterAdviceFunc) After(ctx context.Context, method *Method, args []interface{}, target interface{}, err error) error {
	return f(ctx, method, args, target, err)
}

// AfterReturningAdvice runs only after a normal return.
// AfterReturningAdvice 返回后增强，仅在正常返回时执行
type AfterReturningAdvice interface {
	AfterReturning(ctx context.Context, returnValue interface{}, method *Method, args []interface{}, target interface{}) error
}

// ThrowsAdvice runs only when the join point failed. The original error is
// propagated afterwards unless the advice returns a different one.
// ThrowsAdvice 异常增强，仅在出错时执行
type ThrowsAdvice interface {
	AfterThrowing(ctx context.Context, method *Method, args []interface{}, target interface{}, err error) error
}

// Advisor binds one Advice to where it applies.
// Advisor 通知器，把一个增强绑定到它的作用范围。
type Advisor interface {
	Advice() Advice
}

// PointcutAdvisor is an advisor driven by a pointcut.
type PointcutAdvisor interface {
	Advisor
	Pointcut() Pointcut
}

// IntroductionInterceptor implements introduced interfaces on behalf of the proxy.
type IntroductionInterceptor interface {
	MethodInterceptor
	// ImplementsInterface reports whether the interceptor provides iface.
	ImplementsInterface(iface reflect.Type) bool
}

// IntroductionAdvisor adds new interfaces to a proxied object.
// IntroductionAdvisor 引介通知器，为代理对象增加新的接口能力。
type IntroductionAdvisor interface {
	Advisor
	TypeFilter() TypeFilter
	Interfaces() []reflect.Type
	// Validate checks that the advice implements every introduced interface.
	Validate() error
}

// AspectPrecedenceInformation exposes what is needed to sort advisors
// without instantiating the aspect behind them.
// AspectPrecedenceInformation 排序所需的元数据，获取时不会实例化切面。
type AspectPrecedenceInformation interface {
	Ordered
	AspectName() string
	DeclarationOrder() int
	IsBeforeAdvice() bool
	IsAfterAdvice() bool
}

// OrderOf returns the order declared by v, or LowestPrecedence.
func OrderOf(v interface{}) int {
	if o, ok := v.(Ordered); ok {
		return o.Order()
	}
	return LowestPrecedence
}

// AdvisorOrder returns the precedence of an advisor: its own order, else its advice's, else LowestPrecedence.
func AdvisorOrder(advisor Advisor) int {
	if o, ok := advisor.(Ordered); ok {
		return o.Order()
	}
	return OrderOf(advisor.Advice())
}
