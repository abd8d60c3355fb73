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
)

// MethodInvocation is the state of one intercepted call. It is created per
// call, used by a single goroutine and discarded afterwards.
// MethodInvocation 一次被拦截调用的状态，每次调用创建，仅由当前协程使用。
type MethodInvocation interface {
	// Context returns the call context.
	Context() context.Context
	// SetContext replaces the context seen by the rest of the chain.
	SetContext(ctx context.Context)
	// Method returns the invoked method.
	Method() *Method
	// Arguments returns the current arguments. Interceptors may modify them.
	Arguments() []interface{}
	// SetArguments replaces the arguments passed to the rest of the chain.
	SetArguments(args []interface{})
	// This returns the proxy the call arrived at.
	This() interface{}
	// Target returns the object obtained from the target source.
	Target() interface{}
	// Proceed runs the next interceptor, or the real method at the end of the chain.
	Proceed() (interface{}, error)
	// UserAttribute returns a value stored for this invocation only.
	UserAttribute(key string) (interface{}, bool)
	// SetUserAttribute stores a value for this invocation only.
	SetUserAttribute(key string, value interface{})
}

// MethodInterceptor is the uniform around-style contract every advice is
// adapted to. It must call inv.Proceed() to continue the chain; not calling it
// short-circuits the chain and the real call.
// MethodInterceptor 环绕拦截器，所有增强最终都适配为该接口。
type MethodInterceptor interface {
	Invoke(inv MethodInvocation) (interface{}, error)
}

// MethodInterceptorFunc adapts a function to MethodInterceptor.
type MethodInterceptorFunc func(inv MethodInvocation) (interface{}, error)

// Invoke calls f(inv).
func (f MethodInterceptorFunc) Invoke(inv MethodInvocation) (interface{}, error) {
	return f(inv)
}

// JoinPoint is the read-only view of an invocation handed to aspect methods.
// JoinPoint 传递给切面方法的连接点只读视图。
type JoinPoint interface {
	Context() context.Context
	Method() *Method
	Args() []interface{}
	This() interface{}
	Target() interface{}
	// Kind returns the kind of advice currently running.
	Kind() AdviceKind
}

// ProceedingJoinPoint is the JoinPoint given to around advice: "the rest of the chain".
// ProceedingJoinPoint 环绕增强使用的连接点，代表“链的剩余部分”。
type ProceedingJoinPoint interface {
	JoinPoint
	// Proceed continues with the current arguments.
	Proceed() (interface{}, error)
	// ProceedWith continues with replaced arguments.
	ProceedWith(args ...interface{}) (interface{}, error)
}

type invocationKey struct{}

// WithInvocation returns a context carrying the current invocation.
func WithInvocation(ctx context.Context, inv MethodInvocation) context.Context {
	return context.WithValue(ctx, invocationKey{}, inv)
}

// InvocationFromContext returns the invocation exposed on ctx, if any.
// InvocationFromContext 获取上下文中暴露的当前调用。
func InvocationFromContext(ctx context.Context) (MethodInvocation, bool) {
	if ctx == nil {
		return nil, false
	}
	inv, ok := ctx.Value(invocationKey{}).(MethodInvocation)
	return inv, ok
}
