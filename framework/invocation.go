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
	"context"
	"fmt"
	"reflect"

	"github.com/rulego/rulego-aop/advice"
	"github.com/rulego/rulego-aop/api/types"
	reflectutil "github.com/rulego/rulego-aop/utils/reflect"
)

var contextType = reflect.TypeOf((*context.Context)(nil)).Elem()

// ReflectiveInvoker calls the target method through reflection. When the
// method takes a leading context.Context that the arguments omit, the call
// context is passed.
var ReflectiveInvoker types.Invoker = types.InvokerFunc(reflectiveInvoke)

func reflectiveInvoke(ctx context.Context, target interface{}, method *types.Method, args []interface{}) (interface{}, error) {
	if len(method.In) > 0 && method.In[0] == contextType && len(args) == len(method.In)-1 {
		args = append([]interface{}{ctx}, args...)
	}
	return reflectutil.CallMethod(target, method, args)
}

// ReflectiveMethodInvocation runs an interceptor chain for one call and
// invokes the target at its end. It is owned by the calling goroutine.
// ReflectiveMethodInvocation 一次调用的拦截器链执行器，仅由调用协程使用。
type ReflectiveMethodInvocation struct {
	ctx          context.Context
	proxy        interface{}
	target       interface{}
	method       *types.Method
	args         []interface{}
	targetType   reflect.Type
	interceptors []interface{}
	invoker      types.Invoker
	// index of the interceptor currently running, -1 before the first.
	index      int
	attributes map[string]interface{}
}

var (
	_ types.MethodInvocation = (*ReflectiveMethodInvocation)(nil)
	_ advice.InvocableCloner = (*ReflectiveMethodInvocation)(nil)
)

// NewReflectiveMethodInvocation creates an invocation positioned before the
// first interceptor. A nil invoker uses ReflectiveInvoker.
func NewReflectiveMethodInvocation(ctx context.Context, proxy, target interface{}, method *types.Method,
	args []interface{}, targetType reflect.Type, interceptors []interface{}, invoker types.Invoker) *ReflectiveMethodInvocation {
	if ctx == nil {
		ctx = context.Background()
	}
	if invoker == nil {
		invoker = ReflectiveInvoker
	}
	return &ReflectiveMethodInvocation{
		ctx:          ctx,
		proxy:        proxy,
		target:       target,
		method:       method,
		args:         args,
		targetType:   targetType,
		interceptors: interceptors,
		invoker:      invoker,
		index:        -1,
	}
}

func (r *ReflectiveMethodInvocation) Context() context.Context {
	return r.ctx
}

func (r *ReflectiveMethodInvocation) SetContext(ctx context.Context) {
	r.ctx = ctx
}

func (r *ReflectiveMethodInvocation) Method() *types.Method {
	return r.method
}

func (r *ReflectiveMethodInvocation) Arguments() []interface{} {
	return r.args
}

func (r *ReflectiveMethodInvocation) SetArguments(args []interface{}) {
	r.args = args
}

func (r *ReflectiveMethodInvocation) This() interface{} {
	return r.proxy
}

func (r *ReflectiveMethodInvocation) Target() interface{} {
	return r.target
}

// TargetType returns the type the chain was computed for.
func (r *ReflectiveMethodInvocation) TargetType() reflect.Type {
	return r.targetType
}

// Proceed runs the next interceptor. Dynamic entries whose matcher rejects
// the current arguments are skipped. After the last one the target is invoked.
func (r *ReflectiveMethodInvocation) Proceed() (interface{}, error) {
	if r.index == len(r.interceptors)-1 {
		return r.invoker.Invoke(r.ctx, r.target, r.method, r.args)
	}
	r.index++
	switch interceptor := r.interceptors[r.index].(type) {
	case *InterceptorAndDynamicMethodMatcher:
		if interceptor.MethodMatcher.MatchesRuntime(r.ctx, r.method, r.targetType, r.args) {
			return interceptor.Interceptor.Invoke(r)
		}
		return r.Proceed()
	case types.MethodInterceptor:
		return interceptor.Invoke(r)
	default:
		return nil, fmt.Errorf("%w: chain entry %T", types.ErrUnknownAdviceType, interceptor)
	}
}

// InvocableClone returns an invocation continuing from the current position
// with its own cursor, arguments and a copy of the user attributes. A context
// exposing this invocation is rebound to the clone.
func (r *ReflectiveMethodInvocation) InvocableClone(args []interface{}) types.MethodInvocation {
	clone := *r
	clone.args = append([]interface{}(nil), args...)
	if r.attributes != nil {
		clone.attributes = make(map[string]interface{}, len(r.attributes))
		for k, v := range r.attributes {
			clone.attributes[k] = v
		}
	}
	if exposed, ok := types.InvocationFromContext(r.ctx); ok && exposed == types.MethodInvocation(r) {
		clone.ctx = types.WithInvocation(r.ctx, &clone)
	}
	return &clone
}

func (r *ReflectiveMethodInvocation) UserAttribute(key string) (interface{}, bool) {
	v, ok := r.attributes[key]
	return v, ok
}

func (r *ReflectiveMethodInvocation) SetUserAttribute(key string, value interface{}) {
	if r.attributes == nil {
		r.attributes = make(map[string]interface{})
	}
	if value == nil {
		delete(r.attributes, key)
		return
	}
	r.attributes[key] = value
}

func (r *ReflectiveMethodInvocation) String() string {
	return fmt.Sprintf("ReflectiveMethodInvocation: %s; target is of type [%T]", r.method, r.target)
}
