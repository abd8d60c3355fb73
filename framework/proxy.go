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
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/gofrs/uuid/v5"
	"github.com/rulego/rulego-aop/api/types"
)

// ErrNoCurrentProxy is returned by CurrentProxy outside a proxy call or when
// the proxy does not expose itself.
var ErrNoCurrentProxy = errors.New("cannot find current proxy: set ExposeProxy to make it available")

type proxyKey struct{}

// CurrentProxy returns the proxy whose call is running on ctx. It requires
// SetExposeProxy(true) on the proxy configuration.
// CurrentProxy 获取当前调用所在的代理对象，需开启 ExposeProxy。
func CurrentProxy(ctx context.Context) (*Proxy, error) {
	if ctx != nil {
		if p, ok := ctx.Value(proxyKey{}).(*Proxy); ok {
			return p, nil
		}
	}
	return nil, ErrNoCurrentProxy
}

var (
	defaultPoolOnce sync.Once
	defaultPool     types.Pool
)

func sharedPool() types.Pool {
	defaultPoolOnce.Do(func() {
		defaultPool = types.DefaultPool()
	})
	return defaultPool
}

// Proxy stands in for a target: every call goes through the interceptor
// chain computed for the method before reaching the object supplied by the
// target source.
// Proxy 代理对象：每次调用先经过为该方法计算的拦截器链，再到达目标源提供的目标对象。
type Proxy struct {
	id      string
	advised *AdvisedSupport
	methods sync.Map
}

func newProxy(advised *AdvisedSupport) *Proxy {
	return &Proxy{id: uuid.Must(uuid.NewV4()).String(), advised: advised}
}

// ID returns the proxy identifier.
func (p *Proxy) ID() string {
	return p.id
}

// Advised returns the configuration behind the proxy.
func (p *Proxy) Advised() *AdvisedSupport {
	return p.advised
}

// Implements reports whether the proxy answers the methods of iface, either
// through the target type or through exposed and introduced interfaces.
func (p *Proxy) Implements(iface reflect.Type) bool {
	if iface == nil || iface.Kind() != reflect.Interface {
		return false
	}
	for _, exposed := range p.advised.Interfaces() {
		if exposed == iface || exposed.Implements(iface) {
			return true
		}
	}
	if t := p.advised.TargetType(); t != nil {
		return t.Implements(iface)
	}
	return false
}

// Method resolves the named method for the current target type.
func (p *Proxy) Method(name string) (*types.Method, error) {
	return p.resolve(name, p.advised.TargetType())
}

func (p *Proxy) resolve(name string, targetType reflect.Type) (*types.Method, error) {
	key := name + "@" + typeKey(targetType)
	if m, ok := p.methods.Load(key); ok {
		return m.(*types.Method), nil
	}
	var method *types.Method
	for _, iface := range p.advised.Interfaces() {
		if m, ok := types.MethodOf(iface, name); ok {
			method = m
			break
		}
	}
	if method == nil {
		if m, ok := types.MethodOf(targetType, name); ok {
			method = m
		}
	}
	if method == nil {
		return nil, fmt.Errorf("%w: %s on proxy of %v", types.ErrMethodNotFound, name, targetType)
	}
	p.methods.Store(key, method)
	return method, nil
}

// Invoke calls the named method with args through the proxy.
func (p *Proxy) Invoke(ctx context.Context, methodName string, args ...interface{}) (interface{}, error) {
	return p.invoke(ctx, methodName, nil, args)
}

// InvokeMethod calls method with args through the proxy.
func (p *Proxy) InvokeMethod(ctx context.Context, method *types.Method, args ...interface{}) (interface{}, error) {
	if method == nil {
		return nil, fmt.Errorf("%w: nil method", types.ErrMethodNotFound)
	}
	return p.invoke(ctx, method.Name, method, args)
}

// InvokeAsync runs Invoke on the configured pool and hands the outcome to
// callback. It returns the error of submitting the call.
func (p *Proxy) InvokeAsync(ctx context.Context, methodName string, callback func(result interface{}, err error), args ...interface{}) error {
	pool := p.advised.Config().Pool
	if pool == nil {
		pool = sharedPool()
	}
	return pool.Submit(func() {
		result, err := p.Invoke(ctx, methodName, args...)
		if callback != nil {
			callback(result, err)
		}
	})
}

func (p *Proxy) invoke(ctx context.Context, name string, method *types.Method, args []interface{}) (result interface{}, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if p.advised.ExposeProxy() {
		ctx = context.WithValue(ctx, proxyKey{}, p)
	}
	bound := p.advised.boundSource()
	ts := bound.source
	target, err := bound.getTarget(ctx)
	if err != nil {
		return nil, err
	}
	if !ts.IsStatic() {
		defer func() {
			if releaseErr := ts.ReleaseTarget(ctx, target); releaseErr != nil {
				if err == nil {
					err = releaseErr
				} else {
					p.advised.Logger().Warnf("release of target after failed call to %s failed: %s", name, releaseErr.Error())
				}
			}
		}()
	}
	targetType := ts.TargetType()
	if target != nil {
		targetType = reflect.TypeOf(target)
	}
	if method == nil {
		if method, err = p.resolve(name, targetType); err != nil {
			return nil, err
		}
	}
	invoker := p.advised.Config().Invoker
	if invoker == nil {
		invoker = ReflectiveInvoker
	}
	chain, err := p.advised.InterceptorsFor(method, targetType)
	if err != nil {
		return nil, err
	}
	if len(chain) == 0 {
		return invoker.Invoke(ctx, target, method, args)
	}
	inv := NewReflectiveMethodInvocation(ctx, p, target, method, args, targetType, chain, invoker)
	return inv.Proceed()
}

// Destroy tears down the target source when it holds resources.
func (p *Proxy) Destroy() error {
	if destroyer, ok := p.advised.TargetSource().(types.Destroyer); ok {
		return destroyer.Destroy()
	}
	return nil
}

func (p *Proxy) String() string {
	return fmt.Sprintf("Proxy %s for %v", p.id, p.advised.TargetType())
}
