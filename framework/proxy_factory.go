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
	"reflect"

	"github.com/rulego/rulego-aop/api/types"
	"github.com/rulego/rulego-aop/target"
)

// ProxyFactory configures and creates proxies.
// ProxyFactory 代理工厂，用于配置并创建代理。
//
// Usage Example:
// 使用示例：
//
//	factory := framework.NewProxyFactory(&Employee{})
//	_ = factory.AddAdvice(&AuditAdvice{})
//	proxy, err := factory.GetProxy()
//	result, err := proxy.Invoke(ctx, "SetName", "Tony")
type ProxyFactory struct {
	*AdvisedSupport
}

// NewProxyFactory creates a factory for a fixed target, nil for none.
func NewProxyFactory(obj interface{}, opts ...types.Option) *ProxyFactory {
	f := &ProxyFactory{AdvisedSupport: NewAdvisedSupport(opts...)}
	if obj != nil {
		f.SetTarget(obj)
	}
	return f
}

// NewProxyFactoryForSource creates a factory drawing targets from ts.
func NewProxyFactoryForSource(ts types.TargetSource, opts ...types.Option) *ProxyFactory {
	f := &ProxyFactory{AdvisedSupport: NewAdvisedSupport(opts...)}
	f.SetTargetSource(ts)
	return f
}

// NewInterfaceProxyFactory creates a factory for a proxy without target
// implementing ifaces through advice and introductions.
func NewInterfaceProxyFactory(ifaces []reflect.Type, opts ...types.Option) (*ProxyFactory, error) {
	f := &ProxyFactory{AdvisedSupport: NewAdvisedSupport(opts...)}
	var targetType reflect.Type
	if len(ifaces) > 0 {
		targetType = ifaces[0]
	}
	f.SetTargetSource(target.NewEmptyTargetSource(targetType))
	if err := f.AddInterface(ifaces...); err != nil {
		return nil, err
	}
	return f, nil
}

// GetProxy returns a new proxy and freezes the configuration. Call
// SetFrozen(false) to change advisors afterwards; proxies see the change on
// their next call.
func (f *ProxyFactory) GetProxy() (*Proxy, error) {
	if f.TargetType() == nil && len(f.Interfaces()) == 0 {
		return nil, types.NewIllegalConfigError("cannot create proxy: no target type and no interfaces")
	}
	f.SetFrozen(true)
	return newProxy(f.AdvisedSupport), nil
}
