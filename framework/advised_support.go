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

// Package framework builds proxies: it holds the advisor configuration,
// computes the interceptor chain of each method and runs it around the call
// to the target.
//
// Package framework 代理框架：管理通知器配置，为每个方法计算拦截器链，并在调用目标方法时执行该链。
package framework

import (
	"context"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gofrs/uuid/v5"
	"github.com/rulego/rulego-aop/advice"
	"github.com/rulego/rulego-aop/api/types"
	"github.com/rulego/rulego-aop/aspect"
	"github.com/rulego/rulego-aop/target"
	"github.com/rulego/rulego-aop/utils/cache"
)

// advisorsHolder is the immutable advisor list proxies read without locking.
type advisorsHolder struct {
	advisors   []types.Advisor
	interfaces []reflect.Type
}

// AdvisedSupport is the configuration behind proxies: the target source, the
// advisors and the interfaces a proxy exposes. Changes are published as a new
// snapshot, so running calls are never affected.
// AdvisedSupport 代理配置：目标源、通知器列表以及代理暴露的接口。
type AdvisedSupport struct {
	config       types.Config
	id           string
	targetSource *boundSource
	// advisors in insertion order; the published holder is sorted.
	advisors     []types.Advisor
	interfaces   []reflect.Type
	holder       atomic.Pointer[advisorsHolder]
	lock         sync.Mutex
	frozen       atomic.Bool
	exposeProxy  atomic.Bool
	preFiltered  bool
	chainFactory AdvisorChainFactory
	registry     *advice.AdapterRegistry
	methodCache  *cache.NamespaceCache
	// generation counts configuration changes; cached chains are keyed by it.
	generation   atomic.Uint64
}

// NewAdvisedSupport creates an empty configuration with an empty target source.
func NewAdvisedSupport(opts ...types.Option) *AdvisedSupport {
	config := types.NewConfig(opts...)
	id := uuid.Must(uuid.NewV4()).String()
	a := &AdvisedSupport{
		config:       config,
		id:           id,
		targetSource: &boundSource{source: target.NewEmptyTargetSource(nil)},
		chainFactory: DefaultAdvisorChainFactory,
		registry:     advice.DefaultAdapterRegistry,
	}
	if !config.DisableChainCache {
		backing := config.ChainCache
		if backing == nil {
			backing = cache.NewMemoryCache(0)
		}
		a.methodCache = cache.NewNamespaceCache(backing, id+":")
	}
	a.holder.Store(&advisorsHolder{})
	return a
}

// ID returns the identifier of this configuration.
func (a *AdvisedSupport) ID() string {
	return a.id
}

// Config returns the configuration options.
func (a *AdvisedSupport) Config() types.Config {
	return a.config
}

// Logger returns the configured logger.
func (a *AdvisedSupport) Logger() types.Logger {
	return types.NewLogger(a.config.Logger)
}

// SetTarget uses a fixed target object.
func (a *AdvisedSupport) SetTarget(obj interface{}) {
	a.SetTargetSource(target.NewSingletonTargetSource(obj))
}

// SetTargetSource replaces the target source. A nil source means no target.
func (a *AdvisedSupport) SetTargetSource(ts types.TargetSource) {
	if ts == nil {
		ts = target.NewEmptyTargetSource(nil)
	}
	a.lock.Lock()
	a.targetSource = &boundSource{source: ts}
	a.lock.Unlock()
	a.adviceChanged()
}

func (a *AdvisedSupport) TargetSource() types.TargetSource {
	return a.boundSource().source
}

func (a *AdvisedSupport) boundSource() *boundSource {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.targetSource
}

// boundSource is the current target source together with the target of a
// static source, obtained on the first call and kept until the source is replaced.
type boundSource struct {
	source types.TargetSource
	lock   sync.Mutex
	loaded atomic.Bool
	target interface{}
}

func (b *boundSource) getTarget(ctx context.Context) (interface{}, error) {
	if !b.source.IsStatic() {
		return b.source.GetTarget(ctx)
	}
	if b.loaded.Load() {
		return b.target, nil
	}
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.loaded.Load() {
		return b.target, nil
	}
	obj, err := b.source.GetTarget(ctx)
	if err != nil {
		return nil, err
	}
	b.target = obj
	b.loaded.Store(true)
	return obj, nil
}

// TargetType returns the type reported by the target source, may be nil.
func (a *AdvisedSupport) TargetType() reflect.Type {
	return a.TargetSource().TargetType()
}

// SetExposeProxy makes the proxy available through CurrentProxy during calls.
func (a *AdvisedSupport) SetExposeProxy(expose bool) {
	a.exposeProxy.Store(expose)
}

func (a *AdvisedSupport) ExposeProxy() bool {
	return a.exposeProxy.Load()
}

// SetPreFiltered skips type filters: advisors are known to apply to the target.
func (a *AdvisedSupport) SetPreFiltered(preFiltered bool) {
	a.lock.Lock()
	a.preFiltered = preFiltered
	a.lock.Unlock()
	a.adviceChanged()
}

func (a *AdvisedSupport) IsPreFiltered() bool {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.preFiltered
}

// SetFrozen forbids, or allows again, advisor changes.
func (a *AdvisedSupport) SetFrozen(frozen bool) {
	a.frozen.Store(frozen)
}

func (a *AdvisedSupport) IsFrozen() bool {
	return a.frozen.Load()
}

// SetAdvisorChainFactory replaces the chain factory.
func (a *AdvisedSupport) SetAdvisorChainFactory(factory AdvisorChainFactory) {
	a.lock.Lock()
	a.chainFactory = factory
	a.lock.Unlock()
	a.adviceChanged()
}

// SetAdapterRegistry replaces the registry turning advice into interceptors.
func (a *AdvisedSupport) SetAdapterRegistry(registry *advice.AdapterRegistry) {
	a.lock.Lock()
	a.registry = registry
	a.lock.Unlock()
	a.adviceChanged()
}

func (a *AdvisedSupport) AdapterRegistry() *advice.AdapterRegistry {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.registry
}

// AddInterface exposes iface on proxies.
func (a *AdvisedSupport) AddInterface(ifaces ...reflect.Type) error {
	for _, iface := range ifaces {
		if iface == nil || iface.Kind() != reflect.Interface {
			return types.NewIllegalConfigError("'%v' is not an interface", iface)
		}
	}
	a.lock.Lock()
	defer a.lock.Unlock()
	for _, iface := range ifaces {
		if !containsType(a.interfaces, iface) {
			a.interfaces = append(a.interfaces, iface)
		}
	}
	a.publishLocked()
	return nil
}

// Interfaces returns the exposed interfaces, introduced ones included.
func (a *AdvisedSupport) Interfaces() []reflect.Type {
	return append([]reflect.Type(nil), a.holder.Load().interfaces...)
}

// Advisors returns the advisors in precedence order.
func (a *AdvisedSupport) Advisors() []types.Advisor {
	return append([]types.Advisor(nil), a.holder.Load().advisors...)
}

// AddAdvice adds advice applying to every method.
func (a *AdvisedSupport) AddAdvice(adv types.Advice) error {
	advisor, err := a.AdapterRegistry().Wrap(adv)
	if err != nil {
		return err
	}
	return a.AddAdvisor(advisor)
}

// AddAdvisor adds advisors. Introduction advisors are validated and their
// interfaces exposed.
func (a *AdvisedSupport) AddAdvisor(advisors ...types.Advisor) error {
	if a.IsFrozen() {
		return fmt.Errorf("add advisor: %w", types.ErrFrozen)
	}
	registry := a.AdapterRegistry()
	for _, advisor := range advisors {
		if advisor == nil {
			return types.NewIllegalConfigError("advisor must not be nil")
		}
		if ia, ok := advisor.(types.IntroductionAdvisor); ok {
			if err := ia.Validate(); err != nil {
				return err
			}
			continue
		}
		if _, err := registry.Interceptors(advisor); err != nil {
			return err
		}
	}
	a.lock.Lock()
	defer a.lock.Unlock()
	for _, advisor := range advisors {
		a.advisors = append(a.advisors, advisor)
		if ia, ok := advisor.(types.IntroductionAdvisor); ok {
			for _, iface := range ia.Interfaces() {
				if !containsType(a.interfaces, iface) {
					a.interfaces = append(a.interfaces, iface)
				}
			}
		}
	}
	a.publishLocked()
	return nil
}

// RemoveAdvisor removes advisor and reports whether it was present.
func (a *AdvisedSupport) RemoveAdvisor(advisor types.Advisor) (bool, error) {
	if a.IsFrozen() {
		return false, fmt.Errorf("remove advisor: %w", types.ErrFrozen)
	}
	a.lock.Lock()
	defer a.lock.Unlock()
	for i, existing := range a.advisors {
		if existing == advisor {
			a.advisors = append(a.advisors[:i:i], a.advisors[i+1:]...)
			a.publishLocked()
			return true, nil
		}
	}
	return false, nil
}

// AddAspect adds the advisors of an aspect definition.
func (a *AdvisedSupport) AddAspect(def *aspect.Definition) error {
	advisors, err := aspect.NewAdvisorFactory(a.Logger()).GetAdvisors(def)
	if err != nil {
		return err
	}
	return a.AddAdvisor(advisors...)
}

// publishLocked stores a sorted snapshot and drops cached chains.
func (a *AdvisedSupport) publishLocked() {
	advisors := MakeAdvisorChainAspectCapable(a.advisors)
	a.holder.Store(&advisorsHolder{
		advisors:   aspect.SortAdvisors(advisors),
		interfaces: append([]reflect.Type(nil), a.interfaces...),
	})
	a.adviceChanged()
}

// adviceChanged retires every chain computed so far. A chain still being
// computed against the old configuration is stored under the old generation
// and never served.
func (a *AdvisedSupport) adviceChanged() {
	a.generation.Add(1)
	a.clearCache()
}

func (a *AdvisedSupport) clearCache() {
	if a.methodCache != nil {
		if err := a.methodCache.Clear(); err != nil {
			types.NewLogger(a.config.Logger).Warnf("clear chain cache of %s failed: %s", a.id, err.Error())
		}
	}
}

// InterceptorsFor returns the chain for method on targetType. Entries are
// types.MethodInterceptor or *InterceptorAndDynamicMethodMatcher.
func (a *AdvisedSupport) InterceptorsFor(method *types.Method, targetType reflect.Type) ([]interface{}, error) {
	key := chainKey(a.generation.Load(), method, targetType)
	if a.methodCache != nil {
		if cached, ok := a.methodCache.Get(key).([]interface{}); ok {
			return cached, nil
		}
	}
	a.lock.Lock()
	factory := a.chainFactory
	a.lock.Unlock()
	chain, err := factory.InterceptorsFor(a, method, targetType)
	if err != nil {
		return nil, err
	}
	if a.methodCache != nil {
		_ = a.methodCache.Set(key, chain, "")
	}
	return chain, nil
}

func (a *AdvisedSupport) String() string {
	return fmt.Sprintf("AdvisedSupport %s: %d interfaces %v; %d advisors; target source [%T]; frozen=%t",
		a.id, len(a.Interfaces()), a.Interfaces(), len(a.Advisors()), a.TargetSource(), a.IsFrozen())
}

func chainKey(generation uint64, method *types.Method, targetType reflect.Type) string {
	var sb strings.Builder
	sb.WriteString(strconv.FormatUint(generation, 10))
	sb.WriteByte('|')
	sb.WriteString(typeKey(method.DeclaringType))
	sb.WriteByte('.')
	sb.WriteString(method.Name)
	sb.WriteByte('@')
	sb.WriteString(typeKey(targetType))
	return sb.String()
}

func typeKey(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	if t.Kind() == reflect.Ptr {
		return "*" + typeKey(t.Elem())
	}
	if t.Name() != "" && t.PkgPath() != "" {
		return t.PkgPath() + "." + t.Name()
	}
	return t.String()
}

func containsType(list []reflect.Type, t reflect.Type) bool {
	for _, item := range list {
		if item == t {
			return true
		}
	}
	return false
}
