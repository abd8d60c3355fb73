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

// Package aspect turns aspect definitions into advisors: it provides aspect
// instance factories for each lifecycle, the advisor factory validating advice
// declarations, the precedence comparator and introduction advisors.
//
// Package aspect 切面：切面实例工厂、通知器工厂、优先级比较和引入通知器。
package aspect

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/rulego/rulego-aop/api/types"
	reflectutil "github.com/rulego/rulego-aop/utils/reflect"
)

// FactoryOption configures an aspect instance factory.
type FactoryOption func(m *metadata)

// WithOrder sets an explicit order, which wins over anything the instance declares.
func WithOrder(order int) FactoryOption {
	return func(m *metadata) {
		m.order = &order
	}
}

// WithTypeResolver sets the resolver for type names in advice declarations.
func WithTypeResolver(resolver types.TypeResolver) FactoryOption {
	return func(m *metadata) {
		m.resolver = resolver
	}
}

// metadata is shared by every factory.
type metadata struct {
	name       string
	aspectType reflect.Type
	order      *int
	resolver   types.TypeResolver
	lazy       bool
}

func newMetadata(name string, aspectType reflect.Type, opts []FactoryOption) metadata {
	m := metadata{name: name, aspectType: aspectType}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

func (m *metadata) AspectMetadata() types.AspectMetadata {
	return types.AspectMetadata{Name: m.name, Type: m.aspectType, Order: m.order, LazilyInstantiated: m.lazy}
}

func (m *metadata) TypeResolver() types.TypeResolver {
	if m.resolver != nil {
		return m.resolver
	}
	return types.DefaultTypeRegistry
}

// explicitOrder returns the declared order or LowestPrecedence.
func (m *metadata) explicitOrder() int {
	if m.order != nil {
		return *m.order
	}
	return types.LowestPrecedence
}

var (
	_ types.MetadataAwareAspectInstanceFactory = (*PrototypeFactory)(nil)
	_ types.MetadataAwareAspectInstanceFactory = (*TypeFactory)(nil)
	_ types.MetadataAwareAspectInstanceFactory = (*SingletonFactory)(nil)
	_ types.MetadataAwareAspectInstanceFactory = (*LazySingletonFactory)(nil)
)

// PrototypeFactory creates a fresh aspect instance on every call.
// PrototypeFactory 原型切面工厂，每次调用创建新实例。
type PrototypeFactory struct {
	metadata
	newFn func() (interface{}, error)
}

// NewPrototypeFactory creates a factory calling newFn for every instance. The
// aspect type is taken from T, so it is known without instantiating.
func NewPrototypeFactory[T any](name string, newFn func() (T, error), opts ...FactoryOption) *PrototypeFactory {
	return &PrototypeFactory{
		metadata: newMetadata(name, reflect.TypeOf((*T)(nil)).Elem(), opts),
		newFn: func() (interface{}, error) {
			return newFn()
		},
	}
}

// AspectInstance calls the constructor. Constructor errors and panics are
// reported as configuration errors.
func (f *PrototypeFactory) AspectInstance() (instance interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			instance = nil
			err = types.NewConfigError(fmt.Errorf("%v", r), "aspect '%s' constructor panicked", f.name)
		}
	}()
	instance, err = f.newFn()
	if err != nil {
		return nil, types.NewConfigError(err, "could not instantiate aspect '%s'", f.name)
	}
	return instance, nil
}

// Order never instantiates the aspect: it is the explicit order or the lowest precedence.
func (f *PrototypeFactory) Order() int {
	return f.explicitOrder()
}

// TypeFactory creates a fresh zero instance of a struct type on every call.
type TypeFactory struct {
	metadata
}

// NewTypeFactory creates a factory for aspectType, which must be a struct or
// a pointer to a struct.
func NewTypeFactory(name string, aspectType reflect.Type, opts ...FactoryOption) (*TypeFactory, error) {
	if _, err := reflectutil.NewInstance(aspectType); err != nil {
		return nil, types.NewConfigError(err, "unable to instantiate aspect '%s'", name)
	}
	return &TypeFactory{metadata: newMetadata(name, aspectType, opts)}, nil
}

func (f *TypeFactory) AspectInstance() (interface{}, error) {
	instance, err := reflectutil.NewInstance(f.aspectType)
	if err != nil {
		return nil, types.NewConfigError(err, "unable to instantiate aspect '%s'", f.name)
	}
	return instance, nil
}

func (f *TypeFactory) Order() int {
	return f.explicitOrder()
}

// SingletonFactory always returns the same instance.
type SingletonFactory struct {
	metadata
	instance interface{}
}

// NewSingletonFactory creates a factory for instance.
func NewSingletonFactory(name string, instance interface{}, opts ...FactoryOption) *SingletonFactory {
	return &SingletonFactory{metadata: newMetadata(name, reflect.TypeOf(instance), opts), instance: instance}
}

func (f *SingletonFactory) AspectInstance() (interface{}, error) {
	return f.instance, nil
}

// Order returns the explicit order, else the instance's own order.
func (f *SingletonFactory) Order() int {
	if f.order != nil {
		return *f.order
	}
	return types.OrderOf(f.instance)
}

// LazySingletonFactory asks the inner factory for an instance once, on first
// use, and returns that instance afterwards.
// LazySingletonFactory 懒加载单例工厂，首次使用时才创建实例。
type LazySingletonFactory struct {
	inner        types.AspectInstanceFactory
	instance     interface{}
	materialized bool
	lock         sync.Mutex
}

// NewLazySingletonFactory decorates inner.
func NewLazySingletonFactory(inner types.AspectInstanceFactory) *LazySingletonFactory {
	return &LazySingletonFactory{inner: inner}
}

func (f *LazySingletonFactory) AspectInstance() (interface{}, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.materialized {
		return f.instance, nil
	}
	instance, err := f.inner.AspectInstance()
	if err != nil {
		return nil, err
	}
	f.instance = instance
	f.materialized = true
	return instance, nil
}

// IsMaterialized reports whether the instance has been created.
func (f *LazySingletonFactory) IsMaterialized() bool {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.materialized
}

// Order delegates to the inner factory and never instantiates.
func (f *LazySingletonFactory) Order() int {
	return f.inner.Order()
}

func (f *LazySingletonFactory) TypeResolver() types.TypeResolver {
	return f.inner.TypeResolver()
}

func (f *LazySingletonFactory) AspectMetadata() types.AspectMetadata {
	var m types.AspectMetadata
	if aware, ok := f.inner.(types.MetadataAwareAspectInstanceFactory); ok {
		m = aware.AspectMetadata()
	}
	m.LazilyInstantiated = true
	return m
}
