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
	"reflect"
)

// TargetSource supplies the real receiver for each call and reclaims it afterwards.
// Every GetTarget on a non-static source is matched by exactly one ReleaseTarget.
//
// TargetSource 目标源，为每次调用提供真实的目标对象，并在调用结束后回收。
// 非静态目标源的每次 GetTarget 都会对应一次 ReleaseTarget。
type TargetSource interface {
	// TargetType returns the type of targets this source returns, may be nil if unknown.
	TargetType() reflect.Type
	// IsStatic reports whether GetTarget always returns the same object.
	// The proxy then obtains it on the first call, reuses it until the source
	// is replaced, and never calls ReleaseTarget.
	IsStatic() bool
	// GetTarget returns a target instance.
	GetTarget(ctx context.Context) (interface{}, error)
	// ReleaseTarget hands back a target obtained from GetTarget.
	ReleaseTarget(ctx context.Context, target interface{}) error
}

// Destroyer is implemented by components holding resources that must be
// released at shutdown. Destroy must be safe to call when nothing was created.
// Destroyer 需要在关闭时释放资源的组件实现该接口。
type Destroyer interface {
	Destroy() error
}

// AspectInstanceFactory provides the object owning the advice methods.
// AspectInstanceFactory 切面实例工厂，提供拥有增强方法的切面对象。
type AspectInstanceFactory interface {
	Ordered
	// AspectInstance returns the aspect instance, creating it if the lifecycle requires.
	AspectInstance() (interface{}, error)
	// TypeResolver returns the resolver used for type names in advice declarations.
	TypeResolver() TypeResolver
}

// AspectMetadata describes an aspect without instantiating it.
type AspectMetadata struct {
	// Name is the aspect name, unique within a proxy configuration.
	Name string
	// Type is the aspect type, may be nil when only an instance is known.
	Type reflect.Type
	// Order is an explicit order, nil when not declared.
	Order *int
	// LazilyInstantiated reports whether instantiation is deferred until first use.
	LazilyInstantiated bool
}

// MetadataAwareAspectInstanceFactory also exposes the aspect metadata.
type MetadataAwareAspectInstanceFactory interface {
	AspectInstanceFactory
	AspectMetadata() AspectMetadata
}
