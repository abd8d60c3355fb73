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

package aspect

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/rulego/rulego-aop/api/types"
	"github.com/rulego/rulego-aop/pointcut"
	reflectutil "github.com/rulego/rulego-aop/utils/reflect"
)

// isIntroducedMethod reports whether the invoked method belongs to one of the
// introduced interfaces.
func isIntroducedMethod(inv types.MethodInvocation, implements func(reflect.Type) bool) bool {
	declaring := inv.Method().DeclaringType
	return declaring != nil && declaring.Kind() == reflect.Interface && implements(declaring)
}

// DelegatingIntroductionInterceptor implements introduced interfaces with a
// single delegate shared by every target.
// DelegatingIntroductionInterceptor 引入拦截器：所有目标共享同一个委托对象。
type DelegatingIntroductionInterceptor struct {
	delegate interface{}
}

var (
	_ types.IntroductionInterceptor = (*DelegatingIntroductionInterceptor)(nil)
	_ types.IntroductionInterceptor = (*DelegatePerTargetIntroductionInterceptor)(nil)
	_ types.IntroductionAdvisor     = (*IntroductionAdvisor)(nil)
)

// NewDelegatingIntroductionInterceptor creates an interceptor for delegate.
func NewDelegatingIntroductionInterceptor(delegate interface{}) *DelegatingIntroductionInterceptor {
	return &DelegatingIntroductionInterceptor{delegate: delegate}
}

// Delegate returns the shared delegate.
func (i *DelegatingIntroductionInterceptor) Delegate() interface{} {
	return i.delegate
}

func (i *DelegatingIntroductionInterceptor) ImplementsInterface(iface reflect.Type) bool {
	return i.delegate != nil && reflect.TypeOf(i.delegate).Implements(iface)
}

func (i *DelegatingIntroductionInterceptor) Invoke(inv types.MethodInvocation) (interface{}, error) {
	if isIntroducedMethod(inv, i.ImplementsInterface) {
		return reflectutil.CallMethod(i.delegate, inv.Method(), inv.Arguments())
	}
	return inv.Proceed()
}

// DelegatePerTargetIntroductionInterceptor keeps one delegate per target
// object, created on first use by newDelegate.
// DelegatePerTargetIntroductionInterceptor 引入拦截器：每个目标对象一个委托对象。
type DelegatePerTargetIntroductionInterceptor struct {
	delegateType reflect.Type
	newDelegate  func() (interface{}, error)
	delegates    map[interface{}]interface{}
	lock         sync.Mutex
}

// NewDelegatePerTargetIntroductionInterceptor creates an interceptor whose
// delegates are made by newDelegate.
func NewDelegatePerTargetIntroductionInterceptor[T any](newDelegate func() (T, error)) *DelegatePerTargetIntroductionInterceptor {
	return &DelegatePerTargetIntroductionInterceptor{
		delegateType: reflect.TypeOf((*T)(nil)).Elem(),
		newDelegate: func() (interface{}, error) {
			return newDelegate()
		},
		delegates: make(map[interface{}]interface{}),
	}
}

func (i *DelegatePerTargetIntroductionInterceptor) ImplementsInterface(iface reflect.Type) bool {
	return i.delegateType.Implements(iface)
}

// DelegateFor returns the delegate of target, creating it on first use.
// Targets that cannot be map keys get a fresh delegate every time.
func (i *DelegatePerTargetIntroductionInterceptor) DelegateFor(target interface{}) (interface{}, error) {
	if target == nil || !reflect.TypeOf(target).Comparable() {
		return i.newDelegate()
	}
	i.lock.Lock()
	defer i.lock.Unlock()
	if d, ok := i.delegates[target]; ok {
		return d, nil
	}
	d, err := i.newDelegate()
	if err != nil {
		return nil, err
	}
	i.delegates[target] = d
	return d, nil
}

// Release drops the delegate of target.
func (i *DelegatePerTargetIntroductionInterceptor) Release(target interface{}) {
	if target == nil || !reflect.TypeOf(target).Comparable() {
		return
	}
	i.lock.Lock()
	defer i.lock.Unlock()
	delete(i.delegates, target)
}

func (i *DelegatePerTargetIntroductionInterceptor) Invoke(inv types.MethodInvocation) (interface{}, error) {
	if !isIntroducedMethod(inv, i.ImplementsInterface) {
		return inv.Proceed()
	}
	delegate, err := i.DelegateFor(inv.Target())
	if err != nil {
		return nil, err
	}
	return reflectutil.CallMethod(delegate, inv.Method(), inv.Arguments())
}

// IntroductionAdvisor makes targets matched by its type filter implement
// additional interfaces, served by an introduction interceptor.
// IntroductionAdvisor 引入通知器：为匹配的目标类型引入额外接口。
type IntroductionAdvisor struct {
	interceptor types.IntroductionInterceptor
	interfaces  []reflect.Type
	typeFilter  types.TypeFilter
	order       *int
}

// NewIntroductionAdvisor introduces interfaces to every target type.
func NewIntroductionAdvisor(interceptor types.IntroductionInterceptor, interfaces ...reflect.Type) *IntroductionAdvisor {
	return &IntroductionAdvisor{
		interceptor: interceptor,
		interfaces:  append([]reflect.Type(nil), interfaces...),
		typeFilter:  pointcut.TrueTypeFilter,
	}
}

// WithTypeFilter restricts the target types and returns the advisor.
func (a *IntroductionAdvisor) WithTypeFilter(filter types.TypeFilter) *IntroductionAdvisor {
	a.typeFilter = filter
	return a
}

// WithOrder sets an explicit order and returns the advisor.
func (a *IntroductionAdvisor) WithOrder(order int) *IntroductionAdvisor {
	a.order = &order
	return a
}

func (a *IntroductionAdvisor) Advice() types.Advice {
	return a.interceptor
}

func (a *IntroductionAdvisor) TypeFilter() types.TypeFilter {
	return a.typeFilter
}

func (a *IntroductionAdvisor) Interfaces() []reflect.Type {
	return append([]reflect.Type(nil), a.interfaces...)
}

func (a *IntroductionAdvisor) Order() int {
	if a.order != nil {
		return *a.order
	}
	return types.OrderOf(a.interceptor)
}

// Validate checks that every introduced type is an interface the interceptor implements.
func (a *IntroductionAdvisor) Validate() error {
	if len(a.interfaces) == 0 {
		return types.NewIllegalConfigError("introduction advisor declares no interfaces")
	}
	for _, iface := range a.interfaces {
		if iface == nil || iface.Kind() != reflect.Interface {
			return types.NewIllegalConfigError("introduced type '%v' is not an interface", iface)
		}
		if !a.interceptor.ImplementsInterface(iface) {
			return types.NewIllegalConfigError("introduction interceptor [%T] does not implement interface '%s'", a.interceptor, iface)
		}
	}
	return nil
}

func (a *IntroductionAdvisor) String() string {
	return fmt.Sprintf("IntroductionAdvisor: interfaces %v; interceptor [%T]", a.interfaces, a.interceptor)
}
