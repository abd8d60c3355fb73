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

package config

import (
	"errors"
	"sync"

	"github.com/rulego/rulego-aop/api/types"
)

// Registry is the default registry used by Settings.Definitions when none is given.
var Registry = new(AspectRegistry)

// AspectRegistry maps the names used in configuration documents to aspect
// instance factories and introduction interceptors.
// AspectRegistry 切面注册表，配置文件通过名称引用切面工厂和引入拦截器。
type AspectRegistry struct {
	// factories is a map of aspect instance factories.
	factories map[string]types.AspectInstanceFactory
	// introductions is a map of introduction interceptors.
	introductions map[string]types.IntroductionInterceptor
	sync.RWMutex
}

// Register adds an aspect instance factory under name.
func (r *AspectRegistry) Register(name string, factory types.AspectInstanceFactory) error {
	if name == "" || factory == nil {
		return errors.New("aspect factory name and factory are required")
	}
	r.Lock()
	defer r.Unlock()
	if r.factories == nil {
		r.factories = make(map[string]types.AspectInstanceFactory)
	}
	if _, ok := r.factories[name]; ok {
		return errors.New("the aspect factory already exists. name=" + name)
	}
	r.factories[name] = factory
	return nil
}

// RegisterIntroduction adds an introduction interceptor under name.
func (r *AspectRegistry) RegisterIntroduction(name string, interceptor types.IntroductionInterceptor) error {
	if name == "" || interceptor == nil {
		return errors.New("introduction name and interceptor are required")
	}
	r.Lock()
	defer r.Unlock()
	if r.introductions == nil {
		r.introductions = make(map[string]types.IntroductionInterceptor)
	}
	if _, ok := r.introductions[name]; ok {
		return errors.New("the introduction already exists. name=" + name)
	}
	r.introductions[name] = interceptor
	return nil
}

// Unregister removes a factory or an introduction interceptor by name.
func (r *AspectRegistry) Unregister(name string) error {
	r.Lock()
	defer r.Unlock()
	if _, ok := r.factories[name]; ok {
		delete(r.factories, name)
		return nil
	}
	if _, ok := r.introductions[name]; ok {
		delete(r.introductions, name)
		return nil
	}
	return errors.New("not found. name=" + name)
}

// Factory returns the factory registered under name.
func (r *AspectRegistry) Factory(name string) (types.AspectInstanceFactory, error) {
	r.RLock()
	defer r.RUnlock()
	if factory, ok := r.factories[name]; ok {
		return factory, nil
	}
	return nil, types.NewIllegalConfigError("aspect factory '%s' is not registered", name)
}

// Introduction returns the introduction interceptor registered under name.
func (r *AspectRegistry) Introduction(name string) (types.IntroductionInterceptor, error) {
	r.RLock()
	defer r.RUnlock()
	if interceptor, ok := r.introductions[name]; ok {
		return interceptor, nil
	}
	return nil, types.NewIllegalConfigError("introduction interceptor '%s' is not registered", name)
}
