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
	"strings"

	"github.com/rulego/rulego-aop/advice"
	"github.com/rulego/rulego-aop/api/types"
	"github.com/rulego/rulego-aop/pointcut"
)

// AdviceDeclaration declares one advice method of an aspect.
type AdviceDeclaration struct {
	// Kind is the advice kind.
	Kind types.AdviceKind
	// Method names the advice method. Matched exactly first, then case-insensitively.
	Method string
	// Pointcut names a pointcut of the definition, or is an expression pointcut.
	Pointcut string
	// PointcutRef is used instead of Pointcut when set.
	PointcutRef types.Pointcut
	// ArgNames names the parameters after an optional leading join point.
	ArgNames []string
	// Returning is the argument receiving the return value.
	Returning string
	// Throwing is the argument receiving the error.
	Throwing string
	// ReturningType is a type name restricting after-returning advice.
	ReturningType string
	// ThrowingType is a type name restricting after-throwing advice.
	ThrowingType string
}

// IntroductionDeclaration declares interfaces introduced to matching targets.
type IntroductionDeclaration struct {
	// TypesMatching is a "*" wildcard type name pattern, "" for every type.
	TypesMatching string
	// Interfaces are the introduced interfaces.
	Interfaces []reflect.Type
	// InterfaceNames are resolved with the factory's TypeResolver.
	InterfaceNames []string
	// Interceptor serves the introduced interfaces.
	Interceptor types.IntroductionInterceptor
}

// Definition is an aspect: an instance factory plus named pointcuts, advice
// and introductions.
// Definition 切面定义。
type Definition struct {
	Name    string
	Factory types.AspectInstanceFactory
	// Order overrides the factory's order when set.
	Order         *int
	Pointcuts     map[string]types.Pointcut
	Advice        []AdviceDeclaration
	Introductions []IntroductionDeclaration
}

// NewDefinition creates an empty definition.
func NewDefinition(name string, factory types.AspectInstanceFactory) *Definition {
	return &Definition{Name: name, Factory: factory, Pointcuts: make(map[string]types.Pointcut)}
}

// WithPointcut adds a named pointcut.
func (d *Definition) WithPointcut(name string, pc types.Pointcut) *Definition {
	if d.Pointcuts == nil {
		d.Pointcuts = make(map[string]types.Pointcut)
	}
	d.Pointcuts[name] = pc
	return d
}

// WithAdvice appends advice declarations in declaration order.
func (d *Definition) WithAdvice(declarations ...AdviceDeclaration) *Definition {
	d.Advice = append(d.Advice, declarations...)
	return d
}

// WithIntroduction appends an introduction.
func (d *Definition) WithIntroduction(declaration IntroductionDeclaration) *Definition {
	d.Introductions = append(d.Introductions, declaration)
	return d
}

// WithOrder sets an explicit order.
func (d *Definition) WithOrder(order int) *Definition {
	d.Order = &order
	return d
}

// AdvisorFactory turns definitions into advisors.
// AdvisorFactory 通知器工厂，将切面定义转换为通知器。
type AdvisorFactory struct {
	Logger types.Logger
}

// NewAdvisorFactory creates a factory logging to logger.
func NewAdvisorFactory(logger types.Logger) *AdvisorFactory {
	return &AdvisorFactory{Logger: logger}
}

// AspectType returns the aspect type of def, without instantiating when the
// factory knows it.
func AspectType(def *Definition) (reflect.Type, error) {
	if aware, ok := def.Factory.(types.MetadataAwareAspectInstanceFactory); ok {
		if t := aware.AspectMetadata().Type; t != nil {
			return t, nil
		}
	}
	return nil, types.NewIllegalConfigError("aspect type of '%s' is unknown", def.Name)
}

// Validate checks def without building advisors.
func (f *AdvisorFactory) Validate(def *Definition) error {
	_, err := f.GetAdvisors(def)
	return err
}

// GetAdvisors builds one advisor per advice declaration, in declaration
// order, followed by one advisor per introduction.
func (f *AdvisorFactory) GetAdvisors(def *Definition) ([]types.Advisor, error) {
	if def == nil || def.Factory == nil {
		return nil, types.NewIllegalConfigError("aspect definition has no instance factory")
	}
	if def.Name == "" {
		return nil, types.NewIllegalConfigError("aspect definition has no name")
	}
	aspectType, err := AspectType(def)
	if err != nil {
		return nil, err
	}
	resolver := def.Factory.TypeResolver()
	var advisors []types.Advisor
	for i, decl := range def.Advice {
		a, err := f.newAdvice(def, aspectType, resolver, decl, i)
		if err != nil {
			return nil, err
		}
		advisors = append(advisors, NewAdvisor(a, def.Order))
	}
	for _, decl := range def.Introductions {
		advisor, err := f.newIntroduction(def, resolver, decl)
		if err != nil {
			return nil, err
		}
		advisors = append(advisors, advisor)
	}
	if f.Logger != nil {
		f.Logger.Debugf("aspect '%s' produced %d advisors", def.Name, len(advisors))
	}
	return advisors, nil
}

func (f *AdvisorFactory) newAdvice(def *Definition, aspectType reflect.Type, resolver types.TypeResolver,
	decl AdviceDeclaration, declarationOrder int) (*advice.AspectAdvice, error) {
	methodName, err := ResolveMethodName(aspectType, decl.Method)
	if err != nil {
		return nil, err
	}
	pc, err := f.pointcutOf(def, decl)
	if err != nil {
		return nil, err
	}
	config := advice.AspectAdviceConfig{
		Kind:             decl.Kind,
		AspectName:       def.Name,
		AspectType:       aspectType,
		Method:           methodName,
		ArgNames:         decl.ArgNames,
		Returning:        decl.Returning,
		Throwing:         decl.Throwing,
		DeclarationOrder: declarationOrder,
		Pointcut:         pc,
		Factory:          def.Factory,
	}
	if decl.ReturningType != "" {
		if config.ReturningType, err = resolver.ResolveType(decl.ReturningType); err != nil {
			return nil, err
		}
	}
	if decl.ThrowingType != "" {
		if config.ThrowingType, err = resolver.ResolveType(decl.ThrowingType); err != nil {
			return nil, err
		}
	}
	return advice.NewAspectAdvice(config)
}

func (f *AdvisorFactory) pointcutOf(def *Definition, decl AdviceDeclaration) (types.Pointcut, error) {
	if decl.PointcutRef != nil {
		return decl.PointcutRef, nil
	}
	name := strings.TrimSpace(decl.Pointcut)
	if name == "" {
		return nil, types.NewIllegalConfigError("advice method '%s' of aspect '%s' declares no pointcut", decl.Method, def.Name)
	}
	if pc, ok := def.Pointcuts[name]; ok {
		return pc, nil
	}
	pc, err := pointcut.NewExpressionPointcut(name)
	if err != nil {
		return nil, err
	}
	return pc, nil
}

func (f *AdvisorFactory) newIntroduction(def *Definition, resolver types.TypeResolver, decl IntroductionDeclaration) (*IntroductionAdvisor, error) {
	if decl.Interceptor == nil {
		return nil, types.NewIllegalConfigError("introduction of aspect '%s' has no interceptor", def.Name)
	}
	interfaces := append([]reflect.Type(nil), decl.Interfaces...)
	for _, name := range decl.InterfaceNames {
		t, err := resolver.ResolveType(name)
		if err != nil {
			return nil, err
		}
		interfaces = append(interfaces, t)
	}
	advisor := NewIntroductionAdvisor(decl.Interceptor, interfaces...)
	if decl.TypesMatching != "" {
		advisor.WithTypeFilter(pointcut.NewTypeNameFilter(decl.TypesMatching))
	}
	if def.Order != nil {
		advisor.WithOrder(*def.Order)
	} else {
		advisor.WithOrder(def.Factory.Order())
	}
	if err := advisor.Validate(); err != nil {
		return nil, err
	}
	return advisor, nil
}

// ResolveMethodName finds the advice method on aspectType: an exact match
// first, then a unique case-insensitive match.
func ResolveMethodName(aspectType reflect.Type, name string) (string, error) {
	if name == "" {
		return "", types.NewIllegalConfigError("advice method name is empty")
	}
	if _, ok := aspectType.MethodByName(name); ok {
		return name, nil
	}
	var candidates []string
	for i := 0; i < aspectType.NumMethod(); i++ {
		if m := aspectType.Method(i); strings.EqualFold(m.Name, name) {
			candidates = append(candidates, m.Name)
		}
	}
	switch len(candidates) {
	case 0:
		return "", types.NewIllegalConfigError("no advice method '%s' found on aspect type %s", name, types.TypeName(aspectType))
	case 1:
		return candidates[0], nil
	default:
		return "", types.NewIllegalConfigError("ambiguous advice method '%s' on aspect type %s: %s",
			name, types.TypeName(aspectType), strings.Join(candidates, ", "))
	}
}

func (d *Definition) String() string {
	return fmt.Sprintf("Aspect '%s': %d advice, %d introductions", d.Name, len(d.Advice), len(d.Introductions))
}
