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

package advice

import (
	"fmt"
	"reflect"

	"github.com/rulego/rulego-aop/api/types"
	"github.com/rulego/rulego-aop/utils/str"
)

var (
	joinPointType           = reflect.TypeOf((*types.JoinPoint)(nil)).Elem()
	proceedingJoinPointType = reflect.TypeOf((*types.ProceedingJoinPoint)(nil)).Elem()
)

// MatchKeyProvider is implemented by pointcuts that store a JoinPointMatch on
// the invocation under a key.
type MatchKeyProvider interface {
	MatchKey() string
}

// AspectAdviceConfig describes one advice method of an aspect.
type AspectAdviceConfig struct {
	// Kind is the advice kind.
	Kind types.AdviceKind
	// AspectName names the aspect, used for precedence between its advice.
	AspectName string
	// AspectType is the type declaring Method. Taken from the factory metadata when nil.
	AspectType reflect.Type
	// Method is the exact name of the advice method.
	Method string
	// ArgNames names the parameters after an optional leading JoinPoint.
	ArgNames []string
	// Returning is the ArgNames entry receiving the return value (after-returning only).
	Returning string
	// Throwing is the ArgNames entry receiving the error (after-throwing only).
	Throwing string
	// ReturningType restricts after-returning advice, defaults to the bound parameter type.
	ReturningType reflect.Type
	// ThrowingType restricts after-throwing advice, defaults to the bound parameter type.
	ThrowingType reflect.Type
	// DeclarationOrder is the position of the declaration within the aspect.
	DeclarationOrder int
	// Pointcut selects where the advice runs.
	Pointcut types.Pointcut
	// Factory supplies the aspect instance.
	Factory types.AspectInstanceFactory
}

// AspectAdvice runs a method of an aspect instance as advice.
//
// The method takes an optional leading types.JoinPoint (types.ProceedingJoinPoint,
// required, for around advice), followed by one parameter per ArgNames entry.
// Around advice returns (value, error); every other kind returns nothing or an error.
//
// AspectAdvice 以切面实例方法作为增强。
type AspectAdvice struct {
	config         AspectAdviceConfig
	method         reflect.Method
	joinPointParam bool
	paramTypes     []reflect.Type
	returningType  reflect.Type
	throwingType   reflect.Type
	returnsError   bool
}

var (
	_ types.MethodInterceptor           = (*AspectAdvice)(nil)
	_ types.AspectPrecedenceInformation = (*AspectAdvice)(nil)
)

// NewAspectAdvice validates the advice method signature and argument bindings.
func NewAspectAdvice(config AspectAdviceConfig) (*AspectAdvice, error) {
	if config.Factory == nil {
		return nil, types.NewIllegalConfigError("advice '%s' has no aspect instance factory", config.Method)
	}
	if config.AspectType == nil {
		if aware, ok := config.Factory.(types.MetadataAwareAspectInstanceFactory); ok {
			config.AspectType = aware.AspectMetadata().Type
		}
	}
	if config.AspectType == nil {
		return nil, types.NewIllegalConfigError("aspect type of '%s' is unknown", config.AspectName)
	}
	method, ok := config.AspectType.MethodByName(config.Method)
	if !ok {
		return nil, types.NewIllegalConfigError("advice method '%s' not found on aspect '%s'", config.Method, config.AspectName)
	}
	a := &AspectAdvice{config: config, method: method}
	if err := a.validate(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *AspectAdvice) validate() error {
	c := a.config
	ft := a.method.Type
	name := c.Method
	// the receiver is the first input for methods of concrete types
	offset := 1
	if c.AspectType.Kind() == reflect.Interface {
		offset = 0
	}
	if ft.IsVariadic() {
		return types.NewIllegalConfigError("advice method '%s' must not be variadic", name)
	}
	params := make([]reflect.Type, 0, ft.NumIn())
	for i := offset; i < ft.NumIn(); i++ {
		params = append(params, ft.In(i))
	}
	if len(params) > 0 && (params[0] == joinPointType || params[0] == proceedingJoinPointType) {
		if params[0] == proceedingJoinPointType && c.Kind != types.AdviceAround {
			return types.NewIllegalConfigError("ProceedingJoinPoint is only supported for around advice: '%s'", name)
		}
		a.joinPointParam = true
		params = params[1:]
	}
	if c.Kind == types.AdviceAround && !a.joinPointParam {
		return types.NewIllegalConfigError("around advice '%s' must declare a ProceedingJoinPoint as first parameter", name)
	}
	if c.Kind == types.AdviceAround && a.joinPointParam && ft.In(offset) != proceedingJoinPointType {
		return types.NewIllegalConfigError("around advice '%s' must declare a ProceedingJoinPoint as first parameter", name)
	}
	if len(params) != len(c.ArgNames) {
		return types.NewIllegalConfigError("advice method '%s' declares %d bindable parameters but %d argument names %v",
			name, len(params), len(c.ArgNames), c.ArgNames)
	}
	a.paramTypes = params

	switch c.Kind {
	case types.AdviceAround:
		if ft.NumOut() != 2 || ft.Out(1) != types.ErrorType {
			return types.NewIllegalConfigError("around advice '%s' must return (value, error)", name)
		}
	default:
		if ft.NumOut() > 1 || (ft.NumOut() == 1 && ft.Out(0) != types.ErrorType) {
			return types.NewIllegalConfigError("%s advice '%s' must return nothing or an error", c.Kind, name)
		}
	}
	a.returnsError = ft.NumOut() > 0 && ft.Out(ft.NumOut()-1) == types.ErrorType

	if c.Returning != "" && c.Kind != types.AdviceAfterReturning {
		return types.NewIllegalConfigError("only after-returning advice can bind a return value: '%s'", name)
	}
	if c.Throwing != "" && c.Kind != types.AdviceAfterThrowing {
		return types.NewIllegalConfigError("only after-throwing advice can bind a thrown error: '%s'", name)
	}
	var bindings map[string]string
	var matchKey bool
	if provider, ok := c.Pointcut.(interface{ Bindings() map[string]string }); ok {
		bindings = provider.Bindings()
	}
	if _, ok := c.Pointcut.(MatchKeyProvider); ok {
		matchKey = true
	}
	if c.Returning != "" && !str.Contains(c.ArgNames, c.Returning) {
		return types.NewIllegalConfigError("returning argument name '%s' was not bound in advice arguments of '%s'", c.Returning, name)
	}
	if c.Throwing != "" && !str.Contains(c.ArgNames, c.Throwing) {
		return types.NewIllegalConfigError("throwing argument name '%s' was not bound in advice arguments of '%s'", c.Throwing, name)
	}
	for i, argName := range c.ArgNames {
		switch {
		case argName == c.Returning && c.Returning != "":
			if c.ReturningType == nil {
				a.returningType = params[i]
			}
		case argName == c.Throwing && c.Throwing != "":
			if params[i].Kind() != reflect.Interface && !params[i].Implements(types.ErrorType) {
				return types.NewIllegalConfigError("throwing parameter '%s' of '%s' must be an error type", argName, name)
			}
			if c.ThrowingType == nil {
				a.throwingType = params[i]
			}
		default:
			if _, ok := bindings[argName]; !ok || !matchKey {
				return types.NewIllegalConfigError("unbound advice argument '%s' in '%s'", argName, name)
			}
		}
	}
	if c.ReturningType != nil {
		a.returningType = c.ReturningType
	}
	if c.ThrowingType != nil {
		if c.ThrowingType.Kind() != reflect.Interface && !c.ThrowingType.Implements(types.ErrorType) {
			return types.NewIllegalConfigError("throwing type '%s' of '%s' must be an error type", c.ThrowingType, name)
		}
		a.throwingType = c.ThrowingType
	}
	return nil
}

// Kind returns the advice kind.
func (a *AspectAdvice) Kind() types.AdviceKind {
	return a.config.Kind
}

// MethodName returns the advice method name.
func (a *AspectAdvice) MethodName() string {
	return a.config.Method
}

// Pointcut returns the pointcut the advice was declared with.
func (a *AspectAdvice) Pointcut() types.Pointcut {
	return a.config.Pointcut
}

// Factory returns the aspect instance factory.
func (a *AspectAdvice) Factory() types.AspectInstanceFactory {
	return a.config.Factory
}

// ReturningType returns the type restricting after-returning advice, nil if any value matches.
func (a *AspectAdvice) ReturningType() reflect.Type {
	return a.returningType
}

// ThrowingType returns the type restricting after-throwing advice, nil if any error matches.
func (a *AspectAdvice) ThrowingType() reflect.Type {
	return a.throwingType
}

func (a *AspectAdvice) Order() int {
	return a.config.Factory.Order()
}

func (a *AspectAdvice) AspectName() string {
	return a.config.AspectName
}

func (a *AspectAdvice) DeclarationOrder() int {
	return a.config.DeclarationOrder
}

func (a *AspectAdvice) IsBeforeAdvice() bool {
	return a.config.Kind.IsBefore()
}

func (a *AspectAdvice) IsAfterAdvice() bool {
	return a.config.Kind.IsAfter()
}

// Invoke runs the advice method around, before or after the rest of the chain.
func (a *AspectAdvice) Invoke(inv types.MethodInvocation) (result interface{}, err error) {
	switch a.config.Kind {
	case types.AdviceBefore:
		if _, err = a.invokeAdviceMethod(inv, nil, nil); err != nil {
			return nil, err
		}
		return inv.Proceed()
	case types.AdviceAfter:
		defer func() {
			if _, afterErr := a.invokeAdviceMethod(inv, nil, nil); afterErr != nil {
				err = afterErr
			}
		}()
		return inv.Proceed()
	case types.AdviceAfterReturning:
		result, err = inv.Proceed()
		if err != nil || !ShouldInvokeOnReturn(a.returningType, inv.Method(), result) {
			return result, err
		}
		if _, adviceErr := a.invokeAdviceMethod(inv, result, nil); adviceErr != nil {
			return nil, adviceErr
		}
		return result, nil
	case types.AdviceAfterThrowing:
		result, err = inv.Proceed()
		if err == nil || !ShouldInvokeOnError(a.throwingType, err) {
			return result, err
		}
		if _, adviceErr := a.invokeAdviceMethod(inv, nil, err); adviceErr != nil {
			return result, adviceErr
		}
		return result, err
	case types.AdviceAround:
		return a.invokeAdviceMethod(inv, nil, nil)
	default:
		return nil, fmt.Errorf("%w: %s", types.ErrUnknownAdviceType, a.config.Kind)
	}
}

func (a *AspectAdvice) invokeAdviceMethod(inv types.MethodInvocation, returnValue interface{}, thrown error) (interface{}, error) {
	instance, err := a.config.Factory.AspectInstance()
	if err != nil {
		return nil, err
	}
	receiver := reflect.ValueOf(instance)
	fn := receiver.MethodByName(a.config.Method)
	if !fn.IsValid() {
		return nil, types.NewIllegalConfigError("advice method '%s' not found on aspect instance %T", a.config.Method, instance)
	}
	args, err := a.argBinding(inv, returnValue, thrown)
	if err != nil {
		return nil, err
	}
	out := fn.Call(args)
	return a.results(out)
}

func (a *AspectAdvice) argBinding(inv types.MethodInvocation, returnValue interface{}, thrown error) ([]reflect.Value, error) {
	args := make([]reflect.Value, 0, len(a.paramTypes)+1)
	if a.joinPointParam {
		args = append(args, reflect.ValueOf(NewJoinPoint(inv, a.config.Kind)))
	}
	var match *types.JoinPointMatch
	if provider, ok := a.config.Pointcut.(MatchKeyProvider); ok {
		if v, ok := inv.UserAttribute(provider.MatchKey()); ok {
			match, _ = v.(*types.JoinPointMatch)
		}
	}
	for i, argName := range a.config.ArgNames {
		paramType := a.paramTypes[i]
		switch {
		case a.config.Returning != "" && argName == a.config.Returning:
			v, err := valueFor(argName, paramType, returnValue)
			if err != nil {
				return nil, err
			}
			args = append(args, v)
		case a.config.Throwing != "" && argName == a.config.Throwing:
			v, ok := extractError(paramType, thrown)
			if !ok {
				v = reflect.Zero(paramType)
			}
			if !v.Type().AssignableTo(paramType) {
				v = reflect.Zero(paramType)
			}
			args = append(args, v)
		default:
			bound, ok := match.Get(argName)
			if !ok {
				return nil, types.NewIllegalConfigError("no value bound for advice argument '%s' of '%s'", argName, a.config.Method)
			}
			v, err := valueFor(argName, paramType, bound)
			if err != nil {
				return nil, err
			}
			args = append(args, v)
		}
	}
	return args, nil
}

func valueFor(name string, paramType reflect.Type, value interface{}) (reflect.Value, error) {
	if value == nil {
		return reflect.Zero(paramType), nil
	}
	v := reflect.ValueOf(value)
	if v.Type().AssignableTo(paramType) {
		return v, nil
	}
	if v.Type().ConvertibleTo(paramType) && paramType.Kind() != reflect.String {
		return v.Convert(paramType), nil
	}
	return reflect.Value{}, types.NewIllegalConfigError("value of type %s bound to '%s' is not assignable to %s",
		v.Type(), name, paramType)
}

func (a *AspectAdvice) results(out []reflect.Value) (interface{}, error) {
	var err error
	if a.returnsError {
		if e := out[len(out)-1]; !e.IsNil() {
			err = e.Interface().(error)
		}
	}
	if a.config.Kind != types.AdviceAround {
		return nil, err
	}
	return out[0].Interface(), err
}

func (a *AspectAdvice) String() string {
	return fmt.Sprintf("%s advice method [%s.%s]; aspect name '%s'", a.config.Kind,
		types.TypeName(a.config.AspectType), a.config.Method, a.config.AspectName)
}
