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

// Package reflect provides utility functions for reflection-based operations.
// It includes functions for calling methods by name with loosely typed
// arguments, converting results back into the (value, error) convention used
// by interceptor chains, and instantiating types.
//
// Key features:
// - CallMethod: Calls a method of a target, recovering panics into errors
// - Results: Splits call results into the first value and a trailing error
// - NewInstance: Creates a zero instance of a struct or pointer-to-struct type
package reflect

import (
	"fmt"
	"reflect"

	"github.com/rulego/rulego-aop/api/types"
	"github.com/rulego/rulego-aop/utils/runtime"
)

// CallMethod calls the method named method.Name on target with args.
// nil arguments become zero values; numeric arguments are converted when
// assignable by conversion. A panic in the method is returned as an error
// wrapping types.ErrTargetPanic.
func CallMethod(target interface{}, method *types.Method, args []interface{}) (result interface{}, err error) {
	if target == nil {
		return nil, fmt.Errorf("call %s on nil target: %w", method.Name, types.ErrMethodNotFound)
	}
	fn := reflect.ValueOf(target).MethodByName(method.Name)
	if !fn.IsValid() {
		return nil, fmt.Errorf("%w: %s on %T", types.ErrMethodNotFound, method.Name, target)
	}
	in, err := Arguments(fn.Type(), args)
	if err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("%w: %s: %v\n%s", types.ErrTargetPanic, method.String(), r, runtime.Stack())
		}
	}()
	var out []reflect.Value
	if fn.Type().IsVariadic() && len(args) == fn.Type().NumIn() && isSpread(fn.Type(), args) {
		out = fn.CallSlice(in)
	} else {
		out = fn.Call(in)
	}
	return Results(out)
}

// isSpread reports whether the last argument already is the variadic slice.
func isSpread(ft reflect.Type, args []interface{}) bool {
	last := args[len(args)-1]
	return last != nil && reflect.TypeOf(last).AssignableTo(ft.In(ft.NumIn()-1))
}

// Arguments converts args into call values for a function of type ft.
func Arguments(ft reflect.Type, args []interface{}) ([]reflect.Value, error) {
	numIn := ft.NumIn()
	variadic := ft.IsVariadic()
	if (!variadic && len(args) != numIn) || (variadic && len(args) < numIn-1) {
		return nil, fmt.Errorf("wrong number of arguments: expected %d, got %d", numIn, len(args))
	}
	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		var paramType reflect.Type
		switch {
		case variadic && i >= numIn-1:
			paramType = ft.In(numIn - 1)
			if len(args) == numIn && isSpread(ft, args) {
				in[i] = reflect.ValueOf(arg)
				continue
			}
			paramType = paramType.Elem()
		default:
			paramType = ft.In(i)
		}
		v, err := Convert(arg, paramType)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		in[i] = v
	}
	return in, nil
}

// Convert returns value as a reflect.Value of type t.
func Convert(value interface{}, t reflect.Type) (reflect.Value, error) {
	if value == nil {
		return reflect.Zero(t), nil
	}
	v := reflect.ValueOf(value)
	if v.Type().AssignableTo(t) {
		return v, nil
	}
	if isNumber(v.Kind()) && isNumber(t.Kind()) {
		return v.Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("%s is not assignable to %s", v.Type(), t)
}

func isNumber(k reflect.Kind) bool {
	return (k >= reflect.Int && k <= reflect.Float64) && k != reflect.Uintptr
}

// Results returns the first non-error result and the trailing error, if any.
func Results(out []reflect.Value) (interface{}, error) {
	var result interface{}
	var err error
	for i, o := range out {
		if i == len(out)-1 && o.Type() == types.ErrorType {
			if !o.IsNil() {
				err = o.Interface().(error)
			}
			continue
		}
		if i == 0 {
			result = o.Interface()
		}
	}
	return result, err
}

// NewInstance creates a zero instance of t. Struct types yield a value,
// pointer-to-struct types a pointer to a new zero struct.
func NewInstance(t reflect.Type) (interface{}, error) {
	if t == nil {
		return nil, fmt.Errorf("nil type")
	}
	switch {
	case t.Kind() == reflect.Struct:
		return reflect.New(t).Elem().Interface(), nil
	case t.Kind() == reflect.Ptr && t.Elem().Kind() == reflect.Struct:
		return reflect.New(t.Elem()).Interface(), nil
	default:
		return nil, fmt.Errorf("type %s is not a struct or pointer to struct", t)
	}
}
