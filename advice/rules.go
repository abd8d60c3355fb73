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
	"errors"
	"reflect"

	"github.com/rulego/rulego-aop/api/types"
)

// ShouldInvokeOnReturn decides whether after-returning advice declaring the
// returning type declared fires for value returned by method:
//   - a non-nil value fires iff it is assignable to declared;
//   - the universal type always fires, void methods included;
//   - a nil value or a void method falls back to whether the method's declared
//     return type is assignable to declared;
//   - for composite declared types the method's declared return type must be
//     assignable as well, so the element types agree.
//
// ShouldInvokeOnReturn 判断返回后增强是否执行。
func ShouldInvokeOnReturn(declared reflect.Type, method *types.Method, value interface{}) bool {
	if declared == nil || declared == types.UniversalType {
		return true
	}
	if !matchesReturnValue(declared, method, value) {
		return false
	}
	if isComposite(declared) && method.Out != nil && method.Out != declared {
		return method.Out.AssignableTo(declared)
	}
	return true
}

func matchesReturnValue(declared reflect.Type, method *types.Method, value interface{}) bool {
	if !isNil(value) {
		return reflect.TypeOf(value).AssignableTo(declared)
	}
	if method.Out == nil {
		return false
	}
	return method.Out.AssignableTo(declared)
}

func isComposite(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.Chan, reflect.Func:
		return true
	default:
		return false
	}
}

func isNil(value interface{}) bool {
	if value == nil {
		return true
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return v.IsNil()
	default:
		return false
	}
}

// ShouldInvokeOnError decides whether after-throwing advice declaring the
// throwing type declared fires for err: any error when declared is nil or the
// error interface, otherwise iff errors.As finds a declared in the chain.
func ShouldInvokeOnError(declared reflect.Type, err error) bool {
	_, ok := extractError(declared, err)
	return ok
}

// extractError returns the value of err to bind to a parameter of type declared.
func extractError(declared reflect.Type, err error) (reflect.Value, bool) {
	if err == nil {
		return reflect.Value{}, false
	}
	if declared == nil || declared == types.ErrorType || declared == types.UniversalType {
		return reflect.ValueOf(err), true
	}
	if declared.Kind() != reflect.Interface && !declared.Implements(types.ErrorType) {
		return reflect.Value{}, false
	}
	target := reflect.New(declared)
	if errors.As(err, target.Interface()) {
		return target.Elem(), true
	}
	return reflect.Value{}, false
}
