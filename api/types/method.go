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
	"strings"
)

var (
	errorType = reflect.TypeOf((*error)(nil)).Elem()
	// UniversalType is the top type: every value is assignable to it.
	// UniversalType 通用顶层类型，任意值都可以赋值给它。
	UniversalType = reflect.TypeOf((*interface{})(nil)).Elem()
	// ErrorType is the reflect type of the built-in error interface.
	ErrorType = errorType
)

// Method describes one operation that may be intercepted (a join point signature).
// Method 描述一个可以被拦截的操作（连接点签名）。
type Method struct {
	// Name is the exported method name, e.g. "SetName".
	Name string
	// DeclaringType is the interface or concrete type that declares the method.
	DeclaringType reflect.Type
	// In lists the parameter types, receiver excluded.
	In []reflect.Type
	// Out is the declared return type: the first result that is not error.
	// nil means the method returns no value (void).
	Out reflect.Type
	// ReturnsError reports whether the last result is an error.
	ReturnsError bool
	// Variadic reports whether the last parameter is variadic.
	Variadic bool
	// NumOut is the raw number of results.
	NumOut int
}

// NewMethod converts a reflect.Method into a Method. For methods obtained from
// a concrete type the receiver parameter is dropped.
func NewMethod(declaringType reflect.Type, m reflect.Method) *Method {
	ft := m.Type
	offset := 0
	if declaringType.Kind() != reflect.Interface {
		offset = 1
	}
	method := &Method{
		Name:          m.Name,
		DeclaringType: declaringType,
		Variadic:      ft.IsVariadic(),
		NumOut:        ft.NumOut(),
	}
	for i := offset; i < ft.NumIn(); i++ {
		method.In = append(method.In, ft.In(i))
	}
	for i := 0; i < ft.NumOut(); i++ {
		out := ft.Out(i)
		if i == ft.NumOut()-1 && out == errorType {
			method.ReturnsError = true
			continue
		}
		if method.Out == nil {
			method.Out = out
		}
	}
	return method
}

// MethodOf looks up the named method on t. Pointer receivers are found when t
// is a pointer type or an interface.
func MethodOf(t reflect.Type, name string) (*Method, bool) {
	if t == nil {
		return nil, false
	}
	if m, ok := t.MethodByName(name); ok {
		return NewMethod(t, m), true
	}
	if t.Kind() != reflect.Ptr && t.Kind() != reflect.Interface {
		pt := reflect.PointerTo(t)
		if m, ok := pt.MethodByName(name); ok {
			return NewMethod(pt, m), true
		}
	}
	return nil, false
}

// IsVoid reports whether the method declares no return value other than error.
func (m *Method) IsVoid() bool {
	return m.Out == nil
}

// TypeName returns the unqualified declaring type name without pointer markers.
func (m *Method) TypeName() string {
	return TypeName(m.DeclaringType)
}

// String returns the qualified name "pkg.Type.Method".
func (m *Method) String() string {
	return QualifiedTypeName(m.DeclaringType) + "." + m.Name
}

// TypeName returns the name of t, dereferencing pointers.
func TypeName(t reflect.Type) string {
	if t == nil {
		return ""
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}

// QualifiedTypeName returns "pkgpath.Type" with pointers dereferenced.
// The package path is shortened to its last element.
func QualifiedTypeName(t reflect.Type) string {
	if t == nil {
		return ""
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	pkg := t.PkgPath()
	if idx := strings.LastIndex(pkg, "/"); idx >= 0 {
		pkg = pkg[idx+1:]
	}
	if pkg == "" {
		return TypeName(t)
	}
	return pkg + "." + TypeName(t)
}

// Invoker performs the real call at the end of an interceptor chain.
// The matching and ordering logic never depends on how it is implemented.
// Invoker 在拦截器链末端执行真正的方法调用。
type Invoker interface {
	Invoke(ctx context.Context, target interface{}, method *Method, args []interface{}) (interface{}, error)
}

// InvokerFunc adapts a function to Invoker.
type InvokerFunc func(ctx context.Context, target interface{}, method *Method, args []interface{}) (interface{}, error)

func (f InvokerFunc) Invoke(ctx context.Context, target interface{}, method *Method, args []interface{}) (interface{}, error) {
	return f(ctx, target, method, args)
}
