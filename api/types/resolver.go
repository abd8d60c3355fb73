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
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// TypeResolver resolves type names used in advice declarations (returning and
// throwing types). It plays the role a class loader plays for name lookup.
// TypeResolver 解析增强声明中使用的类型名称。
type TypeResolver interface {
	ResolveType(name string) (reflect.Type, error)
}

var builtinTypes = map[string]reflect.Type{
	"any":         UniversalType,
	"interface{}": UniversalType,
	"error":       ErrorType,
	"string":      reflect.TypeOf(""),
	"bool":        reflect.TypeOf(false),
	"int":         reflect.TypeOf(0),
	"int8":        reflect.TypeOf(int8(0)),
	"int16":       reflect.TypeOf(int16(0)),
	"int32":       reflect.TypeOf(int32(0)),
	"int64":       reflect.TypeOf(int64(0)),
	"uint":        reflect.TypeOf(uint(0)),
	"uint8":       reflect.TypeOf(uint8(0)),
	"uint16":      reflect.TypeOf(uint16(0)),
	"uint32":      reflect.TypeOf(uint32(0)),
	"uint64":      reflect.TypeOf(uint64(0)),
	"float32":     reflect.TypeOf(float32(0)),
	"float64":     reflect.TypeOf(float64(0)),
	"byte":        reflect.TypeOf(byte(0)),
	"rune":        reflect.TypeOf(rune(0)),
	"[]byte":      reflect.TypeOf([]byte(nil)),
}

// TypeRegistry is the default TypeResolver. Built-in names and registered
// types are resolved; "*T" and "[]T" forms are derived from a resolvable T.
type TypeRegistry struct {
	parent TypeResolver
	types  map[string]reflect.Type
	lock   sync.RWMutex
}

// DefaultTypeRegistry is shared by factories that are not given a resolver.
var DefaultTypeRegistry = NewTypeRegistry(nil)

// NewTypeRegistry creates a registry falling back to parent for unknown names.
func NewTypeRegistry(parent TypeResolver) *TypeRegistry {
	return &TypeRegistry{parent: parent, types: make(map[string]reflect.Type)}
}

// Register adds t under its qualified name and its short name.
// The value passed may be a nil pointer, e.g. (*MyError)(nil); interfaces use
// reflect.TypeOf((*MyIface)(nil)).Elem() via RegisterType.
func (r *TypeRegistry) Register(samples ...interface{}) {
	for _, s := range samples {
		r.RegisterType(reflect.TypeOf(s))
	}
}

// RegisterType adds t under its qualified name and its plain string form.
func (r *TypeRegistry) RegisterType(t reflect.Type) {
	if t == nil {
		return
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	r.types[t.String()] = t
	prefix := ""
	base := t
	for base.Kind() == reflect.Ptr {
		prefix += "*"
		base = base.Elem()
	}
	r.types[prefix+QualifiedTypeName(base)] = t
}

// RegisterAlias adds t under an explicit name.
func (r *TypeRegistry) RegisterAlias(name string, t reflect.Type) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.types[name] = t
}

// ResolveType implements TypeResolver.
func (r *TypeRegistry) ResolveType(name string) (reflect.Type, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, NewIllegalConfigError("empty type name")
	}
	if t, ok := builtinTypes[name]; ok {
		return t, nil
	}
	r.lock.RLock()
	t, ok := r.types[name]
	r.lock.RUnlock()
	if ok {
		return t, nil
	}
	if strings.HasPrefix(name, "*") {
		if elem, err := r.ResolveType(name[1:]); err == nil {
			return reflect.PointerTo(elem), nil
		}
	}
	if strings.HasPrefix(name, "[]") {
		if elem, err := r.ResolveType(name[2:]); err == nil {
			return reflect.SliceOf(elem), nil
		}
	}
	if r.parent != nil {
		return r.parent.ResolveType(name)
	}
	return nil, NewIllegalConfigError("unresolvable type name '%s'", name)
}

// String implements fmt.Stringer for diagnostics.
func (r *TypeRegistry) String() string {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return fmt.Sprintf("TypeRegistry[%d types]", len(r.types))
}
