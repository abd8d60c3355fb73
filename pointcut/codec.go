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

package pointcut

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/rulego/rulego-aop/api/types"
	"github.com/rulego/rulego-aop/utils/json"
)

// Node kinds of the pointcut JSON codec.
const (
	KindTruePointcut        = "truePointcut"
	KindTrueTypeFilter      = "trueTypeFilter"
	KindTrueMethodMatcher   = "trueMethodMatcher"
	KindPointcut            = "pointcut"
	KindTypeFilterUnion     = "typeFilterUnion"
	KindTypeFilterIntersect = "typeFilterIntersection"
	KindTypeFilterNegate    = "typeFilterNegate"
	KindMatcherUnion        = "methodMatcherUnion"
	KindMatcherIntersect    = "methodMatcherIntersection"
	KindMatcherNegate       = "methodMatcherNegate"
	KindTypeAwareUnion      = "typeAwareUnion"
	KindNameMatch           = "nameMatch"
	KindRegexp              = "regexp"
	KindTypeName            = "typeName"
	KindAssignable          = "assignable"
	KindExpression          = "expression"
	KindScript              = "script"
)

// node is the serialised form of one selector.
type node struct {
	Kind          string            `json:"kind"`
	TypeFilter    *node             `json:"typeFilter,omitempty"`
	MethodMatcher *node             `json:"methodMatcher,omitempty"`
	Operands      []*node           `json:"operands,omitempty"`
	Patterns      []string          `json:"patterns,omitempty"`
	Excluded      []string          `json:"excluded,omitempty"`
	Expression    string            `json:"expression,omitempty"`
	Within        string            `json:"within,omitempty"`
	Bindings      map[string]string `json:"bindings,omitempty"`
	Type          string            `json:"type,omitempty"`
	Runtime       bool              `json:"runtime,omitempty"`
}

// Marshal encodes a Pointcut, TypeFilter or MethodMatcher tree as JSON.
// Selectors backed by Go functions or the goroutine stack cannot be encoded
// and fail with types.ErrUnsupportedOperation.
// Marshal 将切入点树编码为 JSON。
func Marshal(v interface{}) ([]byte, error) {
	n, err := encode(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(n)
}

// UnmarshalPointcut decodes a pointcut. The TRUE singletons decode to themselves.
func UnmarshalPointcut(data []byte, resolver types.TypeResolver) (types.Pointcut, error) {
	n, err := parse(data)
	if err != nil {
		return nil, err
	}
	return (&decoder{resolver: resolver}).pointcut(n)
}

// UnmarshalTypeFilter decodes a type filter.
func UnmarshalTypeFilter(data []byte, resolver types.TypeResolver) (types.TypeFilter, error) {
	n, err := parse(data)
	if err != nil {
		return nil, err
	}
	return (&decoder{resolver: resolver}).typeFilter(n)
}

// UnmarshalMethodMatcher decodes a method matcher.
func UnmarshalMethodMatcher(data []byte, resolver types.TypeResolver) (types.MethodMatcher, error) {
	n, err := parse(data)
	if err != nil {
		return nil, err
	}
	return (&decoder{resolver: resolver}).methodMatcher(n)
}

func parse(data []byte) (*node, error) {
	var n node
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, types.NewConfigError(err, "invalid pointcut document")
	}
	return &n, nil
}

func encode(v interface{}) (*node, error) {
	switch x := v.(type) {
	case *truePointcut:
		return &node{Kind: KindTruePointcut}, nil
	case *trueTypeFilter:
		return &node{Kind: KindTrueTypeFilter}, nil
	case *trueMethodMatcher:
		return &node{Kind: KindTrueMethodMatcher}, nil
	case *Pointcut:
		tf, err := encode(x.typeFilter)
		if err != nil {
			return nil, err
		}
		mm, err := encode(x.methodMatcher)
		if err != nil {
			return nil, err
		}
		return &node{Kind: KindPointcut, TypeFilter: tf, MethodMatcher: mm}, nil
	case *unionTypeFilter:
		return encodeOperands(KindTypeFilterUnion, typeFiltersOf(x.filters)...)
	case *intersectionTypeFilter:
		return encodeOperands(KindTypeFilterIntersect, typeFiltersOf(x.filters)...)
	case *negateTypeFilter:
		return encodeOperands(KindTypeFilterNegate, x.original)
	case *unionMethodMatcher:
		return encodeOperands(KindMatcherUnion, x.a, x.b)
	case *intersectionMethodMatcher:
		return encodeOperands(KindMatcherIntersect, x.a, x.b)
	case *negateMethodMatcher:
		return encodeOperands(KindMatcherNegate, x.original)
	case *typeAwareUnionMethodMatcher:
		return encodeOperands(KindTypeAwareUnion, x.tfA, x.a, x.tfB, x.b)
	case *NameMatchMethodMatcher:
		return &node{Kind: KindNameMatch, Patterns: x.Names()}, nil
	case *RegexpMethodPointcut:
		return &node{Kind: KindRegexp, Patterns: x.Patterns(), Excluded: x.ExcludedPatterns()}, nil
	case *TypeNameFilter:
		return &node{Kind: KindTypeName, Patterns: []string{x.Pattern}}, nil
	case *AssignableTypeFilter:
		return &node{Kind: KindAssignable, Type: typeString(x.Type)}, nil
	case *ExpressionPointcut:
		return &node{Kind: KindExpression, Expression: x.expression, Within: x.within, Bindings: x.Bindings()}, nil
	case *ScriptMethodMatcher:
		return &node{Kind: KindScript, Expression: x.script, Runtime: x.runtime}, nil
	default:
		return nil, fmt.Errorf("encode selector %T: %w", v, types.ErrUnsupportedOperation)
	}
}

func typeFiltersOf(filters []types.TypeFilter) []interface{} {
	out := make([]interface{}, len(filters))
	for i, f := range filters {
		out[i] = f
	}
	return out
}

func encodeOperands(kind string, operands ...interface{}) (*node, error) {
	n := &node{Kind: kind}
	for _, op := range operands {
		child, err := encode(op)
		if err != nil {
			return nil, err
		}
		n.Operands = append(n.Operands, child)
	}
	return n, nil
}

func typeString(t reflect.Type) string {
	if t == nil {
		return ""
	}
	prefix := ""
	for t.Kind() == reflect.Ptr {
		prefix += "*"
		t = t.Elem()
	}
	if t.PkgPath() == "" {
		return prefix + t.String()
	}
	return prefix + types.QualifiedTypeName(t)
}

type decoder struct {
	resolver types.TypeResolver
}

func (d *decoder) operands(n *node, want int) error {
	if want >= 0 && len(n.Operands) != want {
		return types.NewIllegalConfigError("selector '%s' requires %d operands, got %d", n.Kind, want, len(n.Operands))
	}
	if want < 0 && len(n.Operands) < 2 {
		return types.NewIllegalConfigError("selector '%s' requires at least 2 operands", n.Kind)
	}
	return nil
}

func (d *decoder) pointcut(n *node) (types.Pointcut, error) {
	if n == nil {
		return nil, types.NewIllegalConfigError("missing pointcut")
	}
	switch n.Kind {
	case KindTruePointcut:
		return TruePointcut, nil
	case KindPointcut:
		tf, err := d.typeFilter(n.TypeFilter)
		if err != nil {
			return nil, err
		}
		mm, err := d.methodMatcher(n.MethodMatcher)
		if err != nil {
			return nil, err
		}
		return New(tf, mm), nil
	case KindRegexp:
		p, err := d.regexp(n)
		if err != nil {
			return nil, err
		}
		return p, nil
	case KindExpression:
		p, err := d.expression(n)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, types.NewIllegalConfigError("'%s' is not a pointcut", n.Kind)
	}
}

func (d *decoder) typeFilter(n *node) (types.TypeFilter, error) {
	if n == nil {
		return nil, types.NewIllegalConfigError("missing type filter")
	}
	switch n.Kind {
	case KindTrueTypeFilter:
		return TrueTypeFilter, nil
	case KindTypeFilterUnion, KindTypeFilterIntersect:
		if err := d.operands(n, -1); err != nil {
			return nil, err
		}
		filters := make([]types.TypeFilter, 0, len(n.Operands))
		for _, child := range n.Operands {
			f, err := d.typeFilter(child)
			if err != nil {
				return nil, err
			}
			filters = append(filters, f)
		}
		if n.Kind == KindTypeFilterUnion {
			return &unionTypeFilter{filters: filters}, nil
		}
		return &intersectionTypeFilter{filters: filters}, nil
	case KindTypeFilterNegate:
		if err := d.operands(n, 1); err != nil {
			return nil, err
		}
		f, err := d.typeFilter(n.Operands[0])
		if err != nil {
			return nil, err
		}
		return NegateTypeFilter(f), nil
	case KindTypeName:
		if len(n.Patterns) != 1 {
			return nil, types.NewIllegalConfigError("selector '%s' requires one pattern", n.Kind)
		}
		return NewTypeNameFilter(n.Patterns[0]), nil
	case KindAssignable:
		resolver := d.resolver
		if resolver == nil {
			resolver = types.DefaultTypeRegistry
		}
		t, err := resolver.ResolveType(n.Type)
		if err != nil {
			return nil, err
		}
		return &AssignableTypeFilter{Type: t}, nil
	default:
		return nil, types.NewIllegalConfigError("'%s' is not a type filter", n.Kind)
	}
}

func (d *decoder) methodMatcher(n *node) (types.MethodMatcher, error) {
	if n == nil {
		return nil, types.NewIllegalConfigError("missing method matcher")
	}
	switch n.Kind {
	case KindTrueMethodMatcher:
		return TrueMethodMatcher, nil
	case KindMatcherUnion, KindMatcherIntersect:
		if err := d.operands(n, 2); err != nil {
			return nil, err
		}
		a, err := d.methodMatcher(n.Operands[0])
		if err != nil {
			return nil, err
		}
		b, err := d.methodMatcher(n.Operands[1])
		if err != nil {
			return nil, err
		}
		if n.Kind == KindMatcherUnion {
			return UnionMethodMatcher(a, b), nil
		}
		return IntersectionMethodMatcher(a, b), nil
	case KindMatcherNegate:
		if err := d.operands(n, 1); err != nil {
			return nil, err
		}
		m, err := d.methodMatcher(n.Operands[0])
		if err != nil {
			return nil, err
		}
		return NegateMethodMatcher(m), nil
	case KindTypeAwareUnion:
		if err := d.operands(n, 4); err != nil {
			return nil, err
		}
		m := &typeAwareUnionMethodMatcher{}
		var err error
		if m.tfA, err = d.typeFilter(n.Operands[0]); err != nil {
			return nil, err
		}
		if m.a, err = d.methodMatcher(n.Operands[1]); err != nil {
			return nil, err
		}
		if m.tfB, err = d.typeFilter(n.Operands[2]); err != nil {
			return nil, err
		}
		if m.b, err = d.methodMatcher(n.Operands[3]); err != nil {
			return nil, err
		}
		return m, nil
	case KindNameMatch:
		return NewNameMatchMethodMatcher(n.Patterns...), nil
	case KindRegexp:
		p, err := d.regexp(n)
		if err != nil {
			return nil, err
		}
		return p, nil
	case KindExpression:
		p, err := d.expression(n)
		if err != nil {
			return nil, err
		}
		return p, nil
	case KindScript:
		m, err := NewScriptMethodMatcher(n.Expression, n.Runtime)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, types.NewIllegalConfigError("'%s' is not a method matcher", n.Kind)
	}
}

func (d *decoder) regexp(n *node) (*RegexpMethodPointcut, error) {
	return NewRegexpMethodPointcut(n.Patterns, n.Excluded)
}

func (d *decoder) expression(n *node) (*ExpressionPointcut, error) {
	if strings.TrimSpace(n.Expression) == "" {
		return nil, types.NewIllegalConfigError("empty pointcut expression")
	}
	var opts []ExpressionOption
	if n.Within != "" {
		opts = append(opts, WithWithin(n.Within))
	}
	for name, bindingExpr := range n.Bindings {
		opts = append(opts, WithBinding(name, bindingExpr))
	}
	return NewExpressionPointcut(n.Expression, opts...)
}
