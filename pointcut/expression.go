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
	"context"
	"reflect"
	"sort"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/vm"
	"github.com/rulego/rulego-aop/api/types"
)

const (
	// EnvMethod is the method name.
	EnvMethod = "method"
	// EnvType is the simple target type name, or the declaring type name when the target type is unknown.
	EnvType = "typeName"
	// EnvQualifiedType is "pkg.Type".
	EnvQualifiedType = "qualifiedType"
	// EnvPkg is the last element of the package path.
	EnvPkg = "pkg"
	// EnvParams lists the parameter type names.
	EnvParams = "params"
	// EnvReturns is the declared return type name, "" for void.
	EnvReturns = "returns"
	// EnvArgCount is the declared number of parameters.
	EnvArgCount = "argCount"
	// EnvArgs are the live arguments. Referencing them makes the pointcut dynamic.
	EnvArgs = "args"
	// EnvTarget is the live target object. Referencing it makes the pointcut dynamic.
	EnvTarget = "target"
)

// JoinPointMatchKeyPrefix prefixes the invocation attribute holding the
// bindings produced by an expression pointcut.
const JoinPointMatchKeyPrefix = "pointcut.joinPointMatch:"

// ExpressionOption configures an ExpressionPointcut.
type ExpressionOption func(p *ExpressionPointcut) error

// WithBinding evaluates expression after a successful match and binds the
// result under name in the JoinPointMatch of the current invocation.
func WithBinding(name, expression string) ExpressionOption {
	return func(p *ExpressionPointcut) error {
		if p.bindings == nil {
			p.bindings = make(map[string]string)
		}
		p.bindings[name] = expression
		return nil
	}
}

// WithWithin restricts target types by a "*" wildcard type name pattern.
func WithWithin(pattern string) ExpressionOption {
	return func(p *ExpressionPointcut) error {
		p.within = pattern
		return nil
	}
}

// ExpressionPointcut selects join points with an expr-lang boolean expression
// evaluated over the method signature and, when referenced, the live
// arguments and target:
//
//	method startsWith "Set" && argCount == 1
//	method == "Transfer" && args[1] > 1000
//
// ExpressionPointcut 基于 expr 表达式的切入点。表达式引用 args 或 target 时为动态切入点，
// 匹配成功后命名绑定的值保存在当前调用的 JoinPointMatch 中。
type ExpressionPointcut struct {
	expression string
	within     string
	bindings   map[string]string
	program    *vm.Program
	bindingVms map[string]*vm.Program
	bindOrder  []string
	// staticExpr is set when the expression itself needs no live values.
	staticExpr bool
	runtime    bool
	typeFilter types.TypeFilter
}

var (
	_ types.Pointcut      = (*ExpressionPointcut)(nil)
	_ types.MethodMatcher = (*ExpressionPointcut)(nil)
)

// identifierCollector records every identifier an expression references.
type identifierCollector struct {
	names map[string]bool
}

func (c *identifierCollector) Visit(node *ast.Node) {
	if n, ok := (*node).(*ast.IdentifierNode); ok {
		c.names[n.Value] = true
	}
}

func (c *identifierCollector) dynamic() bool {
	return c.names[EnvArgs] || c.names[EnvTarget]
}

// NewExpressionPointcut compiles expression and its bindings.
func NewExpressionPointcut(expression string, opts ...ExpressionOption) (*ExpressionPointcut, error) {
	p := &ExpressionPointcut{expression: expression}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	collector := &identifierCollector{names: make(map[string]bool)}
	program, err := expr.Compile(expression, expr.AllowUndefinedVariables(), expr.AsBool(), expr.Patch(collector))
	if err != nil {
		return nil, types.NewConfigError(err, "invalid pointcut expression '%s'", expression)
	}
	p.program = program
	p.staticExpr = !collector.dynamic()
	p.bindingVms = make(map[string]*vm.Program, len(p.bindings))
	for name, bindingExpr := range p.bindings {
		bp, err := expr.Compile(bindingExpr, expr.AllowUndefinedVariables(), expr.Patch(collector))
		if err != nil {
			return nil, types.NewConfigError(err, "invalid binding '%s' in pointcut expression '%s'", name, expression)
		}
		p.bindingVms[name] = bp
		p.bindOrder = append(p.bindOrder, name)
	}
	sort.Strings(p.bindOrder)
	// bindings are produced per call, so a pointcut with bindings is dynamic.
	p.runtime = collector.dynamic() || len(p.bindOrder) > 0
	if p.within != "" {
		p.typeFilter = NewTypeNameFilter(p.within)
	} else {
		p.typeFilter = TrueTypeFilter
	}
	return p, nil
}

// Expression returns the source expression.
func (p *ExpressionPointcut) Expression() string {
	return p.expression
}

// Within returns the type name pattern, "" when unrestricted.
func (p *ExpressionPointcut) Within() string {
	return p.within
}

// Bindings returns a copy of the named binding expressions.
func (p *ExpressionPointcut) Bindings() map[string]string {
	out := make(map[string]string, len(p.bindings))
	for k, v := range p.bindings {
		out[k] = v
	}
	return out
}

// MatchKey is the invocation attribute under which the JoinPointMatch is stored.
func (p *ExpressionPointcut) MatchKey() string {
	return JoinPointMatchKeyPrefix + p.expression
}

func (p *ExpressionPointcut) TypeFilter() types.TypeFilter {
	return p.typeFilter
}

func (p *ExpressionPointcut) MethodMatcher() types.MethodMatcher {
	return p
}

func (p *ExpressionPointcut) IsRuntime() bool {
	return p.runtime
}

// Matches evaluates the expression over the signature. An expression that
// references args or target cannot be decided statically and passes this stage.
func (p *ExpressionPointcut) Matches(method *types.Method, targetType reflect.Type) bool {
	if !p.staticExpr {
		return true
	}
	return p.eval(p.env(method, targetType))
}

func (p *ExpressionPointcut) MatchesRuntime(ctx context.Context, method *types.Method, targetType reflect.Type, args []interface{}) bool {
	env := p.env(method, targetType)
	env[EnvArgs] = args
	var inv types.MethodInvocation
	if ctx != nil {
		inv, _ = types.InvocationFromContext(ctx)
	}
	if inv != nil {
		env[EnvTarget] = inv.Target()
	}
	if !p.eval(env) {
		return false
	}
	p.bindTo(inv, env)
	return true
}

func (p *ExpressionPointcut) eval(env map[string]interface{}) bool {
	out, err := vm.Run(p.program, env)
	if err != nil {
		return false
	}
	result, ok := out.(bool)
	return ok && result
}

// bindTo stores a fresh JoinPointMatch on inv. Without an invocation the
// bindings have nowhere to live and are skipped.
func (p *ExpressionPointcut) bindTo(inv types.MethodInvocation, env map[string]interface{}) {
	if inv == nil || len(p.bindOrder) == 0 {
		return
	}
	match := types.NewJoinPointMatch()
	for _, name := range p.bindOrder {
		if v, err := vm.Run(p.bindingVms[name], env); err == nil {
			match.Bind(name, v)
		}
	}
	inv.SetUserAttribute(p.MatchKey(), match)
}

func (p *ExpressionPointcut) env(method *types.Method, targetType reflect.Type) map[string]interface{} {
	t := targetType
	if t == nil {
		t = method.DeclaringType
	}
	params := make([]string, 0, len(method.In))
	for _, in := range method.In {
		params = append(params, in.String())
	}
	returns := ""
	if method.Out != nil {
		returns = method.Out.String()
	}
	qualified := types.QualifiedTypeName(t)
	pkg := ""
	if name := types.TypeName(t); len(qualified) > len(name) {
		pkg = qualified[:len(qualified)-len(name)-1]
	}
	return map[string]interface{}{
		EnvMethod:        method.Name,
		EnvType:          types.TypeName(t),
		EnvQualifiedType: qualified,
		EnvPkg:           pkg,
		EnvParams:        params,
		EnvReturns:       returns,
		EnvArgCount:      len(method.In),
	}
}
