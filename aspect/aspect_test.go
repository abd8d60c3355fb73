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
	"context"
	"errors"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rulego/rulego-aop/api/types"
	"github.com/rulego/rulego-aop/pointcut"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type TraceAspect struct {
	id int64
}

func (a *TraceAspect) Before(jp types.JoinPoint)                              {}
func (a *TraceAspect) AfterCall()                                             {}
func (a *TraceAspect) AfterFailure(err error)                                 {}
func (a *TraceAspect) Around(pjp types.ProceedingJoinPoint) (interface{}, error) { return pjp.Proceed() }
func (a *TraceAspect) Returned(value string)                                  {}

type AmbiguousAspect struct{}

func (a *AmbiguousAspect) LogCall()  {}
func (a *AmbiguousAspect) LOGCall()  {}
func (a *AmbiguousAspect) Something() {}

type OrderedAspect struct {
	order int
}

func (a *OrderedAspect) Order() int { return a.order }

func TestPrototypeFactory(t *testing.T) {
	var created int64
	factory := NewPrototypeFactory("trace", func() (*TraceAspect, error) {
		return &TraceAspect{id: atomic.AddInt64(&created, 1)}, nil
	})
	assert.Equal(t, reflect.TypeOf(&TraceAspect{}), factory.AspectMetadata().Type)
	assert.Equal(t, types.LowestPrecedence, factory.Order())
	assert.Equal(t, int64(0), atomic.LoadInt64(&created))

	a, err := factory.AspectInstance()
	require.Nil(t, err)
	b, err := factory.AspectInstance()
	require.Nil(t, err)
	assert.False(t, a == b)
	assert.Equal(t, int64(2), atomic.LoadInt64(&created))

	failing := NewPrototypeFactory("failing", func() (*TraceAspect, error) {
		return nil, errors.New("no resources")
	})
	_, err = failing.AspectInstance()
	assert.ErrorIs(t, err, types.ErrAopConfig)
	assert.True(t, strings.Contains(err.Error(), "no resources"))

	panicking := NewPrototypeFactory("panicking", func() (*TraceAspect, error) {
		panic("constructor exploded")
	})
	_, err = panicking.AspectInstance()
	assert.ErrorIs(t, err, types.ErrAopConfig)

	ordered := NewPrototypeFactory("ordered", func() (*OrderedAspect, error) {
		return &OrderedAspect{order: 1}, nil
	}, WithOrder(7))
	assert.Equal(t, 7, ordered.Order())
}

func TestTypeAndSingletonFactories(t *testing.T) {
	factory, err := NewTypeFactory("trace", reflect.TypeOf(&TraceAspect{}))
	require.Nil(t, err)
	a, err := factory.AspectInstance()
	require.Nil(t, err)
	b, _ := factory.AspectInstance()
	assert.IsType(t, &TraceAspect{}, a)
	assert.False(t, a == b)

	_, err = NewTypeFactory("bad", reflect.TypeOf(1))
	assert.ErrorIs(t, err, types.ErrAopConfig)

	instance := &OrderedAspect{order: 3}
	singleton := NewSingletonFactory("ordered", instance)
	assert.Equal(t, 3, singleton.Order())
	assert.Equal(t, 1, NewSingletonFactory("ordered", instance, WithOrder(1)).Order())
	got, err := singleton.AspectInstance()
	require.Nil(t, err)
	assert.True(t, got == interface{}(instance))

	registry := types.NewTypeRegistry(nil)
	assert.True(t, NewSingletonFactory("x", instance, WithTypeResolver(registry)).TypeResolver() == types.TypeResolver(registry))
	assert.True(t, NewSingletonFactory("x", instance).TypeResolver() == types.TypeResolver(types.DefaultTypeRegistry))
}

func TestLazySingletonFactory(t *testing.T) {
	var created int64
	inner := NewPrototypeFactory("trace", func() (*TraceAspect, error) {
		return &TraceAspect{id: atomic.AddInt64(&created, 1)}, nil
	}, WithOrder(2))
	lazy := NewLazySingletonFactory(inner)
	assert.False(t, lazy.IsMaterialized())
	assert.Equal(t, 2, lazy.Order())
	assert.True(t, lazy.AspectMetadata().LazilyInstantiated)
	assert.Equal(t, "trace", lazy.AspectMetadata().Name)
	assert.False(t, lazy.IsMaterialized())
	assert.Equal(t, int64(0), atomic.LoadInt64(&created))

	a, err := lazy.AspectInstance()
	require.Nil(t, err)
	b, err := lazy.AspectInstance()
	require.Nil(t, err)
	assert.True(t, a == b)
	assert.True(t, lazy.IsMaterialized())
	assert.Equal(t, int64(1), atomic.LoadInt64(&created))
}

type precedence struct {
	name   string
	order  int
	aspect string
	decl   int
	after  bool
}

func (p *precedence) Advice() types.Advice    { return p }
func (p *precedence) Order() int              { return p.order }
func (p *precedence) AspectName() string      { return p.aspect }
func (p *precedence) DeclarationOrder() int   { return p.decl }
func (p *precedence) IsBeforeAdvice() bool    { return !p.after }
func (p *precedence) IsAfterAdvice() bool     { return p.after }

func names(advisors []types.Advisor) []string {
	var out []string
	for _, a := range advisors {
		out = append(out, a.(*precedence).name)
	}
	return out
}

func TestSortAdvisors(t *testing.T) {
	advisors := []types.Advisor{
		&precedence{name: "tx-before", order: 2, aspect: "tx", decl: 0},
		&precedence{name: "log-before-2", order: 1, aspect: "log", decl: 1},
		&precedence{name: "log-before-1", order: 1, aspect: "log", decl: 0},
		&precedence{name: "unordered", order: types.LowestPrecedence},
		&precedence{name: "first", order: types.HighestPrecedence},
	}
	assert.Equal(t, []string{"first", "log-before-1", "log-before-2", "tx-before", "unordered"}, names(SortAdvisors(advisors)))

	afters := []types.Advisor{
		&precedence{name: "after-0", order: 1, aspect: "log", decl: 0, after: true},
		&precedence{name: "after-1", order: 1, aspect: "log", decl: 1, after: true},
	}
	assert.Equal(t, []string{"after-1", "after-0"}, names(SortAdvisors(afters)))

	otherAspects := []types.Advisor{
		&precedence{name: "b", order: 1, aspect: "b", decl: 1},
		&precedence{name: "a", order: 1, aspect: "a", decl: 0},
	}
	assert.Equal(t, []string{"b", "a"}, names(SortAdvisors(otherAspects)))
	assert.Equal(t, 0, ComparePrecedence(otherAspects[0], otherAspects[1]))
}

func TestAdvisorFactory(t *testing.T) {
	factory := NewSingletonFactory("trace", &TraceAspect{}, WithOrder(4))
	def := NewDefinition("trace", factory).
		WithPointcut("all", pointcut.TruePointcut).
		WithAdvice(
			AdviceDeclaration{Kind: types.AdviceBefore, Method: "before", Pointcut: "all"},
			AdviceDeclaration{Kind: types.AdviceAround, Method: "Around", Pointcut: `method startsWith "Get"`},
			AdviceDeclaration{Kind: types.AdviceAfterThrowing, Method: "AfterFailure", Pointcut: "all",
				ArgNames: []string{"err"}, Throwing: "err"},
			AdviceDeclaration{Kind: types.AdviceAfterReturning, Method: "Returned", Pointcut: "all",
				ArgNames: []string{"value"}, Returning: "value", ReturningType: "string"},
		)
	advisors, err := NewAdvisorFactory(types.DefaultLogger()).GetAdvisors(def)
	require.Nil(t, err)
	require.Equal(t, 4, len(advisors))
	for i, a := range advisors {
		info := a.(types.AspectPrecedenceInformation)
		assert.Equal(t, i, info.DeclarationOrder())
		assert.Equal(t, "trace", info.AspectName())
		assert.Equal(t, 4, info.Order())
	}
	first := advisors[0].(*Advisor)
	assert.Equal(t, "Before", first.AspectAdvice().MethodName())
	assert.True(t, first.Pointcut() == pointcut.TruePointcut)
	_, isExpr := advisors[1].(*Advisor).Pointcut().(*pointcut.ExpressionPointcut)
	assert.True(t, isExpr)
	assert.Equal(t, reflect.TypeOf(""), advisors[3].(*Advisor).AspectAdvice().ReturningType())

	assert.Equal(t, 9, NewAdvisor(first.AspectAdvice(), intPtr(9)).Order())
}

func intPtr(v int) *int {
	return &v
}

func TestAdvisorFactoryErrors(t *testing.T) {
	tests := []struct {
		name    string
		factory types.AspectInstanceFactory
		decl    AdviceDeclaration
		ident   string
	}{
		{"absent method", NewSingletonFactory("trace", &TraceAspect{}),
			AdviceDeclaration{Kind: types.AdviceBefore, Method: "Missing", Pointcut: "all"}, "Missing"},
		{"ambiguous method", NewSingletonFactory("ambiguous", &AmbiguousAspect{}),
			AdviceDeclaration{Kind: types.AdviceBefore, Method: "logcall", Pointcut: "all"}, "logcall"},
		{"unresolvable type", NewSingletonFactory("trace", &TraceAspect{}),
			AdviceDeclaration{Kind: types.AdviceAfterReturning, Method: "Returned", Pointcut: "all",
				ArgNames: []string{"value"}, Returning: "value", ReturningType: "trace.Unknown"}, "trace.Unknown"},
		{"unbound argument", NewSingletonFactory("trace", &TraceAspect{}),
			AdviceDeclaration{Kind: types.AdviceBefore, Method: "Returned", Pointcut: "all", ArgNames: []string{"value"}}, "value"},
		{"missing pointcut", NewSingletonFactory("trace", &TraceAspect{}),
			AdviceDeclaration{Kind: types.AdviceBefore, Method: "Before"}, "Before"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := NewDefinition("aspect", tt.factory).WithPointcut("all", pointcut.TruePointcut).WithAdvice(tt.decl)
			err := NewAdvisorFactory(nil).Validate(def)
			require.NotNil(t, err)
			assert.ErrorIs(t, err, types.ErrIllegalConfiguration)
			assert.True(t, strings.Contains(err.Error(), tt.ident), err.Error())
		})
	}

	_, err := NewAdvisorFactory(nil).GetAdvisors(&Definition{Name: "x"})
	assert.ErrorIs(t, err, types.ErrIllegalConfiguration)

	name, err := ResolveMethodName(reflect.TypeOf(&AmbiguousAspect{}), "something")
	assert.Nil(t, err)
	assert.Equal(t, "Something", name)
}

type Lockable interface {
	Lock()
	Unlock()
	Locked() bool
}

type lockMixin struct {
	locked bool
}

func (m *lockMixin) Lock()        { m.locked = true }
func (m *lockMixin) Unlock()      { m.locked = false }
func (m *lockMixin) Locked() bool { return m.locked }

type Counter struct {
	n int
}

func (c *Counter) Inc() int {
	c.n++
	return c.n
}

var lockableType = reflect.TypeOf((*Lockable)(nil)).Elem()

// directInvocation ends the chain by calling the target through the invoker.
type directInvocation struct {
	ctx    context.Context
	method *types.Method
	target interface{}
	args   []interface{}
}

func (d *directInvocation) Context() context.Context                     { return d.ctx }
func (d *directInvocation) SetContext(ctx context.Context)               { d.ctx = ctx }
func (d *directInvocation) Method() *types.Method                        { return d.method }
func (d *directInvocation) Arguments() []interface{}                     { return d.args }
func (d *directInvocation) SetArguments(args []interface{})              { d.args = args }
func (d *directInvocation) This() interface{}                            { return d.target }
func (d *directInvocation) Target() interface{}                          { return d.target }
func (d *directInvocation) UserAttribute(string) (interface{}, bool)     { return nil, false }
func (d *directInvocation) SetUserAttribute(string, interface{})         {}
func (d *directInvocation) Proceed() (interface{}, error) {
	return d.target.(*Counter).Inc(), nil
}

func invocationOf(target interface{}, t reflect.Type, name string) *directInvocation {
	m, _ := types.MethodOf(t, name)
	return &directInvocation{ctx: context.Background(), method: m, target: target}
}

func TestIntroductions(t *testing.T) {
	shared := NewDelegatingIntroductionInterceptor(&lockMixin{})
	advisor := NewIntroductionAdvisor(shared, lockableType)
	require.Nil(t, advisor.Validate())
	assert.True(t, advisor.TypeFilter() == pointcut.TrueTypeFilter)

	c := &Counter{}
	_, err := shared.Invoke(invocationOf(c, lockableType, "Lock"))
	require.Nil(t, err)
	locked, err := shared.Invoke(invocationOf(c, lockableType, "Locked"))
	require.Nil(t, err)
	assert.Equal(t, true, locked)
	n, err := shared.Invoke(invocationOf(c, reflect.TypeOf(c), "Inc"))
	require.Nil(t, err)
	assert.Equal(t, 1, n)

	perTarget := NewDelegatePerTargetIntroductionInterceptor(func() (*lockMixin, error) {
		return &lockMixin{}, nil
	})
	a, b := &Counter{}, &Counter{}
	_, err = perTarget.Invoke(invocationOf(a, lockableType, "Lock"))
	require.Nil(t, err)
	lockedA, _ := perTarget.Invoke(invocationOf(a, lockableType, "Locked"))
	lockedB, _ := perTarget.Invoke(invocationOf(b, lockableType, "Locked"))
	assert.Equal(t, true, lockedA)
	assert.Equal(t, false, lockedB)
	perTarget.Release(a)
	lockedA, _ = perTarget.Invoke(invocationOf(a, lockableType, "Locked"))
	assert.Equal(t, false, lockedA)

	invalid := NewIntroductionAdvisor(NewDelegatingIntroductionInterceptor(&Counter{}), lockableType)
	assert.ErrorIs(t, invalid.Validate(), types.ErrIllegalConfiguration)
	notInterface := NewIntroductionAdvisor(shared, reflect.TypeOf(&Counter{}))
	assert.ErrorIs(t, notInterface.Validate(), types.ErrIllegalConfiguration)

	registry := types.NewTypeRegistry(nil)
	registry.RegisterType(lockableType)
	def := NewDefinition("locking", NewSingletonFactory("locking", &TraceAspect{}, WithTypeResolver(registry))).
		WithIntroduction(IntroductionDeclaration{TypesMatching: "*Counter", InterfaceNames: []string{"aspect.Lockable"}, Interceptor: shared})
	advisors, err := NewAdvisorFactory(nil).GetAdvisors(def)
	require.Nil(t, err)
	intro := advisors[0].(types.IntroductionAdvisor)
	assert.Equal(t, []reflect.Type{lockableType}, intro.Interfaces())
	assert.True(t, intro.TypeFilter().Matches(reflect.TypeOf(c)))
	assert.False(t, intro.TypeFilter().Matches(reflect.TypeOf(&TraceAspect{})))
}
