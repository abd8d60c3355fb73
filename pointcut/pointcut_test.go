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
	"sync/atomic"
	"testing"

	"github.com/rulego/rulego-aop/api/types"
	"github.com/stretchr/testify/assert"
)

type Person interface {
	SetName(name string)
	GetName() string
	SetAge(age int) error
	GetAge() int
}

type Animal interface {
	SetName(name string)
	GetName() string
}

type Employee struct {
	name string
	age  int
}

func (e *Employee) SetName(name string) { e.name = name }
func (e *Employee) GetName() string     { return e.name }
func (e *Employee) SetAge(age int) error {
	e.age = age
	return nil
}
func (e *Employee) GetAge() int { return e.age }

type Dog struct {
	name string
}

func (d *Dog) SetName(name string) { d.name = name }
func (d *Dog) GetName() string     { return d.name }

var (
	personType   = reflect.TypeOf((*Person)(nil)).Elem()
	employeeType = reflect.TypeOf(&Employee{})
	dogType      = reflect.TypeOf(&Dog{})
)

func methodOf(t reflect.Type, name string) *types.Method {
	m, ok := types.MethodOf(t, name)
	if !ok {
		panic("no method " + name)
	}
	return m
}

// stubInvocation is the minimal invocation needed to receive bindings.
type stubInvocation struct {
	ctx    context.Context
	target interface{}
	method *types.Method
	args   []interface{}
	attrs  map[string]interface{}
}

func newStubInvocation(target interface{}, method *types.Method, args ...interface{}) *stubInvocation {
	inv := &stubInvocation{target: target, method: method, args: args, attrs: map[string]interface{}{}}
	inv.ctx = types.WithInvocation(context.Background(), inv)
	return inv
}

func (s *stubInvocation) Context() context.Context          { return s.ctx }
func (s *stubInvocation) SetContext(ctx context.Context)    { s.ctx = ctx }
func (s *stubInvocation) Method() *types.Method             { return s.method }
func (s *stubInvocation) Arguments() []interface{}          { return s.args }
func (s *stubInvocation) SetArguments(args []interface{})   { s.args = args }
func (s *stubInvocation) This() interface{}                 { return nil }
func (s *stubInvocation) Target() interface{}               { return s.target }
func (s *stubInvocation) Proceed() (interface{}, error)     { return nil, nil }
func (s *stubInvocation) UserAttribute(key string) (interface{}, bool) {
	v, ok := s.attrs[key]
	return v, ok
}
func (s *stubInvocation) SetUserAttribute(key string, value interface{}) { s.attrs[key] = value }

func TestTrueSingletons(t *testing.T) {
	m := methodOf(personType, "SetName")
	assert.True(t, TruePointcut.TypeFilter() == TrueTypeFilter)
	assert.True(t, TruePointcut.MethodMatcher() == TrueMethodMatcher)
	assert.True(t, Matches(context.Background(), TruePointcut, m, employeeType, []interface{}{"a"}))
	assert.False(t, TrueMethodMatcher.IsRuntime())

	p := New(nil, nil)
	assert.True(t, p.TypeFilter() == TrueTypeFilter)
	assert.True(t, p.MethodMatcher() == TrueMethodMatcher)
}

func TestCompositionLaws(t *testing.T) {
	setters := ForMethodMatcher(NewNameMatchMethodMatcher("Set*"))
	names := ForMethodMatcher(NewNameMatchMethodMatcher("*Name"))
	employees := New(NewAssignableTypeFilter((*Person)(nil)), NewNameMatchMethodMatcher("*Age"))
	dynamicAdult := ForMethodMatcher(DynamicMethodMatcherFunc(func(_ context.Context, _ *types.Method, _ reflect.Type, args []interface{}) bool {
		if len(args) == 0 {
			return false
		}
		age, ok := args[0].(int)
		return ok && age >= 18
	}))
	pointcuts := []types.Pointcut{setters, names, employees, dynamicAdult, TruePointcut}

	type call struct {
		method     *types.Method
		targetType reflect.Type
		args       []interface{}
	}
	var calls []call
	for _, tt := range []reflect.Type{employeeType, dogType} {
		for _, name := range []string{"SetName", "GetName"} {
			calls = append(calls, call{methodOf(tt, name), tt, []interface{}{"x"}})
		}
	}
	for _, age := range []int{10, 30} {
		calls = append(calls, call{methodOf(employeeType, "SetAge"), employeeType, []interface{}{age}})
		calls = append(calls, call{methodOf(employeeType, "GetAge"), employeeType, nil})
	}

	ctx := context.Background()
	eval := func(p types.Pointcut, c call) bool {
		return Matches(ctx, p, c.method, c.targetType, c.args)
	}
	for _, a := range pointcuts {
		for _, b := range pointcuts {
			for _, c := range calls {
				assert.Equal(t, eval(Union(a, b), c), eval(Union(b, a), c))
				assert.Equal(t, eval(Intersection(a, b), c), eval(Intersection(b, a), c))
				assert.Equal(t, eval(a, c) || eval(b, c), eval(Union(a, b), c))
				assert.Equal(t, eval(a, c) && eval(b, c), eval(Intersection(a, b), c))
				for _, d := range pointcuts {
					assert.Equal(t, eval(Union(Union(a, b), d), c), eval(Union(a, Union(b, d)), c))
					assert.Equal(t, eval(Intersection(Intersection(a, b), d), c), eval(Intersection(a, Intersection(b, d)), c))
				}
			}
		}
	}
}

func TestTypeAwareUnion(t *testing.T) {
	onlyPersonSetters := New(NewAssignableTypeFilter((*Person)(nil)), NewNameMatchMethodMatcher("Set*"))
	onlyDogGetters := New(NewTypeNameFilter("*.Dog"), NewNameMatchMethodMatcher("Get*"))
	union := Union(onlyPersonSetters, onlyDogGetters)

	assert.True(t, MatchesStatically(union, methodOf(employeeType, "SetName"), employeeType))
	assert.False(t, MatchesStatically(union, methodOf(employeeType, "GetName"), employeeType))
	assert.True(t, MatchesStatically(union, methodOf(dogType, "GetName"), dogType))
	assert.False(t, MatchesStatically(union, methodOf(dogType, "SetName"), dogType))
}

func TestIntersectionEvaluatesStaticFirst(t *testing.T) {
	var evaluations int64
	counting := DynamicMethodMatcherFunc(func(context.Context, *types.Method, reflect.Type, []interface{}) bool {
		atomic.AddInt64(&evaluations, 1)
		return true
	})
	setters := NewNameMatchMethodMatcher("Set*")

	for _, mm := range []types.MethodMatcher{
		IntersectionMethodMatcher(counting, setters),
		IntersectionMethodMatcher(setters, counting),
	} {
		atomic.StoreInt64(&evaluations, 0)
		assert.True(t, mm.IsRuntime())
		n, staticFailures := 0, 0
		for i := 0; i < 5; i++ {
			for _, name := range []string{"SetName", "GetName", "SetAge", "GetAge"} {
				m := methodOf(employeeType, name)
				n++
				if !setters.Matches(m, employeeType) {
					staticFailures++
				}
				mm.MatchesRuntime(context.Background(), m, employeeType, []interface{}{1})
			}
		}
		assert.Equal(t, int64(n-staticFailures), atomic.LoadInt64(&evaluations))
	}
}

func TestNegate(t *testing.T) {
	getters := ForMethodMatcher(NewNameMatchMethodMatcher("Get*"))
	notGetters := Negate(getters)
	assert.True(t, MatchesStatically(notGetters, methodOf(employeeType, "SetName"), employeeType))
	assert.False(t, MatchesStatically(notGetters, methodOf(employeeType, "GetName"), employeeType))

	adult := DynamicMethodMatcherFunc(func(_ context.Context, _ *types.Method, _ reflect.Type, args []interface{}) bool {
		return args[0].(int) >= 18
	})
	minor := NegateMethodMatcher(adult)
	m := methodOf(employeeType, "SetAge")
	assert.True(t, minor.IsRuntime())
	assert.True(t, minor.Matches(m, employeeType))
	assert.True(t, minor.MatchesRuntime(context.Background(), m, employeeType, []interface{}{10}))
	assert.False(t, minor.MatchesRuntime(context.Background(), m, employeeType, []interface{}{30}))

	notDog := NegateTypeFilter(NewTypeNameFilter("Dog"))
	assert.True(t, notDog.Matches(employeeType))
	assert.False(t, notDog.Matches(dogType))
}

func TestSelectors(t *testing.T) {
	nm := NewNameMatchMethodMatcher("Set*", "GetAge")
	assert.True(t, nm.Matches(methodOf(employeeType, "SetName"), employeeType))
	assert.True(t, nm.Matches(methodOf(employeeType, "GetAge"), employeeType))
	assert.False(t, nm.Matches(methodOf(employeeType, "GetName"), employeeType))
	assert.True(t, nm.AddName("GetName").Matches(methodOf(employeeType, "GetName"), employeeType))
	assert.Equal(t, []string{"Set*", "GetAge"}, nm.Names())

	personFilter := NewAssignableTypeFilter((*Person)(nil))
	assert.True(t, personFilter.Matches(employeeType))
	assert.False(t, personFilter.Matches(dogType))
	animalFilter := NewAssignableTypeFilter((*Animal)(nil))
	assert.True(t, animalFilter.Matches(employeeType))
	assert.True(t, animalFilter.Matches(dogType))
	structFilter := NewAssignableTypeFilter(Employee{})
	assert.True(t, structFilter.Matches(employeeType))
	assert.False(t, structFilter.Matches(nil))

	assert.True(t, NewTypeNameFilter("pointcut.Emp*").Matches(employeeType))
	assert.True(t, NewTypeNameFilter("Dog").Matches(dogType))
	assert.False(t, NewTypeNameFilter("Dog").Matches(employeeType))
}

func TestRegexpMethodPointcut(t *testing.T) {
	p, err := NewRegexpMethodPointcut([]string{".*\\.Set.*", ".*\\.GetAge"}, []string{".*\\.SetAge"})
	assert.Nil(t, err)
	assert.True(t, MatchesStatically(p, methodOf(employeeType, "SetName"), employeeType))
	assert.True(t, MatchesStatically(p, methodOf(employeeType, "GetAge"), employeeType))
	assert.False(t, MatchesStatically(p, methodOf(employeeType, "SetAge"), employeeType))
	assert.False(t, MatchesStatically(p, methodOf(employeeType, "GetName"), employeeType))

	byTarget, err := NewRegexpMethodPointcut([]string{"pointcut\\.Employee\\.GetName"}, nil)
	assert.Nil(t, err)
	assert.True(t, byTarget.Matches(methodOf(personType, "GetName"), employeeType))
	assert.False(t, byTarget.Matches(methodOf(personType, "GetName"), dogType))

	_, err = NewRegexpMethodPointcut([]string{"(unclosed"}, nil)
	assert.ErrorIs(t, err, types.ErrAopConfig)
	_, err = NewRegexpMethodPointcut(nil, nil)
	assert.ErrorIs(t, err, types.ErrIllegalConfiguration)
}

type flowCaller struct {
	p *ControlFlowPointcut
}

func (f *flowCaller) Call(m *types.Method) bool {
	return f.p.MatchesRuntime(context.Background(), m, employeeType, nil)
}

func callThrough(p *ControlFlowPointcut, m *types.Method) bool {
	return p.MatchesRuntime(context.Background(), m, employeeType, nil)
}

func TestControlFlowPointcut(t *testing.T) {
	m := methodOf(employeeType, "SetName")

	byMethod := NewControlFlowPointcut(reflect.TypeOf(&flowCaller{}), "Call")
	assert.True(t, byMethod.IsRuntime())
	assert.False(t, byMethod.MatchesRuntime(context.Background(), m, employeeType, nil))
	assert.True(t, (&flowCaller{p: byMethod}).Call(m))
	assert.Equal(t, int64(2), byMethod.EvaluationCount())

	byFunc := NewControlFlowPointcutFunc("pointcut.callThrough")
	assert.True(t, callThrough(byFunc, m))
	assert.False(t, byFunc.MatchesRuntime(context.Background(), m, employeeType, nil))
	assert.Equal(t, int64(2), byFunc.EvaluationCount())
}

func deepOwner(p *ControlFlowPointcut, m *types.Method) bool {
	return descend(p, m, 200)
}

func descend(p *ControlFlowPointcut, m *types.Method, depth int) bool {
	if depth == 0 {
		return p.MatchesRuntime(context.Background(), m, employeeType, nil)
	}
	return descend(p, m, depth-1)
}

func TestControlFlowPointcutDeepStack(t *testing.T) {
	m := methodOf(employeeType, "SetName")
	p := NewControlFlowPointcutFunc("pointcut.deepOwner")
	assert.True(t, deepOwner(p, m))
	assert.False(t, descend(p, m, 200))
}

func TestExpressionPointcut(t *testing.T) {
	static, err := NewExpressionPointcut(`method startsWith "Set" && argCount == 1`)
	assert.Nil(t, err)
	assert.False(t, static.IsRuntime())
	assert.True(t, static.Matches(methodOf(employeeType, "SetName"), employeeType))
	assert.False(t, static.Matches(methodOf(employeeType, "GetName"), employeeType))

	withReturn, err := NewExpressionPointcut(`returns == "string" && typeName == "Employee"`, WithWithin("pointcut.*"))
	assert.Nil(t, err)
	assert.True(t, MatchesStatically(withReturn, methodOf(employeeType, "GetName"), employeeType))
	assert.False(t, MatchesStatically(withReturn, methodOf(employeeType, "GetAge"), employeeType))

	adult, err := NewExpressionPointcut(`method == "SetAge" && args[0] >= 18`, WithBinding("age", "args[0]"))
	assert.Nil(t, err)
	assert.True(t, adult.IsRuntime())
	m := methodOf(employeeType, "SetAge")
	inv := newStubInvocation(&Employee{}, m, 30)
	assert.True(t, Matches(inv.Context(), adult, m, employeeType, []interface{}{30}))
	v, ok := inv.UserAttribute(adult.MatchKey())
	assert.True(t, ok)
	match := v.(*types.JoinPointMatch)
	age, ok := match.Get("age")
	assert.True(t, ok)
	assert.Equal(t, 30, age)

	minorInv := newStubInvocation(&Employee{}, m, 10)
	assert.False(t, Matches(minorInv.Context(), adult, m, employeeType, []interface{}{10}))
	_, ok = minorInv.UserAttribute(adult.MatchKey())
	assert.False(t, ok)

	byTarget, err := NewExpressionPointcut(`target != nil`)
	assert.Nil(t, err)
	assert.True(t, byTarget.IsRuntime())
	getName := methodOf(employeeType, "GetName")
	assert.True(t, byTarget.MatchesRuntime(newStubInvocation(&Employee{}, getName).Context(), getName, employeeType, nil))
	assert.False(t, byTarget.MatchesRuntime(newStubInvocation(nil, getName).Context(), getName, employeeType, nil))

	_, err = NewExpressionPointcut(`method ==`)
	assert.ErrorIs(t, err, types.ErrAopConfig)
}

func TestScriptMethodMatcher(t *testing.T) {
	script := `function match(method, type, args) {
		if (args === null) { return method.indexOf("Set") === 0; }
		return args[0] >= 18;
	}`
	static, err := NewScriptMethodMatcher(script, false)
	assert.Nil(t, err)
	assert.True(t, static.Matches(methodOf(employeeType, "SetAge"), employeeType))
	assert.False(t, static.Matches(methodOf(employeeType, "GetAge"), employeeType))

	dynamic, err := NewScriptMethodMatcher(script, true)
	assert.Nil(t, err)
	m := methodOf(employeeType, "SetAge")
	assert.True(t, dynamic.Matches(m, employeeType))
	assert.True(t, dynamic.MatchesRuntime(context.Background(), m, employeeType, []interface{}{20}))
	assert.False(t, dynamic.MatchesRuntime(context.Background(), m, employeeType, []interface{}{3}))

	_, err = NewScriptMethodMatcher("var x = 1;", false)
	assert.ErrorIs(t, err, types.ErrIllegalConfiguration)
	_, err = NewScriptMethodMatcher("function match( {", false)
	assert.ErrorIs(t, err, types.ErrAopConfig)
}
