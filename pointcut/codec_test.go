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
	"testing"

	"github.com/rulego/rulego-aop/api/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodecTrueIdentity(t *testing.T) {
	data, err := Marshal(TruePointcut)
	require.Nil(t, err)
	assert.Equal(t, `{"kind":"truePointcut"}`, string(data))
	decoded, err := UnmarshalPointcut(data, nil)
	require.Nil(t, err)
	assert.True(t, decoded == TruePointcut)

	data, err = Marshal(TrueTypeFilter)
	require.Nil(t, err)
	tf, err := UnmarshalTypeFilter(data, nil)
	require.Nil(t, err)
	assert.True(t, tf == TrueTypeFilter)

	data, err = Marshal(TrueMethodMatcher)
	require.Nil(t, err)
	mm, err := UnmarshalMethodMatcher(data, nil)
	require.Nil(t, err)
	assert.True(t, mm == TrueMethodMatcher)

	data, err = Marshal(New(nil, nil))
	require.Nil(t, err)
	p, err := UnmarshalPointcut(data, nil)
	require.Nil(t, err)
	assert.True(t, p.TypeFilter() == TrueTypeFilter)
	assert.True(t, p.MethodMatcher() == TrueMethodMatcher)
}

func TestCodecRoundTrip(t *testing.T) {
	registry := types.NewTypeRegistry(nil)
	registry.RegisterType(personType)

	regexpPc, err := NewRegexpMethodPointcut([]string{".*Name"}, []string{".*GetName"})
	require.Nil(t, err)
	adult, err := NewExpressionPointcut(`args[0] >= 18`, WithBinding("age", "args[0]"))
	require.Nil(t, err)

	tree := Union(
		Intersection(
			New(NewAssignableTypeFilter((*Person)(nil)), NewNameMatchMethodMatcher("Set*")),
			ForMethodMatcher(adult),
		),
		Union(
			regexpPc,
			New(NegateTypeFilter(NewTypeNameFilter("*Employee")), NegateMethodMatcher(NewNameMatchMethodMatcher("Set*"))),
		),
	)
	data, err := Marshal(tree)
	require.Nil(t, err)
	decoded, err := UnmarshalPointcut(data, registry)
	require.Nil(t, err)

	again, err := Marshal(decoded)
	require.Nil(t, err)
	assert.JSONEq(t, string(data), string(again))

	cases := []struct {
		method     *types.Method
		targetType reflect.Type
		args       []interface{}
	}{
		{methodOf(employeeType, "SetAge"), employeeType, []interface{}{20}},
		{methodOf(employeeType, "SetAge"), employeeType, []interface{}{10}},
		{methodOf(employeeType, "SetName"), employeeType, []interface{}{"x"}},
		{methodOf(employeeType, "GetName"), employeeType, nil},
		{methodOf(dogType, "GetName"), dogType, nil},
		{methodOf(dogType, "SetName"), dogType, []interface{}{"x"}},
	}
	for _, c := range cases {
		assert.Equal(t,
			Matches(context.Background(), tree, c.method, c.targetType, c.args),
			Matches(context.Background(), decoded, c.method, c.targetType, c.args),
			c.method.String())
	}
}

func TestCodecErrors(t *testing.T) {
	_, err := Marshal(StaticMethodMatcherFunc(func(*types.Method, reflect.Type) bool { return true }))
	assert.ErrorIs(t, err, types.ErrUnsupportedOperation)

	_, err = Marshal(NewControlFlowPointcutFunc("*"))
	assert.ErrorIs(t, err, types.ErrUnsupportedOperation)

	_, err = UnmarshalPointcut([]byte(`{"kind":"nameMatch","patterns":["Set*"]}`), nil)
	assert.ErrorIs(t, err, types.ErrIllegalConfiguration)

	_, err = UnmarshalTypeFilter([]byte(`{"kind":"assignable","type":"pointcut.Unknown"}`), types.NewTypeRegistry(nil))
	assert.ErrorIs(t, err, types.ErrIllegalConfiguration)

	_, err = UnmarshalMethodMatcher([]byte(`{"kind":"methodMatcherUnion","operands":[{"kind":"trueMethodMatcher"}]}`), nil)
	assert.ErrorIs(t, err, types.ErrIllegalConfiguration)

	_, err = UnmarshalPointcut([]byte(`not json`), nil)
	assert.ErrorIs(t, err, types.ErrAopConfig)
}
