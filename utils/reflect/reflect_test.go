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

package reflect

import (
	"errors"
	"reflect"
	"testing"

	"github.com/rulego/rulego-aop/api/types"
	"github.com/stretchr/testify/assert"
)

type Calculator struct {
	calls int
}

func (c *Calculator) Add(a, b int) int {
	c.calls++
	return a + b
}

func (c *Calculator) Div(a, b int) (int, error) {
	if b == 0 {
		return 0, errors.New("division by zero")
	}
	return a / b, nil
}

func (c *Calculator) Sum(values ...int) int {
	total := 0
	for _, v := range values {
		total += v
	}
	return total
}

func (c *Calculator) Crash() {
	panic("boom")
}

func (c *Calculator) Reset(label *string) {
	c.calls = 0
}

func method(name string) *types.Method {
	m, _ := types.MethodOf(reflect.TypeOf(&Calculator{}), name)
	return m
}

func TestCallMethod(t *testing.T) {
	c := &Calculator{}
	result, err := CallMethod(c, method("Add"), []interface{}{1, 2})
	assert.Nil(t, err)
	assert.Equal(t, 3, result)
	assert.Equal(t, 1, c.calls)

	result, err = CallMethod(c, method("Add"), []interface{}{float64(1), int64(2)})
	assert.Nil(t, err)
	assert.Equal(t, 3, result)

	_, err = CallMethod(c, method("Div"), []interface{}{1, 0})
	assert.Equal(t, "division by zero", err.Error())

	result, err = CallMethod(c, method("Sum"), []interface{}{1, 2, 3})
	assert.Nil(t, err)
	assert.Equal(t, 6, result)
	result, err = CallMethod(c, method("Sum"), []interface{}{[]int{4, 5}})
	assert.Nil(t, err)
	assert.Equal(t, 9, result)

	result, err = CallMethod(c, method("Reset"), []interface{}{nil})
	assert.Nil(t, err)
	assert.Nil(t, result)
	assert.Equal(t, 0, c.calls)

	_, err = CallMethod(c, method("Crash"), nil)
	assert.ErrorIs(t, err, types.ErrTargetPanic)

	_, err = CallMethod(c, method("Add"), []interface{}{1})
	assert.NotNil(t, err)
	_, err = CallMethod(c, method("Add"), []interface{}{"1", 2})
	assert.NotNil(t, err)
	_, err = CallMethod(nil, method("Add"), []interface{}{1, 2})
	assert.ErrorIs(t, err, types.ErrMethodNotFound)
	_, err = CallMethod(struct{}{}, method("Add"), []interface{}{1, 2})
	assert.ErrorIs(t, err, types.ErrMethodNotFound)
}

func TestNewInstance(t *testing.T) {
	v, err := NewInstance(reflect.TypeOf(&Calculator{}))
	assert.Nil(t, err)
	assert.IsType(t, &Calculator{}, v)

	v, err = NewInstance(reflect.TypeOf(Calculator{}))
	assert.Nil(t, err)
	assert.IsType(t, Calculator{}, v)

	_, err = NewInstance(reflect.TypeOf(1))
	assert.NotNil(t, err)
}
