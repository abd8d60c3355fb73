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
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/dop251/goja"
	"github.com/rulego/rulego-aop/api/types"
)

// ScriptMatchFunc is the function a matcher script must define:
//
//	function match(method, type, args) { return method.startsWith("Set") }
//
// args is null for the static check.
const ScriptMatchFunc = "match"

// ScriptMethodMatcher decides matches with a JavaScript function run in goja.
// VMs are pooled and reused across evaluations.
// ScriptMethodMatcher 使用 JavaScript 脚本匹配方法，脚本需定义 match(method, type, args) 函数。
type ScriptMethodMatcher struct {
	script  string
	runtime bool
	// MaxExecutionTime interrupts a script running longer, 0 disables the limit.
	MaxExecutionTime time.Duration
	// Logger receives script failures, which count as a non-match.
	Logger  types.Logger
	program *goja.Program
	vmPool  sync.Pool
}

var _ types.MethodMatcher = (*ScriptMethodMatcher)(nil)

// NewScriptMethodMatcher compiles script. A runtime matcher is evaluated with
// the live arguments on every call; a static one is evaluated once per method
// with null args.
func NewScriptMethodMatcher(script string, runtime bool) (*ScriptMethodMatcher, error) {
	program, err := goja.Compile("", script, true)
	if err != nil {
		return nil, types.NewConfigError(err, "invalid matcher script")
	}
	m := &ScriptMethodMatcher{script: script, runtime: runtime, program: program}
	m.vmPool = sync.Pool{
		New: func() interface{} {
			vm := goja.New()
			if _, err := vm.RunProgram(m.program); err != nil {
				return err
			}
			return vm
		},
	}
	vm, err := m.getVm()
	if err != nil {
		return nil, types.NewConfigError(err, "invalid matcher script")
	}
	defer m.vmPool.Put(vm)
	if _, ok := goja.AssertFunction(vm.Get(ScriptMatchFunc)); !ok {
		return nil, types.NewIllegalConfigError("matcher script must define function '%s'", ScriptMatchFunc)
	}
	return m, nil
}

// Script returns the source script.
func (m *ScriptMethodMatcher) Script() string {
	return m.script
}

func (m *ScriptMethodMatcher) getVm() (*goja.Runtime, error) {
	switch v := m.vmPool.Get().(type) {
	case *goja.Runtime:
		return v, nil
	case error:
		return nil, v
	default:
		return nil, fmt.Errorf("unexpected vm %T", v)
	}
}

func (m *ScriptMethodMatcher) IsRuntime() bool {
	return m.runtime
}

func (m *ScriptMethodMatcher) Matches(method *types.Method, targetType reflect.Type) bool {
	if m.runtime {
		return true
	}
	return m.call(method, targetType, nil)
}

func (m *ScriptMethodMatcher) MatchesRuntime(_ context.Context, method *types.Method, targetType reflect.Type, args []interface{}) bool {
	return m.call(method, targetType, args)
}

func (m *ScriptMethodMatcher) call(method *types.Method, targetType reflect.Type, args []interface{}) bool {
	vm, err := m.getVm()
	if err != nil {
		m.logf("matcher script vm error: %s", err.Error())
		return false
	}
	defer m.vmPool.Put(vm)
	if m.MaxExecutionTime > 0 {
		timer := time.AfterFunc(m.MaxExecutionTime, func() {
			vm.Interrupt("execution timeout")
		})
		defer func() {
			timer.Stop()
			vm.ClearInterrupt()
		}()
	}
	f, _ := goja.AssertFunction(vm.Get(ScriptMatchFunc))
	t := targetType
	if t == nil {
		t = method.DeclaringType
	}
	jsArgs := goja.Null()
	if args != nil {
		jsArgs = vm.ToValue(args)
	}
	res, err := f(goja.Undefined(), vm.ToValue(method.Name), vm.ToValue(types.TypeName(t)), jsArgs)
	if err != nil {
		m.logf("matcher script error on %s: %s", method.String(), err.Error())
		return false
	}
	return res.ToBoolean()
}

func (m *ScriptMethodMatcher) logf(format string, v ...interface{}) {
	if m.Logger != nil {
		m.Logger.Warnf(format, v...)
	}
}
