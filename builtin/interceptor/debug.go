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

package interceptor

import (
	"github.com/rulego/rulego-aop/api/types"
)

const (
	// In marks the entry of a call.
	In = "IN"
	// Out marks the exit of a call.
	Out = "OUT"
)

var _ types.MethodInterceptor = (*DebugInterceptor)(nil)

// DebugInterceptor 调用调试日志拦截器
type DebugInterceptor struct {
	Logger types.Logger
	// OnDebug receives the entry and exit of every call, optional.
	// flowType is In or Out; result and err are only set for Out.
	OnDebug func(flowType string, method *types.Method, args []interface{}, result interface{}, err error)
}

// NewDebugInterceptor creates a debug interceptor logging to logger, the default logger if nil.
func NewDebugInterceptor(logger types.Logger) *DebugInterceptor {
	return &DebugInterceptor{Logger: types.NewLogger(logger)}
}

func (i *DebugInterceptor) Order() int {
	return 900
}

func (i *DebugInterceptor) Invoke(inv types.MethodInvocation) (result interface{}, err error) {
	method := inv.Method()
	i.onDebug(In, method, inv.Arguments(), nil, nil)
	defer func() {
		i.onDebug(Out, method, inv.Arguments(), result, err)
	}()
	return inv.Proceed()
}

func (i *DebugInterceptor) onDebug(flowType string, method *types.Method, args []interface{}, result interface{}, err error) {
	if i.Logger != nil {
		switch {
		case flowType == In:
			i.Logger.Debugf("%s %s args=%v", flowType, method, args)
		case err != nil:
			i.Logger.Debugf("%s %s err=%s", flowType, method, err.Error())
		default:
			i.Logger.Debugf("%s %s result=%v", flowType, method, result)
		}
	}
	if i.OnDebug != nil {
		i.OnDebug(flowType, method, args, result, err)
	}
}
