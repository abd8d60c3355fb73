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

package advice

import (
	"context"

	"github.com/rulego/rulego-aop/api/types"
)

// InvocableCloner is implemented by invocations that can be proceeded more
// than once: the clone continues from the current position with its own cursor.
type InvocableCloner interface {
	InvocableClone(args []interface{}) types.MethodInvocation
}

// invocationJoinPoint exposes a MethodInvocation to aspect methods.
type invocationJoinPoint struct {
	inv  types.MethodInvocation
	kind types.AdviceKind
}

var _ types.ProceedingJoinPoint = (*invocationJoinPoint)(nil)

// NewJoinPoint returns the join point view of inv for advice of the given kind.
func NewJoinPoint(inv types.MethodInvocation, kind types.AdviceKind) types.ProceedingJoinPoint {
	return &invocationJoinPoint{inv: inv, kind: kind}
}

func (jp *invocationJoinPoint) Context() context.Context {
	return jp.inv.Context()
}

func (jp *invocationJoinPoint) Method() *types.Method {
	return jp.inv.Method()
}

// Args returns a copy of the current arguments.
func (jp *invocationJoinPoint) Args() []interface{} {
	return append([]interface{}(nil), jp.inv.Arguments()...)
}

func (jp *invocationJoinPoint) This() interface{} {
	return jp.inv.This()
}

func (jp *invocationJoinPoint) Target() interface{} {
	return jp.inv.Target()
}

func (jp *invocationJoinPoint) Kind() types.AdviceKind {
	return jp.kind
}

func (jp *invocationJoinPoint) Proceed() (interface{}, error) {
	if cloner, ok := jp.inv.(InvocableCloner); ok {
		return cloner.InvocableClone(jp.inv.Arguments()).Proceed()
	}
	return jp.inv.Proceed()
}

func (jp *invocationJoinPoint) ProceedWith(args ...interface{}) (interface{}, error) {
	if len(args) != len(jp.inv.Arguments()) {
		return nil, types.NewIllegalConfigError("expecting %d arguments to proceed, but was passed %d arguments",
			len(jp.inv.Arguments()), len(args))
	}
	if cloner, ok := jp.inv.(InvocableCloner); ok {
		return cloner.InvocableClone(args).Proceed()
	}
	jp.inv.SetArguments(args)
	return jp.inv.Proceed()
}

func (jp *invocationJoinPoint) String() string {
	return "execution(" + jp.inv.Method().String() + ")"
}
