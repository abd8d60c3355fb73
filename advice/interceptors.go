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
	"github.com/rulego/rulego-aop/api/types"
)

var (
	_ types.MethodInterceptor = (*BeforeInterceptor)(nil)
	_ types.MethodInterceptor = (*AfterInterceptor)(nil)
	_ types.MethodInterceptor = (*AfterReturningInterceptor)(nil)
	_ types.MethodInterceptor = (*ThrowsInterceptor)(nil)
)

// BeforeInterceptor runs a BeforeAdvice, then the rest of the chain.
// An error from the advice aborts the call.
type BeforeInterceptor struct {
	Advice types.BeforeAdvice
}

func (i *BeforeInterceptor) Invoke(inv types.MethodInvocation) (interface{}, error) {
	if err := i.Advice.Before(inv.Context(), inv.Method(), inv.Arguments(), inv.Target()); err != nil {
		return nil, err
	}
	return inv.Proceed()
}

// AfterInterceptor runs an AfterAdvice once the rest of the chain has
// finished, whether it returned normally or with an error.
// An error from the advice replaces the outcome.
type AfterInterceptor struct {
	Advice types.AfterAdvice
}

func (i *AfterInterceptor) Invoke(inv types.MethodInvocation) (result interface{}, err error) {
	defer func() {
		if afterErr := i.Advice.After(inv.Context(), inv.Method(), inv.Arguments(), inv.Target(), err); afterErr != nil {
			err = afterErr
		}
	}()
	return inv.Proceed()
}

// AfterReturningInterceptor runs an AfterReturningAdvice on normal return only.
type AfterReturningInterceptor struct {
	Advice types.AfterReturningAdvice
}

func (i *AfterReturningInterceptor) Invoke(inv types.MethodInvocation) (interface{}, error) {
	result, err := inv.Proceed()
	if err != nil {
		return result, err
	}
	if err := i.Advice.AfterReturning(inv.Context(), result, inv.Method(), inv.Arguments(), inv.Target()); err != nil {
		return nil, err
	}
	return result, nil
}

// ThrowsInterceptor runs a ThrowsAdvice when the rest of the chain fails.
// The original error is returned unless the advice returns its own.
type ThrowsInterceptor struct {
	Advice types.ThrowsAdvice
}

func (i *ThrowsInterceptor) Invoke(inv types.MethodInvocation) (interface{}, error) {
	result, err := inv.Proceed()
	if err == nil {
		return result, nil
	}
	if adviceErr := i.Advice.AfterThrowing(inv.Context(), inv.Method(), inv.Arguments(), inv.Target(), err); adviceErr != nil {
		return result, adviceErr
	}
	return result, err
}
