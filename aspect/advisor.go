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
	"fmt"

	"github.com/rulego/rulego-aop/advice"
	"github.com/rulego/rulego-aop/api/types"
)

// Advisor applies one advice method of an aspect where its pointcut matches.
type Advisor struct {
	advice *advice.AspectAdvice
	order  *int
}

var (
	_ types.PointcutAdvisor             = (*Advisor)(nil)
	_ types.AspectPrecedenceInformation = (*Advisor)(nil)
)

// NewAdvisor wraps aspect advice. A nil order defers to the aspect instance factory.
func NewAdvisor(a *advice.AspectAdvice, order *int) *Advisor {
	return &Advisor{advice: a, order: order}
}

func (a *Advisor) Advice() types.Advice {
	return a.advice
}

func (a *Advisor) Pointcut() types.Pointcut {
	return a.advice.Pointcut()
}

// AspectAdvice returns the typed advice.
func (a *Advisor) AspectAdvice() *advice.AspectAdvice {
	return a.advice
}

func (a *Advisor) Order() int {
	if a.order != nil {
		return *a.order
	}
	return a.advice.Order()
}

func (a *Advisor) AspectName() string {
	return a.advice.AspectName()
}

func (a *Advisor) DeclarationOrder() int {
	return a.advice.DeclarationOrder()
}

func (a *Advisor) IsBeforeAdvice() bool {
	return a.advice.IsBeforeAdvice()
}

func (a *Advisor) IsAfterAdvice() bool {
	return a.advice.IsAfterAdvice()
}

func (a *Advisor) String() string {
	return fmt.Sprintf("AspectAdvisor: %s; order %d", a.advice, a.Order())
}
