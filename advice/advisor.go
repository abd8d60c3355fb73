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
	"fmt"

	"github.com/rulego/rulego-aop/api/types"
	"github.com/rulego/rulego-aop/pointcut"
)

// PointcutAdvisor pairs one advice with the pointcut selecting where it runs.
// PointcutAdvisor 切入点通知器：一个增强加一个切入点。
type PointcutAdvisor struct {
	pointcut types.Pointcut
	advice   types.Advice
	order    *int
}

var (
	_ types.PointcutAdvisor = (*PointcutAdvisor)(nil)
	_ types.Ordered         = (*PointcutAdvisor)(nil)
)

// NewPointcutAdvisor creates an advisor. A nil pointcut matches every method.
func NewPointcutAdvisor(pc types.Pointcut, advice types.Advice) *PointcutAdvisor {
	if pc == nil {
		pc = pointcut.TruePointcut
	}
	return &PointcutAdvisor{pointcut: pc, advice: advice}
}

// NewNameMatchAdvisor applies advice to methods whose name matches any of the
// "*" wildcard patterns.
func NewNameMatchAdvisor(advice types.Advice, names ...string) *PointcutAdvisor {
	return NewPointcutAdvisor(pointcut.ForMethodMatcher(pointcut.NewNameMatchMethodMatcher(names...)), advice)
}

// NewRegexpAdvisor applies advice to methods whose qualified name matches any pattern.
func NewRegexpAdvisor(advice types.Advice, patterns ...string) (*PointcutAdvisor, error) {
	pc, err := pointcut.NewRegexpMethodPointcut(patterns, nil)
	if err != nil {
		return nil, err
	}
	return NewPointcutAdvisor(pc, advice), nil
}

// WithOrder sets an explicit order and returns the advisor.
func (a *PointcutAdvisor) WithOrder(order int) *PointcutAdvisor {
	a.order = &order
	return a
}

func (a *PointcutAdvisor) Pointcut() types.Pointcut {
	return a.pointcut
}

func (a *PointcutAdvisor) Advice() types.Advice {
	return a.advice
}

// Order returns the explicit order, else the advice's own order, else the lowest precedence.
func (a *PointcutAdvisor) Order() int {
	if a.order != nil {
		return *a.order
	}
	return types.OrderOf(a.advice)
}

func (a *PointcutAdvisor) String() string {
	return fmt.Sprintf("PointcutAdvisor: pointcut [%v]; advice [%T]", a.pointcut, a.advice)
}
