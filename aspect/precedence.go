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
	"sort"

	"github.com/rulego/rulego-aop/api/types"
)

// precedenceInfo returns the precedence metadata of an advisor, from the
// advisor itself or its advice. It never instantiates the aspect.
func precedenceInfo(advisor types.Advisor) (types.AspectPrecedenceInformation, bool) {
	if info, ok := advisor.(types.AspectPrecedenceInformation); ok {
		return info, true
	}
	info, ok := advisor.Advice().(types.AspectPrecedenceInformation)
	return info, ok
}

// ComparePrecedence orders two advisors: a negative result means a runs
// first (outermost). Lower order values come first. Advisors of the same
// aspect with equal order fall back to declaration order: the advice declared
// first has higher precedence, unless either one is after advice, in which
// case the advice declared last has higher precedence.
// ComparePrecedence 比较两个通知器的优先级。
func ComparePrecedence(a, b types.Advisor) int {
	orderA, orderB := types.AdvisorOrder(a), types.AdvisorOrder(b)
	if orderA != orderB {
		if orderA < orderB {
			return -1
		}
		return 1
	}
	infoA, okA := precedenceInfo(a)
	infoB, okB := precedenceInfo(b)
	if !okA || !okB || infoA.AspectName() == "" || infoA.AspectName() != infoB.AspectName() {
		return 0
	}
	delta := infoA.DeclarationOrder() - infoB.DeclarationOrder()
	if infoA.IsAfterAdvice() || infoB.IsAfterAdvice() {
		delta = -delta
	}
	switch {
	case delta < 0:
		return -1
	case delta > 0:
		return 1
	default:
		return 0
	}
}

// SortAdvisors returns the advisors in precedence order. Advisors with the
// same precedence keep their relative order.
func SortAdvisors(advisors []types.Advisor) []types.Advisor {
	sorted := append([]types.Advisor(nil), advisors...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return ComparePrecedence(sorted[i], sorted[j]) < 0
	})
	return sorted
}
