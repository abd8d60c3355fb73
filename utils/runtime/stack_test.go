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

package runtime

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStack(t *testing.T) {
	stackTrace := Stack()
	assert.True(t, len(stackTrace) > 0, "Stack trace should not be empty")
	assert.True(t, strings.Contains(stackTrace, "testing.go"), "Stack trace should contain the test file name")
	assert.True(t, strings.Contains(stackTrace, ":"), "Stack trace should contain line numbers")
}

type walker struct{}

func (w *walker) Walk() []string {
	return CallerFunctions(0)
}

func TestCallerFunctions(t *testing.T) {
	names := (&walker{}).Walk()
	assert.True(t, len(names) > 1)
	assert.True(t, strings.HasSuffix(names[0], "runtime.(*walker).Walk"), names[0])
	found := false
	for _, n := range names {
		if strings.HasSuffix(n, "TestCallerFunctions") {
			found = true
		}
	}
	assert.True(t, found)
	assert.Equal(t, "runtime.(*walker).Walk", ShortFuncName("github.com/rulego/rulego-aop/utils/runtime.(*walker).Walk"))
}

func recurse(depth int) []string {
	if depth == 0 {
		return CallerFunctions(0)
	}
	return recurse(depth - 1)
}

func TestCallerFunctionsDeepStack(t *testing.T) {
	names := recurse(300)
	assert.True(t, len(names) > 300, len(names))
	found := false
	for _, n := range names {
		if strings.HasSuffix(n, "TestCallerFunctionsDeepStack") {
			found = true
		}
	}
	assert.True(t, found)
}
