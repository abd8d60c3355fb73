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

package str

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimpleMatch(t *testing.T) {
	tests := []struct {
		pattern string
		str     string
		want    bool
	}{
		{"*", "anything", true},
		{"Set*", "SetName", true},
		{"Set*", "GetName", false},
		{"*Name", "SetName", true},
		{"*Name", "SetAge", false},
		{"get*Id", "getUserId", true},
		{"get*Id", "getUserName", false},
		{"*ser*", "getUserId", true},
		{"Exact", "Exact", true},
		{"Exact", "Exactly", false},
		{"a*b*c", "aXbYc", true},
		{"a*b*c", "aXbY", false},
		{"", "", true},
		{"", "x", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SimpleMatch(tt.pattern, tt.str), "%s vs %s", tt.pattern, tt.str)
	}
	assert.True(t, SimpleMatchAny([]string{"Get*", "Set*"}, "SetAge"))
	assert.False(t, SimpleMatchAny(nil, "SetAge"))
}

func TestHelpers(t *testing.T) {
	assert.True(t, Contains([]string{"a", "b"}, "b"))
	assert.False(t, Contains([]string{"a", "b"}, "c"))
	assert.Equal(t, "setName", ToLowerFirst("SetName"))
	assert.Equal(t, "", ToLowerFirst(""))
}
