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

package json

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarshalUnmarshal(t *testing.T) {
	type node struct {
		Kind     string       `json:"kind"`
		Children []RawMessage `json:"children,omitempty"`
	}
	data, err := Marshal(node{Kind: "union", Children: []RawMessage{RawMessage(`{"kind":"true"}`)}})
	assert.Nil(t, err)
	assert.Equal(t, `{"kind":"union","children":[{"kind":"true"}]}`, string(data))

	var out node
	assert.Nil(t, Unmarshal(data, &out))
	assert.Equal(t, "union", out.Kind)
	assert.Equal(t, `{"kind":"true"}`, string(out.Children[0]))
}
