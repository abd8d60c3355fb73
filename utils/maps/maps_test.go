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

package maps

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type User struct {
	Username string
	Age      int
	Address  Address
	Hobbies  []string
}

type Address struct {
	Detail string
}

func TestMap2Struct(t *testing.T) {
	m := make(map[string]interface{})
	m["userName"] = "lala"
	m["Age"] = float64(5)
	m["Address"] = Address{"test"}
	m["Hobbies"] = []string{"c"}
	var user User
	user.Hobbies = []string{"a", "b"}
	assert.Nil(t, Map2Struct(m, &user))
	assert.Equal(t, "lala", user.Username)
	assert.Equal(t, 5, user.Age)
	assert.Equal(t, "test", user.Address.Detail)
	assert.Equal(t, 1, len(user.Hobbies))
}

func TestMap2StructWeak(t *testing.T) {
	type Settings struct {
		Timeout time.Duration `json:"timeout"`
		MaxSize int           `json:"maxSize"`
		Enabled bool          `json:"enabled"`
	}
	var s Settings
	err := Map2StructWeak(map[string]interface{}{
		"timeout": "5s",
		"maxSize": "10",
		"enabled": "true",
	}, &s)
	assert.Nil(t, err)
	assert.Equal(t, 5*time.Second, s.Timeout)
	assert.Equal(t, 10, s.MaxSize)
	assert.True(t, s.Enabled)
}
