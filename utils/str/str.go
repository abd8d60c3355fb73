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

// Package str provides string helpers used by selectors and configuration.
package str

import (
	"strings"
	"unicode"
)

// SimpleMatch matches str against a pattern supporting "*" wildcards,
// e.g. "Set*", "*Name", "get*Id", "*".
func SimpleMatch(pattern, str string) bool {
	if pattern == "" {
		return str == ""
	}
	first := strings.IndexByte(pattern, '*')
	if first == -1 {
		return pattern == str
	}
	if first == 0 {
		if len(pattern) == 1 {
			return true
		}
		next := strings.IndexByte(pattern[1:], '*')
		if next == -1 {
			return strings.HasSuffix(str, pattern[1:])
		}
		part := pattern[1 : next+1]
		if part == "" {
			return SimpleMatch(pattern[1:], str)
		}
		for i := strings.Index(str, part); i != -1; {
			if SimpleMatch(pattern[next+1:], str[i+len(part):]) {
				return true
			}
			j := strings.Index(str[i+1:], part)
			if j == -1 {
				break
			}
			i = i + 1 + j
		}
		return false
	}
	return len(str) >= first && pattern[:first] == str[:first] &&
		SimpleMatch(pattern[first:], str[first:])
}

// SimpleMatchAny reports whether str matches any of the patterns.
func SimpleMatchAny(patterns []string, str string) bool {
	for _, p := range patterns {
		if SimpleMatch(p, str) {
			return true
		}
	}
	return false
}

// Contains reports whether target is in list.
func Contains(list []string, target string) bool {
	for _, item := range list {
		if item == target {
			return true
		}
	}
	return false
}

// ToLowerFirst lower-cases the first rune.
func ToLowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}
