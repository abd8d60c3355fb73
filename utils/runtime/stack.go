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

// Package runtime provides utilities for inspecting the current goroutine stack.
// Stack formats the call stack for error reports, CallerFunctions returns the
// function names used by control-flow selectors.
//
// Usage example:
//
//	stackTrace := runtime.Stack()
//	fmt.Println("Current stack trace:", stackTrace)
package runtime

import (
	"fmt"
	"runtime"
	"strings"
)

// initialDepth is the first buffer size of CallerFunctions, doubled until the stack fits.
const initialDepth = 64

// Stack 获取堆栈信息
func Stack() string {
	var pc = make([]uintptr, 20)
	n := runtime.Callers(3, pc)

	var build strings.Builder
	frames := runtime.CallersFrames(pc[:n])
	for {
		frame, more := frames.Next()
		build.WriteString(fmt.Sprintf(" %s:%d \n", frame.File, frame.Line))
		if !more {
			break
		}
	}
	return build.String()
}

// CallerFunctions returns the fully qualified function names on the stack of
// the calling goroutine, innermost first, skipping skip extra frames. The
// whole stack is returned however deep it is.
// 返回当前协程完整调用栈上的函数名称，最内层在前。
func CallerFunctions(skip int) []string {
	pc := make([]uintptr, initialDepth)
	n := runtime.Callers(2+skip, pc)
	for n == len(pc) {
		pc = make([]uintptr, len(pc)*2)
		n = runtime.Callers(2+skip, pc)
	}
	names := make([]string, 0, n)
	frames := runtime.CallersFrames(pc[:n])
	for {
		frame, more := frames.Next()
		if frame.Function != "" {
			names = append(names, frame.Function)
		}
		if !more {
			break
		}
	}
	return names
}

// ShortFuncName strips the package path: "github.com/a/b.(*T).M" -> "b.(*T).M".
func ShortFuncName(name string) string {
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		return name[idx+1:]
	}
	return name
}
