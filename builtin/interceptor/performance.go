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

package interceptor

import (
	"time"

	"github.com/rulego/rulego-aop/api/types"
)

var _ types.MethodInterceptor = (*PerformanceMonitorInterceptor)(nil)

// PerformanceMonitorInterceptor logs the running time of calls. With a
// Threshold only slower calls are logged, as warnings.
// PerformanceMonitorInterceptor 调用耗时监控拦截器
type PerformanceMonitorInterceptor struct {
	Logger    types.Logger
	Threshold time.Duration
	// Prefix is prepended to the logged method name.
	Prefix string
}

// NewPerformanceMonitorInterceptor creates a monitor logging to logger.
func NewPerformanceMonitorInterceptor(logger types.Logger, threshold time.Duration) *PerformanceMonitorInterceptor {
	return &PerformanceMonitorInterceptor{Logger: types.NewLogger(logger), Threshold: threshold, Prefix: "StopWatch '"}
}

func (i *PerformanceMonitorInterceptor) Order() int {
	return 30
}

func (i *PerformanceMonitorInterceptor) Invoke(inv types.MethodInvocation) (interface{}, error) {
	start := time.Now()
	defer func() {
		elapsed := time.Since(start)
		if i.Threshold > 0 {
			if elapsed >= i.Threshold {
				i.Logger.Warnf("%s%s': running time %s exceeds %s", i.Prefix, inv.Method(), elapsed, i.Threshold)
			}
			return
		}
		i.Logger.Printf("%s%s': running time %s", i.Prefix, inv.Method(), elapsed)
	}()
	return inv.Proceed()
}
