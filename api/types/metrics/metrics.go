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

// Package metrics holds in-process counters of proxy invocations.
//
// Package metrics 代理调用的进程内统计。
package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot is a point-in-time copy of InvocationMetrics.
// Snapshot 调用统计快照
type Snapshot struct {
	// InFlight is the number of calls started and not yet finished.
	// 正在执行的调用数
	InFlight int64
	// Calls is the number of calls started.
	// 已开始的调用总数
	Calls int64
	// Failed is the number of calls that returned an error.
	// 返回错误的调用数
	Failed int64
	// Succeeded is the number of calls that returned normally.
	// 正常返回的调用数
	Succeeded int64
	// TotalTime is the summed duration of finished calls.
	TotalTime time.Duration
	// MaxTime is the longest finished call.
	MaxTime time.Duration
}

// Finished returns the number of calls that have returned.
func (s Snapshot) Finished() int64 {
	return s.Failed + s.Succeeded
}

// AverageTime returns the mean duration of finished calls, zero if none.
func (s Snapshot) AverageTime() time.Duration {
	if n := s.Finished(); n > 0 {
		return s.TotalTime / time.Duration(n)
	}
	return 0
}

// FailureRate returns the share of finished calls that failed, in [0, 1].
// FailureRate 返回失败调用占已完成调用的比例。
func (s Snapshot) FailureRate() float64 {
	if n := s.Finished(); n > 0 {
		return float64(s.Failed) / float64(n)
	}
	return 0
}

// InvocationMetrics counts intercepted calls. It is safe for concurrent use.
// InvocationMetrics 拦截调用计数器，并发安全。
type InvocationMetrics struct {
	inFlight   atomic.Int64
	calls      atomic.Int64
	failed     atomic.Int64
	succeeded  atomic.Int64
	totalNanos atomic.Int64
	maxNanos   atomic.Int64
}

// NewInvocationMetrics creates empty counters.
func NewInvocationMetrics() *InvocationMetrics {
	return &InvocationMetrics{}
}

// Start records the beginning of a call and returns the function recording
// its end. The returned function must be called exactly once.
// Start 记录调用开始，返回的函数用于记录调用结束，且只能调用一次。
func (m *InvocationMetrics) Start() func(err error) {
	start := time.Now()
	m.inFlight.Add(1)
	m.calls.Add(1)
	return func(err error) {
		m.finish(time.Since(start), err)
	}
}

func (m *InvocationMetrics) finish(elapsed time.Duration, err error) {
	m.inFlight.Add(-1)
	if err != nil {
		m.failed.Add(1)
	} else {
		m.succeeded.Add(1)
	}
	nanos := int64(elapsed)
	m.totalNanos.Add(nanos)
	for {
		cur := m.maxNanos.Load()
		if nanos <= cur || m.maxNanos.CompareAndSwap(cur, nanos) {
			return
		}
	}
}

// Snapshot returns a copy of the counters. Fields are read one at a time,
// so a snapshot taken during calls may be off by the calls in progress.
func (m *InvocationMetrics) Snapshot() Snapshot {
	return Snapshot{
		InFlight:  m.inFlight.Load(),
		Calls:     m.calls.Load(),
		Failed:    m.failed.Load(),
		Succeeded: m.succeeded.Load(),
		TotalTime: time.Duration(m.totalNanos.Load()),
		MaxTime:   time.Duration(m.maxNanos.Load()),
	}
}

// Reset zeroes the finished-call counters. Calls in flight stay counted.
func (m *InvocationMetrics) Reset() {
	m.calls.Store(m.inFlight.Load())
	m.failed.Store(0)
	m.succeeded.Store(0)
	m.totalNanos.Store(0)
	m.maxNanos.Store(0)
}
