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

package pool

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerPool(t *testing.T) {
	wp := &WorkerPool{MaxWorkersCount: 200000}
	wp.Start()
	defer wp.Stop()
	var n int32
	fn := func() {
		atomic.AddInt32(&n, 1)
	}

	for i := 0; i < 10000; i++ {
		require.NoError(t, wp.Submit(fn), "cannot submit function #%d", i)
	}

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&n) == 10000
	}, 5*time.Second, 10*time.Millisecond)
}

func TestWorkerPoolDoubleStart(t *testing.T) {
	wp := &WorkerPool{MaxWorkersCount: 10, MaxIdleWorkerDuration: time.Second * 10}
	wp.Start()
	wp.Start()
	wp.Stop()
	wp.Stop()
}

func TestWorkerPoolLimit(t *testing.T) {
	wp := &WorkerPool{MaxWorkersCount: 1}
	wp.Start()
	defer wp.Stop()
	block := make(chan struct{})
	require.NoError(t, wp.Submit(func() { <-block }))
	assert.Equal(t, ErrNoIdleWorkers, wp.Submit(func() {}))
	close(block)
}

func TestWorkerPoolRecoversPanic(t *testing.T) {
	var recovered atomic.Value
	wp := &WorkerPool{MaxWorkersCount: 1, PanicHandler: func(r interface{}) { recovered.Store(r) }}
	wp.Start()
	defer wp.Stop()
	require.NoError(t, wp.Submit(func() { panic("boom") }))
	assert.Eventually(t, func() bool { return recovered.Load() == "boom" }, time.Second, 5*time.Millisecond)

	done := make(chan struct{})
	assert.Eventually(t, func() bool { return wp.Submit(func() { close(done) }) == nil }, time.Second, 5*time.Millisecond)
	<-done
}

func TestWorkerPoolRetiresIdleWorkers(t *testing.T) {
	wp := &WorkerPool{MaxWorkersCount: 4, MaxIdleWorkerDuration: 20 * time.Millisecond}
	wp.Start()
	defer wp.Stop()
	done := make(chan struct{})
	require.NoError(t, wp.Submit(func() { close(done) }))
	<-done
	assert.Equal(t, 1, wp.WorkersCount())
	assert.Eventually(t, func() bool { return wp.WorkersCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}
