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

// Package pool provides the worker pool used for asynchronous proxy invocations.
//
// Package pool 提供异步代理调用使用的协程池。
//
// Note: This file is inspired by:
// Valyala, A. (2023) workerpool.go (Version 1.48.0)
// [Source code]. https://github.com/valyala/fasthttp/blob/master/workerpool.go
// 1.Change the Serve(c net.Conn) method to Submit(fn func()) error method
// 2.Recover task panics so a failing task does not take its worker down
package pool

import (
	"errors"
	"runtime"
	"sync"
	"time"
)

// ErrNoIdleWorkers is returned by Submit when MaxWorkersCount workers are busy.
// ErrNoIdleWorkers 所有工作者都忙碌且已达到上限时由 Submit 返回。
var ErrNoIdleWorkers = errors.New("no idle workers")

// WorkerPool serves submitted functions using a pool of workers in FILO order.
// The most recently stopped worker serves the next function, which keeps CPU caches hot.
//
// WorkerPool 使用工作池以 FILO 顺序处理提交的函数。
//
// Usage Example:
// 使用示例：
//
//	pool := &WorkerPool{MaxWorkersCount: 100}
//	pool.Start()
//	defer pool.Stop()
//	err := pool.Submit(func() {
//	  // Your task implementation
//	})
type WorkerPool struct {
	// MaxWorkersCount is the maximum number of concurrently running workers.
	// Submit fails with ErrNoIdleWorkers once the limit is reached.
	// MaxWorkersCount 同时运行的最大工作者数量，达到上限后 Submit 返回 ErrNoIdleWorkers。
	MaxWorkersCount int

	// MaxIdleWorkerDuration is how long an idle worker is kept before it
	// exits, 10 seconds if unset.
	// MaxIdleWorkerDuration 空闲工作者的最长保留时间，未设置时为 10 秒。
	MaxIdleWorkerDuration time.Duration

	// PanicHandler receives the value of a recovered task panic. If nil the
	// panic is dropped and the worker keeps serving.
	// PanicHandler 接收任务 panic 恢复后的值，为 nil 时忽略，工作者继续运行。
	PanicHandler func(r interface{})

	// lock guards workersCount, mustStop and ready
	lock         sync.Mutex
	workersCount int
	mustStop     bool

	// ready holds idle workers, most recently used last
	// ready 空闲工作者列表，最近使用的在末尾
	ready []*workerChan

	stopCh chan struct{}

	workerChanPool sync.Pool
	startOnce      sync.Once
}

// workerChan is the inbox of one worker goroutine. A nil function stops it.
// workerChan 工作者的任务通道，收到 nil 函数时退出。
type workerChan struct {
	lastUseTime time.Time
	ch          chan func()
}

// Start launches the idle worker cleaner. It is safe to call more than once.
// Start 启动空闲工作者清理协程，可重复调用。
func (wp *WorkerPool) Start() {
	if wp.stopCh != nil {
		return
	}
	wp.startOnce.Do(func() {
		wp.stopCh = make(chan struct{})
		stopCh := wp.stopCh

		wp.workerChanPool.New = func() interface{} {
			return &workerChan{
				ch: make(chan func(), workerChanCap),
			}
		}

		go func() {
			var scratch []*workerChan
			for {
				wp.clean(&scratch)
				select {
				case <-stopCh:
					return
				default:
					time.Sleep(wp.getMaxIdleWorkerDuration())
				}
			}
		}()
	})
}

// Stop stops idle workers; busy workers exit after their current task.
// Submit is not expected after Stop.
// Stop 停止空闲工作者，忙碌的工作者在完成当前任务后退出。
func (wp *WorkerPool) Stop() {
	if wp.stopCh == nil {
		return
	}

	close(wp.stopCh)
	wp.stopCh = nil

	// Stop all the workers waiting for incoming functions.
	// Do not wait for busy workers - they will stop after
	// serving the current function.
	wp.lock.Lock()
	ready := wp.ready
	for i := range ready {
		ready[i].ch <- nil
		ready[i] = nil
	}
	wp.ready = ready[:0]
	wp.mustStop = true
	wp.lock.Unlock()
}

// Release implements types.Pool by stopping the pool.
// Release 实现 types.Pool，等同于 Stop。
func (wp *WorkerPool) Release() {
	wp.Stop()
}

// WorkersCount returns the number of live workers, busy or idle.
// WorkersCount 返回存活的工作者数量，包括忙碌和空闲的。
func (wp *WorkerPool) WorkersCount() int {
	wp.lock.Lock()
	defer wp.lock.Unlock()
	return wp.workersCount
}

func (wp *WorkerPool) getMaxIdleWorkerDuration() time.Duration {
	if wp.MaxIdleWorkerDuration <= 0 {
		return 10 * time.Second
	}
	return wp.MaxIdleWorkerDuration
}

func (wp *WorkerPool) clean(scratch *[]*workerChan) {
	criticalTime := time.Now().Add(-wp.getMaxIdleWorkerDuration())

	wp.lock.Lock()
	ready := wp.ready
	n := len(ready)

	// ready is sorted by lastUseTime, binary search the last expired worker.
	l, r := 0, n-1
	for l <= r {
		mid := (l + r) / 2
		if criticalTime.After(ready[mid].lastUseTime) {
			l = mid + 1
		} else {
			r = mid - 1
		}
	}
	i := r
	if i == -1 {
		wp.lock.Unlock()
		return
	}

	*scratch = append((*scratch)[:0], ready[:i+1]...)
	m := copy(ready, ready[i+1:])
	for i = m; i < n; i++ {
		ready[i] = nil
	}
	wp.ready = ready[:m]
	wp.lock.Unlock()

	tmp := *scratch
	for i := range tmp {
		tmp[i].ch <- nil
		tmp[i] = nil
	}
}

// Submit hands fn to an idle worker, starting a new one if allowed. It never
// blocks waiting for a worker to become free.
// Submit 将 fn 交给空闲工作者执行，必要时创建新工作者，不会阻塞等待。
func (wp *WorkerPool) Submit(fn func()) error {
	ch := wp.getCh()
	if ch == nil {
		return ErrNoIdleWorkers
	}
	ch.ch <- fn
	return nil
}

var workerChanCap = func() int {
	// Use blocking workerChan if GOMAXPROCS=1.
	// This immediately switches Submit to workerFunc.
	if runtime.GOMAXPROCS(0) == 1 {
		return 0
	}
	// Use non-blocking workerChan if GOMAXPROCS>1,
	// since otherwise the Submit caller would be blocked by workerFunc.
	return 1
}()

func (wp *WorkerPool) getCh() *workerChan {
	var ch *workerChan
	createWorker := false

	wp.lock.Lock()
	ready := wp.ready
	n := len(ready) - 1
	if n < 0 {
		if wp.workersCount < wp.MaxWorkersCount {
			createWorker = true
			wp.workersCount++
		}
	} else {
		ch = ready[n]
		ready[n] = nil
		wp.ready = ready[:n]
	}
	wp.lock.Unlock()

	if ch == nil {
		if !createWorker {
			return nil
		}
		vch := wp.workerChanPool.Get()
		ch = vch.(*workerChan)
		go func() {
			wp.workerFunc(ch)
			wp.workerChanPool.Put(vch)
		}()
	}
	return ch
}

func (wp *WorkerPool) release(ch *workerChan) bool {
	ch.lastUseTime = time.Now()

	wp.lock.Lock()
	if wp.mustStop {
		wp.lock.Unlock()
		return false
	}
	wp.ready = append(wp.ready, ch)
	wp.lock.Unlock()
	return true
}

func (wp *WorkerPool) workerFunc(ch *workerChan) {
	for fn := range ch.ch {
		if fn == nil {
			break
		}
		wp.run(fn)
		if !wp.release(ch) {
			break
		}
	}

	wp.lock.Lock()
	wp.workersCount--
	wp.lock.Unlock()
}

func (wp *WorkerPool) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			if wp.PanicHandler != nil {
				wp.PanicHandler(r)
			}
		}
	}()
	fn()
}
