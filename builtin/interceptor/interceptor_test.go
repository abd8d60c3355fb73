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
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rulego/rulego-aop/api/types"
	"github.com/rulego/rulego-aop/framework"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errWork = errors.New("work failed")

type Worker struct {
	started chan struct{}
	release chan struct{}
}

func (w *Worker) Work(fail bool) (string, error) {
	if fail {
		return "", errWork
	}
	return "done", nil
}

func (w *Worker) Block() {
	w.started <- struct{}{}
	<-w.release
}

func (w *Worker) Sleep(d time.Duration) {
	time.Sleep(d)
}

func newProxy(t *testing.T, worker *Worker, advice ...types.Advice) *framework.Proxy {
	factory := framework.NewProxyFactory(worker)
	for _, a := range advice {
		require.Nil(t, factory.AddAdvice(a))
	}
	p, err := factory.GetProxy()
	require.Nil(t, err)
	return p
}

func TestDebugInterceptor(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	debug := NewDebugInterceptor(logger)
	var flows []string
	debug.OnDebug = func(flowType string, method *types.Method, args []interface{}, result interface{}, err error) {
		flows = append(flows, flowType+" "+method.Name)
	}
	p := newProxy(t, &Worker{}, debug)

	result, err := p.Invoke(context.Background(), "Work", false)
	require.Nil(t, err)
	assert.Equal(t, "done", result)
	_, err = p.Invoke(context.Background(), "Work", true)
	assert.Equal(t, errWork, err)

	assert.Equal(t, []string{"IN Work", "OUT Work", "IN Work", "OUT Work"}, flows)
	require.Equal(t, 4, len(hook.AllEntries()))
	assert.Contains(t, hook.LastEntry().Message, "work failed")
	assert.Equal(t, 900, debug.Order())
}

func TestPerformanceMonitorInterceptor(t *testing.T) {
	logger, hook := test.NewNullLogger()
	p := newProxy(t, &Worker{}, NewPerformanceMonitorInterceptor(logger, 0))
	_, err := p.Invoke(context.Background(), "Work", false)
	require.Nil(t, err)
	require.Equal(t, 1, len(hook.AllEntries()))
	assert.Contains(t, hook.LastEntry().Message, "interceptor.Worker.Work")

	hook.Reset()
	p = newProxy(t, &Worker{}, NewPerformanceMonitorInterceptor(logger, 20*time.Millisecond))
	_, err = p.Invoke(context.Background(), "Sleep", time.Millisecond)
	require.Nil(t, err)
	assert.Equal(t, 0, len(hook.AllEntries()))
	_, err = p.Invoke(context.Background(), "Sleep", 30*time.Millisecond)
	require.Nil(t, err)
	require.Equal(t, 1, len(hook.AllEntries()))
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestConcurrencyThrottleInterceptor(t *testing.T) {
	worker := &Worker{started: make(chan struct{}), release: make(chan struct{})}
	throttle := NewConcurrencyThrottleInterceptor(1)
	p := newProxy(t, worker, throttle)

	done := make(chan error, 1)
	go func() {
		_, err := p.Invoke(context.Background(), "Block")
		done <- err
	}()
	<-worker.started
	assert.Equal(t, int64(1), throttle.Current())

	_, err := p.Invoke(context.Background(), "Work", false)
	assert.Equal(t, types.ErrConcurrencyLimitReached, err)

	close(worker.release)
	assert.Nil(t, <-done)
	assert.Equal(t, int64(0), throttle.Current())

	result, err := p.Invoke(context.Background(), "Work", false)
	require.Nil(t, err)
	assert.Equal(t, "done", result)
}

func TestRateLimitInterceptor(t *testing.T) {
	p := newProxy(t, &Worker{}, NewRateLimitInterceptor(0.001, 2))
	for i := 0; i < 2; i++ {
		_, err := p.Invoke(context.Background(), "Work", false)
		require.Nil(t, err)
	}
	_, err := p.Invoke(context.Background(), "Work", false)
	assert.True(t, errors.Is(err, types.ErrRateLimited))
	_, err = p.Invoke(context.Background(), "Sleep", time.Duration(0))
	assert.Nil(t, err)

	waiting := NewRateLimitInterceptor(0.001, 1)
	waiting.Wait = true
	p = newProxy(t, &Worker{}, waiting)
	_, err = p.Invoke(context.Background(), "Work", false)
	require.Nil(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = p.Invoke(ctx, "Work", false)
	assert.True(t, errors.Is(err, types.ErrRateLimited))
}

func TestMetricsInterceptor(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetricsInterceptor(registry, "test")
	p := newProxy(t, &Worker{}, m)

	_, err := p.Invoke(context.Background(), "Work", false)
	require.Nil(t, err)
	_, err = p.Invoke(context.Background(), "Work", true)
	assert.Equal(t, errWork, err)

	snapshot := m.Metrics().Snapshot()
	assert.Equal(t, int64(2), snapshot.Calls)
	assert.Equal(t, int64(1), snapshot.Succeeded)
	assert.Equal(t, int64(1), snapshot.Failed)
	assert.Equal(t, int64(0), snapshot.InFlight)
	assert.Equal(t, 0.5, snapshot.FailureRate())

	assert.Equal(t, float64(1), testutil.ToFloat64(m.calls.WithLabelValues("interceptor.Worker.Work", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.calls.WithLabelValues("interceptor.Worker.Work", "failed")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.inFlight.WithLabelValues("interceptor.Worker.Work")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))

	m.Metrics().Reset()
	assert.Equal(t, int64(0), m.Metrics().Snapshot().Calls)
}
