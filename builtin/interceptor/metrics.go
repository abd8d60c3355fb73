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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rulego/rulego-aop/api/types"
	"github.com/rulego/rulego-aop/api/types/metrics"
)

var _ types.MethodInterceptor = (*MetricsInterceptor)(nil)

// MetricsInterceptor counts calls in process and exports them to Prometheus.
// MetricsInterceptor 调用指标拦截器
type MetricsInterceptor struct {
	metrics  *metrics.InvocationMetrics
	calls    *prometheus.CounterVec
	inFlight *prometheus.GaugeVec
	duration *prometheus.HistogramVec
}

// NewMetricsInterceptor registers its collectors with registerer, the
// default registerer if nil. namespace prefixes the metric names.
func NewMetricsInterceptor(registerer prometheus.Registerer, namespace string) *MetricsInterceptor {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)
	return &MetricsInterceptor{
		metrics: metrics.NewInvocationMetrics(),
		calls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "proxy_calls_total",
				Help:      "Total number of intercepted calls",
			},
			[]string{"method", "result"},
		),
		inFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "proxy_calls_in_flight",
				Help:      "Current number of intercepted calls in flight",
			},
			[]string{"method"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "proxy_call_duration_seconds",
				Help:      "Duration of intercepted calls in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
			[]string{"method"},
		),
	}
}

func (i *MetricsInterceptor) Order() int {
	return 20
}

// Metrics returns the in-process counters.
func (i *MetricsInterceptor) Metrics() *metrics.InvocationMetrics {
	return i.metrics
}

func (i *MetricsInterceptor) Invoke(inv types.MethodInvocation) (result interface{}, err error) {
	name := inv.Method().String()
	start := time.Now()
	finish := i.metrics.Start()
	i.inFlight.WithLabelValues(name).Inc()
	defer func() {
		finish(err)
		i.inFlight.WithLabelValues(name).Dec()
		i.duration.WithLabelValues(name).Observe(time.Since(start).Seconds())
		outcome := "success"
		if err != nil {
			outcome = "failed"
		}
		i.calls.WithLabelValues(name, outcome).Inc()
	}()
	return inv.Proceed()
}
