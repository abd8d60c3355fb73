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

// Package interceptor provides built-in method interceptors for proxies.
// Each one implements types.MethodInterceptor and types.Ordered, so it can be
// added with ProxyFactory.AddAdvice or bound to a pointcut with an advisor.
//
// Package interceptor 提供代理可直接使用的内置方法拦截器。
//
// Available Built-in Interceptors:
// 可用的内置拦截器：
//
//   - DebugInterceptor: Logs entry and exit of every call, optionally reporting them to a callback
//     DebugInterceptor：记录调用的进入和退出日志，可选回调
//
//   - PerformanceMonitorInterceptor: Measures and logs the running time of calls
//     PerformanceMonitorInterceptor：统计并记录调用耗时
//
//   - ConcurrencyThrottleInterceptor: Limits the number of concurrent calls
//     ConcurrencyThrottleInterceptor：限制并发调用数量
//
//   - RateLimitInterceptor: Limits the call rate per method
//     RateLimitInterceptor：按方法限制调用速率
//
//   - MetricsInterceptor: Collects invocation counters and Prometheus metrics
//     MetricsInterceptor：收集调用计数和 Prometheus 指标
//
// Usage:
// 使用方法：
//
//	factory := framework.NewProxyFactory(target)
//	_ = factory.AddAdvice(interceptor.NewConcurrencyThrottleInterceptor(100))
//	_ = factory.AddAdvice(interceptor.NewDebugInterceptor(logger))
package interceptor
