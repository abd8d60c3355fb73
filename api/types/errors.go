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

package types

import (
	"errors"
	"fmt"
)

var (
	// ErrAopConfig is the single configuration error kind: aspect or advice
	// construction failures are reported as a ConfigError wrapping it.
	ErrAopConfig = errors.New("aop configuration error")
	// ErrIllegalConfiguration marks ambiguous or invalid advice declarations.
	ErrIllegalConfiguration = errors.New("illegal aop configuration")
	// ErrUnknownAdviceType is returned when no adapter supports an advice.
	ErrUnknownAdviceType = errors.New("unknown advice type")
	// ErrNotPrototype is returned when a per-call target source is wired to a shared definition.
	ErrNotPrototype = errors.New("definition is not a prototype: instances would not be independent")
	// ErrTargetAccess is the kind of all target source lookup failures.
	ErrTargetAccess = errors.New("target access error")
	// ErrUnsupportedOperation is returned when an operation is not supported,
	// distinct from a real zero result.
	ErrUnsupportedOperation = errors.New("unsupported operation")
	// ErrMethodNotFound is returned when a proxy cannot resolve a method name.
	ErrMethodNotFound = errors.New("method not found")
	// ErrTargetPanic wraps a panic raised by the target method.
	ErrTargetPanic = errors.New("target method panic")
	// ErrNoThread is returned when a per-thread target source is used without a caller token.
	ErrNoThread = errors.New("no thread token in context")
	// ErrConcurrencyLimitReached is returned when the concurrency throttle is exhausted.
	ErrConcurrencyLimitReached = errors.New("concurrency limit reached")
	// ErrRateLimited is returned by the rate limit interceptor.
	ErrRateLimited = errors.New("rate limit exceeded")
	// ErrFrozen is returned when a frozen configuration is modified.
	ErrFrozen = errors.New("configuration is frozen")
)

// ConfigError reports a fatal configuration failure. It matches ErrAopConfig
// with errors.Is, and ErrIllegalConfiguration when Illegal is set.
// ConfigError 配置错误，构建代理时致命，不会重试。
type ConfigError struct {
	Msg     string
	Illegal bool
	Cause   error
}

// NewConfigError creates a ConfigError wrapping cause.
func NewConfigError(cause error, format string, args ...interface{}) *ConfigError {
	return &ConfigError{Msg: fmt.Sprintf(format, args...), Cause: cause}
}

// NewIllegalConfigError creates an illegal-configuration error naming the offending identifier.
func NewIllegalConfigError(format string, args ...interface{}) *ConfigError {
	return &ConfigError{Msg: fmt.Sprintf(format, args...), Illegal: true}
}

func (e *ConfigError) Error() string {
	if e.Cause != nil {
		return e.Msg + ": " + e.Cause.Error()
	}
	return e.Msg
}

func (e *ConfigError) Unwrap() error {
	return e.Cause
}

func (e *ConfigError) Is(target error) bool {
	if target == ErrAopConfig {
		return true
	}
	return e.Illegal && target == ErrIllegalConfiguration
}

// TargetSourceError reports that a target object could not be obtained or released.
// TargetSourceError 目标对象获取或释放失败。
type TargetSourceError struct {
	Name  string
	Op    string
	Cause error
}

func (e *TargetSourceError) Error() string {
	msg := "target source " + e.Op
	if e.Name != "" {
		msg += " '" + e.Name + "'"
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *TargetSourceError) Unwrap() error {
	return e.Cause
}

func (e *TargetSourceError) Is(target error) bool {
	return target == ErrTargetAccess
}
