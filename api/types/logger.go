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
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// Logger is the logging contract used across the module.
// Logger 日志接口
type Logger interface {
	Printf(format string, v ...interface{})
	Debugf(format string, v ...interface{})
	Warnf(format string, v ...interface{})
	Errorf(format string, v ...interface{})
}

// this is a safeguard, breaking on compile time in case
// `logrus.Logger` does not adhere to our `Logger` interface.
// see https://golang.org/doc/faq#guarantee_satisfies_interface
var _ Logger = &logrus.Logger{}
var _ Logger = &logrus.Entry{}

// DefaultLogger returns a `Logger` implementation writing text to stdout.
func DefaultLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetLevel(logrus.InfoLevel)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	return logger
}

var (
	sharedLogger     *logrus.Logger
	sharedLoggerOnce sync.Once
)

// SharedLogger returns the process-wide default logger, created on first use.
// SharedLogger 返回进程内共享的默认日志记录器。
func SharedLogger() *logrus.Logger {
	sharedLoggerOnce.Do(func() {
		sharedLogger = DefaultLogger()
	})
	return sharedLogger
}

// NewLogger returns custom if set, otherwise the shared default logger.
func NewLogger(custom Logger) Logger {
	if custom != nil {
		return custom
	}

	return SharedLogger()
}

// NewLeveledLogger builds the default logger with the given level and format
// ("text" or "json"). Unknown levels fall back to info.
func NewLeveledLogger(level, format string) *logrus.Logger {
	logger := DefaultLogger()
	if lv, err := logrus.ParseLevel(level); err == nil {
		logger.SetLevel(lv)
	}
	if format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	}
	return logger
}
