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

// Package config loads engine settings and aspect declarations from YAML
// documents or loosely typed maps.
//
// Example:
//
//	log:
//	  level: debug
//	chainCache:
//	  gcInterval: 1m
//	asyncPoolSize: 16
//	aspects:
//	  - name: audit
//	    factory: auditAspect
//	    pointcuts:
//	      getters: 'method startsWith "Get"'
//	    advice:
//	      - kind: before
//	        method: Log
//	        pointcut: getters
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/rulego/rulego-aop/api/types"
	"github.com/rulego/rulego-aop/aspect"
	"github.com/rulego/rulego-aop/framework"
	"github.com/rulego/rulego-aop/pointcut"
	"github.com/rulego/rulego-aop/utils/cache"
	"github.com/rulego/rulego-aop/utils/json"
	"github.com/rulego/rulego-aop/utils/maps"
	"gopkg.in/yaml.v3"
)

// Settings is the decoded configuration document.
// Settings 配置文档。
type Settings struct {
	Log        LogSettings        `json:"log"`
	ChainCache ChainCacheSettings `json:"chainCache"`
	// AsyncPoolSize bounds the workers used by Proxy.InvokeAsync, 0 keeps the shared pool.
	AsyncPoolSize int              `json:"asyncPoolSize"`
	Aspects       []AspectSettings `json:"aspects"`
}

// LogSettings configures the default logrus logger.
type LogSettings struct {
	// Level is a logrus level name, info by default.
	Level string `json:"level"`
	// Format is "text" or "json".
	Format string `json:"format"`
}

// ChainCacheSettings configures the interceptor chain cache.
type ChainCacheSettings struct {
	Disabled bool `json:"disabled"`
	// GCInterval enables a dedicated cache swept at this interval.
	GCInterval time.Duration `json:"gcInterval"`
}

// AspectSettings declares one aspect.
type AspectSettings struct {
	Name string `json:"name"`
	// Factory names a factory registered in the AspectRegistry.
	Factory string `json:"factory"`
	Order   *int   `json:"order"`
	// Pointcuts maps names to expression strings or pointcut documents.
	Pointcuts     map[string]interface{} `json:"pointcuts"`
	Advice        []AdviceSettings       `json:"advice"`
	Introductions []IntroductionSettings `json:"introductions"`
}

// AdviceSettings declares one advice method.
type AdviceSettings struct {
	// Kind is one of before, after, afterReturning, afterThrowing, around.
	Kind          string   `json:"kind"`
	Method        string   `json:"method"`
	Pointcut      string   `json:"pointcut"`
	ArgNames      []string `json:"argNames"`
	Returning     string   `json:"returning"`
	Throwing      string   `json:"throwing"`
	ReturningType string   `json:"returningType"`
	ThrowingType  string   `json:"throwingType"`
}

// IntroductionSettings declares an introduction.
type IntroductionSettings struct {
	TypesMatching string   `json:"typesMatching"`
	Interfaces    []string `json:"interfaces"`
	// Interceptor names an interceptor registered in the AspectRegistry.
	Interceptor string `json:"interceptor"`
}

// Load decodes a YAML document.
func Load(data []byte) (*Settings, error) {
	var properties map[string]interface{}
	if err := yaml.Unmarshal(data, &properties); err != nil {
		return nil, types.NewConfigError(err, "invalid configuration document")
	}
	return FromMap(properties)
}

// LoadFile decodes the YAML document at path.
func LoadFile(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.NewConfigError(err, "read configuration file %s", path)
	}
	return Load(data)
}

// FromMap decodes a properties map. Scalars are converted weakly, so "16"
// is accepted for a number and "1m" for a duration.
func FromMap(properties map[string]interface{}) (*Settings, error) {
	settings := &Settings{}
	if properties == nil {
		return settings, nil
	}
	if err := maps.Map2StructWeak(properties, settings); err != nil {
		return nil, types.NewConfigError(err, "decode configuration")
	}
	return settings, nil
}

// Options converts the engine settings into config options.
func (s *Settings) Options() []types.Option {
	var opts []types.Option
	if s.Log.Level != "" || s.Log.Format != "" {
		opts = append(opts, types.WithLogger(types.NewLeveledLogger(s.Log.Level, s.Log.Format)))
	}
	if s.AsyncPoolSize > 0 {
		opts = append(opts, types.WithDefaultPool(s.AsyncPoolSize))
	}
	if s.ChainCache.Disabled {
		opts = append(opts, types.WithoutChainCache())
	} else if s.ChainCache.GCInterval > 0 {
		opts = append(opts, types.WithChainCache(cache.NewMemoryCache(s.ChainCache.GCInterval)))
	}
	return opts
}

// Definitions resolves the aspect declarations against registry, the
// package Registry when nil.
func (s *Settings) Definitions(registry *AspectRegistry) ([]*aspect.Definition, error) {
	if registry == nil {
		registry = Registry
	}
	definitions := make([]*aspect.Definition, 0, len(s.Aspects))
	for _, item := range s.Aspects {
		def, err := item.Definition(registry)
		if err != nil {
			return nil, err
		}
		definitions = append(definitions, def)
	}
	return definitions, nil
}

// Apply adds every declared aspect to advised.
func (s *Settings) Apply(advised *framework.AdvisedSupport, registry *AspectRegistry) error {
	definitions, err := s.Definitions(registry)
	if err != nil {
		return err
	}
	for _, def := range definitions {
		if err := advised.AddAspect(def); err != nil {
			return err
		}
	}
	return nil
}

// Definition builds the aspect definition.
func (a AspectSettings) Definition(registry *AspectRegistry) (*aspect.Definition, error) {
	if a.Name == "" {
		return nil, types.NewIllegalConfigError("aspect declaration has no name")
	}
	factory, err := registry.Factory(a.Factory)
	if err != nil {
		return nil, err
	}
	def := aspect.NewDefinition(a.Name, factory)
	if a.Order != nil {
		def.WithOrder(*a.Order)
	}
	for name, value := range a.Pointcuts {
		pc, err := decodePointcut(value, factory.TypeResolver())
		if err != nil {
			return nil, types.NewConfigError(err, "pointcut '%s' of aspect '%s'", name, a.Name)
		}
		def.WithPointcut(name, pc)
	}
	for _, item := range a.Advice {
		kind, ok := types.ParseAdviceKind(item.Kind)
		if !ok {
			return nil, types.NewConfigError(types.ErrUnknownAdviceType, "advice kind '%s' of aspect '%s'", item.Kind, a.Name)
		}
		def.WithAdvice(aspect.AdviceDeclaration{
			Kind:          kind,
			Method:        item.Method,
			Pointcut:      item.Pointcut,
			ArgNames:      item.ArgNames,
			Returning:     item.Returning,
			Throwing:      item.Throwing,
			ReturningType: item.ReturningType,
			ThrowingType:  item.ThrowingType,
		})
	}
	for _, item := range a.Introductions {
		interceptor, err := registry.Introduction(item.Interceptor)
		if err != nil {
			return nil, err
		}
		def.WithIntroduction(aspect.IntroductionDeclaration{
			TypesMatching:  item.TypesMatching,
			InterfaceNames: item.Interfaces,
			Interceptor:    interceptor,
		})
	}
	return def, nil
}

// decodePointcut accepts an expression string or a pointcut document.
func decodePointcut(value interface{}, resolver types.TypeResolver) (types.Pointcut, error) {
	switch v := value.(type) {
	case string:
		return pointcut.NewExpressionPointcut(v)
	case map[string]interface{}:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return pointcut.UnmarshalPointcut(data, resolver)
	default:
		return nil, fmt.Errorf("unsupported pointcut value %T", value)
	}
}
