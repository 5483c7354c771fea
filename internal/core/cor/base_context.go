// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cor (Chain of Responsibility) is the small workflow runtime used by
// the recommendation pipeline. This file defines `BaseContext`, the default
// implementation of the `Context` interface.
package cor

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// BaseContext is the default implementation of the Context interface. A
// BaseContext belongs to one request and is not safe for concurrent use.
type BaseContext struct {
	data    map[string]interface{}
	errors  map[string]error
	context context.Context
}

// NewBaseContext returns an empty context. Callers must SetContext before
// executing a chain.
//
// Outputs:
//   - Context: A new, empty context object.
func NewBaseContext() Context {
	return &BaseContext{
		data:   make(map[string]interface{}),
		errors: make(map[string]error),
	}
}

// NewBaseContextWith is a convenience that sets the Go context and the
// initial CtxIn value.
//
// Inputs:
//   - ctx: The request context.
//   - input: The value placed under CtxIn, skipped when nil.
//
// Outputs:
//   - Context: The prepared context.
func NewBaseContextWith(ctx context.Context, input interface{}) Context {
	out := NewBaseContext()
	out.SetContext(ctx)
	if input != nil {
		out.Add(CtxIn, input)
	}
	return out
}

func (c *BaseContext) SetContext(context context.Context) {
	c.context = context
}

func (c *BaseContext) GetContext() context.Context {
	return c.context
}

// Add stores a value under key.
//
// Inputs:
//   - key: The string key to store the data under.
//   - value: The data (of any type) to store.
//
// Outputs:
//   - Context: The context instance, allowing for fluent method chaining.
func (c *BaseContext) Add(key string, value interface{}) Context {
	c.data[key] = value
	return c
}

// AddError records err under the name of the command that produced it. A
// second error from the same command replaces the first.
func (c *BaseContext) AddError(key string, err error) {
	c.errors[key] = err
}

func (c *BaseContext) GetErrors() map[string]error {
	return c.errors
}

// Err returns every recorded failure joined in command-name order.
func (c *BaseContext) Err() error {
	if len(c.errors) == 0 {
		return nil
	}
	keys := make([]string, 0, len(c.errors))
	for k := range c.errors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	errs := make([]error, 0, len(keys))
	for _, k := range keys {
		errs = append(errs, fmt.Errorf("%s: %w", k, c.errors[k]))
	}
	return errors.Join(errs...)
}

func (c *BaseContext) Get(key string) interface{} {
	return c.data[key]
}

func (c *BaseContext) Remove(key string) {
	delete(c.data, key)
}

func (c *BaseContext) HasErrors() bool {
	return len(c.errors) > 0
}

// Value is a typed accessor for a context entry.
//
// Inputs:
//   - c: The workflow context.
//   - key: The entry to read.
//
// Outputs:
//   - T: The value, or the zero value of T.
//   - bool: False when the key is absent or holds another type.
func Value[T any](c Context, key string) (T, bool) {
	out, ok := c.Get(key).(T)
	return out, ok
}
