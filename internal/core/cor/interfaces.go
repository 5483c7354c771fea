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
// the recommendation pipeline. A request is modelled as a Chain of Commands
// sharing one Context. This file defines the interfaces.
package cor

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// CtxIn and CtxOut are the keys a BaseChain uses to pipe the output of one
// command into the next.
const (
	// CtxIn holds the primary input of the running command. The chain fills it
	// with the previous command's output.
	CtxIn = "__IN__"
	// CtxOut is where a command leaves its primary output.
	CtxOut = "__OUT__"
)

// Context is the state shared by every command of one workflow execution:
// named values, per-command errors and the Go context carrying cancellation
// and trace spans.
type Context interface {
	// SetContext replaces the Go context. Chains use it to scope spans.
	SetContext(context context.Context)

	// GetContext returns the current Go context.
	GetContext() context.Context

	// Add stores a value and returns the Context for chaining.
	Add(key string, value interface{}) Context

	// AddError records the failure of the named command.
	AddError(key string, err error)

	// GetErrors returns the failures keyed by command name.
	GetErrors() map[string]error

	// Err joins every recorded failure, or returns nil.
	Err() error

	// Get returns a stored value or nil.
	Get(key string) interface{}

	// Remove deletes a stored value.
	Remove(key string)

	// HasErrors reports whether any command has failed.
	HasErrors() bool
}

// Executable is anything with a unit of work to run against a Context.
type Executable interface {
	Execute(context Context)
}

// Command is a single step of a workflow.
type Command interface {
	Executable

	// GetName identifies the command in spans, metrics and error maps.
	GetName() string

	// GetInputParam is the key the command reads its input from.
	GetInputParam() string

	// GetOutputParam is the key the command writes its output to.
	GetOutputParam() string

	// IsExecutable is checked by the chain before Execute.
	IsExecutable(context Context) bool

	GetTracer() trace.Tracer
	GetMeter() metric.Meter
	GetSuccessCounter() metric.Int64Counter
	GetErrorCounter() metric.Int64Counter
}

// Chain runs commands in order. It is itself a Command so chains nest.
type Chain interface {
	Command

	// ContinueOnFailure keeps running the remaining commands after a failure.
	ContinueOnFailure(bool) Chain

	// AddCommand appends a command.
	AddCommand(command Command) Chain
}
