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

// Package commands provides the concrete implementations of the Chain of
// Responsibility (COR) pattern's Command interface. This file defines the
// command that sends a rendered prompt to the recommendation agent.
package commands

import (
	"context"
	"fmt"

	"github.com/jaycherian/gcp-go-media-recommender/internal/core/agent"
	"github.com/jaycherian/gcp-go-media-recommender/internal/core/cor"
)

// Completer is the part of agent.Agent used by AgentCompletion.
type Completer interface {
	Complete(ctx context.Context, prompt string) (*agent.Result, error)
}

// AgentCompletion runs one agent turn.
type AgentCompletion struct {
	cor.BaseCommand
	agent Completer
}

// NewAgentCompletion reads the prompt from inputParam and writes the
// *agent.Result to outputParam.
func NewAgentCompletion(name string, agent Completer, inputParam string, outputParam string) *AgentCompletion {
	return &AgentCompletion{
		BaseCommand: *cor.NewBaseCommandWithParams(name, inputParam, outputParam),
		agent:       agent,
	}
}

// Execute sends the prompt. An empty prompt is a failure.
func (a *AgentCompletion) Execute(context cor.Context) {
	prompt, _ := cor.Value[string](context, a.GetInputParam())
	if prompt == "" {
		a.Fail(context, fmt.Errorf("empty prompt under %s", a.GetInputParam()))
		return
	}
	result, err := a.agent.Complete(context.GetContext(), prompt)
	if err != nil {
		a.Fail(context, err)
		return
	}
	context.Add(a.GetOutputParam(), result)
	a.Succeed(context)
}
