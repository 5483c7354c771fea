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

// Package workflow defines the high-level business logic orchestrations,
// combining commands into the three recommendation pipelines: describe,
// recommend and chat. Each workflow is itself a cor.Command wrapping a chain,
// so a service only prepares a cor.Context, executes the workflow and reads
// the named results.
package workflow

import (
	"fmt"

	"github.com/jaycherian/gcp-go-media-recommender/internal/cloud"
	"github.com/jaycherian/gcp-go-media-recommender/internal/core/commands"
	"github.com/jaycherian/gcp-go-media-recommender/internal/core/cor"
)

// Agent is the recommendation agent as seen by the pipelines.
type Agent interface {
	commands.Completer
	commands.Extractor
}

// DescribeWorkflow turns selected profile sections into a natural language
// viewer description.
//
// Context inputs: commands.ParamProfile, commands.ParamSections.
// Context outputs: commands.ParamViewerContext, commands.ParamCompletion.
type DescribeWorkflow struct {
	cor.BaseCommand
	agent  Agent
	prompt string
	chain  cor.Chain
}

// Execute runs the underlying chain.
func (d *DescribeWorkflow) Execute(context cor.Context) {
	d.chain.Execute(context)
}

// IsExecutable defers input checks to the individual commands.
func (d *DescribeWorkflow) IsExecutable(context cor.Context) bool {
	return d.chain.IsExecutable(context)
}

func (d *DescribeWorkflow) initializeChain() error {
	tmpl, err := commands.ParsePromptTemplate("describe-template", d.prompt)
	if err != nil {
		return fmt.Errorf("parsing describe prompt: %w", err)
	}
	out := cor.NewBaseChain(d.GetName())

	// Step 1: Copy only the requested sections of the profile.
	out.AddCommand(commands.NewViewerContextBuilder("build-viewer-context"))

	// Step 2: Render the describe prompt around the viewer context.
	out.AddCommand(commands.NewPromptRenderer("render-describe-prompt", tmpl,
		[]string{commands.ParamViewerContext}, commands.ParamPrompt))

	// Step 3: Ask the agent for the description.
	out.AddCommand(commands.NewAgentCompletion("describe-viewer", d.agent, commands.ParamPrompt, commands.ParamCompletion))

	d.chain = out
	return nil
}

// NewDescribeWorkflow is the constructor for DescribeWorkflow.
//
// Inputs:
//   - templates: The prompt templates from configuration.
//   - agent: The agent answering the prompt.
//
// Returns:
//   - *DescribeWorkflow: The ready workflow.
//   - error: A template parse error.
func NewDescribeWorkflow(templates cloud.PromptTemplates, agent Agent) (*DescribeWorkflow, error) {
	workflow := &DescribeWorkflow{
		BaseCommand: *cor.NewBaseCommand("describe-pipeline"),
		agent:       agent,
		prompt:      templates.DescribePrompt,
	}
	if err := workflow.initializeChain(); err != nil {
		return nil, err
	}
	return workflow, nil
}
