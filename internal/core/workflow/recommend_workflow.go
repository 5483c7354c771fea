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

// Package workflow defines the high-level business logic orchestrations.
// This file implements the recommend pipeline.
package workflow

import (
	"fmt"

	"github.com/jaycherian/gcp-go-media-recommender/internal/cloud"
	"github.com/jaycherian/gcp-go-media-recommender/internal/core/commands"
	"github.com/jaycherian/gcp-go-media-recommender/internal/core/cor"
)

// Sinks are the optional destinations of generated recommendations. A nil
// field disables the corresponding step.
type Sinks struct {
	Profiles commands.ProfileRepository // Saves the list onto the requesting viewer's profile.
	Ledger   commands.RowInserter       // Appends one BigQuery row per recommendation.
}

// RecommendWorkflow turns a viewer description into structured
// recommendations.
//
// Context inputs: commands.ParamDescription, commands.ParamCount and the
// optional commands.ParamUsername, commands.ParamRequestId and
// commands.ParamSource.
// Context outputs: commands.ParamCompletion, commands.ParamRecommendations.
type RecommendWorkflow struct {
	cor.BaseCommand
	agent  Agent
	prompt string
	sinks  Sinks
	chain  cor.Chain
}

// Execute runs the underlying chain.
func (r *RecommendWorkflow) Execute(context cor.Context) {
	r.chain.Execute(context)
}

// IsExecutable defers input checks to the individual commands.
func (r *RecommendWorkflow) IsExecutable(context cor.Context) bool {
	return r.chain.IsExecutable(context)
}

func (r *RecommendWorkflow) initializeChain() error {
	tmpl, err := commands.ParsePromptTemplate("recommend-template", r.prompt)
	if err != nil {
		return fmt.Errorf("parsing recommend prompt: %w", err)
	}
	out := cor.NewBaseChain(r.GetName())
	out.AddCommand(commands.NewPromptRenderer("render-recommend-prompt", tmpl,
		[]string{commands.ParamDescription, commands.ParamCount}, commands.ParamPrompt))
	out.AddCommand(commands.NewAgentCompletion("generate-recommendations", r.agent, commands.ParamPrompt, commands.ParamCompletion))
	out.AddCommand(commands.NewRecommendationExtractor("extract-recommendations", r.agent))
	addSinks(out, r.sinks)
	r.chain = out
	return nil
}

func addSinks(chain cor.Chain, sinks Sinks) {
	if sinks.Profiles != nil {
		chain.AddCommand(commands.NewRecommendationPersistToProfile("save-recommendations-to-profile", sinks.Profiles))
	}
	if sinks.Ledger != nil {
		chain.AddCommand(commands.NewRecommendationPersistWithInserter("write-recommendations-to-bigquery", sinks.Ledger))
	}
}

// NewRecommendWorkflow is the constructor for RecommendWorkflow.
//
// Inputs:
//   - templates: The prompt templates from configuration.
//   - agent: The agent generating and structuring the answer.
//   - sinks: Optional persistence steps appended after extraction.
//
// Returns:
//   - *RecommendWorkflow: The ready workflow.
//   - error: A template parse error.
func NewRecommendWorkflow(templates cloud.PromptTemplates, agent Agent, sinks Sinks) (*RecommendWorkflow, error) {
	workflow := &RecommendWorkflow{
		BaseCommand: *cor.NewBaseCommand("recommend-pipeline"),
		agent:       agent,
		prompt:      templates.RecommendPrompt,
		sinks:       sinks,
	}
	if err := workflow.initializeChain(); err != nil {
		return nil, err
	}
	return workflow, nil
}
