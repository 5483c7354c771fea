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
// This file implements the chat pipeline.
package workflow

import (
	"fmt"

	"github.com/jaycherian/gcp-go-media-recommender/internal/cloud"
	"github.com/jaycherian/gcp-go-media-recommender/internal/core/commands"
	"github.com/jaycherian/gcp-go-media-recommender/internal/core/cor"
)

// ChatWorkflow turns a chat transcript into structured recommendations. Each
// chat session owns one ChatWorkflow bound to its own agent.
//
// Context inputs: commands.ParamRawHistory, commands.ParamCount and the
// optional ledger metadata.
// Context outputs: commands.ParamHistory, commands.ParamCompletion,
// commands.ParamRecommendations.
type ChatWorkflow struct {
	cor.BaseCommand
	agent  Agent
	prompt string
	ledger commands.RowInserter
	chain  cor.Chain
}

// Execute runs the underlying chain.
func (c *ChatWorkflow) Execute(context cor.Context) {
	c.chain.Execute(context)
}

// IsExecutable defers input checks to the individual commands.
func (c *ChatWorkflow) IsExecutable(context cor.Context) bool {
	return c.chain.IsExecutable(context)
}

func (c *ChatWorkflow) initializeChain() error {
	tmpl, err := commands.ParsePromptTemplate("chat-template", c.prompt)
	if err != nil {
		return fmt.Errorf("parsing chat prompt: %w", err)
	}
	out := cor.NewBaseChain(c.GetName())
	out.AddCommand(commands.NewChatTranscriptCleaner("clean-chat-transcript"))
	out.AddCommand(commands.NewPromptRenderer("render-chat-prompt", tmpl,
		[]string{commands.ParamHistory, commands.ParamCount}, commands.ParamPrompt))
	out.AddCommand(commands.NewAgentCompletion("chat-with-agent", c.agent, commands.ParamPrompt, commands.ParamCompletion))
	out.AddCommand(commands.NewRecommendationExtractor("extract-chat-recommendations", c.agent))
	addSinks(out, Sinks{Ledger: c.ledger})
	c.chain = out
	return nil
}

// NewChatWorkflow is the constructor for ChatWorkflow. Chat results are never
// saved onto a profile; ledger may be nil.
func NewChatWorkflow(templates cloud.PromptTemplates, agent Agent, ledger commands.RowInserter) (*ChatWorkflow, error) {
	workflow := &ChatWorkflow{
		BaseCommand: *cor.NewBaseCommand("chat-pipeline"),
		agent:       agent,
		prompt:      templates.ChatPrompt,
		ledger:      ledger,
	}
	if err := workflow.initializeChain(); err != nil {
		return nil, err
	}
	return workflow, nil
}
