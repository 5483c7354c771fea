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
// command that turns the agent's free-text answer into recommendations.
//
// Logic Flow:
//  1. It reads the *agent.Result of the completion step.
//  2. It asks the agent to restate that text as a RecommendationList.
//  3. When extraction fails validation or the model errors, the step still
//     succeeds: it stores a degraded result carrying the raw text so the
//     caller can show the unstructured answer. Only a cancelled request is a
//     failure.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jaycherian/gcp-go-media-recommender/internal/core/agent"
	"github.com/jaycherian/gcp-go-media-recommender/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-recommender/internal/core/model"
)

// Extractor is the part of agent.Agent used by RecommendationExtractor.
type Extractor interface {
	ExtractRecommendations(ctx context.Context, text string) (*model.RecommendationList, model.TokenUsage, error)
}

// RecommendationExtractor structures the agent answer.
type RecommendationExtractor struct {
	cor.BaseCommand
	extractor Extractor
}

// NewRecommendationExtractor reads ParamCompletion and writes
// ParamRecommendations.
func NewRecommendationExtractor(name string, extractor Extractor) *RecommendationExtractor {
	return &RecommendationExtractor{
		BaseCommand: *cor.NewBaseCommandWithParams(name, ParamCompletion, ParamRecommendations),
		extractor:   extractor,
	}
}

// Execute extracts or degrades.
func (r *RecommendationExtractor) Execute(context cor.Context) {
	completion, ok := cor.Value[*agent.Result](context, r.GetInputParam())
	if !ok || completion == nil {
		r.Fail(context, fmt.Errorf("no agent result under %s", r.GetInputParam()))
		return
	}
	out := &model.GeneratedRecommendations{
		Recommendations: []model.Recommendation{},
		Usage:           completion.Usage,
		ToolsUsed:       completion.ToolsUsed,
	}

	list, usage, err := r.extractor.ExtractRecommendations(context.GetContext(), completion.Text)
	out.Usage.Add(usage)
	switch {
	case err == nil:
		out.Recommendations = list.Recommendations
	case context.GetContext().Err() != nil:
		r.Fail(context, err)
		return
	default:
		slog.WarnContext(context.GetContext(), "returning unstructured recommendations", "command", r.GetName(), "error", err)
		out.Degraded = true
		out.RawText = completion.Text
	}
	context.Add(r.GetOutputParam(), out)
	r.Succeed(context)
}
