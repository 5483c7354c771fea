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

// Package services contains the business logic behind the API handlers.
// This file, `recommendation.go`, defines the RecommendationService, which
// prepares the context of each pipeline run, executes the describe, recommend
// and chat workflows, and reads their results back.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jaycherian/gcp-go-media-recommender/internal/cloud"
	"github.com/jaycherian/gcp-go-media-recommender/internal/core/agent"
	"github.com/jaycherian/gcp-go-media-recommender/internal/core/commands"
	"github.com/jaycherian/gcp-go-media-recommender/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-recommender/internal/core/model"
	"github.com/jaycherian/gcp-go-media-recommender/internal/core/store"
	"github.com/jaycherian/gcp-go-media-recommender/internal/core/workflow"
)

var (
	// ErrInvalidDescription is returned for an empty description or one that
	// reports an error. Its text is model.InvalidDescriptionMessage.
	ErrInvalidDescription = errors.New(model.InvalidDescriptionMessage)
	// ErrInvalidCount is returned for a recommendation count outside 1 to 8.
	ErrInvalidCount = fmt.Errorf("count must be between %d and %d", model.MinRecommendationCount, model.MaxRecommendationCount)
	// ErrMissingViewer is returned when a describe request names no viewer.
	ErrMissingViewer = errors.New("a username or profile index is required")
)

// DescribeRequest selects a viewer by username, or by position when Index is
// set, and the profile sections to describe.
type DescribeRequest struct {
	Username string   `json:"username"`
	Index    *int     `json:"index"`
	Sections []string `json:"sections"`
}

// DescribeResult is the viewer context sent to the agent and its description.
type DescribeResult struct {
	ViewerInformation model.ViewerContext `json:"viewer_information"`
	Description       string              `json:"description"`
	Usage             model.TokenUsage    `json:"usage"`
}

// RecommendRequest asks for Count recommendations for a description. A zero
// Count uses the configured default. Username is optional and links the
// result to a viewer.
type RecommendRequest struct {
	Description string `json:"description"`
	Count       int    `json:"count"`
	Username    string `json:"username"`
}

// ChatRequest carries the full client transcript. An empty SessionId starts a
// new session.
type ChatRequest struct {
	SessionId string           `json:"session_id"`
	History   []map[string]any `json:"history"`
	Count     int              `json:"count"`
}

// ChatResult is the outcome of a chat turn and the session it belongs to.
type ChatResult struct {
	SessionId string `json:"session_id"`
	*model.GeneratedRecommendations
}

// RecommendationService runs the recommendation pipelines.
type RecommendationService struct {
	config    *cloud.Config
	agent     *agent.Agent
	profiles  *store.ProfileStore
	catalog   *store.GenericCatalog
	ledger    commands.RowInserter
	describe  *workflow.DescribeWorkflow
	recommend *workflow.RecommendWorkflow
	sessions  *ChatSessions
}

// NewRecommendationService wires the workflows.
//
// Inputs:
//   - config: The application configuration (templates, counts, persistence).
//   - shared: The agent session used by describe and recommend requests.
//   - newSessionAgent: Creates the agent of a new chat session.
//   - profiles: The profile store.
//   - catalog: The generic catalog, may be nil.
//   - ledger: The BigQuery ledger inserter, nil when disabled.
//
// Outputs:
//   - *RecommendationService: The ready service.
//   - error: A prompt template error.
func NewRecommendationService(
	config *cloud.Config,
	shared *agent.Agent,
	newSessionAgent func() *agent.Agent,
	profiles *store.ProfileStore,
	catalog *store.GenericCatalog,
	ledger commands.RowInserter) (*RecommendationService, error) {

	describe, err := workflow.NewDescribeWorkflow(config.PromptTemplates, shared)
	if err != nil {
		return nil, err
	}
	sinks := workflow.Sinks{Ledger: ledger}
	if config.Application.PersistRecommendations {
		sinks.Profiles = profiles
	}
	recommend, err := workflow.NewRecommendWorkflow(config.PromptTemplates, shared, sinks)
	if err != nil {
		return nil, err
	}
	// Chat templates are checked now rather than on the first chat request.
	if _, err := commands.ParsePromptTemplate("chat-template", config.PromptTemplates.ChatPrompt); err != nil {
		return nil, fmt.Errorf("parsing chat prompt: %w", err)
	}
	sessions := NewChatSessions(config.Application.MaxChatSessions, func() (*workflow.ChatWorkflow, error) {
		return workflow.NewChatWorkflow(config.PromptTemplates, newSessionAgent(), ledger)
	})
	return &RecommendationService{
		config:    config,
		agent:     shared,
		profiles:  profiles,
		catalog:   catalog,
		ledger:    ledger,
		describe:  describe,
		recommend: recommend,
		sessions:  sessions,
	}, nil
}

// Describe resolves the viewer and runs the describe pipeline.
//
// Outputs:
//   - *DescribeResult: The viewer context and description.
//   - error: ErrMissingViewer, store.ErrProfileNotFound, or a pipeline error.
func (s *RecommendationService) Describe(ctx context.Context, req *DescribeRequest) (*DescribeResult, error) {
	profile, err := s.resolveViewer(ctx, req)
	if err != nil {
		return nil, err
	}
	sections := req.Sections
	if sections == nil {
		sections = []string{}
	}
	chCtx := cor.NewBaseContextWith(ctx, nil)
	chCtx.Add(commands.ParamProfile, profile)
	chCtx.Add(commands.ParamSections, sections)
	s.describe.Execute(chCtx)
	if err := chCtx.Err(); err != nil {
		return nil, err
	}
	viewer, _ := cor.Value[model.ViewerContext](chCtx, commands.ParamViewerContext)
	completion, ok := cor.Value[*agent.Result](chCtx, commands.ParamCompletion)
	if !ok {
		return nil, errors.New("describe pipeline produced no description")
	}
	return &DescribeResult{ViewerInformation: viewer, Description: completion.Text, Usage: completion.Usage}, nil
}

func (s *RecommendationService) resolveViewer(ctx context.Context, req *DescribeRequest) (*model.ViewerProfile, error) {
	if req.Index != nil {
		return s.profiles.ProfileAt(ctx, *req.Index)
	}
	if req.Username == "" {
		return nil, ErrMissingViewer
	}
	profile, found, err := s.profiles.FindByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", store.ErrProfileNotFound, req.Username)
	}
	return profile, nil
}

// Recommend runs the recommend pipeline for a description.
//
// Outputs:
//   - *model.GeneratedRecommendations: The structured list, or a degraded
//     result carrying the raw answer.
//   - error: ErrInvalidDescription, ErrInvalidCount, or a pipeline error.
func (s *RecommendationService) Recommend(ctx context.Context, req *RecommendRequest) (*model.GeneratedRecommendations, error) {
	if !model.IsUsableDescription(req.Description) {
		return nil, ErrInvalidDescription
	}
	count, err := s.count(req.Count)
	if err != nil {
		return nil, err
	}
	chCtx := cor.NewBaseContextWith(ctx, nil)
	chCtx.Add(commands.ParamDescription, req.Description)
	chCtx.Add(commands.ParamCount, count)
	chCtx.Add(commands.ParamUsername, req.Username)
	chCtx.Add(commands.ParamRequestId, uuid.NewString())
	chCtx.Add(commands.ParamSource, commands.SourceRecommend)
	s.recommend.Execute(chCtx)
	return generatedFrom(chCtx)
}

// Chat runs the chat pipeline on the session's own agent. An empty
// transcript returns an empty list without calling the model.
func (s *RecommendationService) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	count, err := s.count(req.Count)
	if err != nil {
		return nil, err
	}
	sessionId, session, err := s.sessions.Get(req.SessionId)
	if err != nil {
		return nil, err
	}
	if len(req.History) == 0 {
		return &ChatResult{
			SessionId:                sessionId,
			GeneratedRecommendations: &model.GeneratedRecommendations{Recommendations: []model.Recommendation{}},
		}, nil
	}
	chCtx := cor.NewBaseContextWith(ctx, nil)
	chCtx.Add(commands.ParamRawHistory, req.History)
	chCtx.Add(commands.ParamCount, count)
	chCtx.Add(commands.ParamRequestId, uuid.NewString())
	chCtx.Add(commands.ParamSource, commands.SourceChat)
	session.Execute(chCtx)
	generated, err := generatedFrom(chCtx)
	if err != nil {
		return nil, err
	}
	return &ChatResult{SessionId: sessionId, GeneratedRecommendations: generated}, nil
}

// Generic samples the catalog. A non-positive count uses the configured
// sample size.
func (s *RecommendationService) Generic(count int) []model.Recommendation {
	if s.catalog == nil {
		return []model.Recommendation{}
	}
	if count <= 0 {
		count = s.config.Application.GenericRecommendations
	}
	if count <= 0 {
		count = model.DefaultGenericSample
	}
	return s.catalog.Sample(count)
}

// Health checks the shared agent.
func (s *RecommendationService) Health(ctx context.Context) *agent.Health {
	health := s.agent.HealthCheck(ctx)
	if !health.Healthy {
		slog.WarnContext(ctx, "agent health check failed", "error", health.Error)
	}
	return health
}

// ActiveChatSessions is the number of live chat sessions.
func (s *RecommendationService) ActiveChatSessions() int {
	return s.sessions.Len()
}

func (s *RecommendationService) count(requested int) (int, error) {
	if requested == 0 {
		requested = s.config.Application.DefaultRecommendations
		if requested == 0 {
			requested = model.MinRecommendationCount
		}
	}
	if requested < model.MinRecommendationCount || requested > model.MaxRecommendationCount {
		return 0, ErrInvalidCount
	}
	return requested, nil
}

func generatedFrom(chCtx cor.Context) (*model.GeneratedRecommendations, error) {
	if err := chCtx.Err(); err != nil {
		return nil, err
	}
	generated, ok := cor.Value[*model.GeneratedRecommendations](chCtx, commands.ParamRecommendations)
	if !ok || generated == nil {
		return nil, errors.New("pipeline produced no recommendations")
	}
	return generated, nil
}
