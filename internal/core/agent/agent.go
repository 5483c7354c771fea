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

// Package agent wraps a Gemini model into the recommendation agent.
//
// An Agent owns a sliding conversation window and a registry of tools. Each
// Complete call sends the window plus the new prompt, executes any function
// calls the model asks for, feeds the results back, and repeats until the
// model answers with text or the tool round limit is reached. Only completed
// turns are added to the window.
//
// Extract and HealthCheck are one-shot calls that never read or modify the
// window.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jaycherian/gcp-go-media-recommender/internal/cloud"
	"github.com/jaycherian/gcp-go-media-recommender/internal/core/model"
	"github.com/jaycherian/gcp-go-media-recommender/internal/core/tools"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genai"
)

const (
	tracerName = "github.com/jaycherian/gcp-go-media-recommender/agent"

	// DefaultMaxToolRounds bounds function-call round trips per request.
	DefaultMaxToolRounds = 6

	// HealthPrompt asks for a fixed one-word answer.
	HealthPrompt = "Just return the word 'Healthy'. No additional text, preamble, explanation, tools, formatting, reasoning, or reflection."

	extractionInstruction = "You convert the text you are given into the requested JSON structure. Use only information present in the text. Do not invent titles, platforms or URLs."
)

// ErrEmptyResponse is returned when the model produced no candidate.
var ErrEmptyResponse = errors.New("model returned no candidates")

// Result is the outcome of one Complete call.
type Result struct {
	Text      string           `json:"text"`
	Usage     model.TokenUsage `json:"usage"`
	Latency   time.Duration    `json:"latency"`
	ToolsUsed []string         `json:"tools_used"`
}

// Health is the report produced by HealthCheck.
type Health struct {
	Healthy                 bool    `json:"healthy"`
	Model                   string  `json:"model"`
	Temperature             float32 `json:"temperature"`
	CachePrompt             bool    `json:"cache_prompt"`
	CacheTools              bool    `json:"cache_tools"`
	Streaming               bool    `json:"streaming"`
	IncludeToolResultStatus bool    `json:"include_tool_result_status"`
	LatencySeconds          float64 `json:"latency_seconds"`
	TotalTokens             int32   `json:"total_tokens"`
	Response                string  `json:"response,omitempty"`
	Error                   string  `json:"error,omitempty"`
}

// Agent is one conversation session with the model. Calls on the same Agent
// are serialized.
type Agent struct {
	mu       sync.Mutex
	llm      *cloud.QuotaAwareGenerativeAIModel
	registry *tools.Registry
	window   *ConversationWindow
	settings cloud.VertexAiLLMModel
	counters cloud.TokenCounters
	tracer   trace.Tracer
}

// New creates an agent session.
//
// Inputs:
//   - llm: The rate-limited model.
//   - registry: The tools offered to the model, may be empty.
//   - settings: The model's configuration entry, used for the window size,
//     tool round limit and health report.
//
// Outputs:
//   - *Agent: A session with an empty window.
func New(llm *cloud.QuotaAwareGenerativeAIModel, registry *tools.Registry, settings cloud.VertexAiLLMModel) *Agent {
	if registry == nil {
		registry = tools.NewRegistry()
	}
	if settings.Model == "" {
		settings.Model = llm.ModelName
	}
	return &Agent{
		llm:      llm,
		registry: registry,
		window:   NewConversationWindow(settings.WindowSize),
		settings: settings,
		counters: cloud.NewTokenCounters(otel.Meter(tracerName), "agent"),
		tracer:   otel.Tracer(tracerName),
	}
}

// WindowLen returns the number of messages currently retained.
func (a *Agent) WindowLen() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.window.Len()
}

// Reset clears the conversation window.
func (a *Agent) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.window.Reset()
}

// Complete sends prompt in the context of the conversation so far and runs
// the tool loop until the model answers with text.
//
// Inputs:
//   - ctx: The request context.
//   - prompt: The user turn.
//
// Outputs:
//   - *Result: The final text, accumulated usage, latency and tools used.
//   - error: A model error. Tool failures are reported to the model instead.
func (a *Agent) Complete(ctx context.Context, prompt string) (*Result, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	ctx, span := a.tracer.Start(ctx, "agent_complete")
	defer span.End()
	start := time.Now()

	maxRounds := a.settings.MaxToolRounds
	if maxRounds <= 0 {
		maxRounds = DefaultMaxToolRounds
	}
	withTools := a.llm.CloneConfig()
	withTools.Tools = a.registry.GenAITools()
	withoutTools := a.llm.CloneConfig()
	withoutTools.Tools = nil

	result := &Result{ToolsUsed: []string{}}
	turn := []*genai.Content{cloud.NewTextContent(cloud.RoleUser, prompt)}

	for round := 0; ; round++ {
		config := withTools
		if round >= maxRounds || a.registry.Len() == 0 {
			config = withoutTools
		}
		contents := append(a.window.Messages(), turn...)
		resp, err := cloud.GenerateResponse(ctx, a.counters, a.llm, contents, config)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("agent completion failed: %w", err)
		}
		result.Usage.Add(usageOf(resp))
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			span.SetStatus(codes.Error, ErrEmptyResponse.Error())
			return nil, ErrEmptyResponse
		}
		reply := resp.Candidates[0].Content
		reply.Role = cloud.RoleModel
		turn = append(turn, reply)

		calls := functionCalls(reply)
		if len(calls) == 0 || config == withoutTools {
			result.Text = cloud.ResponseText(resp)
			break
		}
		turn = append(turn, a.invokeTools(ctx, calls, result))
	}

	a.window.Append(turn...)
	result.Latency = time.Since(start)
	span.SetAttributes(
		attribute.Int("agent.tokens.total", int(result.Usage.TotalTokens)),
		attribute.StringSlice("agent.tools", result.ToolsUsed),
	)
	slog.InfoContext(ctx, "agent completion",
		"latency_ms", result.Latency.Milliseconds(),
		"input_tokens", result.Usage.InputTokens,
		"output_tokens", result.Usage.OutputTokens,
		"total_tokens", result.Usage.TotalTokens,
		"tools_used", result.ToolsUsed)
	return result, nil
}

// invokeTools runs each requested call and packs the results into one user
// turn of function responses.
func (a *Agent) invokeTools(ctx context.Context, calls []*genai.FunctionCall, result *Result) *genai.Content {
	parts := make([]*genai.Part, 0, len(calls))
	for _, call := range calls {
		out, err := a.registry.Invoke(ctx, call.Name, call.Args)
		status := "success"
		if err != nil {
			slog.WarnContext(ctx, "tool call failed", "tool", call.Name, "error", err)
			out = map[string]any{"error": err.Error()}
			status = "error"
		}
		if a.settings.IncludeToolResultStatus {
			out["status"] = status
		}
		if !slices.Contains(result.ToolsUsed, call.Name) {
			result.ToolsUsed = append(result.ToolsUsed, call.Name)
		}
		parts = append(parts, &genai.Part{FunctionResponse: &genai.FunctionResponse{
			ID:       call.ID,
			Name:     call.Name,
			Response: out,
		}})
	}
	return &genai.Content{Role: cloud.RoleUser, Parts: parts}
}

// ExtractRecommendations asks the model to restate text as a
// RecommendationList using JSON mode and a response schema.
//
// Inputs:
//   - ctx: The request context.
//   - text: Free text produced by an earlier Complete call.
//
// Outputs:
//   - *model.RecommendationList: The validated list.
//   - model.TokenUsage: Tokens spent on the extraction.
//   - error: A model error, or *model.ValidationError when the output does
//     not match the schema.
func (a *Agent) ExtractRecommendations(ctx context.Context, text string) (*model.RecommendationList, model.TokenUsage, error) {
	list := &model.RecommendationList{}
	usage, err := a.Extract(ctx, text, RecommendationListSchema(), list)
	if err != nil {
		return nil, usage, err
	}
	if list.Recommendations == nil {
		list.Recommendations = []model.Recommendation{}
	}
	return list, usage, nil
}

// Extract is a one-shot JSON-mode call. The model output is decoded into out
// and validated. It neither reads nor extends the conversation window.
//
// Inputs:
//   - ctx: The request context.
//   - text: The text to structure.
//   - schema: The response schema sent to the model.
//   - out: A pointer to the destination record.
//
// Outputs:
//   - model.TokenUsage: Tokens spent on the call.
//   - error: A model error or a *model.ValidationError.
func (a *Agent) Extract(ctx context.Context, text string, schema *genai.Schema, out any) (model.TokenUsage, error) {
	ctx, span := a.tracer.Start(ctx, "agent_extract")
	defer span.End()

	config := a.llm.CloneConfig()
	config.Tools = nil
	config.ResponseMIMEType = "application/json"
	config.ResponseSchema = schema
	config.SystemInstruction = cloud.NewTextContent("", extractionInstruction)

	contents := []*genai.Content{cloud.NewTextContent(cloud.RoleUser, text)}
	resp, err := cloud.GenerateResponse(ctx, a.counters, a.llm, contents, config)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return model.TokenUsage{}, fmt.Errorf("structured extraction failed: %w", err)
	}
	usage := usageOf(resp)
	if err := model.DecodeAndValidate([]byte(cloud.StripCodeFence(cloud.ResponseText(resp))), out); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return usage, err
	}
	return usage, nil
}

// HealthCheck sends the fixed health prompt outside the conversation and
// reports the configured model settings alongside the outcome.
func (a *Agent) HealthCheck(ctx context.Context) *Health {
	health := &Health{
		Model:                   a.settings.Model,
		Temperature:             a.settings.Temperature,
		CachePrompt:             a.settings.CachePrompt,
		CacheTools:              a.settings.CacheTools,
		Streaming:               a.settings.Streaming,
		IncludeToolResultStatus: a.settings.IncludeToolResultStatus,
	}
	start := time.Now()
	config := a.llm.CloneConfig()
	config.Tools = nil
	resp, err := cloud.GenerateResponse(ctx, a.counters, a.llm,
		[]*genai.Content{cloud.NewTextContent(cloud.RoleUser, HealthPrompt)}, config)
	health.LatencySeconds = time.Since(start).Seconds()
	if err != nil {
		health.Error = err.Error()
		return health
	}
	health.Response = cloud.ResponseText(resp)
	health.TotalTokens = usageOf(resp).TotalTokens
	health.Healthy = isHealthyReply(health.Response)
	if !health.Healthy {
		health.Error = fmt.Sprintf("unexpected health check reply %q", health.Response)
	}
	return health
}

// isHealthyReply accepts any reply containing the word the health prompt asks
// for, in any case, unless it is negated.
func isHealthyReply(reply string) bool {
	lower := strings.ToLower(reply)
	return strings.Contains(lower, "healthy") && !strings.Contains(lower, "unhealthy")
}

func functionCalls(c *genai.Content) []*genai.FunctionCall {
	var out []*genai.FunctionCall
	for _, part := range c.Parts {
		if part != nil && part.FunctionCall != nil {
			out = append(out, part.FunctionCall)
		}
	}
	return out
}

func usageOf(resp *genai.GenerateContentResponse) model.TokenUsage {
	if resp == nil || resp.UsageMetadata == nil {
		return model.TokenUsage{}
	}
	return model.TokenUsage{
		InputTokens:  resp.UsageMetadata.PromptTokenCount,
		OutputTokens: resp.UsageMetadata.CandidatesTokenCount,
		TotalTokens:  resp.UsageMetadata.TotalTokenCount,
	}
}
