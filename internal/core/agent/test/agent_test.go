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

package agent_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jaycherian/gcp-go-media-recommender/internal/cloud"
	"github.com/jaycherian/gcp-go-media-recommender/internal/core/agent"
	"github.com/jaycherian/gcp-go-media-recommender/internal/core/model"
	"github.com/jaycherian/gcp-go-media-recommender/internal/core/tools"
	test "github.com/jaycherian/gcp-go-media-recommender/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func newAgent(script *test.ScriptedModel, settings cloud.VertexAiLLMModel) *agent.Agent {
	clock := &tools.Clock{Now: func() time.Time { return time.Date(2024, time.June, 1, 20, 0, 0, 0, time.UTC) }}
	return agent.New(test.NewTestAgentModel(script), tools.NewRegistry(clock), settings)
}

func TestCompleteText(t *testing.T) {
	script := test.NewScriptedModel(test.TextResponse("A cozy evening calls for documentaries."))
	a := newAgent(script, cloud.VertexAiLLMModel{})

	result, err := a.Complete(context.Background(), "Describe bob")
	require.NoError(t, err)
	assert.Equal(t, "A cozy evening calls for documentaries.", result.Text)
	assert.Equal(t, model.TokenUsage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}, result.Usage)
	assert.Empty(t, result.ToolsUsed)
	assert.Equal(t, 2, a.WindowLen())

	require.Equal(t, 1, script.CallCount())
	assert.NotEmpty(t, script.Calls[0].Config.Tools)
}

func TestCompleteRunsToolLoop(t *testing.T) {
	script := test.NewScriptedModel(
		test.FunctionCallResponse(tools.ClockToolName, map[string]any{}),
		test.TextResponse("It is Saturday night."),
	)
	a := newAgent(script, cloud.VertexAiLLMModel{IncludeToolResultStatus: true})

	result, err := a.Complete(context.Background(), "What should I watch tonight?")
	require.NoError(t, err)
	assert.Equal(t, "It is Saturday night.", result.Text)
	assert.Equal(t, []string{tools.ClockToolName}, result.ToolsUsed)
	assert.Equal(t, int32(25), result.Usage.TotalTokens)

	require.Equal(t, 2, script.CallCount())
	second := script.Calls[1].Contents
	require.Len(t, second, 3)
	assert.Equal(t, cloud.RoleUser, second[0].Role)
	assert.Equal(t, cloud.RoleModel, second[1].Role)
	response := second[2].Parts[0].FunctionResponse
	require.NotNil(t, response)
	assert.Equal(t, tools.ClockToolName+"-call", response.ID)
	assert.Equal(t, "2024-06-01T20:00:00Z", response.Response["current_time"])
	assert.Equal(t, "success", response.Response["status"])

	// user prompt, function call, function response, final answer
	assert.Equal(t, 4, a.WindowLen())
}

func TestCompleteReportsToolErrorsToModel(t *testing.T) {
	script := test.NewScriptedModel(
		test.FunctionCallResponse("weather", map[string]any{"city": "Paris"}),
		test.TextResponse("No weather available."),
	)
	a := newAgent(script, cloud.VertexAiLLMModel{})

	result, err := a.Complete(context.Background(), "Is it raining?")
	require.NoError(t, err)
	assert.Equal(t, "No weather available.", result.Text)

	response := script.Calls[1].Contents[2].Parts[0].FunctionResponse
	require.NotNil(t, response)
	assert.Contains(t, response.Response["error"], "unknown tool")
	_, hasStatus := response.Response["status"]
	assert.False(t, hasStatus)
}

func TestCompleteStopsOfferingToolsAfterMaxRounds(t *testing.T) {
	script := test.NewScriptedModel(
		test.FunctionCallResponse(tools.ClockToolName, nil),
		test.TextResponse("Final answer."),
	)
	a := newAgent(script, cloud.VertexAiLLMModel{MaxToolRounds: 1})

	result, err := a.Complete(context.Background(), "Recommend something")
	require.NoError(t, err)
	assert.Equal(t, "Final answer.", result.Text)
	require.Equal(t, 2, script.CallCount())
	assert.NotEmpty(t, script.Calls[0].Config.Tools)
	assert.Empty(t, script.Calls[1].Config.Tools)
}

func TestCompleteFailureLeavesWindowUntouched(t *testing.T) {
	script := test.NewScriptedModel(test.TextResponse("first")).Fail(errors.New("quota exhausted"))
	a := newAgent(script, cloud.VertexAiLLMModel{})

	_, err := a.Complete(context.Background(), "one")
	require.NoError(t, err)
	_, err = a.Complete(context.Background(), "two")
	assert.ErrorContains(t, err, "quota exhausted")
	assert.Equal(t, 2, a.WindowLen())
}

func TestCompleteSendsHistory(t *testing.T) {
	script := test.NewScriptedModel(test.TextResponse("first"), test.TextResponse("second"))
	a := newAgent(script, cloud.VertexAiLLMModel{})

	_, err := a.Complete(context.Background(), "one")
	require.NoError(t, err)
	_, err = a.Complete(context.Background(), "two")
	require.NoError(t, err)

	contents := script.Calls[1].Contents
	require.Len(t, contents, 3)
	assert.Equal(t, "one", contents[0].Parts[0].Text)
	assert.Equal(t, "first", contents[1].Parts[0].Text)
	assert.Equal(t, "two", contents[2].Parts[0].Text)

	a.Reset()
	assert.Equal(t, 0, a.WindowLen())
}

func TestWindowStaysBounded(t *testing.T) {
	script := test.NewScriptedModel()
	for i := 0; i < 25; i++ {
		script.Reply(test.TextResponse(fmt.Sprintf("answer %d", i)))
	}
	a := newAgent(script, cloud.VertexAiLLMModel{WindowSize: 20})

	for i := 0; i < 25; i++ {
		_, err := a.Complete(context.Background(), fmt.Sprintf("question %d", i))
		require.NoError(t, err)
	}
	assert.LessOrEqual(t, a.WindowLen(), 20)

	last := script.Calls[24].Contents
	assert.Equal(t, cloud.RoleUser, last[0].Role)
	assert.Equal(t, "question 14", last[0].Parts[0].Text)
}

func TestWindowDropsOrphanedToolMessages(t *testing.T) {
	w := agent.NewConversationWindow(5)
	w.Append(
		cloud.NewTextContent(cloud.RoleUser, "question"),
		&genai.Content{Role: cloud.RoleModel, Parts: []*genai.Part{{FunctionCall: &genai.FunctionCall{Name: "current_time"}}}},
		&genai.Content{Role: cloud.RoleUser, Parts: []*genai.Part{{FunctionResponse: &genai.FunctionResponse{Name: "current_time"}}}},
		cloud.NewTextContent(cloud.RoleModel, "answer"),
	)
	require.Equal(t, 4, w.Len())

	w.Append(cloud.NewTextContent(cloud.RoleUser, "again"), cloud.NewTextContent(cloud.RoleModel, "sure"))
	require.Equal(t, 2, w.Len())
	assert.Equal(t, "again", w.Messages()[0].Parts[0].Text)

	assert.Equal(t, agent.DefaultWindowSize, agent.NewConversationWindow(0).Size())
}

func TestWindowKeepsOversizedTurnWhole(t *testing.T) {
	w := agent.NewConversationWindow(3)
	w.Append(cloud.NewTextContent(cloud.RoleUser, "earlier"), cloud.NewTextContent(cloud.RoleModel, "reply"))
	w.Append(
		cloud.NewTextContent(cloud.RoleUser, "question"),
		&genai.Content{Role: cloud.RoleModel, Parts: []*genai.Part{{FunctionCall: &genai.FunctionCall{Name: "current_time"}}}},
		&genai.Content{Role: cloud.RoleUser, Parts: []*genai.Part{{FunctionResponse: &genai.FunctionResponse{Name: "current_time"}}}},
		cloud.NewTextContent(cloud.RoleModel, "answer"),
	)
	require.Equal(t, 4, w.Len())
	assert.Equal(t, "question", w.Messages()[0].Parts[0].Text)
	assert.Equal(t, "answer", w.Messages()[3].Parts[0].Text)

	w.Append(cloud.NewTextContent(cloud.RoleUser, "next"), cloud.NewTextContent(cloud.RoleModel, "ok"))
	require.Equal(t, 2, w.Len())
	assert.Equal(t, "next", w.Messages()[0].Parts[0].Text)
}

func TestExtractRecommendations(t *testing.T) {
	fenced := "```json\n" + model.GetExampleRecommendationJSON() + "\n```"
	script := test.NewScriptedModel(test.TextResponse(fenced))
	a := newAgent(script, cloud.VertexAiLLMModel{})

	list, usage, err := a.ExtractRecommendations(context.Background(), "Watch Planet Earth II and the Baking Show.")
	require.NoError(t, err)
	require.Len(t, list.Recommendations, 2)
	assert.Equal(t, "Planet Earth II", list.Recommendations[0].Title)
	assert.Equal(t, int32(15), usage.TotalTokens)

	config := script.Calls[0].Config
	assert.Equal(t, "application/json", config.ResponseMIMEType)
	assert.NotNil(t, config.ResponseSchema)
	assert.Empty(t, config.Tools)
	assert.Equal(t, 0, a.WindowLen())
}

func TestExtractRecommendationsRejectsIncompleteItems(t *testing.T) {
	script := test.NewScriptedModel(test.TextResponse(`{"recommendations": [{"title": "Dune"}]}`))
	a := newAgent(script, cloud.VertexAiLLMModel{})

	_, _, err := a.ExtractRecommendations(context.Background(), "Dune")
	var ve *model.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "recommendations[0].streaming_platform", ve.Field)
}

func TestHealthCheck(t *testing.T) {
	script := test.NewScriptedModel(test.TextResponse("Healthy"))
	a := newAgent(script, cloud.VertexAiLLMModel{Temperature: 0.4, CacheTools: true})

	health := a.HealthCheck(context.Background())
	assert.True(t, health.Healthy)
	assert.Equal(t, "gemini-test", health.Model)
	assert.Equal(t, float32(0.4), health.Temperature)
	assert.True(t, health.CacheTools)
	assert.Equal(t, int32(15), health.TotalTokens)
	assert.Empty(t, health.Error)
	assert.Equal(t, agent.HealthPrompt, script.Calls[0].Contents[0].Parts[0].Text)
	assert.Equal(t, 0, a.WindowLen())

	for reply, healthy := range map[string]bool{
		"healthy.":                       true,
		"Status: HEALTHY":                true,
		"I can't help with that request": false,
		"Unhealthy":                      false,
	} {
		health = newAgent(test.NewScriptedModel(test.TextResponse(reply)), cloud.VertexAiLLMModel{}).HealthCheck(context.Background())
		assert.Equal(t, healthy, health.Healthy, reply)
		assert.Equal(t, healthy, health.Error == "", reply)
	}

	failing := newAgent(test.NewScriptedModel().Fail(errors.New("unavailable")), cloud.VertexAiLLMModel{})
	health = failing.HealthCheck(context.Background())
	assert.False(t, health.Healthy)
	assert.Contains(t, health.Error, "unavailable")
}
