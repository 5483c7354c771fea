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

package test

import (
	"context"
	"errors"
	"sync"

	"github.com/jaycherian/gcp-go-media-recommender/internal/cloud"
	"google.golang.org/genai"
)

// ErrScriptExhausted is returned by ScriptedModel once every scripted reply
// has been used.
var ErrScriptExhausted = errors.New("scripted model has no more responses")

// ModelCall records one request received by a ScriptedModel.
type ModelCall struct {
	Model    string
	Contents []*genai.Content
	Config   *genai.GenerateContentConfig
}

// ScriptedModel is a cloud.ModelHandle that replays canned responses in order.
type ScriptedModel struct {
	mu        sync.Mutex
	responses []*genai.GenerateContentResponse
	errs      []error
	Calls     []ModelCall
}

var _ cloud.ModelHandle = (*ScriptedModel)(nil)

// NewScriptedModel queues the given responses.
func NewScriptedModel(responses ...*genai.GenerateContentResponse) *ScriptedModel {
	return &ScriptedModel{responses: responses, errs: make([]error, len(responses))}
}

// Fail queues an error reply.
func (m *ScriptedModel) Fail(err error) *ScriptedModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, nil)
	m.errs = append(m.errs, err)
	return m
}

// Reply queues a response.
func (m *ScriptedModel) Reply(resp *genai.GenerateContentResponse) *ScriptedModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp)
	m.errs = append(m.errs, nil)
	return m
}

func (m *ScriptedModel) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := make([]*genai.Content, len(contents))
	copy(snapshot, contents)
	m.Calls = append(m.Calls, ModelCall{Model: model, Contents: snapshot, Config: config})
	if len(m.responses) == 0 {
		return nil, ErrScriptExhausted
	}
	resp, err := m.responses[0], m.errs[0]
	m.responses, m.errs = m.responses[1:], m.errs[1:]
	return resp, err
}

// CallCount returns the number of requests received so far.
func (m *ScriptedModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// TextResponse builds a single candidate text reply with usage metadata.
func TextResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: cloud.RoleModel, Parts: []*genai.Part{{Text: text}}},
		}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     10,
			CandidatesTokenCount: 5,
			TotalTokenCount:      15,
		},
	}
}

// FunctionCallResponse builds a reply asking for one tool invocation.
func FunctionCallResponse(name string, args map[string]any) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: cloud.RoleModel, Parts: []*genai.Part{{
				FunctionCall: &genai.FunctionCall{ID: name + "-call", Name: name, Args: args},
			}}},
		}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     8,
			CandidatesTokenCount: 2,
			TotalTokenCount:      10,
		},
	}
}

// NewTestAgentModel wraps handle in a quota aware model with a generous rate
// and no retry delay.
func NewTestAgentModel(handle cloud.ModelHandle) *cloud.QuotaAwareGenerativeAIModel {
	model := cloud.NewQuotaAwareModel(&genai.GenerateContentConfig{Temperature: genai.Ptr[float32](0.2)}, "gemini-test", handle, 100)
	model.MaxRetries = 0
	model.RetryDelay = 0
	return model
}
