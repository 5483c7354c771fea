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

// Package tools holds the functions the recommendation agent may call while
// answering: a clock and two web search adapters. Each tool describes itself
// as a Gemini function declaration and is invoked with the decoded arguments
// of a function call.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jaycherian/gcp-go-media-recommender/internal/cloud"
	"google.golang.org/genai"
)

var (
	// ErrEmptyQuery is returned before any network call when the query is blank.
	ErrEmptyQuery = errors.New("search query must not be empty")
	// ErrMissingAPIKey is returned when an adapter has no credential.
	ErrMissingAPIKey = errors.New("search api key is not configured")
	// ErrUnknownTool is returned by a Registry for an undeclared function name.
	ErrUnknownTool = errors.New("unknown tool")
)

// Tool is a function the agent can call.
type Tool interface {
	// Name is the function name declared to the model.
	Name() string
	// Declaration describes the function and its parameters.
	Declaration() *genai.FunctionDeclaration
	// Invoke runs the tool. The returned map becomes the function response.
	Invoke(ctx context.Context, args map[string]any) (map[string]any, error)
}

// Registry is an ordered set of tools addressable by name.
type Registry struct {
	ordered []Tool
	byName  map[string]Tool
}

// NewRegistry indexes tools by name. Later tools replace earlier ones with the
// same name.
func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{byName: make(map[string]Tool)}
	for _, t := range tools {
		if _, exists := r.byName[t.Name()]; !exists {
			r.ordered = append(r.ordered, t)
		}
		r.byName[t.Name()] = t
	}
	return r
}

// Lookup returns the tool registered under name.
func (r *Registry) Lookup(name string) (Tool, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// Len is the number of registered tools.
func (r *Registry) Len() int {
	return len(r.ordered)
}

// GenAITools wraps every declaration into a single genai.Tool, the shape
// expected by GenerateContentConfig.Tools.
func (r *Registry) GenAITools() []*genai.Tool {
	if len(r.ordered) == 0 {
		return nil
	}
	declarations := make([]*genai.FunctionDeclaration, 0, len(r.ordered))
	for _, t := range r.ordered {
		declarations = append(declarations, t.Declaration())
	}
	return []*genai.Tool{{FunctionDeclarations: declarations}}
}

// Invoke dispatches a call by name.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]any) (map[string]any, error) {
	t, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return t.Invoke(ctx, args)
}

// Credentials is the JSON payload of the search secret.
type Credentials struct {
	SerperAPIKey string `json:"serper_api_key"`
	TavilyAPIKey string `json:"tavily_api_key"`
}

// LoadCredentials reads and decodes the search secret once. A missing secret
// or an empty key is an error so the server can refuse to start.
//
// Inputs:
//   - ctx: The startup context.
//   - secrets: Where the secret lives.
//   - name: The secret name, e.g. PersonalizedRecommendationAgent.
//
// Outputs:
//   - *Credentials: Both keys.
//   - error: Any lookup or decode error, or ErrMissingAPIKey.
func LoadCredentials(ctx context.Context, secrets cloud.SecretSource, name string) (*Credentials, error) {
	payload, err := secrets.Secret(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("loading search credentials: %w", err)
	}
	creds := &Credentials{}
	if err := json.Unmarshal(payload, creds); err != nil {
		return nil, fmt.Errorf("decoding search credentials %s: %w", name, err)
	}
	if strings.TrimSpace(creds.SerperAPIKey) == "" {
		return nil, fmt.Errorf("%w: serper_api_key", ErrMissingAPIKey)
	}
	if strings.TrimSpace(creds.TavilyAPIKey) == "" {
		return nil, fmt.Errorf("%w: tavily_api_key", ErrMissingAPIKey)
	}
	return creds, nil
}

// NewDefaultRegistry builds the clock and both search adapters from
// configuration and credentials.
func NewDefaultRegistry(config cloud.Search, creds *Credentials) *Registry {
	return NewRegistry(
		NewClock(),
		NewWebSearch(config, creds.SerperAPIKey),
		NewCuratedSearch(config, creds.TavilyAPIKey),
	)
}

// searchArgs extracts the common query and target_site arguments.
func searchArgs(args map[string]any) (query string, targetSite string) {
	query, _ = args["query"].(string)
	targetSite, _ = args["target_site"].(string)
	return query, targetSite
}

func searchDeclaration(name string, description string) *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        name,
		Description: description,
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"query": {
					Type:        genai.TypeString,
					Description: "The search query.",
				},
				"target_site": {
					Type:        genai.TypeString,
					Description: "Optional domain to restrict results to, e.g. netflix.com.",
				},
			},
			Required: []string{"query"},
		},
	}
}
