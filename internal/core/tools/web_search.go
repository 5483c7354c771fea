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

package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jaycherian/gcp-go-media-recommender/internal/cloud"
	"google.golang.org/genai"
)

// Web search (Serper) constants.
const (
	WebSearchToolName   = "google_search"
	DefaultWebSearchURL = "https://google.serper.dev/search"
)

// WebSearch queries Google through the Serper API. It suits broad queries
// such as "new sci-fi series this month".
type WebSearch struct {
	url    string
	apiKey string
	client *searchClient
}

// NewWebSearch creates the adapter. An empty URL in config uses Serper.
func NewWebSearch(config cloud.Search, apiKey string) *WebSearch {
	url := config.WebSearchURL
	if url == "" {
		url = DefaultWebSearchURL
	}
	return &WebSearch{url: url, apiKey: apiKey, client: newSearchClient(WebSearchToolName, config)}
}

// Search runs one query. When targetSite is set the query is restricted with
// a `site:` operator.
//
// Inputs:
//   - ctx: The request context.
//   - query: The search text.
//   - targetSite: Optional domain filter.
//
// Outputs:
//   - string: The raw provider response, empty on any provider failure.
//   - error: ErrEmptyQuery or ErrMissingAPIKey, both raised before network I/O.
func (w *WebSearch) Search(ctx context.Context, query string, targetSite string) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", ErrEmptyQuery
	}
	if w.apiKey == "" {
		return "", ErrMissingAPIKey
	}
	q := query
	if targetSite != "" {
		q = fmt.Sprintf("%s site:%s", query, targetSite)
	}
	payload, err := json.Marshal(map[string]string{"q": q})
	if err != nil {
		return "", fmt.Errorf("encoding web search request: %w", err)
	}
	return w.client.post(ctx, w.url, map[string]string{"X-API-KEY": w.apiKey}, payload), nil
}

func (w *WebSearch) Name() string {
	return WebSearchToolName
}

func (w *WebSearch) Declaration() *genai.FunctionDeclaration {
	return searchDeclaration(WebSearchToolName,
		"Searches Google for broad or general queries about movies, shows and where they stream.")
}

func (w *WebSearch) Invoke(ctx context.Context, args map[string]any) (map[string]any, error) {
	query, targetSite := searchArgs(args)
	result, err := w.Search(ctx, query, targetSite)
	if err != nil {
		return nil, err
	}
	return map[string]any{"result": result}, nil
}
