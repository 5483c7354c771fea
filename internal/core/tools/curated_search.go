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

// Curated search (Tavily) constants.
const (
	CuratedSearchToolName   = "tavily_ai_search"
	DefaultCuratedSearchURL = "https://api.tavily.com/search"
	DefaultSearchDepth      = "advanced"
	DefaultMaxResults       = 3
)

// curatedSearchRequest is the Tavily request body.
type curatedSearchRequest struct {
	APIKey            string   `json:"api_key"`
	Query             string   `json:"query"`
	SearchDepth       string   `json:"search_depth"`
	IncludeImages     bool     `json:"include_images"`
	IncludeAnswer     bool     `json:"include_answer"`
	IncludeRawContent bool     `json:"include_raw_content"`
	MaxResults        int      `json:"max_results"`
	IncludeDomains    []string `json:"include_domains"`
	ExcludeDomains    []string `json:"exclude_domains"`
}

// CuratedSearch queries the Tavily API. It suits specific queries such as a
// single title's availability.
type CuratedSearch struct {
	url         string
	apiKey      string
	searchDepth string
	maxResults  int
	client      *searchClient
}

// NewCuratedSearch creates the adapter. Empty config values fall back to the
// Tavily endpoint, "advanced" depth and three results.
func NewCuratedSearch(config cloud.Search, apiKey string) *CuratedSearch {
	out := &CuratedSearch{
		url:         config.CuratedSearchURL,
		apiKey:      apiKey,
		searchDepth: config.SearchDepth,
		maxResults:  config.MaxResults,
		client:      newSearchClient(CuratedSearchToolName, config),
	}
	if out.url == "" {
		out.url = DefaultCuratedSearchURL
	}
	if out.searchDepth == "" {
		out.searchDepth = DefaultSearchDepth
	}
	if out.maxResults <= 0 {
		out.maxResults = DefaultMaxResults
	}
	return out
}

// Search runs one query, restricted to targetSite when it is set.
//
// Inputs:
//   - ctx: The request context.
//   - query: The search text.
//   - targetSite: Optional domain filter.
//
// Outputs:
//   - string: The raw provider response, empty on any provider failure.
//   - error: ErrEmptyQuery or ErrMissingAPIKey, both raised before network I/O.
func (c *CuratedSearch) Search(ctx context.Context, query string, targetSite string) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", ErrEmptyQuery
	}
	if c.apiKey == "" {
		return "", ErrMissingAPIKey
	}
	domains := []string{}
	if targetSite != "" {
		domains = []string{targetSite}
	}
	payload, err := json.Marshal(curatedSearchRequest{
		APIKey:         c.apiKey,
		Query:          query,
		SearchDepth:    c.searchDepth,
		MaxResults:     c.maxResults,
		IncludeDomains: domains,
		ExcludeDomains: []string{},
	})
	if err != nil {
		return "", fmt.Errorf("encoding curated search request: %w", err)
	}
	return c.client.post(ctx, c.url, nil, payload), nil
}

func (c *CuratedSearch) Name() string {
	return CuratedSearchToolName
}

func (c *CuratedSearch) Declaration() *genai.FunctionDeclaration {
	return searchDeclaration(CuratedSearchToolName,
		"Runs a focused web search for specific questions about a title, such as its platform, rating or release date.")
}

func (c *CuratedSearch) Invoke(ctx context.Context, args map[string]any) (map[string]any, error) {
	query, targetSite := searchArgs(args)
	result, err := c.Search(ctx, query, targetSite)
	if err != nil {
		return nil, err
	}
	return map[string]any{"result": result}, nil
}
