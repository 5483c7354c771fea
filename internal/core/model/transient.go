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

// Package model defines the core data structures for the application.
// This file, `transient.go`, contains structures that only live in memory
// while a request moves through a workflow. None of them are written to the
// profile document.
package model

import (
	"strings"
	"time"
)

// Section names accepted by the describe pipeline. Each maps onto one key of
// the viewer context handed to the agent.
const (
	SectionDemographics       = "Demographics"
	SectionViewingPreferences = "Viewing Preferences"
	SectionPersonalFavorites  = "Personal Favorites"
	SectionCurrentConditions  = "Current Conditions"
	SectionViewingHistory     = "Viewing History"
)

// AllSections lists every section in display order.
var AllSections = []string{
	SectionDemographics,
	SectionViewingPreferences,
	SectionPersonalFavorites,
	SectionCurrentConditions,
	SectionViewingHistory,
}

// ViewerContext is the subset of a profile selected for a describe request,
// keyed by `demographic_information`, `viewing_preferences`,
// `personal_favorites`, `current_conditions` and `viewing_history`.
type ViewerContext map[string]any

// NewViewerContext copies the chosen sections of a profile. Unknown section
// names are skipped, and an empty selection produces an empty context.
func NewViewerContext(profile *ViewerProfile, sections []string) ViewerContext {
	out := ViewerContext{}
	for _, section := range sections {
		switch section {
		case SectionDemographics:
			out["demographic_information"] = profile.DemographicInformation
		case SectionViewingPreferences:
			out["viewing_preferences"] = profile.ViewingPreferences
		case SectionPersonalFavorites:
			out["personal_favorites"] = profile.PersonalFavorites
		case SectionCurrentConditions:
			out["current_conditions"] = profile.CurrentConditions
		case SectionViewingHistory:
			out["viewing_history"] = profile.ViewingHistory
		}
	}
	return out
}

// ChatMessage is one turn of a client-side chat transcript after cleaning.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TokenUsage carries the token counters reported by the model.
type TokenUsage struct {
	InputTokens  int32 `json:"input_tokens"`
	OutputTokens int32 `json:"output_tokens"`
	TotalTokens  int32 `json:"total_tokens"`
}

// Add accumulates another usage report.
func (u *TokenUsage) Add(other TokenUsage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.TotalTokens += other.TotalTokens
}

// InvalidDescriptionMessage is returned instead of recommendations when the
// viewer description is unusable.
const InvalidDescriptionMessage = "No valid viewer description available for recommendations."

// IsUsableDescription reports whether a description can seed a recommend
// request. An empty text or one that mentions an error is rejected.
func IsUsableDescription(description string) bool {
	trimmed := strings.TrimSpace(description)
	return trimmed != "" && !strings.Contains(strings.ToLower(trimmed), "error")
}

// GeneratedRecommendations is the outcome of a recommend or chat request.
// When the agent's answer could not be structured, Degraded is true and
// RawText holds the unstructured answer.
type GeneratedRecommendations struct {
	Recommendations []Recommendation `json:"recommendations"`
	RawText         string           `json:"raw_text,omitempty"`
	Degraded        bool             `json:"degraded"`
	Usage           TokenUsage       `json:"usage"`
	ToolsUsed       []string         `json:"tools_used,omitempty"`
}

// RecommendationLedgerRow is a flattened generated recommendation written to
// the optional BigQuery ledger.
type RecommendationLedgerRow struct {
	RequestId         string    `bigquery:"request_id"`
	Username          string    `bigquery:"username"`
	Source            string    `bigquery:"source"`
	Position          int       `bigquery:"position"`
	Title             string    `bigquery:"title"`
	StreamingPlatform string    `bigquery:"streaming_platform"`
	URL               string    `bigquery:"url"`
	Reason            string    `bigquery:"reason"`
	CreateDate        time.Time `bigquery:"create_date"`
}
