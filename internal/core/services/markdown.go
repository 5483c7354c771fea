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
// This file renders recommendation lists as markdown for chat style clients.
package services

import (
	"fmt"
	"strings"

	"github.com/jaycherian/gcp-go-media-recommender/internal/core/model"
)

// FormatRecommendationsMarkdown renders one section per recommendation with a
// horizontal rule after each.
func FormatRecommendationsMarkdown(recommendations []model.Recommendation) string {
	var sb strings.Builder
	for _, r := range recommendations {
		fmt.Fprintf(&sb, "## %s\n\n**Available on:** %s  \n**Link:** [Watch here](%s)  \n**Why Recommended:** %s  \n\n---\n\n",
			r.Title, r.StreamingPlatform, r.URL, r.Reason)
	}
	return sb.String()
}

// FormatChatMarkdown renders chat answers, which describe the title rather
// than justify it.
func FormatChatMarkdown(recommendations []model.Recommendation) string {
	var sb strings.Builder
	for _, r := range recommendations {
		fmt.Fprintf(&sb, "## %s\n\n**Available on:** %s  \n**Link:** [Watch here](%s)  \n**Description:** %s  \n\n",
			r.Title, r.StreamingPlatform, r.URL, r.Reason)
	}
	return sb.String()
}

// Markdown renders a generated result. A degraded result is returned as its
// raw text.
func Markdown(generated *model.GeneratedRecommendations, chat bool) string {
	if generated.Degraded {
		return generated.RawText
	}
	if chat {
		return FormatChatMarkdown(generated.Recommendations)
	}
	return FormatRecommendationsMarkdown(generated.Recommendations)
}
