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

package agent

import "google.golang.org/genai"

// RecommendationListSchema is the response schema used when extracting a
// RecommendationList from free text.
func RecommendationListSchema() *genai.Schema {
	str := func(description string) *genai.Schema {
		return &genai.Schema{Type: genai.TypeString, Description: description}
	}
	item := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title":              str("Title of the movie or show."),
			"preview_keyframe":   str("Optional image URL representing the title."),
			"streaming_platform": str("Platform on which the title can be watched."),
			"url":                str("Link to the title on the platform."),
			"reason":             str("Why the title is recommended."),
			"liked":              {Type: genai.TypeBoolean},
		},
		PropertyOrdering: []string{"title", "preview_keyframe", "streaming_platform", "url", "reason", "liked"},
		Required:         []string{"title", "streaming_platform", "url", "reason"},
	}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"recommendations": {Type: genai.TypeArray, Items: item},
		},
		Required: []string{"recommendations"},
	}
}
