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

// Package model defines the data structures for the application. This file,
// `examples.go`, provides hardcoded example records.
//
// The examples are placed into the recommend and chat prompts as "few-shot"
// guidance so the model answers with the same JSON structure that
// ParseRecommendationList expects.
package model

import "encoding/json"

// GetExampleRecommendationList creates a sample two item RecommendationList.
//
// Outputs:
//   - *RecommendationList: A pointer to a hardcoded list.
func GetExampleRecommendationList() *RecommendationList {
	return &RecommendationList{
		Recommendations: []Recommendation{
			{
				Title:             "Planet Earth II",
				PreviewKeyframe:   "https://example.com/keyframes/planet-earth-ii.jpg",
				StreamingPlatform: "Max",
				URL:               "https://www.max.com/shows/planet-earth-ii",
				Reason:            "A visually stunning nature documentary that matches a preference for awe-inspiring factual series.",
				Liked:             true,
			},
			{
				Title:             "The Great British Baking Show",
				PreviewKeyframe:   "",
				StreamingPlatform: "Netflix",
				URL:               "https://www.netflix.com/title/80063224",
				Reason:            "Gentle, feel-good reality competition suited to a relaxed evening with family.",
				Liked:             true,
			},
		},
	}
}

// GetExampleRecommendationJSON renders the example list as indented JSON for
// use inside prompt templates.
func GetExampleRecommendationJSON() string {
	out, err := json.MarshalIndent(GetExampleRecommendationList(), "", "  ")
	if err != nil {
		return "{}"
	}
	return string(out)
}
