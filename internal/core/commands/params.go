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

// Package commands provides the concrete implementations of the Chain of
// Responsibility (COR) pattern's Command interface for the recommendation
// pipeline. This file names the context keys the commands share.
package commands

// Context keys. The pipeline passes values by name rather than through the
// CtxIn/CtxOut pipe because most steps read more than one earlier result.
const (
	ParamProfile         = "__PROFILE__"         // *model.ViewerProfile selected for a describe request.
	ParamSections        = "__SECTIONS__"        // []string of section names to include.
	ParamViewerContext   = "viewer_information"  // model.ViewerContext built from the profile.
	ParamDescription     = "description"         // Viewer description text.
	ParamCount           = "count"               // Number of recommendations requested.
	ParamRawHistory      = "__RAW_HISTORY__"     // []map[string]any chat transcript as sent by the client.
	ParamHistory         = "history"             // []model.ChatMessage after cleaning.
	ParamPrompt          = "__PROMPT__"          // Rendered prompt text.
	ParamCompletion      = "__COMPLETION__"      // *agent.Result of the completion step.
	ParamRecommendations = "__RECOMMENDATIONS__" // *model.GeneratedRecommendations.
	ParamUsername        = "__USERNAME__"        // Optional viewer the recommendations belong to.
	ParamRequestId       = "__REQUEST_ID__"      // Identifier of the request, used by the ledger.
	ParamSource          = "__SOURCE__"          // "recommend" or "chat".
	ParamExample         = "example"             // Example recommendation JSON, added to every prompt.
)

// Values stored under ParamSource.
const (
	SourceRecommend = "recommend"
	SourceChat      = "chat"
)
