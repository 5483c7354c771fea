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

// Package cloud defines the data structures for application configuration,
// loaded from TOML files. It provides a structured way to manage settings
// for the recommendation agent, the search tools, storage locations and
// prompt templates.
//
// Structs:
//   - BigQueryDataSource: Configuration for the optional recommendation ledger.
//   - PromptTemplates: Holds the text templates for prompts sent to the agent.
//   - VertexAiLLMModel: Configuration for a Vertex AI Large Language Model (LLM).
//   - Search: Configuration for the web and curated search tools.
//   - Storage: Locations of the profile document and generic catalog.
//   - Config: The top-level struct that aggregates all other configuration structs.
package cloud

import "google.golang.org/genai"

// DefaultSafetySettings defines the default content safety thresholds for GenAI models.
// Recommendations routinely discuss mature titles (horror, crime, war), so the
// thresholds block only high-probability harm.
var DefaultSafetySettings = []*genai.SafetySetting{
	{
		Category:  genai.HarmCategoryDangerousContent,
		Threshold: genai.HarmBlockThresholdBlockOnlyHigh,
	},
	{
		Category:  genai.HarmCategoryHarassment,
		Threshold: genai.HarmBlockThresholdBlockOnlyHigh,
	},
	{
		Category:  genai.HarmCategoryHateSpeech,
		Threshold: genai.HarmBlockThresholdBlockOnlyHigh,
	},
	{
		Category:  genai.HarmCategorySexuallyExplicit,
		Threshold: genai.HarmBlockThresholdBlockOnlyHigh,
	},
}

// BigQueryDataSource represents the configuration for the recommendation ledger.
// An empty dataset disables the ledger.
type BigQueryDataSource struct {
	DatasetName         string `toml:"dataset"`              // The name of the BigQuery dataset.
	RecommendationTable string `toml:"recommendation_table"` // The table receiving one row per generated recommendation.
}

// Enabled reports whether both the dataset and table are configured.
func (b BigQueryDataSource) Enabled() bool {
	return b.DatasetName != "" && b.RecommendationTable != ""
}

// PromptTemplates holds the text/template sources for the three agent prompts.
type PromptTemplates struct {
	DescribePrompt  string `toml:"describe"`  // Turns a viewer context into a natural language description.
	RecommendPrompt string `toml:"recommend"` // Turns a description into a recommendation list.
	ChatPrompt      string `toml:"chat"`      // Turns a chat transcript into a recommendation list.
}

// VertexAiLLMModel represents the configuration for a Vertex AI large language model (LLM).
type VertexAiLLMModel struct {
	Model                   string  `toml:"model"`                      // The name of the Vertex AI LLM.
	SystemInstructions      string  `toml:"system_instructions"`        // The system instructions for the LLM.
	Temperature             float32 `toml:"temperature"`                // The temperature parameter for the LLM.
	TopP                    float32 `toml:"top_p"`                      // The top_p parameter for the LLM.
	TopK                    float32 `toml:"top_k"`                      // The top_k parameter for the LLM.
	MaxTokens               int32   `toml:"max_tokens"`                 // The maximum number of tokens for the LLM output.
	RateLimit               int     `toml:"rate_limit"`                 // The rate limit for the LLM in requests per second.
	MaxRetries              *int    `toml:"max_retries"`                // Retries after a failed generation call; unset keeps the wrapper default, 0 disables.
	WindowSize              int     `toml:"window_size"`                // Messages kept in the sliding conversation window.
	MaxToolRounds           int     `toml:"max_tool_rounds"`            // Upper bound on function-call round trips per request.
	CachePrompt             bool    `toml:"cache_prompt"`               // Reported by the health check.
	CacheTools              bool    `toml:"cache_tools"`                // Reported by the health check.
	Streaming               bool    `toml:"streaming"`                  // Reported by the health check.
	IncludeToolResultStatus bool    `toml:"include_tool_result_status"` // Adds a status field to each tool response.
}

// Search represents the configuration for the two search tools.
type Search struct {
	SecretName        string `toml:"secret_name"`         // Secret holding serper_api_key and tavily_api_key.
	SecretProvider    string `toml:"secret_provider"`     // "secret_manager" or "env".
	WebSearchURL      string `toml:"web_search_url"`      // Serper endpoint.
	CuratedSearchURL  string `toml:"curated_search_url"`  // Tavily endpoint.
	TimeoutInSeconds  int    `toml:"timeout_in_seconds"`  // Per request timeout.
	SearchDepth       string `toml:"search_depth"`        // Tavily search depth.
	MaxResults        int    `toml:"max_results"`         // Tavily result count.
	BreakerMaxFailure int    `toml:"breaker_max_failure"` // Consecutive failures that open a circuit breaker.
	BreakerOpenSecs   int    `toml:"breaker_open_secs"`   // Seconds a breaker stays open.
}

// Storage represents the configuration for persisted data.
type Storage struct {
	ProfilesPath    string `toml:"profiles_path"`    // Local path of the profile document.
	CatalogLocation string `toml:"catalog_location"` // Local path or gs://bucket/object of the generic catalog.
}

// Config represents the overall configuration for the application, loaded from TOML files.
// It acts as the root container for all other configuration structs.
type Config struct {
	// Application holds general application settings.
	Application struct {
		Name                   string `toml:"name"`                    // The name of the application.
		GoogleProjectId        string `toml:"google_project_id"`       // The Google Cloud project ID.
		GoogleLocation         string `toml:"location"`                // The Google Cloud location.
		ListenAddress          string `toml:"listen_address"`          // Address the HTTP server binds to.
		AgentModel             string `toml:"agent_model"`             // Key into AgentModels used by the pipeline.
		RequestTimeoutSeconds  int    `toml:"request_timeout_seconds"` // Upper bound for a single API request.
		AllowedOrigins         string `toml:"allowed_origins"`         // CORS origin, "*" for any.
		MaxChatSessions        int    `toml:"max_chat_sessions"`       // Chat sessions kept in memory.
		GenericRecommendations int    `toml:"generic_recommendations"` // Default sample size for generic recommendations.
		DefaultRecommendations int    `toml:"default_recommendations"` // Default count when a request omits one.
		PersistRecommendations bool   `toml:"persist_recommendations"` // Save generated recommendations onto the profile.
		ExportTelemetry        bool   `toml:"export_telemetry"`        // Send traces and metrics to Cloud Trace and Cloud Monitoring.
	} `toml:"application"`
	Storage            Storage                     `toml:"storage"`               // Storage configuration.
	Search             Search                      `toml:"search"`                // Search tool configuration.
	BigQueryDataSource BigQueryDataSource          `toml:"big_query_data_source"` // BigQuery ledger configuration.
	PromptTemplates    PromptTemplates             `toml:"prompt_templates"`      // Prompt templates configuration.
	AgentModels        map[string]VertexAiLLMModel `toml:"agent_models"`          // A map of Vertex AI LLM models, keyed by a logical name (e.g., "recommender").
}

// NewConfig is a constructor function that creates a new, initialized Config instance.
// The map is initialized so that the TOML decoder can populate it.
//
// Outputs:
//   - *Config: A pointer to a new Config struct with its map fields initialized.
func NewConfig() *Config {
	return &Config{
		AgentModels: make(map[string]VertexAiLLMModel),
	}
}
