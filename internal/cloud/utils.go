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

// Package cloud provides components for interacting with Google Cloud services.
// This file contains general-purpose utility functions that support the cloud package.
// These helpers cover hierarchical configuration loading and small conveniences
// around Generative AI requests and responses.
//
// Functions:
//   - fileExists: A simple helper to check if a file exists.
//   - LoadConfig: Implements a hierarchical configuration loader. It first reads a base
//     configuration file and then overwrites values with a second, environment-specific
//     file (e.g., .env.local.toml, .env.test.toml). The environment is determined by
//     an environment variable.
//   - GenerateResponse: Calls a quota aware model and records token usage metrics.
//   - ResponseText: Concatenates the text parts of a response.
//   - StripCodeFence: Removes a markdown fence around structured output.
//   - NewTextContent: Factory for a single-part text message.
package cloud

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"go.opentelemetry.io/otel/metric"
	"google.golang.org/genai"
)

// Cloud Constants define key strings and values used throughout the package,
// primarily for configuration loading and API interaction policies.
const (
	ConfigFileBaseName  = ".env"              // The base name for configuration files (e.g., ".env.toml").
	ConfigFileExtension = ".toml"             // The file extension for configuration files.
	ConfigSeparator     = "."                 // The separator used in config file names (e.g., ".env.local.toml").
	EnvConfigFilePrefix = "GCP_CONFIG_PREFIX" // The environment variable for specifying the config directory.
	EnvConfigRuntime    = "GCP_RUNTIME"       // The environment variable for specifying the runtime context (e.g., "local", "test", "prod").
	RoleUser            = "user"              // Content role for viewer and tool-response turns.
	RoleModel           = "model"             // Content role for model turns.
)

// fileExists checks if a file or directory exists at the given path.
//
// Inputs:
//   - in: The path to the file or directory as a string.
//
// Outputs:
//   - bool: Returns true if the file exists, and false if it does not.
func fileExists(in string) bool {
	_, err := os.Stat(in)
	return !errors.Is(err, os.ErrNotExist)
}

// LoadConfig provides a hierarchical configuration loading mechanism. It first loads a
// base configuration file and then merges or overwrites its values with an environment-specific
// configuration file. The paths and environment are determined by environment variables.
//
// Inputs:
//   - baseConfig: A pointer to the target configuration struct that will be
//     populated from the TOML files.
//
// Outputs:
//   - error: A decode error from either file. Missing files are skipped.
func LoadConfig(baseConfig interface{}) error {
	configurationFilePrefix := os.Getenv(EnvConfigFilePrefix)
	if len(configurationFilePrefix) > 0 && !strings.HasSuffix(configurationFilePrefix, string(os.PathSeparator)) {
		configurationFilePrefix = configurationFilePrefix + string(os.PathSeparator)
	}

	// Default to "test" if the runtime is not set.
	runtimeEnvironment := os.Getenv(EnvConfigRuntime)
	if runtimeEnvironment == "" {
		runtimeEnvironment = "test"
	}

	baseConfigFileName := configurationFilePrefix + ConfigFileBaseName + ConfigFileExtension
	envConfigFileName := configurationFilePrefix + ConfigFileBaseName + ConfigSeparator + runtimeEnvironment + ConfigFileExtension
	slog.Debug("loading configuration", "base", baseConfigFileName, "environment", envConfigFileName)

	if fileExists(baseConfigFileName) {
		if _, err := toml.DecodeFile(baseConfigFileName, baseConfig); err != nil {
			return fmt.Errorf("failed to decode base configuration file %s: %w", baseConfigFileName, err)
		}
	}

	// Values in the environment file overwrite the values from the base config.
	if fileExists(envConfigFileName) {
		if _, err := toml.DecodeFile(envConfigFileName, baseConfig); err != nil {
			return fmt.Errorf("failed to decode environment configuration file %s: %w", envConfigFileName, err)
		}
	}
	return nil
}

// TokenCounters groups the OpenTelemetry counters recorded for every model call.
type TokenCounters struct {
	Input  metric.Int64Counter
	Output metric.Int64Counter
}

// NewTokenCounters creates input and output token counters on the given meter,
// namespaced with prefix.
func NewTokenCounters(meter metric.Meter, prefix string) TokenCounters {
	input, err := meter.Int64Counter(prefix + ".token.input")
	if err != nil {
		slog.Warn("failed to create input token counter", "prefix", prefix, "error", err)
	}
	output, err := meter.Int64Counter(prefix + ".token.output")
	if err != nil {
		slog.Warn("failed to create output token counter", "prefix", prefix, "error", err)
	}
	return TokenCounters{Input: input, Output: output}
}

// GenerateResponse is a helper function for executing requests against a
// Generative AI model. It records token usage on success.
//
// Inputs:
//   - ctx: The context for the request, which controls cancellation and tracing.
//   - counters: Token counters; nil counters are skipped.
//   - model: The rate-limited, quota-aware generative model to use.
//   - content: The conversation to send.
//   - config: The generation config, or nil for the model default.
//
// Outputs:
//   - *genai.GenerateContentResponse: The model response.
//   - error: An error if the request fails after all retries.
func GenerateResponse(
	ctx context.Context,
	counters TokenCounters,
	model *QuotaAwareGenerativeAIModel,
	content []*genai.Content,
	config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	if config == nil {
		config = model.GenerativeContentConfig
	}
	resp, err := model.GenerateContentWithConfig(ctx, content, config)
	if err != nil {
		return nil, err
	}
	if resp.UsageMetadata != nil {
		if counters.Input != nil {
			counters.Input.Add(ctx, int64(resp.UsageMetadata.PromptTokenCount))
		}
		if counters.Output != nil {
			counters.Output.Add(ctx, int64(resp.UsageMetadata.CandidatesTokenCount))
		}
	}
	return resp, nil
}

// ResponseText concatenates the text of every part of the first candidate.
func ResponseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(sb.String())
}

// StripCodeFence removes a surrounding markdown code fence, such as the
// ```json wrapper models often add around structured output.
func StripCodeFence(value string) string {
	value = strings.TrimSpace(value)
	value = strings.TrimPrefix(value, "```json")
	value = strings.TrimPrefix(value, "```")
	value = strings.TrimSuffix(value, "```")
	return strings.TrimSpace(value)
}

// NewTextContent is a simple factory for a single text part message.
//
// Inputs:
//   - role: RoleUser or RoleModel.
//   - text: The message text.
//
// Outputs:
//   - *genai.Content: A content value with one text part.
func NewTextContent(role string, text string) *genai.Content {
	return &genai.Content{Role: role, Parts: []*genai.Part{{Text: text}}}
}
