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
// This file is responsible for initializing and holding all the client objects
// needed to communicate with Google Cloud. It acts as a dependency injection
// container, creating a single, shared `ServiceClients` struct that is passed
// to the services and workflows.
//
// Logic Flow:
//  1. The `NewCloudServiceClients` function is called at application startup.
//  2. It initializes clients for Storage, GenAI, Secret Manager and, when the
//     ledger is configured, BigQuery.
//  3. It reads the configuration to create one rate-limited model per entry in
//     `[agent_models]`.
//  4. All initialized clients are bundled into a single `ServiceClients` struct.
//
// Structs:
//   - ServiceClients: A container struct holding all initialized Google Cloud service clients.
//
// Functions:
//   - Close: A convenience method to gracefully shut down all client connections.
//   - NewCloudServiceClients: A factory function that creates and configures all necessary
//     Google Cloud clients based on the application's configuration.
//   - NewAgentModels: Builds the quota aware models from configuration for any ModelHandle.
package cloud

import (
	"context"
	"fmt"
	"log/slog"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/storage"
	"google.golang.org/genai"
)

// ServiceClients is a struct that acts as a central container for all the clients
// that interact with external Google Cloud services.
type ServiceClients struct {
	StorageClient  *storage.Client                         // Client for Google Cloud Storage (GCS).
	GenAIClient    *genai.Client                           // Client for Google's Generative AI services (Vertex AI).
	BigQueryClient *bigquery.Client                        // Client for BigQuery, nil when the ledger is disabled.
	Secrets        SecretSource                            // Source of the search API keys.
	AgentModels    map[string]*QuotaAwareGenerativeAIModel // Configured agent (LLM) models, keyed by a logical name.
}

// Close is a utility method to gracefully shut down all the active client connections.
func (c *ServiceClients) Close() {
	if c.StorageClient != nil {
		_ = c.StorageClient.Close()
	}
	if c.BigQueryClient != nil {
		_ = c.BigQueryClient.Close()
	}
	if closer, ok := c.Secrets.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
}

// NewCloudServiceClients is a factory function that initializes all required Google Cloud
// service clients based on the provided configuration.
//
// Inputs:
//   - ctx: The root context.Context for the application, used to manage the lifecycle of the clients.
//   - config: A pointer to the loaded application configuration (`Config`).
//
// Outputs:
//   - *ServiceClients: A pointer to the fully initialized ServiceClients struct.
//   - error: An error if any of the clients fail to initialize.
func NewCloudServiceClients(ctx context.Context, config *Config) (cloud *ServiceClients, err error) {
	sc, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}

	slog.Info("creating genai client",
		"project", config.Application.GoogleProjectId,
		"location", config.Application.GoogleLocation)
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  config.Application.GoogleProjectId,
		Location: config.Application.GoogleLocation,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	var bc *bigquery.Client
	if config.BigQueryDataSource.Enabled() {
		bc, err = bigquery.NewClient(ctx, config.Application.GoogleProjectId)
		if err != nil {
			return nil, fmt.Errorf("creating bigquery client: %w", err)
		}
	}

	var secrets SecretSource
	switch config.Search.SecretProvider {
	case SecretProviderEnv:
		secrets = EnvSecretSource{}
	default:
		secrets, err = NewSecretManagerSource(ctx, config.Application.GoogleProjectId)
		if err != nil {
			return nil, err
		}
	}

	cloud = &ServiceClients{
		StorageClient:  sc,
		GenAIClient:    gc,
		BigQueryClient: bc,
		Secrets:        secrets,
		AgentModels:    NewAgentModels(config, gc.Models),
	}
	return cloud, nil
}

// NewAgentModels creates one quota aware model per `[agent_models]` entry,
// applying its temperature, sampling, token and system instruction settings.
//
// Inputs:
//   - config: The application configuration.
//   - handle: The model handle shared by all agents.
//
// Outputs:
//   - map[string]*QuotaAwareGenerativeAIModel: Models keyed by their config name.
func NewAgentModels(config *Config, handle ModelHandle) map[string]*QuotaAwareGenerativeAIModel {
	agentModels := make(map[string]*QuotaAwareGenerativeAIModel)
	for amKey, values := range config.AgentModels {
		generation := &genai.GenerateContentConfig{
			Temperature:     genai.Ptr[float32](values.Temperature),
			MaxOutputTokens: values.MaxTokens,
			SafetySettings:  DefaultSafetySettings,
		}
		if values.TopP > 0 {
			generation.TopP = genai.Ptr[float32](values.TopP)
		}
		if values.TopK > 0 {
			generation.TopK = genai.Ptr[float32](values.TopK)
		}
		if values.SystemInstructions != "" {
			generation.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: values.SystemInstructions}}}
		}
		wrapped := NewQuotaAwareModel(generation, values.Model, handle, values.RateLimit)
		if values.MaxRetries != nil {
			wrapped.MaxRetries = max(0, *values.MaxRetries)
		}
		agentModels[amKey] = wrapped
	}
	return agentModels
}
