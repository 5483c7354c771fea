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

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"golang.org/x/crypto/bcrypt"

	"github.com/jaycherian/gcp-go-media-recommender/internal/api"
	"github.com/jaycherian/gcp-go-media-recommender/internal/cloud"
	"github.com/jaycherian/gcp-go-media-recommender/internal/core/agent"
	"github.com/jaycherian/gcp-go-media-recommender/internal/core/commands"
	"github.com/jaycherian/gcp-go-media-recommender/internal/core/services"
	"github.com/jaycherian/gcp-go-media-recommender/internal/core/store"
	"github.com/jaycherian/gcp-go-media-recommender/internal/core/tools"
)

// StateManager holds the shared components of the server.
type StateManager struct {
	config   *cloud.Config
	cloud    *cloud.ServiceClients
	handlers *api.Handlers
}

var state = &StateManager{}

func SetupOS() (err error) {
	if _, ok := os.LookupEnv(cloud.EnvConfigFilePrefix); !ok {
		if err = os.Setenv(cloud.EnvConfigFilePrefix, "configs"); err != nil {
			return err
		}
	}
	if _, ok := os.LookupEnv(cloud.EnvConfigRuntime); !ok {
		err = os.Setenv(cloud.EnvConfigRuntime, "local")
	}
	return err
}

func GetConfig() *cloud.Config {
	if state.config == nil {
		if err := SetupOS(); err != nil {
			log.Fatalf("failed to setup os: %v\n", err)
		}
		config := cloud.NewConfig()
		if err := cloud.LoadConfig(config); err != nil {
			log.Fatalf("failed to load configuration: %v\n", err)
		}
		state.config = config
	}
	return state.config
}

// InitState creates the cloud clients, loads the search credentials and
// builds the services. Missing search credentials stop the server.
func InitState(ctx context.Context) error {
	config := GetConfig()

	cloudClients, err := cloud.NewCloudServiceClients(ctx, config)
	if err != nil {
		return err
	}
	state.cloud = cloudClients

	creds, err := tools.LoadCredentials(ctx, cloudClients.Secrets, config.Search.SecretName)
	if err != nil {
		return err
	}
	registry := tools.NewDefaultRegistry(config.Search, creds)

	llm, ok := cloudClients.AgentModels[config.Application.AgentModel]
	if !ok {
		return fmt.Errorf("agent model %q is not configured", config.Application.AgentModel)
	}
	settings := config.AgentModels[config.Application.AgentModel]
	newAgent := func() *agent.Agent {
		return agent.New(llm, registry, settings)
	}

	profiles := store.NewProfileStore(config.Storage.ProfilesPath)
	catalog, err := store.LoadGenericCatalog(ctx, cloudClients.StorageClient, config.Storage.CatalogLocation)
	if err != nil {
		return err
	}
	slog.Info("generic catalog loaded", "location", config.Storage.CatalogLocation, "entries", catalog.Len())

	var ledger commands.RowInserter
	if cloudClients.BigQueryClient != nil {
		ledger = commands.NewLedgerInserter(cloudClients.BigQueryClient,
			config.BigQueryDataSource.DatasetName, config.BigQueryDataSource.RecommendationTable)
		slog.Info("recommendation ledger enabled",
			"dataset", config.BigQueryDataSource.DatasetName,
			"table", config.BigQueryDataSource.RecommendationTable)
	}

	recommendations, err := services.NewRecommendationService(config, newAgent(), newAgent, profiles, catalog, ledger)
	if err != nil {
		return err
	}
	state.handlers = &api.Handlers{
		Profiles: &services.ProfileService{
			Store:        profiles,
			Catalog:      catalog,
			GenericCount: config.Application.GenericRecommendations,
			HashCost:     bcrypt.DefaultCost,
		},
		Recommendations: recommendations,
	}
	return nil
}
