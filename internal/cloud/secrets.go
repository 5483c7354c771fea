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
// This file resolves named secrets. Production reads from Secret Manager; local
// runs and tests read the same payload from an environment variable or an
// in-memory map.
package cloud

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

// Secret provider names accepted in the [search] configuration section.
const (
	SecretProviderSecretManager = "secret_manager"
	SecretProviderEnv           = "env"
	EnvSecretPrefix             = "RECOMMENDER_SECRET_"
)

// ErrSecretNotFound is returned when a named secret does not exist.
var ErrSecretNotFound = errors.New("secret not found")

// SecretSource resolves a secret name into its raw payload.
type SecretSource interface {
	Secret(ctx context.Context, name string) ([]byte, error)
}

// SecretManagerSource reads the latest version of a secret from Google Cloud
// Secret Manager.
type SecretManagerSource struct {
	client    *secretmanager.Client
	projectId string
}

// NewSecretManagerSource creates a Secret Manager client for the given project.
//
// Inputs:
//   - ctx: The context used to dial the service.
//   - projectId: The project that owns the secrets.
//
// Outputs:
//   - *SecretManagerSource: The ready source.
//   - error: Any client creation error.
func NewSecretManagerSource(ctx context.Context, projectId string) (*SecretManagerSource, error) {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating secret manager client: %w", err)
	}
	return &SecretManagerSource{client: client, projectId: projectId}, nil
}

// Secret fetches projects/<project>/secrets/<name>/versions/latest.
func (s *SecretManagerSource) Secret(ctx context.Context, name string) ([]byte, error) {
	resp, err := s.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: fmt.Sprintf("projects/%s/secrets/%s/versions/latest", s.projectId, name),
	})
	if err != nil {
		return nil, fmt.Errorf("accessing secret %s: %w", name, err)
	}
	if resp.GetPayload() == nil || len(resp.GetPayload().GetData()) == 0 {
		return nil, fmt.Errorf("%w: %s has no payload", ErrSecretNotFound, name)
	}
	return resp.GetPayload().GetData(), nil
}

// Close releases the underlying client.
func (s *SecretManagerSource) Close() error {
	return s.client.Close()
}

// EnvSecretSource reads secrets from environment variables. The secret
// `PersonalizedRecommendationAgent` is looked up as
// RECOMMENDER_SECRET_PERSONALIZEDRECOMMENDATIONAGENT.
type EnvSecretSource struct{}

// EnvSecretVariable maps a secret name onto its environment variable.
func EnvSecretVariable(name string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - 'a' + 'A'
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, name)
	return EnvSecretPrefix + mapped
}

func (EnvSecretSource) Secret(_ context.Context, name string) ([]byte, error) {
	value, ok := os.LookupEnv(EnvSecretVariable(name))
	if !ok || value == "" {
		return nil, fmt.Errorf("%w: %s", ErrSecretNotFound, EnvSecretVariable(name))
	}
	return []byte(value), nil
}

// StaticSecretSource serves secrets from memory.
type StaticSecretSource map[string][]byte

func (s StaticSecretSource) Secret(_ context.Context, name string) ([]byte, error) {
	value, ok := s[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSecretNotFound, name)
	}
	return value, nil
}
