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

package tools_test

import (
	"context"
	"testing"
	"time"

	"github.com/jaycherian/gcp-go-media-recommender/internal/cloud"
	"github.com/jaycherian/gcp-go-media-recommender/internal/core/tools"
	test "github.com/jaycherian/gcp-go-media-recommender/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCredentials(t *testing.T) {
	creds, err := tools.LoadCredentials(context.Background(), test.StaticSecrets(), test.SearchSecretName)
	require.NoError(t, err)
	assert.Equal(t, "serper-test-key", creds.SerperAPIKey)
	assert.Equal(t, "tavily-test-key", creds.TavilyAPIKey)
}

func TestLoadCredentialsMissing(t *testing.T) {
	_, err := tools.LoadCredentials(context.Background(), cloud.StaticSecretSource{}, test.SearchSecretName)
	assert.ErrorIs(t, err, cloud.ErrSecretNotFound)

	partial := cloud.StaticSecretSource{test.SearchSecretName: []byte(`{"serper_api_key": "k"}`)}
	_, err = tools.LoadCredentials(context.Background(), partial, test.SearchSecretName)
	assert.ErrorIs(t, err, tools.ErrMissingAPIKey)
}

func TestDefaultRegistry(t *testing.T) {
	registry := tools.NewDefaultRegistry(cloud.Search{}, &tools.Credentials{SerperAPIKey: "a", TavilyAPIKey: "b"})
	assert.Equal(t, 3, registry.Len())

	genaiTools := registry.GenAITools()
	require.Len(t, genaiTools, 1)
	names := []string{}
	for _, d := range genaiTools[0].FunctionDeclarations {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{tools.ClockToolName, tools.WebSearchToolName, tools.CuratedSearchToolName}, names)

	_, err := registry.Invoke(context.Background(), "weather", nil)
	assert.ErrorIs(t, err, tools.ErrUnknownTool)
}

func TestClock(t *testing.T) {
	fixed := time.Date(2024, time.December, 24, 18, 30, 0, 0, time.UTC)
	clock := &tools.Clock{Now: func() time.Time { return fixed }}

	out, err := clock.Invoke(context.Background(), map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "2024-12-24T18:30:00Z", out["current_time"])
	assert.Equal(t, "Tuesday", out["weekday"])

	out, err = clock.Invoke(context.Background(), map[string]any{"timezone": "America/New_York"})
	require.NoError(t, err)
	assert.Equal(t, "2024-12-24T13:30:00-05:00", out["current_time"])

	_, err = clock.Invoke(context.Background(), map[string]any{"timezone": "Mars/Olympus"})
	assert.Error(t, err)
}
