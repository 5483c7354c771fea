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

package api_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jaycherian/gcp-go-media-recommender/internal/api"
	"github.com/jaycherian/gcp-go-media-recommender/internal/core/agent"
	"github.com/jaycherian/gcp-go-media-recommender/internal/core/model"
	"github.com/jaycherian/gcp-go-media-recommender/internal/core/services"
	"github.com/jaycherian/gcp-go-media-recommender/internal/core/tools"
	test "github.com/jaycherian/gcp-go-media-recommender/internal/testutil"
)

type server struct {
	script *test.ScriptedModel
	router *gin.Engine
}

func newServer(t *testing.T) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	config := test.GetConfig()
	script := test.NewScriptedModel()
	newAgent := func() *agent.Agent {
		return agent.New(test.NewTestAgentModel(script), tools.NewRegistry(), config.AgentModels["recommender"])
	}
	profiles := test.SeedStore(t, test.BobProfile(), test.AliceProfile())
	catalog := test.GenericCatalog()
	recommendations, err := services.NewRecommendationService(config, newAgent(), newAgent, profiles, catalog, nil)
	require.NoError(t, err)
	handlers := &api.Handlers{
		Profiles: &services.ProfileService{
			Store:        profiles,
			Catalog:      catalog,
			GenericCount: 8,
			HashCost:     bcrypt.MinCost,
		},
		Recommendations: recommendations,
	}
	return &server{script: script, router: api.NewRouter(config, handlers)}
}

func (s *server) do(t *testing.T, method string, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	out := map[string]any{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func TestLogin(t *testing.T) {
	s := newServer(t)

	rec, out := s.do(t, http.MethodPost, "/api/v1/login", map[string]string{"username": "alice", "password": "wonderland"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, out["authenticated"])

	rec, out = s.do(t, http.MethodPost, "/api/v1/login", map[string]string{"username": "alice", "password": "guess"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, out["authenticated"])

	rec, _ = s.do(t, http.MethodPost, "/api/v1/login", map[string]string{"password": "guess"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateAndFetchProfile(t *testing.T) {
	s := newServer(t)

	rec, out := s.do(t, http.MethodPost, "/api/v1/profiles", map[string]any{"first_name": "Dana", "username": "dana"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, services.RequiredFieldsMessage, out["error"])

	input := map[string]any{
		"first_name": "Dana",
		"last_name":  "Scully",
		"username":   "dana",
		"password":   "trust-no-one",
		"personal_favorites": []map[string]string{
			{"title": "The X-Files", "platform": "Hulu"},
			{"title": "Fringe", "platform": ""},
		},
	}
	rec, out = s.do(t, http.MethodPost, "/api/v1/profiles", input)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, true, out["created"])
	assert.NotContains(t, rec.Body.String(), "trust-no-one")
	assert.NotContains(t, rec.Body.String(), "$2a$")

	rec, out = s.do(t, http.MethodGet, "/api/v1/profiles/dana", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Dana", out["first_name"])
	profile := out["profile"].(map[string]any)
	assert.Len(t, profile["personal_favorites"], 1)

	rec, _ = s.do(t, http.MethodPost, "/api/v1/profiles", input)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, out = s.do(t, http.MethodGet, "/api/v1/profiles/nobody", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, api.UserNotFoundMessage, out["error"])
}

func TestWelcome(t *testing.T) {
	s := newServer(t)

	rec, out := s.do(t, http.MethodGet, "/api/v1/profiles/bob/welcome", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome, Bob", out["message"])
	assert.Equal(t, float64(0), out["index"])
	assert.Len(t, out["generic_recommendations"], 8)
}

func TestDescribeAndRecommend(t *testing.T) {
	s := newServer(t)
	s.script.
		Reply(test.TextResponse("Bob loves nature documentaries.")).
		Reply(test.TextResponse("Planet Earth II and The Great British Baking Show.")).
		Reply(test.TextResponse(model.GetExampleRecommendationJSON()))

	rec, out := s.do(t, http.MethodPost, "/api/v1/descriptions", map[string]any{
		"username": "bob",
		"sections": []string{model.SectionDemographics},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Bob loves nature documentaries.", out["description"])
	assert.Len(t, out["viewer_information"], 1)

	rec, out = s.do(t, http.MethodPost, "/api/v1/recommendations?format=markdown", map[string]any{
		"description": out["description"],
		"count":       2,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, false, out["degraded"])
	markdown := out["markdown"].(string)
	assert.Equal(t, 2, strings.Count(markdown, "**Why Recommended:**"))
}

func TestRecommendRejectsBadInput(t *testing.T) {
	s := newServer(t)

	rec, out := s.do(t, http.MethodPost, "/api/v1/recommendations", map[string]any{"description": "Error: no profile", "count": 2})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, model.InvalidDescriptionMessage, out["error"])

	rec, _ = s.do(t, http.MethodPost, "/api/v1/recommendations", map[string]any{"description": "Likes thrillers", "count": 12})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(t, http.MethodPost, "/api/v1/descriptions", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, s.script.CallCount())
}

func TestGeneric(t *testing.T) {
	s := newServer(t)

	rec, out := s.do(t, http.MethodGet, "/api/v1/recommendations/generic?count=3", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, out["recommendations"], 3)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/recommendations/generic?count=three", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChat(t *testing.T) {
	s := newServer(t)

	rec, out := s.do(t, http.MethodPost, "/api/v1/chat", map[string]any{"history": []any{}, "count": 2})
	require.Equal(t, http.StatusOK, rec.Code)
	sessionId := out["session_id"].(string)
	assert.NotEmpty(t, sessionId)
	assert.Empty(t, out["recommendations"])

	s.script.
		Reply(test.TextResponse("Try these.")).
		Reply(test.TextResponse(model.GetExampleRecommendationJSON()))
	rec, out = s.do(t, http.MethodPost, "/api/v1/chat?format=markdown", map[string]any{
		"session_id": sessionId,
		"history":    []map[string]any{{"role": "user", "content": "Any documentaries?"}},
		"count":      2,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, sessionId, out["session_id"])
	assert.Equal(t, 2, strings.Count(out["markdown"].(string), "**Description:**"))
}

func TestHealthAndStats(t *testing.T) {
	s := newServer(t)
	s.script.Reply(test.TextResponse("Healthy")).Fail(errors.New("quota exceeded"))

	rec, out := s.do(t, http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, out["healthy"])

	rec, out = s.do(t, http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, out["error"], "quota exceeded")

	rec, out = s.do(t, http.MethodGet, "/api/v1/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), out["profiles"])
	assert.Equal(t, float64(10), out["catalog_entries"])
	assert.Equal(t, float64(0), out["chat_sessions"])
}
