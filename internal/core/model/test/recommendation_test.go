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

package model_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/jaycherian/gcp-go-media-recommender/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	zassert "github.com/zeebo/assert"
)

func TestParseRecommendationList(t *testing.T) {
	list, err := model.ParseRecommendationList([]byte(model.GetExampleRecommendationJSON()))
	require.NoError(t, err)
	assert.Equal(t, model.GetExampleRecommendationList(), list)
}

func TestParseRecommendationListMissingURL(t *testing.T) {
	data := []byte(`{"recommendations": [{"title": "X", "streaming_platform": "Hulu", "reason": "r"}]}`)
	_, err := model.ParseRecommendationList(data)

	var ve *model.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "recommendations[0].url", ve.Field)
	assert.Equal(t, "required", ve.Message)
}

func TestParseRecommendationListEmpty(t *testing.T) {
	list, err := model.ParseRecommendationList([]byte(`{}`))
	require.NoError(t, err)
	assert.NotNil(t, list.Recommendations)
	assert.Empty(t, list.Recommendations)
}

func TestParseRecommendationsCatalog(t *testing.T) {
	data := []byte(`[
		{"title": "A", "streaming_platform": "Netflix", "url": "https://a", "reason": "ra"},
		{"title": "B", "streaming_platform": "Hulu", "url": "https://b", "reason": "rb", "liked": false}
	]`)
	recs, err := model.ParseRecommendations(data)
	require.NoError(t, err)
	zassert.Equal(t, len(recs), 2)
	zassert.True(t, recs[0].Liked)
	zassert.False(t, recs[1].Liked)

	_, err = model.ParseRecommendations([]byte(`[{"title": "A"}]`))
	var ve *model.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "[0].streaming_platform", ve.Field)
}

func TestRecommendationRoundTrip(t *testing.T) {
	original := model.GetExampleRecommendationList().Recommendations[0]
	original.Liked = false
	data, err := json.Marshal(original)
	require.NoError(t, err)

	var parsed model.Recommendation
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Equal(t, original, parsed)
}

func TestViewerContextSections(t *testing.T) {
	profile := &model.ViewerProfile{}
	profile.Normalize()

	assert.Empty(t, model.NewViewerContext(profile, nil))
	assert.Empty(t, model.NewViewerContext(profile, []string{"Unknown"}))

	ctx := model.NewViewerContext(profile, []string{model.SectionDemographics, model.SectionViewingHistory})
	assert.Len(t, ctx, 2)
	assert.Contains(t, ctx, "demographic_information")
	assert.Contains(t, ctx, "viewing_history")
}

func TestIsUsableDescription(t *testing.T) {
	assert.False(t, model.IsUsableDescription(""))
	assert.False(t, model.IsUsableDescription("   "))
	assert.False(t, model.IsUsableDescription("An Error occurred while describing"))
	assert.True(t, model.IsUsableDescription("Enjoys nature documentaries."))
}
