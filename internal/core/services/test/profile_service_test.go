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

package services_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/jaycherian/gcp-go-media-recommender/internal/core/commands"
	"github.com/jaycherian/gcp-go-media-recommender/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-recommender/internal/core/model"
	"github.com/jaycherian/gcp-go-media-recommender/internal/core/services"
	"github.com/jaycherian/gcp-go-media-recommender/internal/core/store"
	test "github.com/jaycherian/gcp-go-media-recommender/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newProfileService(t *testing.T, profiles ...*model.ViewerProfile) *services.ProfileService {
	return &services.ProfileService{
		Store:        test.SeedStore(t, profiles...),
		Catalog:      test.GenericCatalog(),
		GenericCount: 8,
		HashCost:     bcrypt.MinCost,
	}
}

func carolInput() *services.ProfileInput {
	personalization := false
	return &services.ProfileInput{
		FirstName:       "Carol",
		LastName:        "Danvers",
		Username:        "carol",
		Password:        "higher-further-faster",
		Email:           "carol@example.com",
		Personalization: &personalization,
		ViewingPreferences: model.ViewingPreferences{
			FavoriteGenres: []string{"Action", "Science Fiction"},
		},
		Favorites: []model.PersonalFavorite{
			{Title: "Top Gun: Maverick", Platform: "Paramount+"},
			{Title: "Arrival", Platform: ""},
			{Title: "", Platform: ""},
			{Title: "The Expanse", Platform: "Prime Video"},
			{Title: "Andor", Platform: "Disney+"},
			{Title: "Foundation", Platform: "Apple TV+"},
		},
	}
}

func TestSaveRequiresIdentityFields(t *testing.T) {
	svc := newProfileService(t)
	input := carolInput()
	input.Password = "  "

	_, _, err := svc.Save(context.Background(), input)
	assert.ErrorIs(t, err, services.ErrRequiredFields)
	assert.Equal(t, "First name, last name, username, and password are required.", err.Error())
}

func TestSaveCreatesProfile(t *testing.T) {
	svc := newProfileService(t)

	profile, created, err := svc.Save(context.Background(), carolInput())
	require.NoError(t, err)
	assert.True(t, created)
	assert.False(t, profile.Personalization)
	assert.True(t, strings.HasPrefix(profile.RegistrationInformation.Password, "$2"))
	assert.Equal(t, []model.PersonalFavorite{
		{Title: "Top Gun: Maverick", Platform: "Paramount+"},
		{Title: "The Expanse", Platform: "Prime Video"},
		{Title: "Andor", Platform: "Disney+"},
	}, profile.PersonalFavorites)
	assert.Empty(t, profile.ViewingHistory)

	ok, err := svc.Authenticate(context.Background(), "carol", "higher-further-faster")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Authenticate(context.Background(), "carol", "wrong")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSavePreservesHistoryAndRecommendations(t *testing.T) {
	bob := test.BobProfile()
	bob.Recommendations = model.GetExampleRecommendationList().Recommendations
	svc := newProfileService(t, bob)

	input := &services.ProfileInput{FirstName: "Robert", LastName: "Smith", Username: "bob", Password: "new-secret"}
	profile, created, err := svc.Save(context.Background(), input)
	require.NoError(t, err)
	assert.False(t, created)
	assert.True(t, profile.Personalization)

	view, err := svc.Find(context.Background(), "bob")
	require.NoError(t, err)
	assert.Equal(t, "Robert", view.FirstName)
	assert.Equal(t, test.BobProfile().ViewingHistory, view.Profile.ViewingHistory)
	assert.Len(t, view.Profile.Recommendations, 2)
	assert.Empty(t, view.Profile.PersonalFavorites)

	profiles, err := svc.Store.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, profiles, 1)
}

func TestAuthenticateLegacyPlaintext(t *testing.T) {
	svc := newProfileService(t, test.AliceProfile())

	ok, err := svc.Authenticate(context.Background(), "alice", "wonderland")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Authenticate(context.Background(), "alice", "wonderlan")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.Authenticate(context.Background(), "mallory", "wonderland")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.Authenticate(context.Background(), "alice", "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFindUnknownViewer(t *testing.T) {
	svc := newProfileService(t, test.AliceProfile())
	_, err := svc.Find(context.Background(), "nobody")
	assert.ErrorIs(t, err, store.ErrProfileNotFound)
}

func TestWelcome(t *testing.T) {
	svc := newProfileService(t, test.BobProfile(), test.AliceProfile())

	welcome, err := svc.Welcome(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "Welcome, Alice", welcome.Message)
	assert.Equal(t, 1, welcome.Index)
	assert.Equal(t, "alice", welcome.Profile.Username())
	assert.Len(t, welcome.Generic, 8)

	_, err = svc.Welcome(context.Background(), "nobody")
	assert.ErrorIs(t, err, store.ErrProfileNotFound)
}

// TestSaveDuringRecommendationWriteKeepsBoth re-saves bob's form while a
// recommendation list is written onto his profile. Whichever write lands
// first, the stored profile ends with the new list and the new name.
func TestSaveDuringRecommendationWriteKeepsBoth(t *testing.T) {
	svc := newProfileService(t, test.BobProfile())
	svc.HashCost = bcrypt.DefaultCost
	persist := commands.NewRecommendationPersistToProfile("save-recommendations", svc.Store)

	var wg sync.WaitGroup
	wg.Add(1)
	var saveErr error
	go func() {
		defer wg.Done()
		input := &services.ProfileInput{FirstName: "Robert", LastName: "Smith", Username: "bob", Password: "new-secret"}
		_, _, saveErr = svc.Save(context.Background(), input)
	}()

	chCtx := cor.NewBaseContextWith(context.Background(), nil)
	chCtx.Add(commands.ParamRecommendations, &model.GeneratedRecommendations{
		Recommendations: model.GetExampleRecommendationList().Recommendations[:1],
	})
	chCtx.Add(commands.ParamUsername, "bob")
	persist.Execute(chCtx)
	require.NoError(t, chCtx.Err())

	wg.Wait()
	require.NoError(t, saveErr)

	view, err := svc.Find(context.Background(), "bob")
	require.NoError(t, err)
	assert.Equal(t, "Robert", view.FirstName)
	assert.Len(t, view.Profile.Recommendations, 1)
	assert.Equal(t, test.BobProfile().ViewingHistory, view.Profile.ViewingHistory)
}
