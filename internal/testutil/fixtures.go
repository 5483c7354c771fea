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

package test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/jaycherian/gcp-go-media-recommender/internal/cloud"
	"github.com/jaycherian/gcp-go-media-recommender/internal/core/model"
	"github.com/jaycherian/gcp-go-media-recommender/internal/core/store"
)

// SearchSecretName is the secret name used by the test configuration.
const SearchSecretName = "PersonalizedRecommendationAgent"

func ptr(s string) *string {
	return &s
}

// BobProfile returns a fully populated profile for the viewer "bob".
func BobProfile() *model.ViewerProfile {
	return &model.ViewerProfile{
		RegistrationInformation: model.RegistrationInformation{
			FirstName: "Bob",
			LastName:  "Smith",
			Username:  "bob",
			Password:  "hunter2",
			Email:     "bob@example.com",
		},
		Personalization: true,
		DemographicInformation: model.DemographicInformation{
			Gender:             "Male",
			AgeGroup:           "35-44",
			PrimaryLanguage:    "English",
			RelationshipStatus: "Married",
			IncomeRange:        "$75,000-$99,999",
			Occupation:         "Teacher",
			CountryRegion:      "United States",
			EducationLevel:     "Master's degree",
			Ethnicity:          "Prefer not to say",
		},
		ViewingPreferences: model.ViewingPreferences{
			FavoriteGenres:             []string{"Documentary", "Science Fiction"},
			GenresToAvoid:              []string{"Horror"},
			PreferredNarrativeElements: []string{"Character-driven"},
			PreferredThemes:            []string{"Nature"},
			PreferredPlots:             []string{"Exploration"},
			PreferredFormats:           []string{"Docuseries", "Movie"},
			PreferredMinLengths:        []string{"30-60 minutes"},
			RatingsToAvoid:             []string{"NC-17"},
			PreferredStreamingServices: []string{"Netflix", "Max"},
		},
		PersonalFavorites: []model.PersonalFavorite{
			{Title: "Our Planet", Platform: "Netflix"},
			{Title: "Cosmos", Platform: "Disney+"},
		},
		ViewingHistory: []model.ViewingHistory{
			{Format: "Docuseries", Title: "Blue Planet II", ViewedDate: "2024-03-01", Platform: "Max", Liked: true},
			{Format: "Movie", Title: "Interstellar", ViewedDate: "2024-02-14", Platform: "Netflix", Liked: false},
		},
		CurrentConditions: model.CurrentConditions{
			Season:   ptr("Spring"),
			Holiday:  nil,
			Occasion: ptr("Family night"),
			Audience: ptr("Family with kids"),
			Weather:  ptr("Rainy"),
		},
		Recommendations: []model.Recommendation{},
	}
}

// AliceProfile returns a sparse profile for the viewer "alice".
func AliceProfile() *model.ViewerProfile {
	profile := &model.ViewerProfile{
		RegistrationInformation: model.RegistrationInformation{
			FirstName: "Alice",
			LastName:  "Jones",
			Username:  "alice",
			Password:  "wonderland",
		},
		Personalization: true,
		ViewingPreferences: model.ViewingPreferences{
			FavoriteGenres: []string{"Comedy"},
		},
	}
	profile.Normalize()
	return profile
}

// SeedStore writes the given profiles into a new store at a temporary path.
func SeedStore(t *testing.T, profiles ...*model.ViewerProfile) *store.ProfileStore {
	t.Helper()
	s := store.NewProfileStore(TempProfilesPath(t))
	for _, p := range profiles {
		if _, err := s.Upsert(context.Background(), p); err != nil {
			t.Fatalf("seeding profile %s: %v", p.Username(), err)
		}
	}
	return s
}

// StaticSecrets returns a secret source holding both search API keys.
func StaticSecrets() cloud.StaticSecretSource {
	payload, _ := json.Marshal(map[string]string{
		"serper_api_key": "serper-test-key",
		"tavily_api_key": "tavily-test-key",
	})
	return cloud.StaticSecretSource{SearchSecretName: payload}
}

// GenericCatalog returns a ten item catalog.
func GenericCatalog() *store.GenericCatalog {
	titles := []string{
		"Stranger Things", "The Crown", "Planet Earth III", "Ted Lasso", "Severance",
		"The Bear", "Succession", "Only Murders in the Building", "Abbott Elementary", "Shogun",
	}
	items := make([]model.Recommendation, 0, len(titles))
	for _, title := range titles {
		items = append(items, model.Recommendation{
			Title:             title,
			StreamingPlatform: "Netflix",
			URL:               "https://example.com/" + title,
			Reason:            "Popular right now.",
			Liked:             true,
		})
	}
	return store.NewGenericCatalog(items)
}
