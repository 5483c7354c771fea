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

// Package model defines the data structures for the application. This file,
// `persistent.go`, contains the records that are written to the viewer profile
// document and the generic recommendation catalog. Field names in the JSON tags
// are the on-disk contract and must not change.
package model

import (
	"encoding/json"
	"fmt"
)

// Advisory cardinality caps applied by the profile form. The model itself
// accepts lists of any length; these are exported so the API layer can
// surface them to clients.
const (
	MaxFavoriteGenres      = 3
	MaxGenresToAvoid       = 2
	MaxNarrativeElements   = 2
	MaxThemes              = 2
	MaxPlots               = 2
	MaxFormats             = 5
	MaxMinLengths          = 3
	MaxRatingsToAvoid      = 2
	MaxStreamingServices   = 5
	MaxPersonalFavorites   = 5
	DefaultGenericSample   = 8
	MinRecommendationCount = 1
	MaxRecommendationCount = 8
)

// RegistrationInformation identifies a viewer. Username is the only identity
// key in the profile store.
type RegistrationInformation struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Username  string `json:"username" validate:"required"`
	Password  string `json:"password" validate:"required"`
	Email     string `json:"email"`
}

// FullName is derived from the first and last name.
func (r RegistrationInformation) FullName() string {
	return fmt.Sprintf("%s %s", r.FirstName, r.LastName)
}

// MarshalJSON emits the derived full_name next to the stored fields. The
// field is ignored when decoding.
func (r RegistrationInformation) MarshalJSON() ([]byte, error) {
	type plain RegistrationInformation
	return json.Marshal(struct {
		plain
		FullName string `json:"full_name"`
	}{plain: plain(r), FullName: r.FullName()})
}

// DemographicInformation holds closed-vocabulary answers from the profile form.
// Values are not checked against the choice lists.
type DemographicInformation struct {
	Gender             string `json:"gender"`
	AgeGroup           string `json:"age_group"`
	PrimaryLanguage    string `json:"primary_language"`
	RelationshipStatus string `json:"relationship_status"`
	IncomeRange        string `json:"income_range"`
	Occupation         string `json:"occupation"`
	CountryRegion      string `json:"country_region"`
	EducationLevel     string `json:"education_level"`
	Ethnicity          string `json:"ethnicity"`
}

// ViewingPreferences are ordered tag selections.
type ViewingPreferences struct {
	FavoriteGenres             []string `json:"favorite_genres"`
	GenresToAvoid              []string `json:"genres_to_avoid"`
	PreferredNarrativeElements []string `json:"preferred_narrative_elements"`
	PreferredThemes            []string `json:"preferred_themes"`
	PreferredPlots             []string `json:"preferred_plots"`
	PreferredFormats           []string `json:"preferred_formats"`
	PreferredMinLengths        []string `json:"preferred_min_lengths"`
	RatingsToAvoid             []string `json:"ratings_to_avoid"`
	PreferredStreamingServices []string `json:"preferred_streaming_services"`
}

// PersonalFavorite is a title the viewer loves and where they watched it.
type PersonalFavorite struct {
	Title    string `json:"title"`
	Platform string `json:"platform"`
}

// ViewingHistory is a single watched item. Liked defaults to true when the
// field is absent from the document.
type ViewingHistory struct {
	Format     string `json:"format"`
	Title      string `json:"title"`
	ViewedDate string `json:"viewed_date"`
	Platform   string `json:"platform"`
	Liked      bool   `json:"liked"`
}

// UnmarshalJSON applies the liked=true default.
func (h *ViewingHistory) UnmarshalJSON(data []byte) error {
	type plain ViewingHistory
	out := plain{Liked: true}
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*h = ViewingHistory(out)
	return nil
}

// CurrentConditions are optional context signals. A nil field is serialized
// as JSON null.
type CurrentConditions struct {
	Season   *string `json:"season"`
	Holiday  *string `json:"holiday"`
	Occasion *string `json:"occasion"`
	Audience *string `json:"audience"`
	Weather  *string `json:"weather"`
}

// Recommendation is a single agent-produced suggestion. It is never entered
// by hand.
type Recommendation struct {
	Title             string `json:"title" validate:"required"`
	PreviewKeyframe   string `json:"preview_keyframe"`
	StreamingPlatform string `json:"streaming_platform" validate:"required"`
	URL               string `json:"url" validate:"required"`
	Reason            string `json:"reason" validate:"required"`
	Liked             bool   `json:"liked"`
}

// UnmarshalJSON applies the liked=true default.
func (r *Recommendation) UnmarshalJSON(data []byte) error {
	type plain Recommendation
	out := plain{Liked: true}
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*r = Recommendation(out)
	return nil
}

// RecommendationList is the shape the agent must produce during structured
// extraction.
type RecommendationList struct {
	Recommendations []Recommendation `json:"recommendations" validate:"dive"`
}

// ViewerProfile is the aggregate persisted for each viewer.
type ViewerProfile struct {
	RegistrationInformation RegistrationInformation `json:"registration_information"`
	Personalization         bool                    `json:"personalization"`
	DemographicInformation  DemographicInformation  `json:"demographic_information"`
	ViewingPreferences      ViewingPreferences      `json:"viewing_preferences"`
	PersonalFavorites       []PersonalFavorite      `json:"personal_favorites"`
	ViewingHistory          []ViewingHistory        `json:"viewing_history"`
	CurrentConditions       CurrentConditions       `json:"current_conditions"`
	Recommendations         []Recommendation        `json:"recommendations" validate:"dive"`
}

// UnmarshalJSON applies the personalization=true default.
func (p *ViewerProfile) UnmarshalJSON(data []byte) error {
	type plain ViewerProfile
	out := plain{Personalization: true}
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*p = ViewerProfile(out)
	return nil
}

// Username is a shortcut for the identity key.
func (p *ViewerProfile) Username() string {
	return p.RegistrationInformation.Username
}

// Normalize replaces nil slices with empty ones so the document always holds
// arrays rather than nulls.
func (p *ViewerProfile) Normalize() {
	prefs := &p.ViewingPreferences
	for _, list := range []*[]string{
		&prefs.FavoriteGenres, &prefs.GenresToAvoid, &prefs.PreferredNarrativeElements,
		&prefs.PreferredThemes, &prefs.PreferredPlots, &prefs.PreferredFormats,
		&prefs.PreferredMinLengths, &prefs.RatingsToAvoid, &prefs.PreferredStreamingServices,
	} {
		if *list == nil {
			*list = []string{}
		}
	}
	if p.PersonalFavorites == nil {
		p.PersonalFavorites = []PersonalFavorite{}
	}
	if p.ViewingHistory == nil {
		p.ViewingHistory = []ViewingHistory{}
	}
	if p.Recommendations == nil {
		p.Recommendations = []Recommendation{}
	}
}
