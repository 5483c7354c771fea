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

// Package services contains the business logic behind the API handlers.
// This file, `profile.go`, defines the ProfileService, which is responsible
// for creating and updating viewer profiles from form input, authenticating
// viewers and assembling the profile and welcome payloads.
package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jaycherian/gcp-go-media-recommender/internal/core/model"
	"github.com/jaycherian/gcp-go-media-recommender/internal/core/store"
	"golang.org/x/crypto/bcrypt"
)

// RequiredFieldsMessage is returned when a profile form lacks identity fields.
const RequiredFieldsMessage = "First name, last name, username, and password are required."

// ErrRequiredFields is returned by Save when RequiredFieldsMessage applies.
var ErrRequiredFields = errors.New(RequiredFieldsMessage)

// ProfileInput is the form-shaped input of a profile save. Favorites are slot
// based: a slot is kept only when both its title and platform are set, and
// slots after the fifth are ignored.
type ProfileInput struct {
	FirstName          string                       `json:"first_name"`
	LastName           string                       `json:"last_name"`
	Username           string                       `json:"username"`
	Password           string                       `json:"password"`
	Email              string                       `json:"email"`
	Personalization    *bool                        `json:"personalization"`
	Demographics       model.DemographicInformation `json:"demographic_information"`
	ViewingPreferences model.ViewingPreferences     `json:"viewing_preferences"`
	Favorites          []model.PersonalFavorite     `json:"personal_favorites"`
	CurrentConditions  model.CurrentConditions      `json:"current_conditions"`
}

// ProfileView is a stored profile plus the viewer's first name.
type ProfileView struct {
	Profile   *model.ViewerProfile `json:"profile"`
	FirstName string               `json:"first_name"`
}

// Welcome is the landing payload of a signed in viewer.
type Welcome struct {
	Message string                 `json:"message"`
	Index   int                    `json:"index"`
	Profile *model.ViewerProfile   `json:"profile"`
	Generic []model.Recommendation `json:"generic_recommendations"`
}

// ProfileService encapsulates the profile store and the generic catalog.
type ProfileService struct {
	Store        *store.ProfileStore   // The profile document.
	Catalog      *store.GenericCatalog // Source of the welcome sample.
	GenericCount int                   // Sample size of the welcome payload.
	HashCost     int                   // bcrypt cost; bcrypt.DefaultCost when zero.
}

// Save validates form input and upserts the resulting profile. The stored
// viewing history and recommendations of an existing viewer are kept, and
// the password is stored as a bcrypt hash.
//
// Inputs:
//   - ctx: The request context.
//   - input: The form values.
//
// Outputs:
//   - *model.ViewerProfile: The profile as stored.
//   - bool: True when a new viewer was created.
//   - error: ErrRequiredFields, a *model.ValidationError or a store error.
func (s *ProfileService) Save(ctx context.Context, input *ProfileInput) (*model.ViewerProfile, bool, error) {
	if blank(input.FirstName) || blank(input.LastName) || blank(input.Username) || blank(input.Password) {
		return nil, false, ErrRequiredFields
	}
	profile := &model.ViewerProfile{
		RegistrationInformation: model.RegistrationInformation{
			FirstName: strings.TrimSpace(input.FirstName),
			LastName:  strings.TrimSpace(input.LastName),
			Username:  strings.TrimSpace(input.Username),
			Email:     strings.TrimSpace(input.Email),
		},
		Personalization:        input.Personalization == nil || *input.Personalization,
		DemographicInformation: input.Demographics,
		ViewingPreferences:     input.ViewingPreferences,
		PersonalFavorites:      favoriteSlots(input.Favorites),
		CurrentConditions:      input.CurrentConditions,
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.hashCost())
	if err != nil {
		return nil, false, fmt.Errorf("hashing password: %w", err)
	}
	profile.RegistrationInformation.Password = string(hash)

	created, err := s.Store.Update(ctx, profile.Username(), func(existing *model.ViewerProfile, found bool) (*model.ViewerProfile, error) {
		if found {
			profile.ViewingHistory = existing.ViewingHistory
			profile.Recommendations = existing.Recommendations
		}
		return profile, nil
	})
	if err != nil {
		return nil, false, err
	}
	slog.InfoContext(ctx, "viewer profile saved", "username", profile.Username(), "created", created)
	return profile, created, nil
}

// Authenticate checks a username and password. Hashed passwords are verified
// with bcrypt; records written before hashing are compared in constant time
// and are hashed on their next save.
func (s *ProfileService) Authenticate(ctx context.Context, username string, password string) (bool, error) {
	profile, found, err := s.Store.FindByUsername(ctx, username)
	if err != nil || !found || password == "" {
		return false, err
	}
	stored := profile.RegistrationInformation.Password
	if isBcryptHash(stored) {
		err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(password))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return err == nil, err
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(password)) == 1, nil
}

// Find returns the profile of username with the viewer's first name.
//
// Outputs:
//   - *ProfileView: The profile.
//   - error: store.ErrProfileNotFound for an unknown username.
func (s *ProfileService) Find(ctx context.Context, username string) (*ProfileView, error) {
	profile, found, err := s.Store.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", store.ErrProfileNotFound, username)
	}
	return &ProfileView{Profile: profile, FirstName: profile.RegistrationInformation.FirstName}, nil
}

// Welcome assembles the greeting, the profile and its position in the store,
// and a sample of generic recommendations.
func (s *ProfileService) Welcome(ctx context.Context, username string) (*Welcome, error) {
	profiles, err := s.Store.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	for i, profile := range profiles {
		if profile.Username() != username {
			continue
		}
		out := &Welcome{
			Message: fmt.Sprintf("Welcome, %s", profile.RegistrationInformation.FirstName),
			Index:   i,
			Profile: profile,
			Generic: []model.Recommendation{},
		}
		if s.Catalog != nil {
			out.Generic = s.Catalog.Sample(s.genericCount())
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %s", store.ErrProfileNotFound, username)
}

func (s *ProfileService) hashCost() int {
	if s.HashCost == 0 {
		return bcrypt.DefaultCost
	}
	return s.HashCost
}

func (s *ProfileService) genericCount() int {
	if s.GenericCount <= 0 {
		return model.DefaultGenericSample
	}
	return s.GenericCount
}

func favoriteSlots(slots []model.PersonalFavorite) []model.PersonalFavorite {
	out := []model.PersonalFavorite{}
	for i, slot := range slots {
		if i >= model.MaxPersonalFavorites {
			break
		}
		title, platform := strings.TrimSpace(slot.Title), strings.TrimSpace(slot.Platform)
		if title != "" && platform != "" {
			out = append(out, model.PersonalFavorite{Title: title, Platform: platform})
		}
	}
	return out
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}
