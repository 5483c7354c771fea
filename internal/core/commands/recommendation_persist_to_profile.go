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

// Package commands provides the concrete implementations of the Chain of
// Responsibility (COR) pattern's Command interface. This file defines the
// command that saves generated recommendations onto the viewer's profile.
package commands

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jaycherian/gcp-go-media-recommender/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-recommender/internal/core/model"
	"github.com/jaycherian/gcp-go-media-recommender/internal/core/store"
)

// ProfileRepository is the part of store.ProfileStore used by
// RecommendationPersistToProfile.
type ProfileRepository interface {
	Update(ctx context.Context, username string, mutate func(existing *model.ViewerProfile, found bool) (*model.ViewerProfile, error)) (bool, error)
}

// RecommendationPersistToProfile replaces the stored recommendations of the
// requesting viewer with the newly generated list. Requests without a
// username, degraded results and unknown usernames are skipped. A failed
// save is logged and does not fail the request: the list is still returned.
type RecommendationPersistToProfile struct {
	cor.BaseCommand
	profiles ProfileRepository
}

// NewRecommendationPersistToProfile reads ParamRecommendations and
// ParamUsername.
func NewRecommendationPersistToProfile(name string, profiles ProfileRepository) *RecommendationPersistToProfile {
	return &RecommendationPersistToProfile{
		BaseCommand: *cor.NewBaseCommandWithParams(name, ParamRecommendations, ""),
		profiles:    profiles,
	}
}

func (p *RecommendationPersistToProfile) Execute(context cor.Context) {
	generated, ok := cor.Value[*model.GeneratedRecommendations](context, p.GetInputParam())
	username, _ := cor.Value[string](context, ParamUsername)
	if !ok || generated == nil || generated.Degraded || username == "" {
		return
	}
	ctx := context.GetContext()
	_, err := p.profiles.Update(ctx, username, func(existing *model.ViewerProfile, found bool) (*model.ViewerProfile, error) {
		if !found {
			return nil, store.ErrSkipUpdate
		}
		updated := *existing
		updated.Recommendations = append([]model.Recommendation{}, generated.Recommendations...)
		return &updated, nil
	})
	switch {
	case errors.Is(err, store.ErrSkipUpdate):
		slog.WarnContext(ctx, "skipping recommendation save for unknown viewer", "username", username)
	case err != nil:
		slog.WarnContext(ctx, "failed to save recommendations onto profile", "username", username, "error", err)
	default:
		p.Succeed(context)
	}
}
