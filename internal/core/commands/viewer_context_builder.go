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
// first step of the describe pipeline.
//
// Logic Flow:
//  1. It reads the selected profile and the requested section names.
//  2. It copies only those sections into a model.ViewerContext. Unknown names
//     are ignored, so an empty or unrecognized selection yields `{}`.
//  3. It stores the context for the prompt renderer.
package commands

import (
	"fmt"

	"github.com/jaycherian/gcp-go-media-recommender/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-recommender/internal/core/model"
)

// ViewerContextBuilder selects the profile sections sent to the agent.
type ViewerContextBuilder struct {
	cor.BaseCommand
}

// NewViewerContextBuilder reads ParamProfile and ParamSections and writes
// ParamViewerContext.
func NewViewerContextBuilder(name string) *ViewerContextBuilder {
	return &ViewerContextBuilder{BaseCommand: *cor.NewBaseCommandWithParams(name, ParamProfile, ParamViewerContext)}
}

// Execute builds the viewer context.
func (v *ViewerContextBuilder) Execute(context cor.Context) {
	profile, ok := cor.Value[*model.ViewerProfile](context, v.GetInputParam())
	if !ok || profile == nil {
		v.Fail(context, fmt.Errorf("no viewer profile under %s", v.GetInputParam()))
		return
	}
	sections, _ := cor.Value[[]string](context, ParamSections)
	context.Add(v.GetOutputParam(), model.NewViewerContext(profile, sections))
	v.Succeed(context)
}
