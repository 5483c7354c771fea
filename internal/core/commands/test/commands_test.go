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

package commands_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jaycherian/gcp-go-media-recommender/internal/core/agent"
	"github.com/jaycherian/gcp-go-media-recommender/internal/core/commands"
	"github.com/jaycherian/gcp-go-media-recommender/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-recommender/internal/core/model"
	test "github.com/jaycherian/gcp-go-media-recommender/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExtractor struct {
	list  *model.RecommendationList
	usage model.TokenUsage
	err   error
}

func (f *fakeExtractor) ExtractRecommendations(_ context.Context, _ string) (*model.RecommendationList, model.TokenUsage, error) {
	return f.list, f.usage, f.err
}

type failingLedger struct{}

func (failingLedger) Put(context.Context, interface{}) error {
	return errors.New("table not found")
}

func TestPromptRenderer(t *testing.T) {
	tmpl, err := commands.ParsePromptTemplate("t", "count={{ .count }} ctx={{ json .viewer_information }} missing={{ .description }}")
	require.NoError(t, err)
	renderer := commands.NewPromptRenderer("render", tmpl, []string{commands.ParamCount, commands.ParamViewerContext, commands.ParamDescription}, commands.ParamPrompt)

	chCtx := cor.NewBaseContextWith(context.Background(), nil)
	chCtx.Add(commands.ParamCount, 3)
	chCtx.Add(commands.ParamViewerContext, model.ViewerContext{})
	require.True(t, renderer.IsExecutable(chCtx))
	renderer.Execute(chCtx)
	require.NoError(t, chCtx.Err())

	prompt, _ := cor.Value[string](chCtx, commands.ParamPrompt)
	assert.Equal(t, "count=3 ctx={} missing=<no value>", prompt)

	params := renderer.GenerateParams(chCtx)
	assert.Equal(t, model.GetExampleRecommendationJSON(), params[commands.ParamExample])
}

func TestPromptRendererTemplateError(t *testing.T) {
	tmpl, err := commands.ParsePromptTemplate("t", "{{ .count.Missing }}")
	require.NoError(t, err)
	renderer := commands.NewPromptRenderer("render", tmpl, []string{commands.ParamCount}, commands.ParamPrompt)

	chCtx := cor.NewBaseContextWith(context.Background(), nil)
	chCtx.Add(commands.ParamCount, 3)
	renderer.Execute(chCtx)
	assert.Error(t, chCtx.Err())
	assert.Nil(t, chCtx.Get(commands.ParamPrompt))

	_, err = commands.ParsePromptTemplate("broken", "{{ .count ")
	assert.Error(t, err)
}

func TestViewerContextBuilderRequiresProfile(t *testing.T) {
	builder := commands.NewViewerContextBuilder("build")
	chCtx := cor.NewBaseContextWith(context.Background(), nil)
	assert.False(t, builder.IsExecutable(chCtx))

	chCtx.Add(commands.ParamProfile, test.AliceProfile())
	chCtx.Add(commands.ParamSections, []string{model.SectionViewingPreferences, "Astrology"})
	builder.Execute(chCtx)
	require.NoError(t, chCtx.Err())
	viewer, _ := cor.Value[model.ViewerContext](chCtx, commands.ParamViewerContext)
	assert.Len(t, viewer, 1)
	assert.Contains(t, viewer, "viewing_preferences")
}

func TestChatTranscriptCleanerKeepsStructuredContent(t *testing.T) {
	cleaner := commands.NewChatTranscriptCleaner("clean")
	chCtx := cor.NewBaseContextWith(context.Background(), nil)
	chCtx.Add(commands.ParamRawHistory, []map[string]any{
		{"role": "user", "content": []any{"a", "b"}},
		{"role": "assistant"},
	})
	cleaner.Execute(chCtx)
	require.NoError(t, chCtx.Err())

	history, _ := cor.Value[[]model.ChatMessage](chCtx, commands.ParamHistory)
	assert.Equal(t, []model.ChatMessage{{Role: "user", Content: `["a","b"]`}, {Role: "assistant", Content: ""}}, history)
}

func TestRecommendationExtractor(t *testing.T) {
	completion := &agent.Result{Text: "free text", Usage: model.TokenUsage{TotalTokens: 10}, ToolsUsed: []string{"google_search"}}

	extractor := commands.NewRecommendationExtractor("extract", &fakeExtractor{
		list:  model.GetExampleRecommendationList(),
		usage: model.TokenUsage{TotalTokens: 5},
	})
	chCtx := cor.NewBaseContextWith(context.Background(), nil)
	chCtx.Add(commands.ParamCompletion, completion)
	extractor.Execute(chCtx)
	require.NoError(t, chCtx.Err())
	generated, _ := cor.Value[*model.GeneratedRecommendations](chCtx, commands.ParamRecommendations)
	require.NotNil(t, generated)
	assert.Len(t, generated.Recommendations, 2)
	assert.Equal(t, int32(15), generated.Usage.TotalTokens)
	assert.Equal(t, []string{"google_search"}, generated.ToolsUsed)

	degrading := commands.NewRecommendationExtractor("extract", &fakeExtractor{err: &model.ValidationError{Field: "recommendations"}})
	chCtx = cor.NewBaseContextWith(context.Background(), nil)
	chCtx.Add(commands.ParamCompletion, completion)
	degrading.Execute(chCtx)
	require.NoError(t, chCtx.Err())
	generated, _ = cor.Value[*model.GeneratedRecommendations](chCtx, commands.ParamRecommendations)
	assert.True(t, generated.Degraded)
	assert.Equal(t, "free text", generated.RawText)
	assert.NotNil(t, generated.Recommendations)
}

func TestRecommendationExtractorCancelled(t *testing.T) {
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	extractor := commands.NewRecommendationExtractor("extract", &fakeExtractor{err: context.Canceled})
	chCtx := cor.NewBaseContextWith(cancelled, nil)
	chCtx.Add(commands.ParamCompletion, &agent.Result{Text: "x"})
	extractor.Execute(chCtx)
	assert.ErrorIs(t, chCtx.Err(), context.Canceled)
	assert.Nil(t, chCtx.Get(commands.ParamRecommendations))
}

func TestLedgerRows(t *testing.T) {
	created := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)
	generated := &model.GeneratedRecommendations{Recommendations: model.GetExampleRecommendationList().Recommendations}
	rows := commands.LedgerRows("req", "bob", commands.SourceChat, generated, created)
	require.Len(t, rows, 2)
	assert.Equal(t, 1, rows[0].Position)
	assert.Equal(t, "Planet Earth II", rows[0].Title)
	assert.Equal(t, created, rows[1].CreateDate)
}

func TestLedgerFailureIsRecorded(t *testing.T) {
	persist := commands.NewRecommendationPersistWithInserter("ledger", failingLedger{})
	chCtx := cor.NewBaseContextWith(context.Background(), nil)
	chCtx.Add(commands.ParamRecommendations, &model.GeneratedRecommendations{Recommendations: model.GetExampleRecommendationList().Recommendations})
	chCtx.Add(commands.ParamRequestId, "req-9")
	persist.Execute(chCtx)
	assert.ErrorContains(t, chCtx.Err(), "req-9")
}

func TestPersistToProfileSkipsUnknownViewer(t *testing.T) {
	profiles := test.SeedStore(t, test.AliceProfile())
	persist := commands.NewRecommendationPersistToProfile("save", profiles)
	chCtx := cor.NewBaseContextWith(context.Background(), nil)
	chCtx.Add(commands.ParamRecommendations, &model.GeneratedRecommendations{Recommendations: model.GetExampleRecommendationList().Recommendations})
	chCtx.Add(commands.ParamUsername, "nobody")
	persist.Execute(chCtx)
	require.NoError(t, chCtx.Err())

	chCtx.Add(commands.ParamUsername, "alice")
	persist.Execute(chCtx)
	require.NoError(t, chCtx.Err())
	alice, _, err := profiles.FindByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Len(t, alice.Recommendations, 2)
}

type failingProfiles struct{}

func (failingProfiles) Update(context.Context, string, func(*model.ViewerProfile, bool) (*model.ViewerProfile, error)) (bool, error) {
	return false, errors.New("disk full")
}

func TestPersistToProfileFailureKeepsRecommendations(t *testing.T) {
	generated := &model.GeneratedRecommendations{Recommendations: model.GetExampleRecommendationList().Recommendations}
	persist := commands.NewRecommendationPersistToProfile("save", failingProfiles{})
	chCtx := cor.NewBaseContextWith(context.Background(), nil)
	chCtx.Add(commands.ParamRecommendations, generated)
	chCtx.Add(commands.ParamUsername, "bob")
	persist.Execute(chCtx)

	require.NoError(t, chCtx.Err())
	kept, ok := cor.Value[*model.GeneratedRecommendations](chCtx, commands.ParamRecommendations)
	require.True(t, ok)
	assert.Len(t, kept.Recommendations, 2)
}
