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
// command that appends generated recommendations to the BigQuery ledger.
//
// Logic Flow:
//  1. It reads the generated recommendations and the request metadata
//     (request id, username and source).
//  2. Degraded results carry no structured items and are skipped.
//  3. Every item becomes one model.RecommendationLedgerRow, written with a
//     single streaming Put through the table Inserter. The struct `bigquery`
//     tags map fields onto columns.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/jaycherian/gcp-go-media-recommender/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-recommender/internal/core/model"
)

// RowInserter is satisfied by *bigquery.Inserter.
type RowInserter interface {
	Put(ctx context.Context, src interface{}) error
}

// RecommendationPersistToBigQuery writes the ledger rows of one request.
type RecommendationPersistToBigQuery struct {
	cor.BaseCommand
	inserter RowInserter
	now      func() time.Time
}

// NewLedgerInserter returns the streaming inserter of the ledger table.
//
// Inputs:
//   - client: An initialized *bigquery.Client.
//   - dataset: The name of the BigQuery dataset.
//   - table: The name of the ledger table.
//
// Outputs:
//   - RowInserter: The table's *bigquery.Inserter.
func NewLedgerInserter(client *bigquery.Client, dataset string, table string) RowInserter {
	return client.Dataset(dataset).Table(table).Inserter()
}

// NewRecommendationPersistWithInserter builds the command around any inserter.
func NewRecommendationPersistWithInserter(name string, inserter RowInserter) *RecommendationPersistToBigQuery {
	return &RecommendationPersistToBigQuery{
		BaseCommand: *cor.NewBaseCommandWithParams(name, ParamRecommendations, ""),
		inserter:    inserter,
		now:         time.Now,
	}
}

// LedgerRows flattens a generated result into ledger rows.
func LedgerRows(requestId string, username string, source string, generated *model.GeneratedRecommendations, created time.Time) []*model.RecommendationLedgerRow {
	rows := make([]*model.RecommendationLedgerRow, 0, len(generated.Recommendations))
	for i, r := range generated.Recommendations {
		rows = append(rows, &model.RecommendationLedgerRow{
			RequestId:         requestId,
			Username:          username,
			Source:            source,
			Position:          i + 1,
			Title:             r.Title,
			StreamingPlatform: r.StreamingPlatform,
			URL:               r.URL,
			Reason:            r.Reason,
			CreateDate:        created,
		})
	}
	return rows
}

func (s *RecommendationPersistToBigQuery) Execute(context cor.Context) {
	generated, ok := cor.Value[*model.GeneratedRecommendations](context, s.GetInputParam())
	if !ok || generated == nil || generated.Degraded || len(generated.Recommendations) == 0 {
		return
	}
	requestId, _ := cor.Value[string](context, ParamRequestId)
	username, _ := cor.Value[string](context, ParamUsername)
	source, _ := cor.Value[string](context, ParamSource)

	rows := LedgerRows(requestId, username, source, generated, s.now().UTC())
	if err := s.inserter.Put(context.GetContext(), rows); err != nil {
		s.Fail(context, fmt.Errorf("bigquery insert failed for request %s: %w", requestId, err))
		return
	}
	slog.InfoContext(context.GetContext(), "persisted recommendations to ledger", "request_id", requestId, "rows", len(rows))
	s.Succeed(context)
}
