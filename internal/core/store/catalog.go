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

package store

import (
	"context"
	"fmt"
	"math/rand/v2"

	"cloud.google.com/go/storage"
	"github.com/jaycherian/gcp-go-media-recommender/internal/cloud"
	"github.com/jaycherian/gcp-go-media-recommender/internal/core/model"
)

// GenericCatalog is a fixed list of recommendations shown to viewers who have
// not asked for personalized ones. It is read once and never written.
type GenericCatalog struct {
	items []model.Recommendation
}

// NewGenericCatalog wraps an in-memory list.
func NewGenericCatalog(items []model.Recommendation) *GenericCatalog {
	return &GenericCatalog{items: items}
}

// LoadGenericCatalog reads the catalog from a local path or a gs:// object.
//
// Inputs:
//   - ctx: The startup context.
//   - client: Storage client for gs:// locations, may be nil otherwise.
//   - location: Where the JSON array lives.
//
// Outputs:
//   - *GenericCatalog: The loaded catalog.
//   - error: A read error or *model.ValidationError.
func LoadGenericCatalog(ctx context.Context, client *storage.Client, location string) (*GenericCatalog, error) {
	data, err := cloud.ReadLocation(ctx, client, location)
	if err != nil {
		return nil, fmt.Errorf("loading generic catalog: %w", err)
	}
	items, err := model.ParseRecommendations(data)
	if err != nil {
		return nil, fmt.Errorf("parsing generic catalog %s: %w", location, err)
	}
	return NewGenericCatalog(items), nil
}

// Len is the catalog size.
func (c *GenericCatalog) Len() int {
	return len(c.items)
}

// Sample returns up to n distinct items in random order. A request larger
// than the catalog returns the whole catalog shuffled.
func (c *GenericCatalog) Sample(n int) []model.Recommendation {
	if n <= 0 || len(c.items) == 0 {
		return []model.Recommendation{}
	}
	n = min(n, len(c.items))
	out := make([]model.Recommendation, 0, n)
	for _, idx := range rand.Perm(len(c.items))[:n] {
		out = append(out, c.items[idx])
	}
	return out
}
