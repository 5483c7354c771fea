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

package store_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/jaycherian/gcp-go-media-recommender/internal/cloud"
	"github.com/jaycherian/gcp-go-media-recommender/internal/core/store"
	test "github.com/jaycherian/gcp-go-media-recommender/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	zassert "github.com/zeebo/assert"
)

func TestSampleDistinctAndBounded(t *testing.T) {
	catalog := test.GenericCatalog()

	sample := catalog.Sample(8)
	zassert.Equal(t, len(sample), 8)
	seen := map[string]bool{}
	for _, item := range sample {
		assert.False(t, seen[item.Title], "duplicate %s", item.Title)
		seen[item.Title] = true
	}

	zassert.Equal(t, len(catalog.Sample(50)), catalog.Len())
	zassert.Equal(t, len(catalog.Sample(0)), 0)
	zassert.Equal(t, len(store.NewGenericCatalog(nil).Sample(3)), 0)
}

func TestLoadGenericCatalogFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "generic.json")
	data, err := json.Marshal(test.GenericCatalog().Sample(3))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	catalog, err := store.LoadGenericCatalog(context.Background(), nil, path)
	require.NoError(t, err)
	assert.Equal(t, 3, catalog.Len())
}

func TestLoadGenericCatalogErrors(t *testing.T) {
	_, err := store.LoadGenericCatalog(context.Background(), nil, filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = store.LoadGenericCatalog(context.Background(), nil, "gs://bucket-only")
	assert.ErrorIs(t, err, cloud.ErrInvalidGCSLocation)
}
