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

// Package cloud contains data structures and utilities for interacting with Google Cloud services.
// This file handles Google Cloud Storage (GCS) locations. Data files such as the
// generic recommendation catalog may live either on local disk or in a bucket,
// and are addressed by a single location string.
//
// Structs:
//   - GCSObject: A parsed gs://bucket/object reference.
//
// Functions:
//   - ParseGCSLocation: Splits a gs:// URI into bucket and object name.
//   - ReadLocation: Reads a local file or GCS object fully into memory.
package cloud

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
)

// GCSScheme prefixes locations that refer to Cloud Storage objects.
const GCSScheme = "gs://"

// ErrInvalidGCSLocation is returned for gs:// locations missing a bucket or object.
var ErrInvalidGCSLocation = errors.New("invalid gcs location")

// GCSObject is a simplified, internal representation of a Google Cloud Storage (GCS)
// object.
type GCSObject struct {
	Bucket string // The name of the GCS bucket.
	Name   string // The name of the object.
}

// String renders the object back into gs:// form.
func (o GCSObject) String() string {
	return GCSScheme + o.Bucket + "/" + o.Name
}

// ParseGCSLocation splits a gs://bucket/path/to/object location.
//
// Inputs:
//   - location: A string beginning with gs://.
//
// Outputs:
//   - GCSObject: The parsed bucket and object name.
//   - bool: False when the location is not a GCS location at all.
//   - error: ErrInvalidGCSLocation when the location is gs:// but incomplete.
func ParseGCSLocation(location string) (GCSObject, bool, error) {
	if !strings.HasPrefix(location, GCSScheme) {
		return GCSObject{}, false, nil
	}
	bucket, name, found := strings.Cut(strings.TrimPrefix(location, GCSScheme), "/")
	if !found || bucket == "" || name == "" {
		return GCSObject{}, true, fmt.Errorf("%w: %q", ErrInvalidGCSLocation, location)
	}
	return GCSObject{Bucket: bucket, Name: name}, true, nil
}

// ReadLocation reads the full contents of a local file or a GCS object. The
// storage client may be nil when only local paths are used.
//
// Inputs:
//   - ctx: The request context.
//   - client: A Cloud Storage client, used only for gs:// locations.
//   - location: A local path or a gs://bucket/object URI.
//
// Outputs:
//   - []byte: The bytes read.
//   - error: Any error opening or reading the location.
func ReadLocation(ctx context.Context, client *storage.Client, location string) ([]byte, error) {
	obj, isGCS, err := ParseGCSLocation(location)
	if err != nil {
		return nil, err
	}
	if !isGCS {
		return os.ReadFile(location)
	}
	if client == nil {
		return nil, fmt.Errorf("reading %s: no storage client configured", obj)
	}
	reader, err := client.Bucket(obj.Bucket).Object(obj.Name).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", obj, err)
	}
	defer func() { _ = reader.Close() }()
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", obj, err)
	}
	return data, nil
}
