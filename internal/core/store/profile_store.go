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

// Package store persists viewer profiles and serves the generic catalog.
//
// The profile document is a single JSON array of ViewerProfile records,
// indented with four spaces. Every read loads the whole document and every
// write rewrites it, which keeps the file human-editable but limits the store
// to small profile counts. Writes go through a temp file, fsync and rename so
// a crash never leaves a truncated document behind.
//
// A mutex serializes read-modify-write inside one process. Two processes
// sharing the same file can still lose each other's writes.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/jaycherian/gcp-go-media-recommender/internal/core/model"
)

var (
	// ErrStoreCorrupt is matched by every CorruptError.
	ErrStoreCorrupt = errors.New("profile store corrupt")
	// ErrProfileNotFound is returned when no profile exists for a lookup.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrSkipUpdate is returned by an Update mutate function to leave the
	// document untouched.
	ErrSkipUpdate = errors.New("profile update skipped")
	// ErrUsernameMismatch is returned when an Update would store a profile
	// under another username.
	ErrUsernameMismatch = errors.New("profile username mismatch")
)

// CorruptError reports a profile document that could not be loaded. Index is
// the offending record, or -1 when the document itself is not a JSON array.
type CorruptError struct {
	Path  string
	Index int
	Err   error
}

func (e *CorruptError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("profile store %s is corrupt: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("profile store %s is corrupt at record %d: %v", e.Path, e.Index, e.Err)
}

func (e *CorruptError) Unwrap() error {
	return e.Err
}

// Is matches ErrStoreCorrupt.
func (e *CorruptError) Is(target error) bool {
	return target == ErrStoreCorrupt
}

// ProfileStore is a handle on one profile document.
type ProfileStore struct {
	path  string
	mutex sync.Mutex
}

// NewProfileStore returns a store backed by the file at path. The file does
// not need to exist yet.
//
// Inputs:
//   - path: Location of the JSON document.
//
// Outputs:
//   - *ProfileStore: The store handle.
func NewProfileStore(path string) *ProfileStore {
	return &ProfileStore{path: path}
}

// Path returns the backing file.
func (s *ProfileStore) Path() string {
	return s.path
}

// LoadAll reads every profile. A missing document is an empty collection; a
// record that fails validation aborts the load with a *CorruptError.
//
// Inputs:
//   - ctx: The request context, checked before reading.
//
// Outputs:
//   - []*model.ViewerProfile: The profiles in document order.
//   - error: A context error, I/O error or *CorruptError.
func (s *ProfileStore) LoadAll(ctx context.Context) ([]*model.ViewerProfile, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.load(ctx)
}

// FindByUsername returns the first profile whose username matches exactly.
//
// Outputs:
//   - *model.ViewerProfile: The profile, nil when absent.
//   - bool: True when found.
//   - error: A load error.
func (s *ProfileStore) FindByUsername(ctx context.Context, username string) (*model.ViewerProfile, bool, error) {
	profiles, err := s.LoadAll(ctx)
	if err != nil {
		return nil, false, err
	}
	for _, p := range profiles {
		if p.Username() == username {
			return p, true, nil
		}
	}
	return nil, false, nil
}

// ProfileAt returns the profile at a document position, matching the order
// shown by selection lists.
func (s *ProfileStore) ProfileAt(ctx context.Context, index int) (*model.ViewerProfile, error) {
	profiles, err := s.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(profiles) {
		return nil, fmt.Errorf("%w: no profile at index %d of %d", ErrProfileNotFound, index, len(profiles))
	}
	return profiles[index], nil
}

// Upsert replaces the profile with the same username, keeping its position,
// or appends it. The whole document is then rewritten.
//
// Inputs:
//   - ctx: The request context.
//   - profile: A profile with at least the required registration fields.
//
// Outputs:
//   - bool: True when the profile was appended as new.
//   - error: A validation, load or write error.
func (s *ProfileStore) Upsert(ctx context.Context, profile *model.ViewerProfile) (bool, error) {
	return s.Update(ctx, profile.Username(), func(_ *model.ViewerProfile, _ bool) (*model.ViewerProfile, error) {
		return profile, nil
	})
}

// Update runs a read-modify-write of one profile while holding the store
// lock, so concurrent updates of the same document never overwrite each
// other. mutate receives the stored profile (nil when absent) and returns the
// profile to write. Returning ErrSkipUpdate leaves the document unchanged.
//
// Inputs:
//   - ctx: The request context.
//   - username: The profile to update. The returned profile must keep it.
//   - mutate: Builds the new record from the stored one. It runs under the
//     lock and should not block.
//
// Outputs:
//   - bool: True when the profile was appended as new.
//   - error: ErrSkipUpdate or any error from mutate, or a validation, load or
//     write error.
func (s *ProfileStore) Update(
	ctx context.Context,
	username string,
	mutate func(existing *model.ViewerProfile, found bool) (*model.ViewerProfile, error)) (bool, error) {

	s.mutex.Lock()
	defer s.mutex.Unlock()

	profiles, err := s.load(ctx)
	if err != nil {
		return false, err
	}
	index := -1
	for i, existing := range profiles {
		if existing.Username() == username {
			index = i
			break
		}
	}
	var existing *model.ViewerProfile
	if index >= 0 {
		existing = profiles[index]
	}
	profile, err := mutate(existing, index >= 0)
	if err != nil {
		return false, err
	}
	if profile == nil || profile.Username() != username {
		return false, fmt.Errorf("%w: update of %s changed the username", ErrUsernameMismatch, username)
	}
	if err := model.ValidateStruct(profile); err != nil {
		return false, err
	}
	profile.Normalize()

	created := index < 0
	if created {
		profiles = append(profiles, profile)
	} else {
		profiles[index] = profile
	}
	if err := s.write(profiles); err != nil {
		return false, err
	}
	slog.InfoContext(ctx, "saved viewer profile", "username", username, "created", created, "count", len(profiles))
	return created, nil
}

func (s *ProfileStore) load(ctx context.Context) ([]*model.ViewerProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []*model.ViewerProfile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading profile store %s: %w", s.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []*model.ViewerProfile{}, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &CorruptError{Path: s.path, Index: -1, Err: err}
	}
	out := make([]*model.ViewerProfile, 0, len(raw))
	for i, record := range raw {
		profile, err := model.ParseViewerProfile(record)
		if err != nil {
			return nil, &CorruptError{Path: s.path, Index: i, Err: err}
		}
		out = append(out, profile)
	}
	return out, nil
}

func (s *ProfileStore) write(profiles []*model.ViewerProfile) error {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "    ")
	if err := encoder.Encode(profiles); err != nil {
		return fmt.Errorf("encoding profiles: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating profile directory: %w", err)
	}
	temp, err := os.CreateTemp(dir, ".profiles-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp profile file: %w", err)
	}
	tempPath := temp.Name()
	if _, err := temp.Write(buf.Bytes()); err != nil {
		_ = temp.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("writing temp profile file: %w", err)
	}
	if err := temp.Sync(); err != nil {
		_ = temp.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("syncing temp profile file: %w", err)
	}
	if err := temp.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("closing temp profile file: %w", err)
	}
	if err := os.Chmod(tempPath, 0o644); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("setting profile file mode: %w", err)
	}
	if err := os.Rename(tempPath, s.path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("replacing profile store: %w", err)
	}
	return nil
}
