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

package tools

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"
)

// ClockToolName is the function name of the clock tool.
const ClockToolName = "current_time"

// Clock reports the current date and time so the agent can reason about
// seasons, holidays and new releases.
type Clock struct {
	Now func() time.Time
}

// NewClock returns a clock backed by time.Now.
func NewClock() *Clock {
	return &Clock{Now: time.Now}
}

func (c *Clock) Name() string {
	return ClockToolName
}

func (c *Clock) Declaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        ClockToolName,
		Description: "Returns the current date and time. Call this first to learn the season and upcoming holidays.",
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"timezone": {
					Type:        genai.TypeString,
					Description: "Optional IANA time zone such as America/New_York. Defaults to UTC.",
				},
			},
		},
	}
}

func (c *Clock) Invoke(_ context.Context, args map[string]any) (map[string]any, error) {
	zone, _ := args["timezone"].(string)
	loc := time.UTC
	if zone != "" {
		loaded, err := time.LoadLocation(zone)
		if err != nil {
			return nil, fmt.Errorf("unknown timezone %q: %w", zone, err)
		}
		loc = loaded
	}
	now := c.Now().In(loc)
	return map[string]any{
		"current_time": now.Format(time.RFC3339),
		"weekday":      now.Weekday().String(),
		"timezone":     loc.String(),
	}, nil
}
