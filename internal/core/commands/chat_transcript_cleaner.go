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
// first step of the chat pipeline.
package commands

import (
	"encoding/json"
	"fmt"

	"github.com/jaycherian/gcp-go-media-recommender/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-recommender/internal/core/model"
)

// ChatTranscriptCleaner reduces client chat messages to role and content.
// Client widgets attach `metadata` and `options` to each message; those never
// reach the prompt. Non-string content is kept as its JSON encoding and
// messages without a role are dropped.
type ChatTranscriptCleaner struct {
	cor.BaseCommand
}

// NewChatTranscriptCleaner reads ParamRawHistory and writes ParamHistory.
func NewChatTranscriptCleaner(name string) *ChatTranscriptCleaner {
	return &ChatTranscriptCleaner{BaseCommand: *cor.NewBaseCommandWithParams(name, ParamRawHistory, ParamHistory)}
}

func (c *ChatTranscriptCleaner) Execute(context cor.Context) {
	raw, ok := cor.Value[[]map[string]any](context, c.GetInputParam())
	if !ok {
		c.Fail(context, fmt.Errorf("no chat transcript under %s", c.GetInputParam()))
		return
	}
	history := make([]model.ChatMessage, 0, len(raw))
	for _, event := range raw {
		role, _ := event["role"].(string)
		if role == "" {
			continue
		}
		history = append(history, model.ChatMessage{Role: role, Content: contentText(event["content"])})
	}
	context.Add(c.GetOutputParam(), history)
	c.Succeed(context)
}

func contentText(v any) string {
	switch content := v.(type) {
	case nil:
		return ""
	case string:
		return content
	default:
		out, err := json.Marshal(content)
		if err != nil {
			return fmt.Sprint(content)
		}
		return string(out)
	}
}
