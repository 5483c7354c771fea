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

package agent

import (
	"github.com/jaycherian/gcp-go-media-recommender/internal/cloud"
	"google.golang.org/genai"
)

// DefaultWindowSize is the number of messages kept between requests.
const DefaultWindowSize = 20

// ConversationWindow keeps the most recent messages of a session. Oldest
// messages are dropped first, and the window never starts in the middle of
// a tool exchange: the first retained message is always a plain user turn.
// A single turn longer than the window is kept whole until the next append.
type ConversationWindow struct {
	size     int
	messages []*genai.Content
}

// NewConversationWindow creates a window holding at most size messages.
func NewConversationWindow(size int) *ConversationWindow {
	if size <= 0 {
		size = DefaultWindowSize
	}
	return &ConversationWindow{size: size}
}

// Append adds messages and trims the window.
func (w *ConversationWindow) Append(messages ...*genai.Content) {
	all := append(w.messages, messages...)
	start := max(0, len(all)-w.size)
	for start < len(all) && !isUserText(all[start]) {
		start++
	}
	if start == len(all) {
		start = lastUserText(all)
	}
	w.messages = all[start:]
}

// Messages returns a copy of the retained messages, oldest first.
func (w *ConversationWindow) Messages() []*genai.Content {
	out := make([]*genai.Content, len(w.messages))
	copy(out, w.messages)
	return out
}

// Len is the number of retained messages.
func (w *ConversationWindow) Len() int {
	return len(w.messages)
}

// Size is the configured capacity.
func (w *ConversationWindow) Size() int {
	return w.size
}

// Reset drops every message.
func (w *ConversationWindow) Reset() {
	w.messages = nil
}

// isUserText reports whether c is a user turn without function responses.
func isUserText(c *genai.Content) bool {
	if c == nil || c.Role != cloud.RoleUser {
		return false
	}
	for _, part := range c.Parts {
		if part != nil && part.FunctionResponse != nil {
			return false
		}
	}
	return true
}

// lastUserText is the index of the newest plain user turn, or len(messages)
// when there is none.
func lastUserText(messages []*genai.Content) int {
	for i := len(messages) - 1; i >= 0; i-- {
		if isUserText(messages[i]) {
			return i
		}
	}
	return len(messages)
}
