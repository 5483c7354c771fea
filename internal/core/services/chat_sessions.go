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

// Package services contains the business logic behind the API handlers.
// This file keeps the per-session chat workflows.
package services

import (
	"sync"

	"github.com/google/uuid"
	"github.com/jaycherian/gcp-go-media-recommender/internal/core/workflow"
)

// DefaultMaxChatSessions bounds the session table when configuration is silent.
const DefaultMaxChatSessions = 256

type chatSession struct {
	workflow *workflow.ChatWorkflow
	lastUsed uint64 // Value of ChatSessions.tick at the last access.
}

// ChatSessions maps session ids onto chat workflows, each with its own agent
// and conversation window. When full, the least recently used session is
// dropped.
type ChatSessions struct {
	mu       sync.Mutex
	max      int
	sessions map[string]*chatSession
	factory  func() (*workflow.ChatWorkflow, error)
	tick     uint64
}

// NewChatSessions creates an empty session table.
func NewChatSessions(maxSessions int, factory func() (*workflow.ChatWorkflow, error)) *ChatSessions {
	if maxSessions <= 0 {
		maxSessions = DefaultMaxChatSessions
	}
	return &ChatSessions{
		max:      maxSessions,
		sessions: make(map[string]*chatSession),
		factory:  factory,
	}
}

// Get returns the workflow of id. An empty or unknown id starts a new session
// under a freshly issued id.
func (c *ChatSessions) Get(id string) (string, *workflow.ChatWorkflow, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if session, ok := c.sessions[id]; ok {
		session.lastUsed = c.next()
		return id, session.workflow, nil
	}
	created, err := c.factory()
	if err != nil {
		return "", nil, err
	}
	if len(c.sessions) >= c.max {
		c.evictOldest()
	}
	id = uuid.NewString()
	c.sessions[id] = &chatSession{workflow: created, lastUsed: c.next()}
	return id, created, nil
}

// Len is the number of live sessions.
func (c *ChatSessions) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sessions)
}

func (c *ChatSessions) next() uint64 {
	c.tick++
	return c.tick
}

func (c *ChatSessions) evictOldest() {
	var oldestId string
	var oldest uint64
	for id, session := range c.sessions {
		if oldestId == "" || session.lastUsed < oldest {
			oldestId, oldest = id, session.lastUsed
		}
	}
	delete(c.sessions, oldestId)
}
