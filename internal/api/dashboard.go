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

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Stats is the operational summary served by /stats.
type Stats struct {
	Profiles       int `json:"profiles"`
	ChatSessions   int `json:"chat_sessions"`
	CatalogEntries int `json:"catalog_entries"`
}

// Dashboard configures the health and statistics routes.
//
// Inputs:
//   - r: The /api/v1 group.
//   - h: The services to report on.
//
// Routes:
//   - GET /health: The agent health check, 503 when the model does not answer.
//   - GET /stats: Profile, chat session and catalog counts.
func Dashboard(r *gin.RouterGroup, h *Handlers) {
	r.GET("/health", func(c *gin.Context) {
		health := h.Recommendations.Health(c.Request.Context())
		status := http.StatusOK
		if !health.Healthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, health)
	})

	r.GET("/stats", func(c *gin.Context) {
		profiles, err := h.Profiles.Store.LoadAll(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		out := Stats{Profiles: len(profiles), ChatSessions: h.Recommendations.ActiveChatSessions()}
		if h.Profiles.Catalog != nil {
			out.CatalogEntries = h.Profiles.Catalog.Len()
		}
		c.JSON(http.StatusOK, out)
	})
}
