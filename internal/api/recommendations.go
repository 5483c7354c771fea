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
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jaycherian/gcp-go-media-recommender/internal/core/model"
	"github.com/jaycherian/gcp-go-media-recommender/internal/core/services"
)

// RecommendationRouter sets up the describe, recommend, generic and chat
// routes. The recommend and chat routes accept `format=markdown`, which
// replaces the list with its rendered markdown.
func RecommendationRouter(r *gin.RouterGroup, h *Handlers) {
	r.POST("/descriptions", func(c *gin.Context) {
		var req services.DescribeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		out, err := h.Recommendations.Describe(c.Request.Context(), &req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	})

	recommendations := r.Group("/recommendations")
	{
		recommendations.POST("", func(c *gin.Context) {
			var req services.RecommendRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				badRequest(c, err)
				return
			}
			out, err := h.Recommendations.Recommend(c.Request.Context(), &req)
			if err != nil {
				writeError(c, err)
				return
			}
			if c.Query("format") == FormatMarkdown {
				c.JSON(http.StatusOK, markdownBody(out, false))
				return
			}
			c.JSON(http.StatusOK, out)
		})

		recommendations.GET("/generic", func(c *gin.Context) {
			count := 0
			if raw := c.Query("count"); raw != "" {
				n, err := strconv.Atoi(raw)
				if err != nil || n < 0 {
					badRequest(c, fmt.Errorf("invalid count %q", raw))
					return
				}
				count = n
			}
			c.JSON(http.StatusOK, gin.H{"recommendations": h.Recommendations.Generic(count)})
		})
	}

	r.POST("/chat", func(c *gin.Context) {
		var req services.ChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		out, err := h.Recommendations.Chat(c.Request.Context(), &req)
		if err != nil {
			writeError(c, err)
			return
		}
		if c.Query("format") == FormatMarkdown {
			body := markdownBody(out.GeneratedRecommendations, true)
			body["session_id"] = out.SessionId
			c.JSON(http.StatusOK, body)
			return
		}
		c.JSON(http.StatusOK, out)
	})
}

func markdownBody(generated *model.GeneratedRecommendations, chat bool) gin.H {
	return gin.H{
		"markdown": services.Markdown(generated, chat),
		"degraded": generated.Degraded,
		"usage":    generated.Usage,
	}
}
