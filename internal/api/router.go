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

// Package api contains the HTTP route definitions of the recommender. The
// router is a gin engine instrumented with otelgin, with CORS enabled for the
// configured origin and a per-request timeout.
//
// Functions:
//   - NewRouter: Builds the engine and registers every route under /api/v1.
//   - ProfileRouter: Login and profile management routes.
//   - RecommendationRouter: Describe, recommend, generic and chat routes.
//   - Dashboard: Health and statistics routes.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/jaycherian/gcp-go-media-recommender/internal/cloud"
	"github.com/jaycherian/gcp-go-media-recommender/internal/core/model"
	"github.com/jaycherian/gcp-go-media-recommender/internal/core/services"
	"github.com/jaycherian/gcp-go-media-recommender/internal/core/store"
)

const (
	defaultServiceName  = "media-recommender"
	FormatMarkdown      = "markdown"        // Value of the `format` query parameter selecting markdown output.
	UserNotFoundMessage = "User not found." // Error text of every 404.
)

// Handlers holds the services behind the routes.
type Handlers struct {
	Profiles        *services.ProfileService
	Recommendations *services.RecommendationService
}

// NewRouter creates the gin engine with tracing, CORS and timeout middleware
// and registers all routes.
//
// Inputs:
//   - config: The application configuration (name, origins, request timeout).
//   - h: The services to serve.
//
// Outputs:
//   - *gin.Engine: The ready handler.
func NewRouter(config *cloud.Config, h *Handlers) *gin.Engine {
	name := config.Application.Name
	if name == "" {
		name = defaultServiceName
	}
	r := gin.Default()
	r.Use(otelgin.Middleware(name))
	r.Use(corsMiddleware(config.Application.AllowedOrigins))
	r.Use(requestTimeout(time.Duration(config.Application.RequestTimeoutSeconds) * time.Second))

	apiV1 := r.Group("/api/v1")
	{
		ProfileRouter(apiV1, h)
		RecommendationRouter(apiV1, h)
		Dashboard(apiV1, h)
	}
	return r
}

func corsMiddleware(origins string) gin.HandlerFunc {
	if origins == "" || origins == "*" {
		return cors.Default()
	}
	cfg := cors.DefaultConfig()
	cfg.AllowOrigins = strings.Split(origins, ",")
	for i := range cfg.AllowOrigins {
		cfg.AllowOrigins[i] = strings.TrimSpace(cfg.AllowOrigins[i])
	}
	return cors.New(cfg)
}

func requestTimeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// statusOf maps service errors onto HTTP status codes.
func statusOf(err error) int {
	var validationErr *model.ValidationError
	switch {
	case errors.Is(err, services.ErrRequiredFields),
		errors.Is(err, services.ErrInvalidDescription),
		errors.Is(err, services.ErrInvalidCount),
		errors.Is(err, services.ErrMissingViewer),
		errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrProfileNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := statusOf(err)
	message := err.Error()
	switch {
	case status == http.StatusNotFound:
		message = UserNotFoundMessage
	case status >= http.StatusInternalServerError:
		// Internal details stay in the log.
		slog.ErrorContext(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		message = http.StatusText(status)
	}
	c.JSON(status, gin.H{"error": message})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
