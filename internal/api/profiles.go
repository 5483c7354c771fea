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

	"github.com/jaycherian/gcp-go-media-recommender/internal/core/model"
	"github.com/jaycherian/gcp-go-media-recommender/internal/core/services"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password"`
}

// ProfileRouter sets up the login and profile routes.
func ProfileRouter(r *gin.RouterGroup, h *Handlers) {
	r.POST("/login", func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		ok, err := h.Profiles.Authenticate(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"authenticated": ok})
	})

	profiles := r.Group("/profiles")
	{
		profiles.POST("", func(c *gin.Context) {
			var input services.ProfileInput
			if err := c.ShouldBindJSON(&input); err != nil {
				badRequest(c, err)
				return
			}
			profile, created, err := h.Profiles.Save(c.Request.Context(), &input)
			if err != nil {
				writeError(c, err)
				return
			}
			status := http.StatusOK
			if created {
				status = http.StatusCreated
			}
			c.JSON(status, gin.H{"created": created, "profile": redact(profile)})
		})

		profiles.GET("/:username", func(c *gin.Context) {
			view, err := h.Profiles.Find(c.Request.Context(), c.Param("username"))
			if err != nil {
				writeError(c, err)
				return
			}
			c.JSON(http.StatusOK, services.ProfileView{Profile: redact(view.Profile), FirstName: view.FirstName})
		})

		profiles.GET("/:username/welcome", func(c *gin.Context) {
			welcome, err := h.Profiles.Welcome(c.Request.Context(), c.Param("username"))
			if err != nil {
				writeError(c, err)
				return
			}
			welcome.Profile = redact(welcome.Profile)
			c.JSON(http.StatusOK, welcome)
		})
	}
}

// redact copies a profile without its password.
func redact(profile *model.ViewerProfile) *model.ViewerProfile {
	out := *profile
	out.RegistrationInformation.Password = ""
	return &out
}
