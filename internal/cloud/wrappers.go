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

// Package cloud provides components for interacting with Google Cloud services.
// This file implements a wrapper around the Generative AI model handle that
// adds rate limiting and a bounded retry to every generation call.
//
// Structs:
//   - QuotaAwareGenerativeAIModel: Wraps a ModelHandle with a rate limiter and
//     the default generation config of one configured agent model.
//
// Functions:
//   - NewQuotaAwareModel: A constructor to create a new instance of the wrapped model.
//   - GenerateContent: Calls the model with the default config.
//   - GenerateContentWithConfig: Calls the model with a caller supplied config.
package cloud

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// DefaultRetryDelay is the pause between failed generation attempts.
const DefaultRetryDelay = 2 * time.Second

// ModelHandle is the narrow surface of the GenAI SDK used by the application.
// *genai.Models satisfies it; tests substitute scripted fakes.
type ModelHandle interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// QuotaAwareGenerativeAIModel is a decorator around a ModelHandle that
// enforces a request rate and retries failed calls.
type QuotaAwareGenerativeAIModel struct {
	GenerativeContentConfig *genai.GenerateContentConfig // The default generation config for this model.
	ModelName               string                       // The Vertex AI model id, e.g. gemini-2.5-flash.
	ModelHandle             ModelHandle                  // The underlying SDK handle.
	RateLimit               *rate.Limiter                // Token bucket guarding the model quota.
	MaxRetries              int                          // Retries after the first failed attempt.
	RetryDelay              time.Duration                // Pause between attempts.
	retryCounter            metric.Int64Counter
}

// NewQuotaAwareModel is a constructor function that creates a new
// QuotaAwareGenerativeAIModel.
//
// Inputs:
//   - wrapped: The default generation config.
//   - name: The model id sent with every request.
//   - handle: The SDK handle (client.Models) or a test double.
//   - requestsPerSecond: Burst size of the limiter, which refills one token per second.
//
// Outputs:
//   - *QuotaAwareGenerativeAIModel: A pointer to the newly created wrapper.
func NewQuotaAwareModel(wrapped *genai.GenerateContentConfig, name string, handle ModelHandle, requestsPerSecond int) *QuotaAwareGenerativeAIModel {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	retryCounter, err := otel.Meter("github.com/jaycherian/gcp-go-media-recommender").Int64Counter("genai.model.retry")
	if err != nil {
		slog.Warn("failed to create retry counter", "error", err)
	}
	return &QuotaAwareGenerativeAIModel{
		GenerativeContentConfig: wrapped,
		ModelName:               name,
		ModelHandle:             handle,
		RateLimit:               rate.NewLimiter(rate.Every(time.Second), requestsPerSecond),
		MaxRetries:              1,
		RetryDelay:              DefaultRetryDelay,
		retryCounter:            retryCounter,
	}
}

// GenerateContent sends the contents with the model's default config.
func (q *QuotaAwareGenerativeAIModel) GenerateContent(ctx context.Context, content []*genai.Content) (*genai.GenerateContentResponse, error) {
	return q.GenerateContentWithConfig(ctx, content, q.GenerativeContentConfig)
}

// GenerateContentWithConfig waits for a rate limiter token and calls the model,
// retrying up to MaxRetries times. The wait between attempts honors ctx.
//
// Inputs:
//   - ctx: The context for the request.
//   - content: The conversation sent to the model.
//   - config: The generation config for this call.
//
// Outputs:
//   - *genai.GenerateContentResponse: The response from the AI model if successful.
//   - error: The last error once all attempts have failed, or a context error.
func (q *QuotaAwareGenerativeAIModel) GenerateContentWithConfig(ctx context.Context, content []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	var lastErr error
	for attempt := 0; attempt <= q.MaxRetries; attempt++ {
		if attempt > 0 {
			if q.retryCounter != nil {
				q.retryCounter.Add(ctx, 1)
			}
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(q.RetryDelay):
			}
		}
		if err := q.RateLimit.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting for model quota: %w", err)
		}
		resp, err := q.ModelHandle.GenerateContent(ctx, q.ModelName, content, config)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		slog.WarnContext(ctx, "model generation failed", "model", q.ModelName, "attempt", attempt+1, "error", err)
	}
	return nil, fmt.Errorf("failed generation after %d attempts: %w", q.MaxRetries+1, lastErr)
}

// CloneConfig returns a shallow copy of the default config so callers can
// override individual fields for one call.
func (q *QuotaAwareGenerativeAIModel) CloneConfig() *genai.GenerateContentConfig {
	if q.GenerativeContentConfig == nil {
		return &genai.GenerateContentConfig{}
	}
	clone := *q.GenerativeContentConfig
	return &clone
}
