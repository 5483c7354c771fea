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
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/jaycherian/gcp-go-media-recommender/internal/cloud"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Defaults used when the [search] section leaves a value unset.
const (
	DefaultTimeout           = 15 * time.Second
	DefaultBreakerMaxFailure = 5
	DefaultBreakerOpen       = 30 * time.Second
	maxResponseBytes         = 1 << 20
)

// statusError is a non-2xx reply from a search provider.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.code)
}

// searchClient posts JSON to one provider. Transport failures are retried
// once; consecutive failures open a circuit breaker that short-circuits
// further calls until it half-opens again.
type searchClient struct {
	name    string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[string]
}

func newSearchClient(name string, config cloud.Search) *searchClient {
	timeout := DefaultTimeout
	if config.TimeoutInSeconds > 0 {
		timeout = time.Duration(config.TimeoutInSeconds) * time.Second
	}
	maxFailure := uint32(DefaultBreakerMaxFailure)
	if config.BreakerMaxFailure > 0 {
		maxFailure = uint32(config.BreakerMaxFailure)
	}
	openFor := DefaultBreakerOpen
	if config.BreakerOpenSecs > 0 {
		openFor = time.Duration(config.BreakerOpenSecs) * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     openFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailure
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			slog.Warn("search circuit breaker state change", "tool", name, "from", from.String(), "to", to.String())
		},
	})

	return &searchClient{
		name: name,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: breaker,
	}
}

// post sends payload and returns the response body. Every failure is logged
// and reported as an empty result.
func (c *searchClient) post(ctx context.Context, url string, headers map[string]string, payload []byte) string {
	body, err := c.breaker.Execute(func() (string, error) {
		return c.postWithRetry(ctx, url, headers, payload)
	})
	if err != nil {
		slog.WarnContext(ctx, "search request failed", "tool", c.name, "error", err)
		return ""
	}
	return body
}

func (c *searchClient) postWithRetry(ctx context.Context, url string, headers map[string]string, payload []byte) (string, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return "", fmt.Errorf("building request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			continue
		}
		data, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		_ = resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return "", &statusError{code: resp.StatusCode}
		}
		if readErr != nil {
			return "", fmt.Errorf("reading response: %w", readErr)
		}
		return string(data), nil
	}
	return "", fmt.Errorf("transport error after retry: %w", lastErr)
}
