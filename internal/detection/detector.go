// SmartFood - Conversational Recipe Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartfood

package detection

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/smartfood/internal/breaker"
	"github.com/tomtom215/smartfood/internal/config"
)

// Detector finds ingredient labels in an image.
type Detector interface {
	Detect(ctx context.Context, image []byte) ([]string, error)
}

// DetectorFunc adapts a function to Detector.
type DetectorFunc func(ctx context.Context, image []byte) ([]string, error)

// Detect calls f.
func (f DetectorFunc) Detect(ctx context.Context, image []byte) ([]string, error) {
	return f(ctx, image)
}

// detectResponse is the inference service reply.
type detectResponse struct {
	Labels []string `json:"labels"`
}

// HTTPDetector posts raw image bytes to an inference endpoint that answers
// {"labels": ["tomato", "egg", ...]}.
type HTTPDetector struct {
	url     string
	timeout time.Duration
	client  *http.Client
	breaker *breaker.Breaker[[]string]
}

// NewHTTPDetector creates a detector for the configured endpoint.
func NewHTTPDetector(cfg config.DetectorConfig) *HTTPDetector {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPDetector{
		url:     cfg.URL,
		timeout: timeout,
		client:  &http.Client{},
		breaker: breaker.New[[]string](breaker.DefaultConfig("detector")),
	}
}

// Detect implements Detector. Labels are normalized with NormalizeLabels.
func (d *HTTPDetector) Detect(ctx context.Context, image []byte) ([]string, error) {
	if len(image) == 0 {
		return nil, errors.New("detect: empty image")
	}

	return d.breaker.Execute(func() ([]string, error) {
		ctx, cancel := context.WithTimeout(ctx, d.timeout)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(image))
		if err != nil {
			return nil, fmt.Errorf("detect: create request: %w", err)
		}
		req.Header.Set("Content-Type", http.DetectContentType(image))
		req.Header.Set("Accept", "application/json")

		resp, err := d.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("detect: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return nil, fmt.Errorf("detect: read response: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("detect: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}

		var out detectResponse
		if err := json.Unmarshal(body, &out); err != nil {
			return nil, fmt.Errorf("detect: decode response: %w", err)
		}
		return NormalizeLabels(out.Labels), nil
	})
}

// NormalizeLabels trims and lowercases labels, drops empty ones and removes
// duplicates while keeping first-seen order.
func NormalizeLabels(labels []string) []string {
	out := make([]string, 0, len(labels))
	seen := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		l = strings.ToLower(strings.TrimSpace(l))
		if l == "" {
			continue
		}
		if _, dup := seen[l]; dup {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}
