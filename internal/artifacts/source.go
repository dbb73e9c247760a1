// SmartFood - Conversational Recipe Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartfood

package artifacts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tomtom215/smartfood/internal/breaker"
)

// HTTPSource reads objects over HTTP from <baseURL>/<bucket>/<path>.
type HTTPSource struct {
	baseURL string
	client  *http.Client
	cb      *breaker.Breaker[*http.Response]
}

// NewHTTPSource creates an HTTP source. timeout bounds each whole download.
func NewHTTPSource(baseURL string, timeout time.Duration) *HTTPSource {
	cfg := breaker.DefaultConfig("artifact-storage")
	cfg.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, ErrNotFound)
	}
	return &HTTPSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		cb:      breaker.New[*http.Response](cfg),
	}
}

// Open issues the GET request. The caller closes the returned body.
func (s *HTTPSource) Open(ctx context.Context, bucket, path string) (io.ReadCloser, error) {
	objectURL := s.baseURL + "/" + url.PathEscape(bucket) + "/" + escapeObjectPath(path)

	resp, err := s.cb.Execute(func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, objectURL, http.NoBody)
		if err != nil {
			return nil, err
		}
		resp, err := s.client.Do(req)
		if err != nil {
			return nil, err
		}
		switch {
		case resp.StatusCode == http.StatusNotFound:
			resp.Body.Close()
			return nil, ErrNotFound
		case resp.StatusCode < 200 || resp.StatusCode > 299:
			resp.Body.Close()
			return nil, fmt.Errorf("artifact storage returned status %d", resp.StatusCode)
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func escapeObjectPath(path string) string {
	parts := strings.Split(path, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

// FileSource reads objects from a local directory laid out as <dir>/<bucket>/<path>.
type FileSource struct {
	dir string
}

// NewFileSource creates a source rooted at dir.
func NewFileSource(dir string) *FileSource {
	return &FileSource{dir: dir}
}

// Open opens the object file.
func (s *FileSource) Open(_ context.Context, bucket, path string) (io.ReadCloser, error) {
	if err := checkObjectName(bucket, path); err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(s.dir, bucket, filepath.FromSlash(path)))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return f, nil
}
