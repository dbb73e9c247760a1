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
	"os"
	"path/filepath"
	"sync"

	"github.com/tomtom215/smartfood/internal/config"
	"github.com/tomtom215/smartfood/internal/logging"
	"github.com/tomtom215/smartfood/internal/metrics"
)

// ErrNotFound is returned when the source has no object at the requested path.
var ErrNotFound = errors.New("artifact not found")

// ErrInvalidPath is returned for bucket or object names that would escape the cache directory.
var ErrInvalidPath = errors.New("invalid artifact path")

// Source opens remote objects.
type Source interface {
	Open(ctx context.Context, bucket, path string) (io.ReadCloser, error)
}

// Store materializes objects from a Source into a local cache directory.
type Store struct {
	source   Source
	cacheDir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore creates a store caching objects from source under cacheDir.
func NewStore(source Source, cacheDir string) *Store {
	return &Store{
		source:   source,
		cacheDir: cacheDir,
		locks:    make(map[string]*sync.Mutex),
	}
}

// New creates a store for the configured backend.
func New(cfg config.ArtifactsConfig) (*Store, error) {
	var source Source
	switch cfg.Backend {
	case config.ArtifactsHTTP:
		source = NewHTTPSource(cfg.BaseURL, cfg.Timeout)
	case config.ArtifactsFile:
		source = NewFileSource(cfg.SourceDir)
	default:
		return nil, fmt.Errorf("unknown artifact backend %q", cfg.Backend)
	}
	return NewStore(source, cfg.CacheDir), nil
}

// LocalPath returns where bucket/path is cached, without downloading it.
func (s *Store) LocalPath(bucket, path string) (string, error) {
	if err := checkObjectName(bucket, path); err != nil {
		return "", err
	}
	return filepath.Join(s.cacheDir, bucket, filepath.FromSlash(path)), nil
}

// Download returns the local path of bucket/path, fetching it first when it
// is not cached yet.
func (s *Store) Download(ctx context.Context, bucket, path string) (string, error) {
	target, err := s.LocalPath(bucket, path)
	if err != nil {
		return "", err
	}

	lock := s.lockFor(target)
	lock.Lock()
	defer lock.Unlock()

	if info, err := os.Stat(target); err == nil && info.Mode().IsRegular() {
		metrics.RecordArtifactDownload("cached")
		logging.Debug().Str("bucket", bucket).Str("path", path).Str("local", target).Msg("Artifact already cached")
		return target, nil
	}

	if err := s.fetch(ctx, bucket, path, target); err != nil {
		metrics.RecordArtifactDownload("failed")
		return "", err
	}

	metrics.RecordArtifactDownload("downloaded")
	logging.Info().Str("bucket", bucket).Str("path", path).Str("local", target).Msg("Artifact downloaded")
	return target, nil
}

func (s *Store) fetch(ctx context.Context, bucket, path, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	body, err := s.source.Open(ctx, bucket, path)
	if err != nil {
		return fmt.Errorf("open %s/%s: %w", bucket, path, err)
	}
	defer body.Close()

	tmp, err := os.CreateTemp(filepath.Dir(target), ".download-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := io.Copy(tmp, body); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("download %s/%s: %w", bucket, path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		return fmt.Errorf("move artifact into cache: %w", err)
	}
	committed = true
	return nil
}

func (s *Store) lockFor(target string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[target]
	if !ok {
		l = &sync.Mutex{}
		s.locks[target] = l
	}
	return l
}

func checkObjectName(bucket, path string) error {
	if bucket == "" || path == "" {
		return fmt.Errorf("%w: bucket and path are required", ErrInvalidPath)
	}
	if !filepath.IsLocal(bucket) || !filepath.IsLocal(filepath.FromSlash(path)) {
		return fmt.Errorf("%w: %s/%s", ErrInvalidPath, bucket, path)
	}
	return nil
}
