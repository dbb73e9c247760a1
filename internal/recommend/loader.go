// SmartFood - Conversational Recipe Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartfood

package recommend

import (
	"context"
	"fmt"

	"github.com/tomtom215/smartfood/internal/embedding"
	"github.com/tomtom215/smartfood/internal/kg"
	"github.com/tomtom215/smartfood/internal/logging"
)

// Downloader materializes a stored object as a local file.
type Downloader interface {
	Download(ctx context.Context, bucket, path string) (string, error)
}

// ArtifactLoader returns a LoadFunc that downloads the triples CSV and the
// model export from bucket, builds the graph and aligns the model to it.
func ArtifactLoader(d Downloader, bucket, triplesBlob, modelBlob string) LoadFunc {
	return func(ctx context.Context) (*kg.Graph, embedding.Scorer, error) {
		triplesPath, err := d.Download(ctx, bucket, triplesBlob)
		if err != nil {
			return nil, nil, fmt.Errorf("download triples: %w", err)
		}
		modelPath, err := d.Download(ctx, bucket, modelBlob)
		if err != nil {
			return nil, nil, fmt.Errorf("download model: %w", err)
		}
		return LoadLocal(triplesPath, modelPath)
	}
}

// LoadLocal builds the graph and model from local files.
func LoadLocal(triplesPath, modelPath string) (*kg.Graph, embedding.Scorer, error) {
	g, err := kg.LoadFile(triplesPath)
	if err != nil {
		return nil, nil, err
	}

	exp, err := embedding.LoadFile(modelPath)
	if err != nil {
		return nil, nil, err
	}

	model, missing, err := embedding.Align(exp, g)
	if err != nil {
		return nil, nil, fmt.Errorf("align model to graph: %w", err)
	}
	if missing > 0 {
		logging.Warn().
			Int("missing_entities", missing).
			Int("entities", g.NumEntities()).
			Msg("Graph entities without a model embedding are excluded from ranking")
	}
	return g, model, nil
}
