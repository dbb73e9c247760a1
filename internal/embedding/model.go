// SmartFood - Conversational Recipe Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartfood

// Package embedding loads a trained knowledge graph embedding model and
// scores candidate heads for a (relation, tail) query.
//
// Models are exported by the trainer as JSON:
//
//	{
//	  "interaction": "transe",
//	  "scoring_norm": 2,
//	  "entities": ["egg", "fried_egg", ...],
//	  "relations": ["has_calories", "has_ingredient", ...],
//	  "entity_embeddings": [[0.1, -0.3, ...], ...],
//	  "relation_embeddings": [[...], ...]
//	}
//
// Rows are matched to the knowledge graph by label, so the export does not
// need to share the graph's identifier order.
package embedding

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/smartfood/internal/kg"
)

// ErrUnsupportedInteraction is returned for an interaction function this package cannot score.
var ErrUnsupportedInteraction = errors.New("unsupported interaction")

// Interaction names.
const (
	InteractionTransE   = "transe"
	InteractionDistMult = "distmult"
)

// Export is the on-disk model format.
type Export struct {
	Interaction        string      `json:"interaction"`
	ScoringNorm        int         `json:"scoring_norm,omitempty"`
	Entities           []string    `json:"entities"`
	Relations          []string    `json:"relations"`
	EntityEmbeddings   [][]float64 `json:"entity_embeddings"`
	RelationEmbeddings [][]float64 `json:"relation_embeddings"`
}

// Scorer accumulates head-prediction scores for a query.
type Scorer interface {
	// AddHeadScores adds the score of every entity as head of (q.Relation, q.Tail)
	// into acc, which is indexed by entity id. It reports false and leaves acc
	// untouched when the model has no embedding for the relation or the tail.
	AddHeadScores(q kg.Query, acc []float64) bool

	// Embedded reports whether the model has a row for the entity. Entities
	// without one have no meaningful score and must not be ranked.
	Embedded(id kg.EntityID) bool
}

// Model is an export aligned to a knowledge graph. It is read-only after
// Align and safe for concurrent use.
type Model struct {
	interaction string
	norm        int
	dim         int

	// entities holds one row of dim values per graph entity id.
	entities []float64
	present  []bool

	relations       []float64
	relationPresent []bool
}

var _ Scorer = (*Model)(nil)

// Decode reads and checks an export.
func Decode(r io.Reader) (*Export, error) {
	var exp Export
	if err := json.NewDecoder(r).Decode(&exp); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	if err := exp.validate(); err != nil {
		return nil, err
	}
	return &exp, nil
}

// LoadFile decodes an export from disk.
func LoadFile(path string) (*Export, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open model: %w", err)
	}
	defer f.Close()

	exp, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return exp, nil
}

func (e *Export) validate() error {
	e.Interaction = strings.ToLower(strings.TrimSpace(e.Interaction))
	switch e.Interaction {
	case InteractionTransE:
		if e.ScoringNorm == 0 {
			e.ScoringNorm = 2
		}
		if e.ScoringNorm != 1 && e.ScoringNorm != 2 {
			return fmt.Errorf("transe scoring_norm must be 1 or 2, got %d", e.ScoringNorm)
		}
	case InteractionDistMult:
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedInteraction, e.Interaction)
	}

	if len(e.Entities) != len(e.EntityEmbeddings) {
		return fmt.Errorf("%d entities but %d entity embeddings", len(e.Entities), len(e.EntityEmbeddings))
	}
	if len(e.Relations) != len(e.RelationEmbeddings) {
		return fmt.Errorf("%d relations but %d relation embeddings", len(e.Relations), len(e.RelationEmbeddings))
	}
	if len(e.EntityEmbeddings) == 0 {
		return fmt.Errorf("model has no entity embeddings")
	}

	dim := len(e.EntityEmbeddings[0])
	if dim == 0 {
		return fmt.Errorf("model has zero-dimensional embeddings")
	}
	for i, row := range e.EntityEmbeddings {
		if len(row) != dim {
			return fmt.Errorf("entity %q has dimension %d, want %d", e.Entities[i], len(row), dim)
		}
	}
	for i, row := range e.RelationEmbeddings {
		if len(row) != dim {
			return fmt.Errorf("relation %q has dimension %d, want %d", e.Relations[i], len(row), dim)
		}
	}
	return nil
}

// Dim returns the embedding dimension.
func (e *Export) Dim() int {
	return len(e.EntityEmbeddings[0])
}

// Align maps the export onto the graph's entity and relation ids.
// Graph entities absent from the export are reported by Embedded and never
// receive a score; the returned count reports how many were missing.
func Align(e *Export, g *kg.Graph) (*Model, int, error) {
	if err := e.validate(); err != nil {
		return nil, 0, err
	}

	dim := e.Dim()
	m := &Model{
		interaction:     e.Interaction,
		norm:            e.ScoringNorm,
		dim:             dim,
		entities:        make([]float64, g.NumEntities()*dim),
		present:         make([]bool, g.NumEntities()),
		relations:       make([]float64, g.NumRelations()*dim),
		relationPresent: make([]bool, g.NumRelations()),
	}

	for i, label := range e.Entities {
		if id, ok := g.EntityID(label); ok {
			copy(m.entities[int(id)*dim:], e.EntityEmbeddings[i])
			m.present[id] = true
		}
	}
	for i, label := range e.Relations {
		if id, ok := g.RelationID(label); ok {
			copy(m.relations[int(id)*dim:], e.RelationEmbeddings[i])
			m.relationPresent[id] = true
		}
	}

	missing := 0
	for _, ok := range m.present {
		if !ok {
			missing++
		}
	}
	return m, missing, nil
}

// Interaction returns the interaction function name.
func (m *Model) Interaction() string {
	return m.interaction
}

// Embedded implements Scorer.
func (m *Model) Embedded(id kg.EntityID) bool {
	return id >= 0 && int(id) < len(m.present) && m.present[id]
}

// AddHeadScores implements Scorer.
func (m *Model) AddHeadScores(q kg.Query, acc []float64) bool {
	if int(q.Relation) >= len(m.relationPresent) || !m.relationPresent[q.Relation] ||
		int(q.Tail) >= len(m.present) || !m.present[q.Tail] {
		return false
	}

	r := m.relations[int(q.Relation)*m.dim : int(q.Relation+1)*m.dim]
	t := m.entities[int(q.Tail)*m.dim : int(q.Tail+1)*m.dim]

	n := min(len(acc), len(m.present))

	switch m.interaction {
	case InteractionTransE:
		// score(h) = -||h + r - t||; precompute r - t once per query.
		rt := make([]float64, m.dim)
		for i := range rt {
			rt[i] = r[i] - t[i]
		}
		for id := 0; id < n; id++ {
			if !m.present[id] {
				continue
			}
			acc[id] += -m.distance(m.entities[id*m.dim:(id+1)*m.dim], rt)
		}
	case InteractionDistMult:
		// score(h) = sum(h * r * t); precompute r * t once per query.
		rt := make([]float64, m.dim)
		for i := range rt {
			rt[i] = r[i] * t[i]
		}
		for id := 0; id < n; id++ {
			if !m.present[id] {
				continue
			}
			h := m.entities[id*m.dim : (id+1)*m.dim]
			var s float64
			for i := range h {
				s += h[i] * rt[i]
			}
			acc[id] += s
		}
	}
	return true
}

// distance returns ||h + rt|| under the configured norm.
func (m *Model) distance(h, rt []float64) float64 {
	var s float64
	if m.norm == 1 {
		for i := range h {
			s += math.Abs(h[i] + rt[i])
		}
		return s
	}
	for i := range h {
		d := h[i] + rt[i]
		s += d * d
	}
	return math.Sqrt(s)
}
