// SmartFood - Conversational Recipe Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartfood

package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tomtom215/smartfood/internal/embedding"
	"github.com/tomtom215/smartfood/internal/kg"
	"github.com/tomtom215/smartfood/internal/logging"
	"github.com/tomtom215/smartfood/internal/metrics"
	"github.com/tomtom215/smartfood/internal/models"
)

// ErrNotLoaded is returned by accessors called before a successful Load.
var ErrNotLoaded = errors.New("recommendation engine not loaded")

// LoadFunc produces the graph and the model scoring over it.
type LoadFunc func(ctx context.Context) (*kg.Graph, embedding.Scorer, error)

// Result is the outcome of one recommendation call.
type Result struct {
	Recommendations []models.Recommendation

	// UnknownIngredients lists ingredient labels that contributed no score.
	UnknownIngredients []string

	// UnknownFilters lists "relation=label" preferences that contributed no score.
	UnknownFilters []string
}

type snapshot struct {
	graph  *kg.Graph
	scorer embedding.Scorer
}

// Engine scores recipes. It is safe for concurrent use.
type Engine struct {
	load LoadFunc

	mu      sync.Mutex
	current atomic.Pointer[snapshot]
}

// NewEngine creates an engine that loads its artifacts with load on first use.
func NewEngine(load LoadFunc) *Engine {
	return &Engine{load: load}
}

// NewEngineWith creates an engine that is already loaded.
func NewEngineWith(g *kg.Graph, scorer embedding.Scorer) *Engine {
	e := &Engine{}
	e.current.Store(&snapshot{graph: g, scorer: scorer})
	return e
}

// Load loads the graph and model unless that already succeeded.
// Concurrent callers wait for a single load attempt.
func (e *Engine) Load(ctx context.Context) error {
	_, err := e.snapshot(ctx)
	return err
}

// Loaded reports whether a load has succeeded.
func (e *Engine) Loaded() bool {
	return e.current.Load() != nil
}

// Graph returns the loaded graph.
func (e *Engine) Graph() (*kg.Graph, error) {
	s := e.current.Load()
	if s == nil {
		return nil, ErrNotLoaded
	}
	return s.graph, nil
}

func (e *Engine) snapshot(ctx context.Context) (*snapshot, error) {
	if s := e.current.Load(); s != nil {
		return s, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if s := e.current.Load(); s != nil {
		return s, nil
	}
	if e.load == nil {
		return nil, ErrNotLoaded
	}

	start := time.Now()
	g, scorer, err := e.load(ctx)
	metrics.RecordEngineLoad(err)
	if err != nil {
		return nil, fmt.Errorf("load recommendation artifacts: %w", err)
	}

	s := &snapshot{graph: g, scorer: scorer}
	e.current.Store(s)

	logging.Info().
		Int("entities", g.NumEntities()).
		Int("relations", g.NumRelations()).
		Int("triples", g.NumTriples()).
		Int("recipes", len(g.Recipes())).
		Dur("duration", time.Since(start)).
		Msg("Recommendation engine loaded")
	return s, nil
}

// Recommend returns up to k recipes for the given ingredients and
// preference filters (relation -> level label), loading the engine first
// if needed. Only a load failure is returned as an error.
func (e *Engine) Recommend(ctx context.Context, ingredients []string, filters map[string]string, k int) (Result, error) {
	s, err := e.snapshot(ctx)
	if err != nil {
		return Result{}, err
	}

	start := time.Now()
	res := Rank(s.graph, s.scorer, ingredients, filters, k)
	metrics.RecordRecommendation(time.Since(start), len(res.UnknownIngredients), len(res.UnknownFilters), len(res.Recommendations))

	if len(res.UnknownIngredients) > 0 || len(res.UnknownFilters) > 0 {
		logging.Ctx(ctx).Warn().
			Strs("unknown_ingredients", sanitizeAll(res.UnknownIngredients)).
			Strs("unknown_filters", sanitizeAll(res.UnknownFilters)).
			Msg("Labels contributed no score")
	}
	return res, nil
}

// Rank scores every recipe of g that the scorer has an embedding for. k is
// clamped to the number of such recipes; k <= 0 yields no recommendations.
func Rank(g *kg.Graph, scorer embedding.Scorer, ingredients []string, filters map[string]string, k int) Result {
	acc := make([]float64, g.NumEntities())
	var res Result

	for _, ingredient := range ingredients {
		if !addScores(g, scorer, kg.HasIngredient, ingredient, acc) {
			res.UnknownIngredients = append(res.UnknownIngredients, ingredient)
		}
	}

	// Sorted so the floating point sum is order independent of map iteration.
	relations := make([]string, 0, len(filters))
	for relation := range filters {
		relations = append(relations, relation)
	}
	sort.Strings(relations)
	for _, relation := range relations {
		label := filters[relation]
		if !addScores(g, scorer, relation, label, acc) {
			res.UnknownFilters = append(res.UnknownFilters, relation+"="+label)
		}
	}

	res.Recommendations = topK(g, scorer, acc, k)
	return res
}

func addScores(g *kg.Graph, scorer embedding.Scorer, relation, tail string, acc []float64) bool {
	q, err := g.Resolve(relation, tail)
	if err != nil {
		return false
	}
	return scorer.AddHeadScores(q, acc)
}

// topK selects the best k embedded recipes. Recipes are visited in ascending
// id order and the sort is stable, so equal scores keep that order.
func topK(g *kg.Graph, scorer embedding.Scorer, scores []float64, k int) []models.Recommendation {
	recipes := g.Recipes()
	ranked := make([]kg.EntityID, 0, len(recipes))
	for _, id := range recipes {
		if scorer.Embedded(id) {
			ranked = append(ranked, id)
		}
	}
	if k > len(ranked) {
		k = len(ranked)
	}
	if k <= 0 {
		return []models.Recommendation{}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return scores[ranked[i]] > scores[ranked[j]]
	})

	out := make([]models.Recommendation, k)
	for i, id := range ranked[:k] {
		out[i] = models.Recommendation{Dish: g.EntityLabel(id), Score: scores[id]}
	}
	return out
}

func sanitizeAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = logging.SanitizeLogValue(v)
	}
	return out
}
