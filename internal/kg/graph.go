// SmartFood - Conversational Recipe Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartfood

// Package kg holds the recipe knowledge graph the embedding model was trained on.
//
// Entity and relation identifiers follow the sorted order of their labels,
// which is how the training pipeline assigns them, so an identifier computed
// here addresses the same row of a score vector as in the trained model.
// A Graph is immutable after construction and safe for concurrent use.
package kg

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownLabel is returned when an entity or relation label is not in the graph.
var ErrUnknownLabel = errors.New("unknown label")

// EntityID indexes an entity in sorted label order.
type EntityID int

// RelationID indexes a relation in sorted label order.
type RelationID int

// Triple is a labeled (head, relation, tail) fact.
type Triple struct {
	Head     string
	Relation string
	Tail     string
}

// Query is a resolved (relation, tail) pair, the input of head prediction.
type Query struct {
	Relation RelationID
	Tail     EntityID
}

// Graph is the resolved knowledge graph.
type Graph struct {
	entities  []string
	entityIDs map[string]EntityID

	relations   []string
	relationIDs map[string]RelationID

	triples int

	// recipes holds the heads of has_ingredient triples in ascending id order.
	recipes []EntityID
}

// New builds a graph from labeled triples. Triples with an empty field are rejected.
func New(triples []Triple) (*Graph, error) {
	entitySet := make(map[string]struct{})
	relationSet := make(map[string]struct{})
	for i, t := range triples {
		if t.Head == "" || t.Relation == "" || t.Tail == "" {
			return nil, fmt.Errorf("triple %d has an empty field", i)
		}
		entitySet[t.Head] = struct{}{}
		entitySet[t.Tail] = struct{}{}
		relationSet[t.Relation] = struct{}{}
	}

	g := &Graph{
		entities:  sortedKeys(entitySet),
		relations: sortedKeys(relationSet),
		triples:   len(triples),
	}
	g.entityIDs = make(map[string]EntityID, len(g.entities))
	for i, label := range g.entities {
		g.entityIDs[label] = EntityID(i)
	}
	g.relationIDs = make(map[string]RelationID, len(g.relations))
	for i, label := range g.relations {
		g.relationIDs[label] = RelationID(i)
	}

	recipeSet := make(map[EntityID]struct{})
	for _, t := range triples {
		if t.Relation == HasIngredient {
			recipeSet[g.entityIDs[t.Head]] = struct{}{}
		}
	}
	g.recipes = make([]EntityID, 0, len(recipeSet))
	for id := range recipeSet {
		g.recipes = append(g.recipes, id)
	}
	sort.Slice(g.recipes, func(i, j int) bool { return g.recipes[i] < g.recipes[j] })

	return g, nil
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Resolve turns a (relation, tail) label pair into identifiers. It is the
// single lookup used by both ingredient and preference scoring; an unknown
// label yields an error wrapping ErrUnknownLabel.
func (g *Graph) Resolve(relation, tail string) (Query, error) {
	r, ok := g.relationIDs[relation]
	if !ok {
		return Query{}, fmt.Errorf("relation %q: %w", relation, ErrUnknownLabel)
	}
	t, ok := g.entityIDs[tail]
	if !ok {
		return Query{}, fmt.Errorf("entity %q: %w", tail, ErrUnknownLabel)
	}
	return Query{Relation: r, Tail: t}, nil
}

// EntityID returns the identifier of an entity label.
func (g *Graph) EntityID(label string) (EntityID, bool) {
	id, ok := g.entityIDs[label]
	return id, ok
}

// RelationID returns the identifier of a relation label.
func (g *Graph) RelationID(label string) (RelationID, bool) {
	id, ok := g.relationIDs[label]
	return id, ok
}

// EntityLabel returns the label of id. It panics if id is out of range.
func (g *Graph) EntityLabel(id EntityID) string {
	return g.entities[id]
}

// EntityLabels returns every entity label in id order. The slice must not be modified.
func (g *Graph) EntityLabels() []string {
	return g.entities
}

// RelationLabels returns every relation label in id order. The slice must not be modified.
func (g *Graph) RelationLabels() []string {
	return g.relations
}

// NumEntities returns the number of entities.
func (g *Graph) NumEntities() int {
	return len(g.entities)
}

// NumRelations returns the number of relations.
func (g *Graph) NumRelations() int {
	return len(g.relations)
}

// NumTriples returns the number of facts the graph was built from.
func (g *Graph) NumTriples() int {
	return g.triples
}

// Recipes returns the recipe subset in ascending id order. The slice must not be modified.
func (g *Graph) Recipes() []EntityID {
	return g.recipes
}
