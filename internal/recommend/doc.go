// SmartFood - Conversational Recipe Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartfood

// Package recommend ranks recipes for a set of ingredients and nutritional
// preferences using a knowledge graph embedding model.
//
// # Scoring
//
// A score vector over every graph entity starts at zero. Each ingredient adds
// the model's head-prediction scores for (has_ingredient, ingredient), and
// each preference adds the scores for (relation, level label). The total is
// restricted to the recipe subset (heads of has_ingredient triples) and the
// top k entries are returned, highest score first. Ties keep recipe id order,
// so identical inputs always produce identical output.
//
// Labels missing from the graph or the model contribute nothing and are
// reported back in Result rather than failing the request. With no inputs at
// all the result is simply the first k recipes in id order.
//
// # Loading
//
// The graph and model are loaded once per process on first use, or eagerly
// through Load. A failed load is not cached: the next call tries again.
// After a successful load both are immutable and shared by all callers
// without locking.
//
// # Stage
//
// Handler adapts the engine to the message bus: it consumes ingredient
// messages and emits response messages. See handler.go for its failure policy.
package recommend
