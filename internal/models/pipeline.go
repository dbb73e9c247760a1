// SmartFood - Conversational Recipe Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartfood

package models

import "strings"

// DefaultK is the number of recipes requested when a message omits k.
const DefaultK = 5

// Pipeline messages travel between stages as JSON. Field names are the wire
// contract shared with already-deployed stages and must not change.

// ImageIngredientsMessage asks the detection stage to find ingredients in a photo.
type ImageIngredientsMessage struct {
	ChatID  int64             `json:"chat_id" validate:"required"`
	FileRef string            `json:"file_id" validate:"nonblank"`
	Filters map[string]string `json:"filters"`
	K       int               `json:"k"`
}

// IngredientsMessage asks the recommendation stage for recipes. It is produced
// by the conversation stage (text input) and by the detection stage.
// An empty Ingredients list is valid: detection failures publish one.
// Unknown filter relations and an oversized K are left to the ranker, which
// ignores the former and clamps the latter.
type IngredientsMessage struct {
	ChatID      int64             `json:"chat_id" validate:"required"`
	Ingredients []string          `json:"ingredientes"`
	Filters     map[string]string `json:"filters"`
	K           int               `json:"k"`
}

// Recommendation is one scored recipe.
type Recommendation struct {
	Dish  string  `json:"dish"`
	Score float64 `json:"score"`
}

// ResponseMessage carries recommendations to the delivery stage.
type ResponseMessage struct {
	ChatID          int64            `json:"chat_id" validate:"required"`
	Ingredients     []string         `json:"ingredientes"`
	Recommendations []Recommendation `json:"recomendaciones"`
}

// ApplyDefaults fills fields older producers may omit.
func (m *ImageIngredientsMessage) ApplyDefaults() {
	if m.K == 0 {
		m.K = DefaultK
	}
	if m.Filters == nil {
		m.Filters = map[string]string{}
	}
}

// ApplyDefaults fills fields older producers may omit.
func (m *IngredientsMessage) ApplyDefaults() {
	if m.K == 0 {
		m.K = DefaultK
	}
	if m.Filters == nil {
		m.Filters = map[string]string{}
	}
	m.Ingredients = dropBlank(m.Ingredients)
}

// dropBlank returns values without whitespace-only entries, never nil.
func dropBlank(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

// GetChatID returns the destination chat.
func (m *ImageIngredientsMessage) GetChatID() int64 { return m.ChatID }

// GetChatID returns the destination chat.
func (m *IngredientsMessage) GetChatID() int64 { return m.ChatID }

// GetChatID returns the destination chat.
func (m *ResponseMessage) GetChatID() int64 { return m.ChatID }
