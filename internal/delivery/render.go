// SmartFood - Conversational Recipe Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartfood

// Package delivery implements the last pipeline stage: it renders
// recommendations as Telegram Markdown and sends them to the chat.
package delivery

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tomtom215/smartfood/internal/models"
)

// Reply texts.
const (
	MsgNoRecipes         = "Lo siento, no encontré recetas para esos parámetros."
	headerIngredients    = "🔎 *Ingredientes detectados*: "
	headerRecommendation = "🥗 *Recetas recomendadas*"
)

// FormatLabel turns a graph label such as "tortilla_de_patatas" into
// "Tortilla De Patatas".
func FormatLabel(label string) string {
	label = strings.Join(strings.Fields(strings.ReplaceAll(label, "_", " ")), " ")
	// A Caser keeps state, so each call gets its own.
	return cases.Title(language.Spanish).String(label)
}

// Render builds the chat messages for a response: the detected ingredients
// line when there are ingredients, then the numbered recipe list or the
// "no matches" text.
func Render(resp *models.ResponseMessage) []string {
	out := make([]string, 0, 2)

	if len(resp.Ingredients) > 0 {
		names := make([]string, len(resp.Ingredients))
		for i, ing := range resp.Ingredients {
			names[i] = FormatLabel(ing)
		}
		out = append(out, headerIngredients+strings.Join(names, ", "))
	}

	if len(resp.Recommendations) == 0 {
		return append(out, MsgNoRecipes)
	}

	var sb strings.Builder
	sb.WriteString(headerRecommendation)
	for i, rec := range resp.Recommendations {
		fmt.Fprintf(&sb, "\n%d. %s", i+1, FormatLabel(rec.Dish))
	}
	return append(out, sb.String())
}
