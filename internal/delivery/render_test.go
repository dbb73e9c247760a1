// SmartFood - Conversational Recipe Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartfood

package delivery

import (
	"reflect"
	"testing"

	"github.com/tomtom215/smartfood/internal/models"
)

func TestFormatLabel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"tortilla_de_patatas", "Tortilla De Patatas"},
		{"gazpacho", "Gazpacho"},
		{"  pollo__al_ajillo ", "Pollo Al Ajillo"},
		{"ÑOQUIS_caseros", "Ñoquis Caseros"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			if got := FormatLabel(tt.in); got != tt.want {
				t.Errorf("FormatLabel(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRender(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		resp models.ResponseMessage
		want []string
	}{
		{
			name: "ingredients and recipes",
			resp: models.ResponseMessage{
				ChatID:      1,
				Ingredients: []string{"potato", "egg"},
				Recommendations: []models.Recommendation{
					{Dish: "tortilla_de_patatas", Score: 2.1},
					{Dish: "huevos_rotos", Score: 1.7},
				},
			},
			want: []string{
				"🔎 *Ingredientes detectados*: Potato, Egg",
				"🥗 *Recetas recomendadas*\n1. Tortilla De Patatas\n2. Huevos Rotos",
			},
		},
		{
			name: "no ingredients",
			resp: models.ResponseMessage{
				ChatID:          1,
				Recommendations: []models.Recommendation{{Dish: "gazpacho"}},
			},
			want: []string{"🥗 *Recetas recomendadas*\n1. Gazpacho"},
		},
		{
			name: "no recipes",
			resp: models.ResponseMessage{ChatID: 1, Ingredients: []string{"kiwi"}},
			want: []string{"🔎 *Ingredientes detectados*: Kiwi", MsgNoRecipes},
		},
		{
			name: "nothing at all",
			resp: models.ResponseMessage{ChatID: 1},
			want: []string{MsgNoRecipes},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Render(&tt.resp); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Render() = %q, want %q", got, tt.want)
			}
		})
	}
}
