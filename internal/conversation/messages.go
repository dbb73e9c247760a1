// SmartFood - Conversational Recipe Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartfood

package conversation

import "github.com/tomtom215/smartfood/internal/kg"

// Question is one preference prompt and the relation its answer fills.
type Question struct {
	Relation kg.NutritionRelation
	Prompt   string
}

// Questions are asked in this order. Their relations match kg.NutritionRelations.
var Questions = []Question{
	{kg.HasCalories, "¿Preferencia en calorías? (bajo/normal/alto)"},
	{kg.HasTotalFat, "¿Preferencia en grasas totales? (bajo/normal/alto)"},
	{kg.HasSugar, "¿Preferencia en azúcar? (bajo/normal/alto)"},
	{kg.HasSodium, "¿Preferencia en sodio? (bajo/normal/alto)"},
	{kg.HasProtein, "¿Preferencia en proteína? (bajo/normal/alto)"},
	{kg.HasSaturated, "¿Preferencia en grasas saturadas? (bajo/normal/alto)"},
	{kg.HasCarbs, "¿Preferencia en carbohidratos? (bajo/normal/alto)"},
}

// answers maps the accepted replies to preference levels.
var answers = map[string]kg.Level{
	"bajo":   kg.LevelLow,
	"normal": kg.LevelNormal,
	"alto":   kg.LevelHigh,
}

// Bot replies (Telegram Markdown).
const (
	MsgInvalidAnswer = "Responde únicamente *bajo*, *normal* o *alto*."

	MsgPreferencesSaved = "✅ Preferencias guardadas.\n" +
		"*¿Cómo quieres darme los ingredientes?*\n" +
		"• Escríbelos separados por comas, *o*\n" +
		"• envíame una *foto* del plato/ingredientes."

	MsgPhotoReceived       = "📷 Imagen recibida, detectando ingredientes…"
	MsgIngredientsReceived = "🍳 ¡Recibido! Buscando recetas…"
	MsgNoIngredients       = "❗ No he reconocido ingredientes. Inténtalo de nuevo."
)
