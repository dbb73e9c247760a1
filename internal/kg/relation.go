// SmartFood - Conversational Recipe Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartfood

package kg

// HasIngredient links a recipe (head) to one of its ingredients (tail).
// Its heads define the recipe subset.
const HasIngredient = "has_ingredient"

// NutritionRelation links a recipe to a preference level entity such as
// low_sodium. The set is fixed by the trained model.
type NutritionRelation string

const (
	HasCalories  NutritionRelation = "has_calories"
	HasTotalFat  NutritionRelation = "has_total"
	HasSugar     NutritionRelation = "has_sugar"
	HasSodium    NutritionRelation = "has_sodium"
	HasProtein   NutritionRelation = "has_protein"
	HasSaturated NutritionRelation = "has_saturated"
	HasCarbs     NutritionRelation = "has_carbs"
)

// NutritionRelations lists every nutritional relation in questionnaire order.
var NutritionRelations = []NutritionRelation{
	HasCalories,
	HasTotalFat,
	HasSugar,
	HasSodium,
	HasProtein,
	HasSaturated,
	HasCarbs,
}

// nutritionSuffixes maps a relation to the suffix of its level entities
// (low_<suffix>, normal_<suffix>, high_<suffix>).
var nutritionSuffixes = map[NutritionRelation]string{
	HasCalories:  "calories",
	HasTotalFat:  "fat",
	HasSugar:     "sugar",
	HasSodium:    "sodium",
	HasProtein:   "protein",
	HasSaturated: "saturated_fat",
	HasCarbs:     "carbs",
}

// Level is a preference level shared by every nutritional relation.
type Level string

const (
	LevelLow    Level = "low"
	LevelNormal Level = "normal"
	LevelHigh   Level = "high"
)

// Suffix returns the entity suffix of r and whether r is known.
func (r NutritionRelation) Suffix() (string, bool) {
	s, ok := nutritionSuffixes[r]
	return s, ok
}

// LevelLabel returns the preference entity label for level on r,
// e.g. (has_sodium, low) -> low_sodium.
func (r NutritionRelation) LevelLabel(level Level) (string, bool) {
	suffix, ok := r.Suffix()
	if !ok {
		return "", false
	}
	return string(level) + "_" + suffix, true
}
