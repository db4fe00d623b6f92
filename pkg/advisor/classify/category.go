package classify

import "strings"

// Advisory categories. Every question lands in exactly one.
const (
	CategoryNutrition        = "nutrition"
	CategoryPlantingCare     = "planting and care"
	CategoryPlantProtection  = "plant protection"
	CategorySoilImprovement  = "soil improvement"
	CategoryVarietySelection = "variety selection"
	CategoryUndetermined     = "undetermined"
)

// Categories returns the answerable categories in stable order, without the
// undetermined sentinel.
func Categories() []string {
	return []string{
		CategoryNutrition,
		CategoryPlantingCare,
		CategoryPlantProtection,
		CategorySoilImprovement,
		CategoryVarietySelection,
	}
}

// categoryAliases maps model phrasings onto the closed category set. Order
// matters: more specific aliases are checked before generic ones.
var categoryAliases = []struct {
	alias    string
	category string
}{
	{CategoryPlantingCare, CategoryPlantingCare},
	{CategoryPlantProtection, CategoryPlantProtection},
	{CategorySoilImprovement, CategorySoilImprovement},
	{CategoryVarietySelection, CategoryVarietySelection},
	{CategoryNutrition, CategoryNutrition},

	{"feeding", CategoryNutrition},
	{"fertiliz", CategoryNutrition},
	{"nutrient", CategoryNutrition},

	{"planting", CategoryPlantingCare},
	{"pruning", CategoryPlantingCare},
	{"care", CategoryPlantingCare},

	{"protection", CategoryPlantProtection},
	{"pest", CategoryPlantProtection},
	{"disease", CategoryPlantProtection},

	{"soil", CategorySoilImprovement},

	{"variety", CategoryVarietySelection},
	{"cultivar selection", CategoryVarietySelection},
}

// NormalizeCategory maps a raw model answer to a canonical category.
// Anything unrecognized collapses to "undetermined".
func NormalizeCategory(raw string) string {
	text := strings.ToLower(strings.TrimSpace(raw))
	if text == "" {
		return CategoryUndetermined
	}
	for _, entry := range categoryAliases {
		if strings.Contains(text, entry.alias) {
			return entry.category
		}
	}
	return CategoryUndetermined
}
