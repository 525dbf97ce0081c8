package types

import "time"

// NutrientDetail is a single named nutrient amount on a food item, as
// returned by the nutrition analysis service.
type NutrientDetail struct {
	Name          string   `json:"name"`
	Amount        float64  `json:"amount"`
	Unit          string   `json:"unit"`
	DailyValuePct *float64 `json:"daily_value_pct,omitempty"`
}

// FoodItem is one component of a meal. ItemID is assigned locally and
// stays stable across edits; the optional micronutrient fields are nil
// when the analysis did not report them.
type FoodItem struct {
	ItemID    string           `json:"item_id,omitempty"`
	Name      string           `json:"name"`
	Portion   string           `json:"portion"`
	Calories  float64          `json:"calories"`
	ProteinG  float64          `json:"protein_g"`
	CarbsG    float64          `json:"carbs_g"`
	FatG      float64          `json:"fat_g"`
	FiberG    *float64         `json:"fiber_g,omitempty"`
	SugarG    *float64         `json:"sugar_g,omitempty"`
	SodiumMg  *float64         `json:"sodium_mg,omitempty"`
	Nutrients []NutrientDetail `json:"nutrients,omitempty"`
}

// NutrientTotals is the component-wise sum over a meal's food items.
// The optional fields are nil only when no item carries that field.
type NutrientTotals struct {
	Calories float64  `json:"calories"`
	ProteinG float64  `json:"protein_g"`
	CarbsG   float64  `json:"carbs_g"`
	FatG     float64  `json:"fat_g"`
	FiberG   *float64 `json:"fiber_g,omitempty"`
	SugarG   *float64 `json:"sugar_g,omitempty"`
	SodiumMg *float64 `json:"sodium_mg,omitempty"`
}

// MealRecord is a logged meal. MealID is assigned by the server and
// stable; ExternalSampleIDs tracks the identifiers of the nutrient
// samples written to the local health store and is the authoritative
// handle for deleting them later. It may be empty when a write failed
// or when the record predates identifier tracking.
type MealRecord struct {
	MealID            int64          `json:"meal_id"`
	Timestamp         time.Time      `json:"timestamp"`
	Description       string         `json:"description"`
	FoodItems         []FoodItem     `json:"food_items"`
	Totals            NutrientTotals `json:"totals"`
	ExternalSampleIDs []string       `json:"external_sample_ids,omitempty"`
}

// Recalculate rebuilds Totals from FoodItems. This is the only place
// totals are computed; callers must never sum items ad hoc. An empty
// item list yields zero macro totals and nil optional fields.
func (m *MealRecord) Recalculate() {
	totals := NutrientTotals{}
	for i := range m.FoodItems {
		it := &m.FoodItems[i]
		totals.Calories += it.Calories
		totals.ProteinG += it.ProteinG
		totals.CarbsG += it.CarbsG
		totals.FatG += it.FatG
		totals.FiberG = addOptional(totals.FiberG, it.FiberG)
		totals.SugarG = addOptional(totals.SugarG, it.SugarG)
		totals.SodiumMg = addOptional(totals.SodiumMg, it.SodiumMg)
	}
	m.Totals = totals
}

func addOptional(acc, v *float64) *float64 {
	if v == nil {
		return acc
	}
	if acc == nil {
		sum := *v
		return &sum
	}
	*acc += *v
	return acc
}
