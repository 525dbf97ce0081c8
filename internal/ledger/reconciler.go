// Package ledger keeps logically-edited meal records consistent with
// the nutrient samples they leave behind in the local health store.
// The store has no update operation, so every edit is a delete of the
// old sample footprint followed by a fresh write, with the assigned
// sample identifiers tracked on the record for the next round.
package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/healthbridge/healthbridge/internal/types"
)

// fallbackWindow bounds the timestamp match used to delete a footprint
// when no sample identifiers were tracked. Samples within one second of
// the meal timestamp are treated as belonging to it.
const fallbackWindow = time.Second

// ErrUnknownMeal is returned when an operation names a meal that is not
// in the ledger.
var ErrUnknownMeal = fmt.Errorf("ledger: unknown meal")

// trackedNutrientTypes are the sample types a meal footprint may
// contain. The fallback delete targets exactly this set.
var trackedNutrientTypes = []string{
	types.SampleDietaryEnergy,
	types.SampleDietaryProtein,
	types.SampleDietaryCarbs,
	types.SampleDietaryFat,
	types.SampleDietaryFiber,
	types.SampleDietarySugar,
	types.SampleDietarySodium,
}

// SampleStore is the slice of the health store the reconciler writes
// through. Implemented by healthstore.Store.
type SampleStore interface {
	WriteQuantitySample(ctx context.Context, sampleType string, value float64, unit string, ts time.Time) (string, error)
	DeleteSamples(ctx context.Context, ids []string) (int64, error)
	DeleteSamplesOfTypes(ctx context.Context, sampleTypes []string, start, end time.Time) (int64, error)
}

// Reconciler owns the in-memory meal list and maintains the invariant
// that each record's store footprint matches its current food items.
// Operations on different meals may overlap; callers must not run two
// operations on the same meal concurrently.
type Reconciler struct {
	store  SampleStore
	logger *zap.SugaredLogger

	mu    sync.RWMutex
	meals []types.MealRecord
}

// New creates a Reconciler writing through the given store.
func New(store SampleStore, logger *zap.SugaredLogger) *Reconciler {
	return &Reconciler{
		store:  store,
		logger: logger,
	}
}

// Load replaces the in-memory meal list, typically with history fetched
// from the server at startup. No store writes happen here.
func (r *Reconciler) Load(meals []types.MealRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.meals = append([]types.MealRecord(nil), meals...)
}

// Meals returns a copy of the current meal list in insertion order.
func (r *Reconciler) Meals() []types.MealRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]types.MealRecord(nil), r.meals...)
}

// Meal returns the meal with the given identifier.
func (r *Reconciler) Meal(mealID int64) (types.MealRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i := r.indexLocked(mealID); i >= 0 {
		return r.meals[i], true
	}
	return types.MealRecord{}, false
}

// Create writes the meal's nutrient footprint to the store, collecting
// the assigned sample identifiers onto the record, and adds it to the
// ledger. On error the ledger is unchanged; identifiers assigned before
// the failure stay on the passed record so the partial footprint can
// still be deleted precisely.
func (r *Reconciler) Create(ctx context.Context, meal *types.MealRecord) error {
	if err := r.writeFootprint(ctx, meal); err != nil {
		return fmt.Errorf("create meal %d: %w", meal.MealID, err)
	}

	r.mu.Lock()
	r.meals = append(r.meals, *meal)
	r.mu.Unlock()

	r.logger.Debugf("Created meal %d with %d nutrient samples", meal.MealID, len(meal.ExternalSampleIDs))
	return nil
}

// Update replaces a meal's food items, recomputes its totals, and
// rewrites its store footprint. The old footprint is deleted before the
// new one is written; per-nutrient-type identity in the store would
// otherwise make the stale samples indistinguishable from real intake.
// On error the in-memory record is left unchanged.
func (r *Reconciler) Update(ctx context.Context, mealID int64, items []types.FoodItem) (*types.MealRecord, error) {
	r.mu.RLock()
	i := r.indexLocked(mealID)
	if i < 0 {
		r.mu.RUnlock()
		return nil, ErrUnknownMeal
	}
	original := r.meals[i]
	r.mu.RUnlock()

	edited := original
	edited.FoodItems = items
	edited.Recalculate()
	edited.ExternalSampleIDs = nil

	if err := r.deleteFootprint(ctx, original); err != nil {
		return nil, fmt.Errorf("update meal %d: delete old footprint: %w", mealID, err)
	}
	if err := r.writeFootprint(ctx, &edited); err != nil {
		return nil, fmt.Errorf("update meal %d: write new footprint: %w", mealID, err)
	}

	r.mu.Lock()
	if i := r.indexLocked(mealID); i >= 0 {
		r.meals[i] = edited
	}
	r.mu.Unlock()

	r.logger.Debugf("Updated meal %d, footprint now %d samples", mealID, len(edited.ExternalSampleIDs))
	return &edited, nil
}

// Delete removes a meal's store footprint and drops the record from the
// ledger. The record is removed even when the footprint delete fails,
// so a store problem cannot strand an undeletable meal; the error is
// still returned for reporting.
func (r *Reconciler) Delete(ctx context.Context, mealID int64) error {
	r.mu.RLock()
	i := r.indexLocked(mealID)
	if i < 0 {
		r.mu.RUnlock()
		return ErrUnknownMeal
	}
	meal := r.meals[i]
	r.mu.RUnlock()

	footprintErr := r.deleteFootprint(ctx, meal)
	if footprintErr != nil {
		r.logger.Warnf("Removing meal %d despite footprint delete failure: %v", mealID, footprintErr)
	}

	r.mu.Lock()
	if i := r.indexLocked(mealID); i >= 0 {
		r.meals = append(r.meals[:i], r.meals[i+1:]...)
	}
	r.mu.Unlock()

	return footprintErr
}

// writeFootprint writes one quantity sample per non-empty nutrient
// total and appends each assigned identifier to the record. A failure
// mid-way leaves the identifiers collected so far on the record; the
// store has no multi-write transaction to roll back with.
func (r *Reconciler) writeFootprint(ctx context.Context, meal *types.MealRecord) error {
	for _, ns := range nutrientSamples(meal.Totals) {
		id, err := r.store.WriteQuantitySample(ctx, ns.sampleType, ns.value, ns.unit, meal.Timestamp)
		if err != nil {
			return fmt.Errorf("write %s sample: %w", ns.sampleType, err)
		}
		meal.ExternalSampleIDs = append(meal.ExternalSampleIDs, id)
	}
	return nil
}

// deleteFootprint removes a meal's samples from the store: precisely by
// identifier when identifiers were tracked, otherwise every tracked
// nutrient type within fallbackWindow of the meal timestamp. The
// fallback can over-delete when two meals share a timestamp; accepted,
// it only applies to records that predate identifier tracking or whose
// write failed to record them.
func (r *Reconciler) deleteFootprint(ctx context.Context, meal types.MealRecord) error {
	if len(meal.ExternalSampleIDs) > 0 {
		n, err := r.store.DeleteSamples(ctx, meal.ExternalSampleIDs)
		if err != nil {
			return fmt.Errorf("delete by identifier: %w", err)
		}
		r.logger.Debugf("Deleted %d of %d tracked samples for meal %d", n, len(meal.ExternalSampleIDs), meal.MealID)
		return nil
	}

	n, err := r.store.DeleteSamplesOfTypes(ctx, trackedNutrientTypes,
		meal.Timestamp.Add(-fallbackWindow), meal.Timestamp.Add(fallbackWindow))
	if err != nil {
		return fmt.Errorf("delete by timestamp window: %w", err)
	}
	r.logger.Debugf("Fallback-deleted %d nutrient samples around meal %d timestamp", n, meal.MealID)
	return nil
}

func (r *Reconciler) indexLocked(mealID int64) int {
	for i := range r.meals {
		if r.meals[i].MealID == mealID {
			return i
		}
	}
	return -1
}

type nutrientSample struct {
	sampleType string
	value      float64
	unit       string
}

// nutrientSamples maps meal totals onto store samples. Zero and absent
// totals produce no sample, so an itemless meal has an empty footprint.
func nutrientSamples(t types.NutrientTotals) []nutrientSample {
	var out []nutrientSample
	add := func(sampleType string, value float64, unit string) {
		if value == 0 {
			return
		}
		out = append(out, nutrientSample{sampleType: sampleType, value: value, unit: unit})
	}
	add(types.SampleDietaryEnergy, t.Calories, "kcal")
	add(types.SampleDietaryProtein, t.ProteinG, "g")
	add(types.SampleDietaryCarbs, t.CarbsG, "g")
	add(types.SampleDietaryFat, t.FatG, "g")
	if t.FiberG != nil {
		add(types.SampleDietaryFiber, *t.FiberG, "g")
	}
	if t.SugarG != nil {
		add(types.SampleDietarySugar, *t.SugarG, "g")
	}
	if t.SodiumMg != nil {
		add(types.SampleDietarySodium, *t.SodiumMg, "mg")
	}
	return out
}
