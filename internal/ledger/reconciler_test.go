package ledger_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/healthbridge/healthbridge/internal/ledger"
	"github.com/healthbridge/healthbridge/internal/types"
)

type storedSample struct {
	sampleType string
	value      float64
	unit       string
	ts         time.Time
}

type windowDelete struct {
	sampleTypes []string
	start       time.Time
	end         time.Time
}

// fakeStore is an in-memory SampleStore recording every call.
type fakeStore struct {
	mu            sync.Mutex
	nextID        int
	samples       map[string]storedSample
	windowDeletes []windowDelete

	writeErrAfter int // fail writes once this many have succeeded; -1 disables
	deleteErr     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		samples:       make(map[string]storedSample),
		writeErrAfter: -1,
	}
}

func (f *fakeStore) WriteQuantitySample(_ context.Context, sampleType string, value float64, unit string, ts time.Time) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErrAfter >= 0 && len(f.samples) >= f.writeErrAfter {
		return "", fmt.Errorf("store unavailable")
	}
	f.nextID++
	id := fmt.Sprintf("sample-%d", f.nextID)
	f.samples[id] = storedSample{sampleType: sampleType, value: value, unit: unit, ts: ts}
	return id, nil
}

func (f *fakeStore) DeleteSamples(_ context.Context, ids []string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	var n int64
	for _, id := range ids {
		if _, ok := f.samples[id]; ok {
			delete(f.samples, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) DeleteSamplesOfTypes(_ context.Context, sampleTypes []string, start, end time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.windowDeletes = append(f.windowDeletes, windowDelete{sampleTypes: sampleTypes, start: start, end: end})
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	var n int64
	for id, s := range f.samples {
		if !typeIn(s.sampleType, sampleTypes) {
			continue
		}
		if s.ts.Before(start) || s.ts.After(end) {
			continue
		}
		delete(f.samples, id)
		n++
	}
	return n, nil
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.samples)
}

func typeIn(t string, set []string) bool {
	for _, s := range set {
		if s == t {
			return true
		}
	}
	return false
}

func fptr(v float64) *float64 { return &v }

func testMeal(id int64, ts time.Time) *types.MealRecord {
	m := &types.MealRecord{
		MealID:      id,
		Timestamp:   ts,
		Description: "chicken salad",
		FoodItems: []types.FoodItem{
			{
				Name:     "grilled chicken",
				Portion:  "150g",
				Calories: 250, ProteinG: 45, CarbsG: 0, FatG: 6,
			},
			{
				Name:     "mixed greens",
				Portion:  "2 cups",
				Calories: 80, ProteinG: 3, CarbsG: 12, FatG: 2,
				FiberG: fptr(4), SugarG: fptr(3), SodiumMg: fptr(120),
			},
		},
	}
	m.Recalculate()
	return m
}

func TestCreateTracksIdentifiersAndRoundTrips(t *testing.T) {
	store := newFakeStore()
	rec := ledger.New(store, zap.NewNop().Sugar())
	ts := time.Date(2026, 3, 10, 12, 30, 0, 0, time.UTC)

	meal := testMeal(1, ts)
	require.NoError(t, rec.Create(context.Background(), meal))

	// energy, protein, fat always present; carbs/fiber/sugar/sodium
	// from the second item.
	require.Len(t, meal.ExternalSampleIDs, 7)
	require.Equal(t, 7, store.count())
	require.Len(t, rec.Meals(), 1)

	// Deleting by the tracked identifiers empties the store.
	require.NoError(t, rec.Delete(context.Background(), 1))
	require.Equal(t, 0, store.count())
	require.Empty(t, rec.Meals())
	require.Empty(t, store.windowDeletes, "identifier delete must not fall back to the window")
}

func TestCreateSkipsZeroAndAbsentNutrients(t *testing.T) {
	store := newFakeStore()
	rec := ledger.New(store, zap.NewNop().Sugar())

	meal := &types.MealRecord{
		MealID:    2,
		Timestamp: time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC),
		FoodItems: []types.FoodItem{
			{Name: "black coffee", Portion: "1 cup", Calories: 5},
		},
	}
	meal.Recalculate()

	require.NoError(t, rec.Create(context.Background(), meal))
	require.Len(t, meal.ExternalSampleIDs, 1)
	require.Equal(t, 1, store.count())
}

func TestCreateFailClosed(t *testing.T) {
	store := newFakeStore()
	store.writeErrAfter = 2
	rec := ledger.New(store, zap.NewNop().Sugar())

	meal := testMeal(3, time.Now().UTC())
	err := rec.Create(context.Background(), meal)
	require.Error(t, err)

	// Not added to the ledger, but the identifiers that did get
	// written stay on the record so they can be cleaned up precisely.
	require.Empty(t, rec.Meals())
	require.Len(t, meal.ExternalSampleIDs, 2)
}

func TestUpdateRewritesFootprint(t *testing.T) {
	store := newFakeStore()
	rec := ledger.New(store, zap.NewNop().Sugar())
	ts := time.Date(2026, 3, 11, 19, 0, 0, 0, time.UTC)

	meal := testMeal(4, ts)
	require.NoError(t, rec.Create(context.Background(), meal))
	oldIDs := append([]string(nil), meal.ExternalSampleIDs...)

	updated, err := rec.Update(context.Background(), 4, []types.FoodItem{
		{Name: "protein shake", Portion: "1 scoop", Calories: 120, ProteinG: 24, CarbsG: 3, FatG: 1},
	})
	require.NoError(t, err)

	require.Equal(t, 120.0, updated.Totals.Calories)
	require.Nil(t, updated.Totals.FiberG)
	require.Len(t, updated.ExternalSampleIDs, 4)
	require.NotSubset(t, updated.ExternalSampleIDs, oldIDs)
	require.Equal(t, 4, store.count())

	got, ok := rec.Meal(4)
	require.True(t, ok)
	require.Equal(t, updated.ExternalSampleIDs, got.ExternalSampleIDs)
}

func TestUpdateWithEmptyItems(t *testing.T) {
	store := newFakeStore()
	rec := ledger.New(store, zap.NewNop().Sugar())

	meal := testMeal(5, time.Date(2026, 3, 12, 13, 0, 0, 0, time.UTC))
	require.NoError(t, rec.Create(context.Background(), meal))
	require.NotZero(t, store.count())

	updated, err := rec.Update(context.Background(), 5, nil)
	require.NoError(t, err)

	require.Zero(t, updated.Totals.Calories)
	require.Zero(t, updated.Totals.ProteinG)
	require.Nil(t, updated.Totals.FiberG)
	require.Empty(t, updated.ExternalSampleIDs)
	require.Equal(t, 0, store.count())
}

func TestUpdateFailClosed(t *testing.T) {
	store := newFakeStore()
	rec := ledger.New(store, zap.NewNop().Sugar())

	meal := testMeal(6, time.Date(2026, 3, 13, 7, 30, 0, 0, time.UTC))
	require.NoError(t, rec.Create(context.Background(), meal))

	store.deleteErr = fmt.Errorf("store unavailable")
	_, err := rec.Update(context.Background(), 6, []types.FoodItem{
		{Name: "toast", Portion: "1 slice", Calories: 90, CarbsG: 17},
	})
	require.Error(t, err)

	// In-memory record unchanged.
	got, ok := rec.Meal(6)
	require.True(t, ok)
	require.Equal(t, meal.Totals, got.Totals)
	require.Equal(t, meal.ExternalSampleIDs, got.ExternalSampleIDs)
}

func TestUpdateUnknownMeal(t *testing.T) {
	rec := ledger.New(newFakeStore(), zap.NewNop().Sugar())
	_, err := rec.Update(context.Background(), 99, nil)
	require.ErrorIs(t, err, ledger.ErrUnknownMeal)
}

func TestDeleteFallbackWindow(t *testing.T) {
	store := newFakeStore()
	rec := ledger.New(store, zap.NewNop().Sugar())
	ts := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	// A record that predates identifier tracking: no sample IDs.
	rec.Load([]types.MealRecord{{
		MealID:      7,
		Timestamp:   ts,
		Description: "legacy lunch",
		Totals:      types.NutrientTotals{Calories: 600},
	}})

	require.NoError(t, rec.Delete(context.Background(), 7))

	require.Len(t, store.windowDeletes, 1)
	wd := store.windowDeletes[0]
	require.Equal(t, ts.Add(-time.Second), wd.start)
	require.Equal(t, ts.Add(time.Second), wd.end)
	require.ElementsMatch(t, []string{
		types.SampleDietaryEnergy,
		types.SampleDietaryProtein,
		types.SampleDietaryCarbs,
		types.SampleDietaryFat,
		types.SampleDietaryFiber,
		types.SampleDietarySugar,
		types.SampleDietarySodium,
	}, wd.sampleTypes)
}

func TestDeleteRemovesRecordDespiteStoreError(t *testing.T) {
	store := newFakeStore()
	rec := ledger.New(store, zap.NewNop().Sugar())

	meal := testMeal(8, time.Date(2026, 3, 15, 18, 0, 0, 0, time.UTC))
	require.NoError(t, rec.Create(context.Background(), meal))

	store.deleteErr = fmt.Errorf("store unavailable")
	err := rec.Delete(context.Background(), 8)
	require.Error(t, err)

	_, ok := rec.Meal(8)
	require.False(t, ok, "record must be removed even when the footprint delete fails")
}
