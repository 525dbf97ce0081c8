// Package samplesource defines the read-side query interface over the
// local health sample store.
package samplesource

import (
	"context"

	"github.com/healthbridge/healthbridge/internal/types"
)

// Source answers scalar-aggregate and raw-event queries for sample
// types over a half-open [start, end) window. Absence of data is
// represented as nil/empty results, never as an error; errors are
// reserved for the store itself failing.
type Source interface {
	QuantitySum(ctx context.Context, sampleType string, window types.TimeWindow) (*float64, error)
	QuantityAvg(ctx context.Context, sampleType string, window types.TimeWindow) (*float64, error)
	QuantityMinMax(ctx context.Context, sampleType string, window types.TimeWindow) (*float64, *float64, error)
	QuantityLatest(ctx context.Context, sampleType string, window types.TimeWindow) (*float64, error)
	QuantitySeries(ctx context.Context, sampleType string, window types.TimeWindow) ([]types.SamplePoint, error)
	CategoryEvents(ctx context.Context, sampleType string, window types.TimeWindow) ([]types.CategoryEvent, error)
	Workouts(ctx context.Context, window types.TimeWindow) ([]types.WorkoutSession, error)
	MoodEntries(ctx context.Context, window types.TimeWindow) ([]types.MoodEntry, error)
}
