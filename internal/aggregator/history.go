package aggregator

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/healthbridge/healthbridge/internal/types"
)

// Metric selects a sample type and how its per-day values are reduced:
// cumulative metrics sum within a day, continuous metrics average.
type Metric struct {
	SampleType string
	Cumulative bool
}

// Standard trend metrics.
var (
	MetricSteps        = Metric{SampleType: types.SampleStepCount, Cumulative: true}
	MetricActiveEnergy = Metric{SampleType: types.SampleActiveEnergy, Cumulative: true}
	MetricExercise     = Metric{SampleType: types.SampleExerciseTime, Cumulative: true}
	MetricRestingHR    = Metric{SampleType: types.SampleRestingHeartRate}
	MetricHRV          = Metric{SampleType: types.SampleHRVSDNN}
	MetricWeight       = Metric{SampleType: types.SampleBodyMass}
)

// DailyHistory returns the per-day series for a metric over a lookback
// proportional to the requested period (at least three periods, never
// less than two weeks). Days with no samples are dropped rather than
// reported as zero.
func (a *HealthAggregator) DailyHistory(ctx context.Context, metric Metric, periodDays int) ([]types.DailyMetricPoint, error) {
	lookback := periodDays * 3
	if lookback < minHistoryLookbackDays {
		lookback = minHistoryLookbackDays
	}

	now := time.Now()
	window := types.TimeWindow{
		Start: startOfDay(now).AddDate(0, 0, -(lookback - 1)),
		End:   now,
	}

	points, err := a.source.QuantitySeries(ctx, metric.SampleType, window)
	if err != nil {
		return nil, fmt.Errorf("history query for %s: %w", metric.SampleType, err)
	}
	return bucketDaily(points, metric.Cumulative), nil
}

// bucketDaily reduces raw points into one value per calendar day, using
// the day of the point's own location. Zero-valued days are discarded
// along with empty ones.
func bucketDaily(points []types.SamplePoint, cumulative bool) []types.DailyMetricPoint {
	byDay := make(map[time.Time][]float64)
	for _, p := range points {
		byDay[startOfDay(p.Time)] = append(byDay[startOfDay(p.Time)], p.Value)
	}

	series := make([]types.DailyMetricPoint, 0, len(byDay))
	for day, values := range byDay {
		var v float64
		if cumulative {
			for _, x := range values {
				v += x
			}
		} else {
			v = stat.Mean(values, nil)
		}
		if v == 0 {
			continue
		}
		series = append(series, types.DailyMetricPoint{Day: day, Value: v})
	}

	sort.Slice(series, func(i, j int) bool { return series[i].Day.Before(series[j].Day) })
	return series
}
