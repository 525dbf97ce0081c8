package aggregator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/healthbridge/healthbridge/internal/types"
)

// fakeSource serves canned values and records the window used for each
// sample type. Safe for the aggregator's concurrent queries.
type fakeSource struct {
	mu        sync.Mutex
	sums      map[string]float64
	avgs      map[string]float64
	latests   map[string]float64
	minmax    map[string][2]float64
	events    map[string][]types.CategoryEvent
	series    map[string][]types.SamplePoint
	workouts  []types.WorkoutSession
	moods     []types.MoodEntry
	failTypes map[string]bool
	windows   map[string]types.TimeWindow
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		sums:      map[string]float64{},
		avgs:      map[string]float64{},
		latests:   map[string]float64{},
		minmax:    map[string][2]float64{},
		events:    map[string][]types.CategoryEvent{},
		series:    map[string][]types.SamplePoint{},
		failTypes: map[string]bool{},
		windows:   map[string]types.TimeWindow{},
	}
}

func (f *fakeSource) record(sampleType string, window types.TimeWindow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.windows[sampleType] = window
	if f.failTypes[sampleType] {
		return errors.New("store unavailable")
	}
	return nil
}

func (f *fakeSource) lookup(m map[string]float64, sampleType string) *float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := m[sampleType]; ok {
		value := v
		return &value
	}
	return nil
}

func (f *fakeSource) QuantitySum(_ context.Context, sampleType string, window types.TimeWindow) (*float64, error) {
	if err := f.record(sampleType, window); err != nil {
		return nil, err
	}
	return f.lookup(f.sums, sampleType), nil
}

func (f *fakeSource) QuantityAvg(_ context.Context, sampleType string, window types.TimeWindow) (*float64, error) {
	if err := f.record(sampleType, window); err != nil {
		return nil, err
	}
	return f.lookup(f.avgs, sampleType), nil
}

func (f *fakeSource) QuantityMinMax(_ context.Context, sampleType string, window types.TimeWindow) (*float64, *float64, error) {
	if err := f.record(sampleType, window); err != nil {
		return nil, nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if mm, ok := f.minmax[sampleType]; ok {
		min, max := mm[0], mm[1]
		return &min, &max, nil
	}
	return nil, nil, nil
}

func (f *fakeSource) QuantityLatest(_ context.Context, sampleType string, window types.TimeWindow) (*float64, error) {
	if err := f.record(sampleType, window); err != nil {
		return nil, err
	}
	return f.lookup(f.latests, sampleType), nil
}

func (f *fakeSource) QuantitySeries(_ context.Context, sampleType string, window types.TimeWindow) ([]types.SamplePoint, error) {
	if err := f.record(sampleType, window); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.series[sampleType], nil
}

func (f *fakeSource) CategoryEvents(_ context.Context, sampleType string, window types.TimeWindow) ([]types.CategoryEvent, error) {
	if err := f.record(sampleType, window); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.events[sampleType], nil
}

func (f *fakeSource) Workouts(_ context.Context, window types.TimeWindow) ([]types.WorkoutSession, error) {
	if err := f.record("workouts", window); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.workouts, nil
}

func (f *fakeSource) MoodEntries(_ context.Context, window types.TimeWindow) ([]types.MoodEntry, error) {
	if err := f.record("mood", window); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.moods, nil
}

func (f *fakeSource) window(sampleType string) types.TimeWindow {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.windows[sampleType]
}

var dayStart = time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)

func newTestAggregator(src *fakeSource) *HealthAggregator {
	return New(src, zap.NewNop().Sugar())
}

func sleepEventsFor(start time.Time) []types.CategoryEvent {
	mk := func(kind string, fromMin, toMin int) types.CategoryEvent {
		return types.CategoryEvent{
			Kind:  kind,
			Start: start.Add(time.Duration(fromMin) * time.Minute),
			End:   start.Add(time.Duration(toMin) * time.Minute),
		}
	}
	return []types.CategoryEvent{
		mk(types.StageDeep, 0, 60),
		mk(types.StageREM, 60, 160),
		mk(types.StageCore, 160, 430),
		mk(types.StageAwake, 430, 450),
	}
}

func TestRefreshEndToEnd(t *testing.T) {
	src := newFakeSource()
	src.avgs[types.SampleHRVSDNN] = 45
	src.sums[types.SampleStepCount] = 9000
	src.events[types.SampleSleepAnalysis] = sleepEventsFor(dayStart.Add(-7 * time.Hour))

	agg := newTestAggregator(src)
	window := types.TimeWindow{Start: dayStart, End: dayStart.Add(8 * time.Hour)}
	snap := agg.Refresh(context.Background(), window)

	if len(snap.SleepSessions) != 1 {
		t.Fatalf("got %d sleep sessions, want 1", len(snap.SleepSessions))
	}
	if snap.SleepSessions[0].TotalDurationMin != 450 {
		t.Errorf("session duration = %v, want 450", snap.SleepSessions[0].TotalDurationMin)
	}
	if snap.BodyBattery == nil || *snap.BodyBattery != 90 {
		t.Errorf("body battery = %v, want 90", snap.BodyBattery)
	}
	if snap.Activity == nil || snap.Activity.Steps == nil || *snap.Activity.Steps != 9000 {
		t.Errorf("steps = %+v, want 9000", snap.Activity)
	}
}

func TestRefreshCategoryFailureDegradesToAbsence(t *testing.T) {
	src := newFakeSource()
	src.sums[types.SampleStepCount] = 4000
	src.failTypes[types.SampleHeartRate] = true
	src.failTypes[types.SampleRestingHeartRate] = true
	src.failTypes[types.SampleHRVSDNN] = true
	src.failTypes[types.SampleWalkingHeartRate] = true

	agg := newTestAggregator(src)
	snap := agg.Refresh(context.Background(), types.TimeWindow{Start: dayStart, End: dayStart.Add(8 * time.Hour)})

	if snap.Heart != nil {
		t.Errorf("failed heart category should be absent, got %+v", snap.Heart)
	}
	if snap.Activity == nil || snap.Activity.Steps == nil || *snap.Activity.Steps != 4000 {
		t.Errorf("activity should survive heart failure: %+v", snap.Activity)
	}
	if snap.BodyBattery == nil {
		t.Fatal("body battery should still be computed")
	}
}

func TestRefreshEmptySourceYieldsBaseline(t *testing.T) {
	src := newFakeSource()
	agg := newTestAggregator(src)
	snap := agg.Refresh(context.Background(), types.TimeWindow{Start: dayStart, End: dayStart.Add(8 * time.Hour)})

	if snap.Activity != nil || snap.Heart != nil || snap.Body != nil || snap.Vitals != nil {
		t.Errorf("empty source should yield absent categories: %+v", snap)
	}
	if snap.BodyBattery == nil || *snap.BodyBattery != 50 {
		t.Errorf("body battery = %v, want baseline 50", snap.BodyBattery)
	}
	if snap.SleepQuality != nil {
		t.Errorf("sleep quality with no sessions should be absent, got %v", *snap.SleepQuality)
	}
}

func TestRefreshSleepLookback(t *testing.T) {
	src := newFakeSource()
	agg := newTestAggregator(src)
	window := types.TimeWindow{Start: dayStart, End: dayStart.Add(8 * time.Hour)}
	agg.Refresh(context.Background(), window)

	sleepWindow := src.window(types.SampleSleepAnalysis)
	wantStart := dayStart.Add(-12 * time.Hour)
	if !sleepWindow.Start.Equal(wantStart) {
		t.Errorf("sleep lookback start = %v, want %v", sleepWindow.Start, wantStart)
	}
	if !sleepWindow.End.Equal(window.End) {
		t.Errorf("sleep window end = %v, want %v", sleepWindow.End, window.End)
	}
}

func TestCollectForSyncWindows(t *testing.T) {
	src := newFakeSource()
	src.sums[types.SampleStepCount] = 100
	agg := newTestAggregator(src)

	// Request a short afternoon window; activity must still be queried
	// from the start of the day and sleep a day further back.
	window := types.TimeWindow{
		Start: dayStart.Add(14 * time.Hour),
		End:   dayStart.Add(15 * time.Hour),
	}
	payload := agg.CollectForSync(context.Background(), "device-1", window)

	activityWindow := src.window(types.SampleStepCount)
	if !activityWindow.Start.Equal(dayStart) {
		t.Errorf("activity window start = %v, want start of day %v", activityWindow.Start, dayStart)
	}

	sleepWindow := src.window(types.SampleSleepAnalysis)
	wantSleepStart := window.Start.Add(-12 * time.Hour).AddDate(0, 0, -1)
	if !sleepWindow.Start.Equal(wantSleepStart) {
		t.Errorf("sync sleep lookback start = %v, want %v", sleepWindow.Start, wantSleepStart)
	}

	if payload.DeviceID != "device-1" {
		t.Errorf("payload device id = %q", payload.DeviceID)
	}
	if !payload.PeriodFrom.Equal(window.Start) || !payload.PeriodTo.Equal(window.End) {
		t.Errorf("payload period = %v..%v", payload.PeriodFrom, payload.PeriodTo)
	}
	if payload.Sleep == nil || payload.Workouts == nil {
		t.Error("payload category slices must be non-nil")
	}
}

func TestRefreshQueriesAllCategories(t *testing.T) {
	src := newFakeSource()
	agg := newTestAggregator(src)
	agg.Refresh(context.Background(), types.TimeWindow{Start: dayStart, End: dayStart.Add(time.Hour)})

	for _, key := range []string{
		types.SampleStepCount, types.SampleHeartRate, types.SampleSleepAnalysis,
		"workouts", "mood", types.SampleBodyMass, types.SampleBPSystolic,
		types.SampleMindfulSession,
	} {
		if _, ok := src.windows[key]; !ok {
			t.Errorf("category query for %s never issued", key)
		}
	}
}
