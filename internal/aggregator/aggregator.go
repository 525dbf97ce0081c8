// Package aggregator assembles per-window health snapshots from the
// sample source, segmenting sleep and computing derived scores along
// the way.
package aggregator

import (
	"context"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/healthbridge/healthbridge/internal/samplesource"
	"github.com/healthbridge/healthbridge/internal/scores"
	"github.com/healthbridge/healthbridge/internal/sleep"
	"github.com/healthbridge/healthbridge/internal/types"
)

const (
	// refreshSleepLookback extends sleep queries behind the window start
	// so sessions that began the previous evening are not cut off.
	refreshSleepLookback = 12 * time.Hour

	// syncSleepLookbackDays extends the sleep lookback further when
	// collecting a sync payload.
	syncSleepLookbackDays = 1

	// minHistoryLookbackDays floors the trend-series lookback.
	minHistoryLookbackDays = 14
)

// HealthAggregator orchestrates concurrent sample-source queries and
// owns the resulting snapshots.
type HealthAggregator struct {
	source samplesource.Source
	logger *zap.SugaredLogger
}

// New creates a HealthAggregator reading from the given source.
func New(source samplesource.Source, logger *zap.SugaredLogger) *HealthAggregator {
	return &HealthAggregator{
		source: source,
		logger: logger,
	}
}

// Refresh assembles the snapshot for a window. One query fans out per
// metric category; a category that fails or has no data ends up nil in
// the snapshot and never aborts the refresh.
func (a *HealthAggregator) Refresh(ctx context.Context, window types.TimeWindow) *types.HealthSnapshot {
	sleepWindow := types.TimeWindow{
		Start: window.Start.Add(-refreshSleepLookback),
		End:   window.End,
	}
	return a.assemble(ctx, window, window, sleepWindow)
}

// CollectForSync builds the payload for one sync attempt. Activity
// counters are cumulative, so they are always queried from the start of
// the day regardless of the requested window, and the sleep lookback is
// extended by a fixed day beyond the refresh lookback.
func (a *HealthAggregator) CollectForSync(ctx context.Context, deviceID string, window types.TimeWindow) *types.SyncPayload {
	activityWindow := types.TimeWindow{
		Start: startOfDay(window.End),
		End:   window.End,
	}
	sleepWindow := types.TimeWindow{
		Start: window.Start.Add(-refreshSleepLookback).AddDate(0, 0, -syncSleepLookbackDays),
		End:   window.End,
	}
	snap := a.assemble(ctx, window, activityWindow, sleepWindow)
	return types.NewSyncPayload(deviceID, snap)
}

// assemble runs the per-category queries concurrently, joins on all of
// them, then segments sleep and computes the scores.
func (a *HealthAggregator) assemble(ctx context.Context, window, activityWindow, sleepWindow types.TimeWindow) *types.HealthSnapshot {
	snap := &types.HealthSnapshot{
		Window:      window,
		GeneratedAt: time.Now(),
	}

	var sleepEvents []types.CategoryEvent

	var wg sync.WaitGroup
	wg.Add(8)
	go func() { defer wg.Done(); snap.Activity = a.fetchActivity(ctx, activityWindow) }()
	go func() { defer wg.Done(); snap.Heart = a.fetchHeart(ctx, window) }()
	go func() { defer wg.Done(); sleepEvents = a.fetchSleepEvents(ctx, sleepWindow) }()
	go func() { defer wg.Done(); snap.Workouts = a.fetchWorkouts(ctx, window) }()
	go func() { defer wg.Done(); snap.Mood = a.fetchMood(ctx, window) }()
	go func() { defer wg.Done(); snap.Body = a.fetchBody(ctx, window) }()
	go func() { defer wg.Done(); snap.Vitals = a.fetchVitals(ctx, window) }()
	go func() { defer wg.Done(); snap.Mindfulness = a.fetchMindfulness(ctx, window) }()
	wg.Wait()

	snap.SleepSessions = sleep.Segment(sleepEvents)

	battery := scores.BodyBattery(a.batteryInput(snap))
	snap.BodyBattery = &battery

	if quality, ok := a.sleepQuality(snap); ok {
		snap.SleepQuality = &quality
	}

	return snap
}

func (a *HealthAggregator) batteryInput(snap *types.HealthSnapshot) scores.BatteryInput {
	in := scores.BatteryInput{}
	if snap.Heart != nil {
		in.HRV = snap.Heart.HRVSDNN
	}
	if snap.Activity != nil {
		in.Steps = snap.Activity.Steps
	}
	if len(snap.SleepSessions) > 0 {
		asleep := snap.TotalAsleepMinutes()
		in.SleepMinutes = &asleep
	}
	return in
}

func (a *HealthAggregator) sleepQuality(snap *types.HealthSnapshot) (int, bool) {
	if len(snap.SleepSessions) == 0 {
		return 0, false
	}

	var asleep, deepMin, remMin, span float64
	for i := range snap.SleepSessions {
		s := &snap.SleepSessions[i]
		asleep += s.AsleepMinutes()
		deepMin += s.StageMinutes(types.StageDeep)
		remMin += s.StageMinutes(types.StageREM)
		span += s.TotalDurationMin
	}

	in := scores.SleepQualityInput{
		AsleepMinutes: &asleep,
		DeepMinutes:   &deepMin,
		REMMinutes:    &remMin,
	}
	if span > 0 {
		eff := asleep / span * 100
		in.EfficiencyPct = &eff
	}
	return scores.SleepQuality(in), true
}

func (a *HealthAggregator) fetchActivity(ctx context.Context, window types.TimeWindow) *types.ActivityData {
	data := &types.ActivityData{
		Steps:             toIntPtr(a.sum(ctx, types.SampleStepCount, window)),
		DistanceKm:        a.sum(ctx, types.SampleDistanceWalkRun, window),
		ActiveCalories:    a.sum(ctx, types.SampleActiveEnergy, window),
		BasalCalories:     a.sum(ctx, types.SampleBasalEnergy, window),
		ExerciseMinutes:   a.sum(ctx, types.SampleExerciseTime, window),
		StandHours:        toIntPtr(a.sum(ctx, types.SampleStandHour, window)),
		FlightsClimbed:    toIntPtr(a.sum(ctx, types.SampleFlightsClimbed, window)),
		VO2Max:            a.latest(ctx, types.SampleVO2Max, window),
		WalkingSpeedKmh:   a.avg(ctx, types.SampleWalkingSpeed, window),
		WalkingSteadiness: a.latest(ctx, types.SampleWalkingSteadiness, window),
	}
	if data.Steps == nil && data.DistanceKm == nil && data.ActiveCalories == nil &&
		data.BasalCalories == nil && data.ExerciseMinutes == nil && data.StandHours == nil &&
		data.FlightsClimbed == nil && data.VO2Max == nil && data.WalkingSpeedKmh == nil &&
		data.WalkingSteadiness == nil {
		return nil
	}
	return data
}

func (a *HealthAggregator) fetchHeart(ctx context.Context, window types.TimeWindow) *types.HeartData {
	data := &types.HeartData{
		RestingHR:    a.latest(ctx, types.SampleRestingHeartRate, window),
		AvgHR:        a.avg(ctx, types.SampleHeartRate, window),
		HRVSDNN:      a.avg(ctx, types.SampleHRVSDNN, window),
		WalkingHRAvg: a.avg(ctx, types.SampleWalkingHeartRate, window),
	}
	min, max, err := a.source.QuantityMinMax(ctx, types.SampleHeartRate, window)
	if err != nil {
		a.logger.Warnf("heart rate min/max query failed: %v", err)
	} else {
		data.MinHR = min
		data.MaxHR = max
	}
	if data.RestingHR == nil && data.AvgHR == nil && data.MinHR == nil &&
		data.MaxHR == nil && data.HRVSDNN == nil && data.WalkingHRAvg == nil {
		return nil
	}
	return data
}

func (a *HealthAggregator) fetchSleepEvents(ctx context.Context, window types.TimeWindow) []types.CategoryEvent {
	events, err := a.source.CategoryEvents(ctx, types.SampleSleepAnalysis, window)
	if err != nil {
		a.logger.Warnf("sleep query failed: %v", err)
		return nil
	}
	return events
}

func (a *HealthAggregator) fetchWorkouts(ctx context.Context, window types.TimeWindow) []types.WorkoutSession {
	workouts, err := a.source.Workouts(ctx, window)
	if err != nil {
		a.logger.Warnf("workout query failed: %v", err)
		return nil
	}
	return workouts
}

func (a *HealthAggregator) fetchMood(ctx context.Context, window types.TimeWindow) []types.MoodEntry {
	entries, err := a.source.MoodEntries(ctx, window)
	if err != nil {
		a.logger.Warnf("mood query failed: %v", err)
		return nil
	}
	return entries
}

func (a *HealthAggregator) fetchBody(ctx context.Context, window types.TimeWindow) *types.BodyData {
	data := &types.BodyData{
		WeightKg:   a.latest(ctx, types.SampleBodyMass, window),
		BMI:        a.latest(ctx, types.SampleBodyMassIndex, window),
		BodyFatPct: a.latest(ctx, types.SampleBodyFatPct, window),
		HeightCm:   a.latest(ctx, types.SampleHeight, window),
	}
	if data.WeightKg == nil && data.BMI == nil && data.BodyFatPct == nil && data.HeightCm == nil {
		return nil
	}
	return data
}

func (a *HealthAggregator) fetchVitals(ctx context.Context, window types.TimeWindow) *types.VitalsData {
	data := &types.VitalsData{
		BloodPressureSystolic:  a.latest(ctx, types.SampleBPSystolic, window),
		BloodPressureDiastolic: a.latest(ctx, types.SampleBPDiastolic, window),
		BloodOxygenPct:         a.avg(ctx, types.SampleOxygenSat, window),
		RespiratoryRate:        a.avg(ctx, types.SampleRespiratoryRate, window),
		BodyTemperatureC:       a.latest(ctx, types.SampleBodyTemperature, window),
	}
	if data.BloodPressureSystolic == nil && data.BloodPressureDiastolic == nil &&
		data.BloodOxygenPct == nil && data.RespiratoryRate == nil && data.BodyTemperatureC == nil {
		return nil
	}
	return data
}

func (a *HealthAggregator) fetchMindfulness(ctx context.Context, window types.TimeWindow) []types.MindfulnessSession {
	events, err := a.source.CategoryEvents(ctx, types.SampleMindfulSession, window)
	if err != nil {
		a.logger.Warnf("mindfulness query failed: %v", err)
		return nil
	}
	var sessions []types.MindfulnessSession
	for _, ev := range events {
		sessions = append(sessions, types.MindfulnessSession{
			Start:       ev.Start,
			End:         ev.End,
			DurationMin: ev.End.Sub(ev.Start).Minutes(),
		})
	}
	return sessions
}

func (a *HealthAggregator) sum(ctx context.Context, sampleType string, window types.TimeWindow) *float64 {
	v, err := a.source.QuantitySum(ctx, sampleType, window)
	if err != nil {
		a.logger.Warnf("sum query for %s failed: %v", sampleType, err)
		return nil
	}
	return v
}

func (a *HealthAggregator) avg(ctx context.Context, sampleType string, window types.TimeWindow) *float64 {
	v, err := a.source.QuantityAvg(ctx, sampleType, window)
	if err != nil {
		a.logger.Warnf("avg query for %s failed: %v", sampleType, err)
		return nil
	}
	return v
}

func (a *HealthAggregator) latest(ctx context.Context, sampleType string, window types.TimeWindow) *float64 {
	v, err := a.source.QuantityLatest(ctx, sampleType, window)
	if err != nil {
		a.logger.Warnf("latest query for %s failed: %v", sampleType, err)
		return nil
	}
	return v
}

func toIntPtr(v *float64) *int {
	if v == nil {
		return nil
	}
	n := int(math.Round(*v))
	return &n
}

func startOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
