// Package main provides a synthetic health-sample generator for exercising
// the agent without a paired device. It seeds a local sample store with
// plausible activity, heart, sleep, body, and mood data.
package main

import (
	"context"
	"flag"
	"log"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/healthbridge/healthbridge/internal/healthstore"
	"github.com/healthbridge/healthbridge/internal/types"
)

const defaultStore = "healthbridge-samples.db"

// HealthEmulator generates synthetic health samples around stable
// per-person baselines so day-to-day values drift instead of jumping.
type HealthEmulator struct {
	rng *rand.Rand

	baseSteps     float64
	baseRestingHR float64
	baseHRV       float64
	baseWeight    float64

	written int
}

func main() {
	var (
		storePath = flag.String("store", defaultStore, "Path to the sample store database")
		days      = flag.Int("days", 7, "Number of past days to generate")
		seed      = flag.Int64("seed", 0, "Random seed (0 uses the current time)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[health-data-simulator] ", log.LstdFlags)

	if *days < 1 {
		logger.Fatalf("days must be at least 1, got %d", *days)
	}

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(*seed))

	store, err := healthstore.New(*storePath)
	if err != nil {
		logger.Fatalf("Failed to open sample store: %v", err)
	}
	defer store.Close()

	emulator := &HealthEmulator{
		rng:           rng,
		baseSteps:     8000 + rng.Float64()*3000,
		baseRestingHR: 48 + rng.Float64()*14,
		baseHRV:       40 + rng.Float64()*35,
		baseWeight:    62 + rng.Float64()*25,
	}

	ctx := context.Background()
	today := time.Now().Truncate(24 * time.Hour)

	for i := *days - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		before := emulator.written
		if err := emulator.GenerateDay(ctx, store, day); err != nil {
			logger.Fatalf("Failed to generate %s: %v", day.Format("2006-01-02"), err)
		}
		logger.Printf("Generated %s: %d samples", day.Format("2006-01-02"), emulator.written-before)
	}

	logger.Printf("Done: %d samples written to %s (seed %d)", emulator.written, *storePath, *seed)
}

// GenerateDay writes one day's worth of samples: daytime activity and
// heart readings, the previous night's sleep, and occasional workouts,
// body measurements, and mood entries.
func (e *HealthEmulator) GenerateDay(ctx context.Context, store *healthstore.Store, day time.Time) error {
	if err := e.generateActivity(ctx, store, day); err != nil {
		return err
	}
	if err := e.generateHeart(ctx, store, day); err != nil {
		return err
	}
	if err := e.generateSleep(ctx, store, day); err != nil {
		return err
	}
	if err := e.generateBody(ctx, store, day); err != nil {
		return err
	}
	if err := e.generateWorkout(ctx, store, day); err != nil {
		return err
	}
	return e.generateMood(ctx, store, day)
}

// generateActivity writes hourly step, distance, and energy buckets from
// 07:00 to 22:00 with a two-peak daily curve (commute and evening).
func (e *HealthEmulator) generateActivity(ctx context.Context, store *healthstore.Store, day time.Time) error {
	dailySteps := e.baseSteps * (0.75 + e.rng.Float64()*0.5)

	for hour := 7; hour < 22; hour++ {
		ts := day.Add(time.Duration(hour)*time.Hour + time.Duration(e.rng.Intn(50))*time.Minute)
		weight := 0.4 + math.Sin(math.Pi*float64(hour-7)/15) + 0.6*math.Sin(2*math.Pi*float64(hour-8)/14)
		if weight < 0.05 {
			weight = 0.05
		}
		steps := dailySteps / 15 * weight * (0.7 + e.rng.Float64()*0.6)

		if err := e.write(ctx, store, types.SampleStepCount, math.Round(steps), "count", ts); err != nil {
			return err
		}
		if err := e.write(ctx, store, types.SampleDistanceWalkRun, steps*0.00074, "km", ts); err != nil {
			return err
		}
		if err := e.write(ctx, store, types.SampleActiveEnergy, steps*0.045, "kcal", ts); err != nil {
			return err
		}
	}

	flights := float64(e.rng.Intn(14))
	if flights > 0 {
		ts := day.Add(time.Duration(9+e.rng.Intn(10)) * time.Hour)
		if err := e.write(ctx, store, types.SampleFlightsClimbed, flights, "count", ts); err != nil {
			return err
		}
	}

	exercise := 10 + e.rng.Float64()*50
	ts := day.Add(18 * time.Hour)
	return e.write(ctx, store, types.SampleExerciseTime, math.Round(exercise), "min", ts)
}

// generateHeart writes heart-rate readings every half hour plus the
// once-daily resting HR and HRV measurements the watch takes overnight.
func (e *HealthEmulator) generateHeart(ctx context.Context, store *healthstore.Store, day time.Time) error {
	for halfHour := 14; halfHour < 44; halfHour++ {
		ts := day.Add(time.Duration(halfHour) * 30 * time.Minute)
		hour := float64(halfHour) / 2
		hr := e.baseRestingHR + 18 + 14*math.Sin(math.Pi*(hour-7)/15) + e.rng.Float64()*16
		if err := e.write(ctx, store, types.SampleHeartRate, math.Round(hr), "bpm", ts); err != nil {
			return err
		}
	}

	restingTS := day.Add(5 * time.Hour)
	resting := e.baseRestingHR + e.rng.Float64()*6 - 3
	if err := e.write(ctx, store, types.SampleRestingHeartRate, math.Round(resting), "bpm", restingTS); err != nil {
		return err
	}

	hrv := e.baseHRV * (0.8 + e.rng.Float64()*0.4)
	if err := e.write(ctx, store, types.SampleHRVSDNN, math.Round(hrv*10)/10, "ms", restingTS); err != nil {
		return err
	}

	walking := resting + 25 + e.rng.Float64()*15
	return e.write(ctx, store, types.SampleWalkingHeartRate, math.Round(walking), "bpm", day.Add(13*time.Hour))
}

// generateSleep writes the night ending on this day: an inBed span
// wrapping sleep cycles of core, deep, and rem stages with brief
// wakings. Some nights include a mid-night gap where the watch was off.
func (e *HealthEmulator) generateSleep(ctx context.Context, store *healthstore.Store, day time.Time) error {
	bedtime := day.Add(-90*time.Minute + time.Duration(e.rng.Intn(80)-40)*time.Minute)
	wake := day.Add(6*time.Hour + 30*time.Minute + time.Duration(e.rng.Intn(60)-30)*time.Minute)

	if _, err := store.WriteCategorySample(ctx, types.SampleSleepAnalysis, types.StageInBed, bedtime, wake); err != nil {
		return err
	}
	e.written++

	gapStart := time.Time{}
	var gapEnd time.Time
	if e.rng.Float64() < 0.15 {
		gapStart = bedtime.Add(time.Duration(150+e.rng.Intn(90)) * time.Minute)
		gapEnd = gapStart.Add(time.Duration(30+e.rng.Intn(30)) * time.Minute)
	}

	cursor := bedtime.Add(time.Duration(5+e.rng.Intn(15)) * time.Minute)
	cycle := 0
	for cursor.Before(wake.Add(-20 * time.Minute)) {
		stages := []struct {
			stage   string
			minutes int
		}{
			{types.StageCore, 45 + e.rng.Intn(25)},
			{types.StageDeep, max(5, 22-cycle*6) + e.rng.Intn(8)},
			{types.StageREM, 10 + cycle*7 + e.rng.Intn(10)},
		}

		for _, st := range stages {
			end := cursor.Add(time.Duration(st.minutes) * time.Minute)
			if end.After(wake) {
				end = wake
			}
			if !gapStart.IsZero() && cursor.Before(gapEnd) && end.After(gapStart) {
				cursor = gapEnd
				continue
			}
			if end.After(cursor) {
				if _, err := store.WriteCategorySample(ctx, types.SampleSleepAnalysis, st.stage, cursor, end); err != nil {
					return err
				}
				e.written++
			}
			cursor = end
		}

		if e.rng.Float64() < 0.5 {
			end := cursor.Add(time.Duration(1+e.rng.Intn(5)) * time.Minute)
			if end.Before(wake) {
				if _, err := store.WriteCategorySample(ctx, types.SampleSleepAnalysis, types.StageAwake, cursor, end); err != nil {
					return err
				}
				e.written++
				cursor = end
			}
		}
		cycle++
	}

	breaths := 13 + e.rng.Float64()*3.5
	if err := e.write(ctx, store, types.SampleRespiratoryRate, math.Round(breaths*10)/10, "breaths/min", bedtime.Add(3*time.Hour)); err != nil {
		return err
	}
	spo2 := 95.5 + e.rng.Float64()*3.5
	return e.write(ctx, store, types.SampleOxygenSat, math.Round(spo2*10)/10, "%", bedtime.Add(4*time.Hour))
}

// generateBody writes a morning weigh-in roughly every third day.
func (e *HealthEmulator) generateBody(ctx context.Context, store *healthstore.Store, day time.Time) error {
	if e.rng.Float64() > 0.35 {
		return nil
	}

	ts := day.Add(7*time.Hour + time.Duration(e.rng.Intn(30))*time.Minute)
	weight := e.baseWeight + e.rng.Float64()*1.2 - 0.6
	if err := e.write(ctx, store, types.SampleBodyMass, math.Round(weight*10)/10, "kg", ts); err != nil {
		return err
	}

	fatPct := 14 + (e.baseWeight-62)/25*12 + e.rng.Float64()*1.5
	return e.write(ctx, store, types.SampleBodyFatPct, math.Round(fatPct*10)/10, "%", ts)
}

// generateWorkout writes a workout on roughly every other day, rotating
// through a small set of session types, plus a mindfulness session on
// some rest days.
func (e *HealthEmulator) generateWorkout(ctx context.Context, store *healthstore.Store, day time.Time) error {
	if e.rng.Float64() > 0.55 {
		if e.rng.Float64() < 0.4 {
			start := day.Add(21*time.Hour + time.Duration(e.rng.Intn(40))*time.Minute)
			end := start.Add(time.Duration(8+e.rng.Intn(12)) * time.Minute)
			if _, err := store.WriteCategorySample(ctx, types.SampleMindfulSession, "", start, end); err != nil {
				return err
			}
			e.written++
		}
		return nil
	}

	kinds := []string{"running", "cycling", "traditionalStrengthTraining", "walking", "yoga"}
	kind := kinds[e.rng.Intn(len(kinds))]

	start := day.Add(time.Duration(7+e.rng.Intn(12)) * time.Hour)
	duration := time.Duration(25+e.rng.Intn(50)) * time.Minute
	end := start.Add(duration)

	w := types.WorkoutSession{
		WorkoutType: kind,
		Start:       start,
		End:         end,
		DurationMin: duration.Minutes(),
	}

	avgHR := e.baseRestingHR + 60 + e.rng.Float64()*30
	maxHR := avgHR + 15 + e.rng.Float64()*20
	cal := duration.Minutes() * (6 + e.rng.Float64()*5)
	w.AvgHR = &avgHR
	w.MaxHR = &maxHR
	w.ActiveCalories = &cal

	switch kind {
	case "running":
		dist := duration.Minutes() * (0.14 + e.rng.Float64()*0.06)
		elev := e.rng.Float64() * 120
		w.DistanceKm = &dist
		w.ElevationGainM = &elev
	case "cycling":
		dist := duration.Minutes() * (0.35 + e.rng.Float64()*0.15)
		elev := e.rng.Float64() * 300
		w.DistanceKm = &dist
		w.ElevationGainM = &elev
	case "walking":
		dist := duration.Minutes() * (0.07 + e.rng.Float64()*0.02)
		w.DistanceKm = &dist
	}

	if _, err := store.WriteWorkout(ctx, w); err != nil {
		return err
	}
	e.written++
	return nil
}

// generateMood writes one or two daily mood entries with a valence that
// loosely tracks how well the night went.
func (e *HealthEmulator) generateMood(ctx context.Context, store *healthstore.Store, day time.Time) error {
	labelsFor := func(valence float64) []string {
		switch {
		case valence > 0.4:
			return []string{"happy", "energetic"}
		case valence > 0:
			return []string{"calm", "content"}
		case valence > -0.4:
			return []string{"tired"}
		default:
			return []string{"stressed", "drained"}
		}
	}

	valence := e.rng.Float64()*1.4 - 0.5
	entry := types.MoodEntry{
		Kind:         "dailyMood",
		Timestamp:    day.Add(20*time.Hour + time.Duration(e.rng.Intn(90))*time.Minute),
		Valence:      math.Round(valence*100) / 100,
		Labels:       labelsFor(valence),
		Associations: []string{"health"},
	}
	if _, err := store.WriteMoodEntry(ctx, entry); err != nil {
		return err
	}
	e.written++

	if e.rng.Float64() < 0.3 {
		momentary := types.MoodEntry{
			Kind:      "momentaryEmotion",
			Timestamp: day.Add(12*time.Hour + time.Duration(e.rng.Intn(180))*time.Minute),
			Valence:   math.Round((valence+e.rng.Float64()*0.4-0.2)*100) / 100,
			Labels:    labelsFor(valence),
		}
		if _, err := store.WriteMoodEntry(ctx, momentary); err != nil {
			return err
		}
		e.written++
	}

	return nil
}

func (e *HealthEmulator) write(ctx context.Context, store *healthstore.Store, sampleType string, value float64, unit string, ts time.Time) error {
	if _, err := store.WriteQuantitySample(ctx, sampleType, value, unit, ts); err != nil {
		return err
	}
	e.written++
	return nil
}
