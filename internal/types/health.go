// Package types contains the shared health data model used by the
// aggregator, sync, ledger, and server packages.
package types

import "time"

// TimeWindow is a half-open time interval [Start, End) used for all
// sample queries. End must be after Start.
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// Valid reports whether the window is well-formed.
func (w TimeWindow) Valid() bool {
	return w.End.After(w.Start)
}

// Duration returns the length of the window.
func (w TimeWindow) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// Sleep stage kinds as reported by the sample source. InBed is excluded
// from session segmentation; Unknown is retained in sessions but ignored
// by scoring.
const (
	StageDeep    = "deep"
	StageREM     = "rem"
	StageCore    = "core"
	StageAwake   = "awake"
	StageInBed   = "inBed"
	StageUnknown = "unknown"
)

// CategoryEvent is a raw timestamped category reading from the sample
// source. For the sleep category, Kind holds the stage kind.
type CategoryEvent struct {
	Kind  string
	Start time.Time
	End   time.Time
}

// SleepStage is one contiguous stage interval inside a segmented session.
type SleepStage struct {
	Stage       string    `json:"stage"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	DurationMin float64   `json:"duration_min"`
}

// SleepSession is a segmented block of sleep. Stages are non-overlapping
// and sorted by start; Start/End span the first and last stage. Sessions
// are recomputed on every refresh and never persisted by the agent.
type SleepSession struct {
	Start            time.Time    `json:"start"`
	End              time.Time    `json:"end"`
	TotalDurationMin float64      `json:"total_duration_min"`
	Stages           []SleepStage `json:"stages"`
	InBedDurationMin *float64     `json:"in_bed_duration_min,omitempty"`
}

// StageMinutes sums the duration of all stages of the given kind.
func (s *SleepSession) StageMinutes(kind string) float64 {
	var total float64
	for _, st := range s.Stages {
		if st.Stage == kind {
			total += st.DurationMin
		}
	}
	return total
}

// AsleepMinutes sums the deep, core, and REM stage durations. Awake and
// unknown intervals do not count as sleep.
func (s *SleepSession) AsleepMinutes() float64 {
	return s.StageMinutes(StageDeep) + s.StageMinutes(StageCore) + s.StageMinutes(StageREM)
}

// EfficiencyPct returns time asleep as a percentage of the session span.
func (s *SleepSession) EfficiencyPct() float64 {
	span := s.End.Sub(s.Start).Minutes()
	if span <= 0 {
		return 0
	}
	return s.AsleepMinutes() / span * 100
}

// ActivityData holds the daily activity counters.
type ActivityData struct {
	Steps             *int     `json:"steps,omitempty"`
	DistanceKm        *float64 `json:"distance_km,omitempty"`
	ActiveCalories    *float64 `json:"active_calories,omitempty"`
	BasalCalories     *float64 `json:"basal_calories,omitempty"`
	ExerciseMinutes   *float64 `json:"exercise_minutes,omitempty"`
	StandHours        *int     `json:"stand_hours,omitempty"`
	FlightsClimbed    *int     `json:"flights_climbed,omitempty"`
	VO2Max            *float64 `json:"vo2_max,omitempty"`
	WalkingSpeedKmh   *float64 `json:"walking_speed_kmh,omitempty"`
	WalkingSteadiness *float64 `json:"walking_steadiness,omitempty"`
}

// HeartData holds heart metrics for the window.
type HeartData struct {
	RestingHR    *float64 `json:"resting_hr,omitempty"`
	AvgHR        *float64 `json:"avg_hr,omitempty"`
	MinHR        *float64 `json:"min_hr,omitempty"`
	MaxHR        *float64 `json:"max_hr,omitempty"`
	HRVSDNN      *float64 `json:"hrv_sdnn,omitempty"`
	WalkingHRAvg *float64 `json:"walking_hr_avg,omitempty"`
}

// BodyData holds body measurement spot values (latest in window).
type BodyData struct {
	WeightKg   *float64 `json:"weight_kg,omitempty"`
	BMI        *float64 `json:"bmi,omitempty"`
	BodyFatPct *float64 `json:"body_fat_pct,omitempty"`
	HeightCm   *float64 `json:"height_cm,omitempty"`
}

// VitalsData holds vital sign measurements.
type VitalsData struct {
	BloodPressureSystolic  *float64 `json:"blood_pressure_systolic,omitempty"`
	BloodPressureDiastolic *float64 `json:"blood_pressure_diastolic,omitempty"`
	BloodOxygenPct         *float64 `json:"blood_oxygen_pct,omitempty"`
	RespiratoryRate        *float64 `json:"respiratory_rate,omitempty"`
	BodyTemperatureC       *float64 `json:"body_temperature_c,omitempty"`
}

// MindfulnessSession is a single mindfulness practice interval.
type MindfulnessSession struct {
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	DurationMin float64   `json:"duration_min"`
}

// MoodEntry is a logged state-of-mind reading. Kind is either
// "momentary_emotion" or "daily_mood"; Valence runs from -1.0 to 1.0.
type MoodEntry struct {
	Kind         string    `json:"kind"`
	Timestamp    time.Time `json:"timestamp"`
	Valence      float64   `json:"valence"`
	Labels       []string  `json:"labels"`
	Associations []string  `json:"associations"`
}

// WorkoutSession is a recorded workout.
type WorkoutSession struct {
	WorkoutType    string    `json:"workout_type"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	DurationMin    float64   `json:"duration_min"`
	DistanceKm     *float64  `json:"distance_km,omitempty"`
	ActiveCalories *float64  `json:"active_calories,omitempty"`
	AvgHR          *float64  `json:"avg_hr,omitempty"`
	MaxHR          *float64  `json:"max_hr,omitempty"`
	ElevationGainM *float64  `json:"elevation_gain_m,omitempty"`
}

// HealthSnapshot is the assembled picture of one window. It is owned by
// the aggregator and replaced wholesale on each refresh; categories that
// had no data or failed to load are nil/empty.
type HealthSnapshot struct {
	Window        TimeWindow
	GeneratedAt   time.Time
	Activity      *ActivityData
	Heart         *HeartData
	SleepSessions []SleepSession
	Workouts      []WorkoutSession
	Mood          []MoodEntry
	Body          *BodyData
	Vitals        *VitalsData
	Mindfulness   []MindfulnessSession
	BodyBattery   *int
	SleepQuality  *int
}

// TotalAsleepMinutes sums time asleep across all sessions in the snapshot.
func (s *HealthSnapshot) TotalAsleepMinutes() float64 {
	var total float64
	for i := range s.SleepSessions {
		total += s.SleepSessions[i].AsleepMinutes()
	}
	return total
}

// DailyMetricPoint is one day's aggregate of a single metric, used for
// trend series.
type DailyMetricPoint struct {
	Day   time.Time `json:"day"`
	Value float64   `json:"value"`
}
