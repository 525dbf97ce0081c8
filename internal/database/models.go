package database

import (
	"time"

	"github.com/jackc/pgtype"
)

// SyncLog is one received sync payload, stored raw alongside the
// window it covered. The derived tables below are rebuilt from it on
// every sync; the raw body is the source of truth.
type SyncLog struct {
	ID         uint         `gorm:"primarykey" json:"id"`
	DeviceID   string       `gorm:"index;not null" json:"device_id"`
	SyncedAt   time.Time    `gorm:"not null" json:"synced_at"`
	PeriodFrom time.Time    `gorm:"not null" json:"period_from"`
	PeriodTo   time.Time    `gorm:"not null" json:"period_to"`
	Payload    pgtype.JSONB `gorm:"type:jsonb;not null" json:"-"`
	CreatedAt  time.Time    `json:"created_at"`
}

func (SyncLog) TableName() string {
	return "sync_logs"
}

// DailySummary is the merged per-day metric row, one per calendar
// date. Repeated syncs for the same day merge field-wise: an incoming
// null never overwrites a previously stored value.
type DailySummary struct {
	ID                 uint      `gorm:"primarykey" json:"id"`
	Date               string    `gorm:"uniqueIndex;not null" json:"date"`
	Steps              *int      `json:"steps"`
	DistanceKm         *float64  `json:"distance_km"`
	ActiveCalories     *float64  `json:"active_calories"`
	ExerciseMinutes    *float64  `json:"exercise_minutes"`
	StandHours         *int      `json:"stand_hours"`
	FlightsClimbed     *int      `json:"flights_climbed"`
	RestingHR          *float64  `json:"resting_hr"`
	AvgHR              *float64  `json:"avg_hr"`
	HRVSDNN            *float64  `gorm:"column:hrv_sdnn" json:"hrv_sdnn"`
	SleepDurationMin   *float64  `json:"sleep_duration_min"`
	DeepSleepMin       *float64  `json:"deep_sleep_min"`
	RemSleepMin        *float64  `json:"rem_sleep_min"`
	CoreSleepMin       *float64  `json:"core_sleep_min"`
	AwakeMin           *float64  `json:"awake_min"`
	WeightKg           *float64  `json:"weight_kg"`
	BodyFatPct         *float64  `json:"body_fat_pct"`
	BodyBattery        *int      `json:"body_battery"`
	MoodAvgValence     *float64  `json:"mood_avg_valence"`
	WorkoutCount       *int      `json:"workout_count"`
	WorkoutMinutes     *float64  `json:"workout_minutes"`
	WorkoutCalories    *float64  `json:"workout_calories"`
	MindfulnessMinutes *float64  `json:"mindfulness_minutes"`
	BloodOxygenPct     *float64  `json:"blood_oxygen_pct"`
	RespiratoryRate    *float64  `json:"respiratory_rate"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (DailySummary) TableName() string {
	return "daily_summaries"
}

// WorkoutRecord is one workout from a sync payload.
type WorkoutRecord struct {
	ID             uint      `gorm:"primarykey" json:"id"`
	Date           string    `gorm:"index;not null" json:"date"`
	WorkoutType    string    `gorm:"not null" json:"workout_type"`
	StartTime      time.Time `gorm:"not null" json:"start_time"`
	EndTime        time.Time `gorm:"not null" json:"end_time"`
	DurationMin    *float64  `json:"duration_min"`
	DistanceKm     *float64  `json:"distance_km"`
	ActiveCalories *float64  `json:"active_calories"`
	AvgHR          *float64  `json:"avg_hr"`
	MaxHR          *float64  `json:"max_hr"`
	ElevationGainM *float64  `json:"elevation_gain_m"`
	CreatedAt      time.Time `json:"created_at"`
}

func (WorkoutRecord) TableName() string {
	return "workout_records"
}

// MoodRecord is one state-of-mind entry from a sync payload. Labels
// and associations are JSON arrays of strings.
type MoodRecord struct {
	ID           uint         `gorm:"primarykey" json:"id"`
	Date         string       `gorm:"index;not null" json:"date"`
	Kind         string       `gorm:"not null" json:"kind"`
	Timestamp    time.Time    `gorm:"not null" json:"timestamp"`
	Valence      float64      `gorm:"not null" json:"valence"`
	Labels       pgtype.JSONB `gorm:"type:jsonb;default:'[]'" json:"labels"`
	Associations pgtype.JSONB `gorm:"type:jsonb;default:'[]'" json:"associations"`
	CreatedAt    time.Time    `json:"created_at"`
}

func (MoodRecord) TableName() string {
	return "mood_records"
}

// SleepRecord is one segmented sleep session from a sync payload, with
// its full stage list as JSON.
type SleepRecord struct {
	ID               uint         `gorm:"primarykey" json:"id"`
	Date             string       `gorm:"index;not null" json:"date"`
	StartTime        time.Time    `gorm:"not null" json:"start_time"`
	EndTime          time.Time    `gorm:"not null" json:"end_time"`
	TotalDurationMin *float64     `json:"total_duration_min"`
	InBedDurationMin *float64     `json:"in_bed_duration_min"`
	Stages           pgtype.JSONB `gorm:"type:jsonb;default:'[]'" json:"stages"`
	CreatedAt        time.Time    `json:"created_at"`
}

func (SleepRecord) TableName() string {
	return "sleep_records"
}
