package serverapi

import (
	"context"
	"fmt"
	"time"

	"github.com/healthbridge/healthbridge/internal/types"
)

// DailySummary is one day's merged metrics as the server returns them.
// Every metric is optional; a nil field was never reported for that day.
type DailySummary struct {
	Date               string   `json:"date"`
	Steps              *int     `json:"steps"`
	DistanceKm         *float64 `json:"distance_km"`
	ActiveCalories     *float64 `json:"active_calories"`
	ExerciseMinutes    *float64 `json:"exercise_minutes"`
	StandHours         *int     `json:"stand_hours"`
	FlightsClimbed     *int     `json:"flights_climbed"`
	RestingHR          *float64 `json:"resting_hr"`
	AvgHR              *float64 `json:"avg_hr"`
	HRVSDNN            *float64 `json:"hrv_sdnn"`
	SleepDurationMin   *float64 `json:"sleep_duration_min"`
	DeepSleepMin       *float64 `json:"deep_sleep_min"`
	RemSleepMin        *float64 `json:"rem_sleep_min"`
	CoreSleepMin       *float64 `json:"core_sleep_min"`
	AwakeMin           *float64 `json:"awake_min"`
	WeightKg           *float64 `json:"weight_kg"`
	BodyFatPct         *float64 `json:"body_fat_pct"`
	BodyBattery        *int     `json:"body_battery"`
	MoodAvgValence     *float64 `json:"mood_avg_valence"`
	WorkoutCount       *int     `json:"workout_count"`
	WorkoutMinutes     *float64 `json:"workout_minutes"`
	WorkoutCalories    *float64 `json:"workout_calories"`
	MindfulnessMinutes *float64 `json:"mindfulness_minutes"`
	BloodOxygenPct     *float64 `json:"blood_oxygen_pct"`
	RespiratoryRate    *float64 `json:"respiratory_rate"`
}

// WorkoutRow is one stored workout as the server returns it.
type WorkoutRow struct {
	Date           string    `json:"date"`
	WorkoutType    string    `json:"workout_type"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	DurationMin    *float64  `json:"duration_min"`
	DistanceKm     *float64  `json:"distance_km"`
	ActiveCalories *float64  `json:"active_calories"`
	AvgHR          *float64  `json:"avg_hr"`
	MaxHR          *float64  `json:"max_hr"`
	ElevationGainM *float64  `json:"elevation_gain_m"`
}

// MoodRow is one stored mood entry as the server returns it.
type MoodRow struct {
	Date         string    `json:"date"`
	Kind         string    `json:"kind"`
	Timestamp    time.Time `json:"timestamp"`
	Valence      float64   `json:"valence"`
	Labels       []string  `json:"labels"`
	Associations []string  `json:"associations"`
}

// SleepRow is one stored sleep session as the server returns it.
type SleepRow struct {
	Date             string             `json:"date"`
	StartTime        time.Time          `json:"start_time"`
	EndTime          time.Time          `json:"end_time"`
	TotalDurationMin *float64           `json:"total_duration_min"`
	InBedDurationMin *float64           `json:"in_bed_duration_min"`
	Stages           []types.SleepStage `json:"stages"`
}

type summaryResponse struct {
	Days      int            `json:"days"`
	Summaries []DailySummary `json:"summaries"`
}

type workoutsResponse struct {
	Days     int          `json:"days"`
	Workouts []WorkoutRow `json:"workouts"`
}

type moodResponse struct {
	Days int       `json:"days"`
	Mood []MoodRow `json:"mood"`
}

type sleepResponse struct {
	Days  int        `json:"days"`
	Sleep []SleepRow `json:"sleep"`
}

// Summary returns daily summaries for the last N days, newest first.
func (c *Client) Summary(ctx context.Context, days int) ([]DailySummary, error) {
	if !c.configured {
		return nil, ErrNotConfigured
	}

	var out summaryResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("days", fmt.Sprintf("%d", days)).
		SetResult(&out).
		Get("/api/health/summary")
	if err != nil {
		return nil, fmt.Errorf("fetch summary: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, &ServerError{Code: resp.StatusCode(), Body: string(resp.Body())}
	}
	return out.Summaries, nil
}

type latestResponse struct {
	Status string `json:"status"`
	DailySummary
}

// Latest returns the most recent daily summary, or nil when the server
// has no data yet.
func (c *Client) Latest(ctx context.Context) (*DailySummary, error) {
	if !c.configured {
		return nil, ErrNotConfigured
	}

	var out latestResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/api/health/latest")
	if err != nil {
		return nil, fmt.Errorf("fetch latest summary: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, &ServerError{Code: resp.StatusCode(), Body: string(resp.Body())}
	}
	if out.Status == "no_data" {
		return nil, nil
	}
	summary := out.DailySummary
	return &summary, nil
}

// Workouts returns stored workouts from the last N days, newest first.
func (c *Client) Workouts(ctx context.Context, days int) ([]WorkoutRow, error) {
	if !c.configured {
		return nil, ErrNotConfigured
	}

	var out workoutsResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("days", fmt.Sprintf("%d", days)).
		SetResult(&out).
		Get("/api/health/workouts")
	if err != nil {
		return nil, fmt.Errorf("fetch workouts: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, &ServerError{Code: resp.StatusCode(), Body: string(resp.Body())}
	}
	return out.Workouts, nil
}

// Mood returns stored mood entries from the last N days, newest first.
func (c *Client) Mood(ctx context.Context, days int) ([]MoodRow, error) {
	if !c.configured {
		return nil, ErrNotConfigured
	}

	var out moodResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("days", fmt.Sprintf("%d", days)).
		SetResult(&out).
		Get("/api/health/mood")
	if err != nil {
		return nil, fmt.Errorf("fetch mood entries: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, &ServerError{Code: resp.StatusCode(), Body: string(resp.Body())}
	}
	return out.Mood, nil
}

// Sleep returns stored sleep sessions from the last N days, newest
// first.
func (c *Client) Sleep(ctx context.Context, days int) ([]SleepRow, error) {
	if !c.configured {
		return nil, ErrNotConfigured
	}

	var out sleepResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("days", fmt.Sprintf("%d", days)).
		SetResult(&out).
		Get("/api/health/sleep")
	if err != nil {
		return nil, fmt.Errorf("fetch sleep sessions: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, &ServerError{Code: resp.StatusCode(), Body: string(resp.Body())}
	}
	return out.Sleep, nil
}
