package database

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgtype"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/healthbridge/healthbridge/internal/types"
)

const dateLayout = "2006-01-02"

// summaryMergeColumns lists every metric column on daily_summaries.
// The upsert merges each with COALESCE so a null in a later sync never
// erases a value stored by an earlier one.
var summaryMergeColumns = []string{
	"steps", "distance_km", "active_calories", "exercise_minutes", "stand_hours",
	"flights_climbed", "resting_hr", "avg_hr", "hrv_sdnn", "sleep_duration_min",
	"deep_sleep_min", "rem_sleep_min", "core_sleep_min", "awake_min",
	"weight_kg", "body_fat_pct", "body_battery", "mood_avg_valence",
	"workout_count", "workout_minutes", "workout_calories", "mindfulness_minutes",
	"blood_oxygen_pct", "respiratory_rate",
}

// StoreSync persists one sync payload: the raw log row, the merged
// daily summary for the payload's end date, and the per-record workout,
// mood, and sleep tables, all in one transaction. Returns the sync log
// id the agent echoes back to the device.
func (c *Client) StoreSync(payload *types.SyncPayload) (uint, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("encode payload: %w", err)
	}

	syncLog := SyncLog{
		DeviceID:   payload.DeviceID,
		SyncedAt:   payload.SyncedAt,
		PeriodFrom: payload.PeriodFrom,
		PeriodTo:   payload.PeriodTo,
	}
	if err := syncLog.Payload.Set(raw); err != nil {
		return 0, fmt.Errorf("encode payload as jsonb: %w", err)
	}

	summary := buildDailySummary(payload)

	err = c.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&syncLog).Error; err != nil {
			return fmt.Errorf("store sync log: %w", err)
		}

		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "date"}},
			DoUpdates: summaryMergeAssignments(),
		}).Create(&summary).Error; err != nil {
			return fmt.Errorf("upsert daily summary: %w", err)
		}

		for _, w := range payload.Workouts {
			rec := newWorkoutRecord(w)
			if err := tx.Create(&rec).Error; err != nil {
				return fmt.Errorf("store workout: %w", err)
			}
		}

		for _, m := range payload.Mood {
			rec, err := newMoodRecord(m)
			if err != nil {
				return err
			}
			if err := tx.Create(&rec).Error; err != nil {
				return fmt.Errorf("store mood entry: %w", err)
			}
		}

		for _, s := range payload.Sleep {
			rec, err := newSleepRecord(s)
			if err != nil {
				return err
			}
			if err := tx.Create(&rec).Error; err != nil {
				return fmt.Errorf("store sleep session: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	c.logger.Debugf("Stored sync %d from device %s (%d workouts, %d mood, %d sleep)",
		syncLog.ID, payload.DeviceID, len(payload.Workouts), len(payload.Mood), len(payload.Sleep))
	return syncLog.ID, nil
}

// summaryMergeAssignments builds the ON CONFLICT update set. Sorted by
// column name inside clause.Assignments, so the generated SQL is
// stable.
func summaryMergeAssignments() clause.Set {
	assignments := make(map[string]interface{}, len(summaryMergeColumns)+1)
	for _, col := range summaryMergeColumns {
		assignments[col] = gorm.Expr(fmt.Sprintf("COALESCE(excluded.%s, daily_summaries.%s)", col, col))
	}
	assignments["updated_at"] = time.Now()
	return clause.Assignments(assignments)
}

// buildDailySummary derives the per-day metric row from a payload.
// Zero-valued derived totals become nil so the COALESCE merge keeps
// any earlier real value for the day.
func buildDailySummary(payload *types.SyncPayload) DailySummary {
	summary := DailySummary{
		Date:        payload.PeriodTo.Format(dateLayout),
		BodyBattery: payload.BodyBattery,
	}

	if a := payload.Activity; a != nil {
		summary.Steps = a.Steps
		summary.DistanceKm = a.DistanceKm
		summary.ActiveCalories = a.ActiveCalories
		summary.ExerciseMinutes = a.ExerciseMinutes
		summary.StandHours = a.StandHours
		summary.FlightsClimbed = a.FlightsClimbed
	}
	if h := payload.Heart; h != nil {
		summary.RestingHR = h.RestingHR
		summary.AvgHR = h.AvgHR
		summary.HRVSDNN = h.HRVSDNN
	}
	if b := payload.Body; b != nil {
		summary.WeightKg = b.WeightKg
		summary.BodyFatPct = b.BodyFatPct
	}
	if v := payload.Vitals; v != nil {
		summary.BloodOxygenPct = v.BloodOxygenPct
		summary.RespiratoryRate = v.RespiratoryRate
	}

	var sleepTotal, deepTotal, remTotal, coreTotal, awakeTotal float64
	for _, s := range payload.Sleep {
		sleepTotal += s.TotalDurationMin
		deepTotal += s.StageMinutes(types.StageDeep)
		remTotal += s.StageMinutes(types.StageREM)
		coreTotal += s.StageMinutes(types.StageCore)
		awakeTotal += s.StageMinutes(types.StageAwake)
	}
	summary.SleepDurationMin = nonZero(sleepTotal)
	summary.DeepSleepMin = nonZero(deepTotal)
	summary.RemSleepMin = nonZero(remTotal)
	summary.CoreSleepMin = nonZero(coreTotal)
	summary.AwakeMin = nonZero(awakeTotal)

	if len(payload.Mood) > 0 {
		var valence float64
		for _, m := range payload.Mood {
			valence += m.Valence
		}
		avg := valence / float64(len(payload.Mood))
		summary.MoodAvgValence = &avg
	}

	var workoutMinutes, workoutCalories float64
	for _, w := range payload.Workouts {
		workoutMinutes += w.DurationMin
		if w.ActiveCalories != nil {
			workoutCalories += *w.ActiveCalories
		}
	}
	summary.WorkoutCount = nonZeroInt(len(payload.Workouts))
	summary.WorkoutMinutes = nonZero(workoutMinutes)
	summary.WorkoutCalories = nonZero(workoutCalories)

	var mindfulnessMinutes float64
	for _, m := range payload.Mindfulness {
		mindfulnessMinutes += m.DurationMin
	}
	summary.MindfulnessMinutes = nonZero(mindfulnessMinutes)

	return summary
}

func newWorkoutRecord(w types.WorkoutSession) WorkoutRecord {
	duration := w.DurationMin
	return WorkoutRecord{
		Date:           w.Start.Format(dateLayout),
		WorkoutType:    w.WorkoutType,
		StartTime:      w.Start,
		EndTime:        w.End,
		DurationMin:    &duration,
		DistanceKm:     w.DistanceKm,
		ActiveCalories: w.ActiveCalories,
		AvgHR:          w.AvgHR,
		MaxHR:          w.MaxHR,
		ElevationGainM: w.ElevationGainM,
	}
}

func newMoodRecord(m types.MoodEntry) (MoodRecord, error) {
	rec := MoodRecord{
		Date:      m.Timestamp.Format(dateLayout),
		Kind:      m.Kind,
		Timestamp: m.Timestamp,
		Valence:   m.Valence,
	}
	if err := setJSONB(&rec.Labels, orEmptyStrings(m.Labels)); err != nil {
		return rec, fmt.Errorf("encode mood labels: %w", err)
	}
	if err := setJSONB(&rec.Associations, orEmptyStrings(m.Associations)); err != nil {
		return rec, fmt.Errorf("encode mood associations: %w", err)
	}
	return rec, nil
}

func newSleepRecord(s types.SleepSession) (SleepRecord, error) {
	total := s.TotalDurationMin
	rec := SleepRecord{
		Date:             s.Start.Format(dateLayout),
		StartTime:        s.Start,
		EndTime:          s.End,
		TotalDurationMin: &total,
		InBedDurationMin: s.InBedDurationMin,
	}
	stages := s.Stages
	if stages == nil {
		stages = []types.SleepStage{}
	}
	if err := setJSONB(&rec.Stages, stages); err != nil {
		return rec, fmt.Errorf("encode sleep stages: %w", err)
	}
	return rec, nil
}

// DailySummaries returns the most recent N daily summary rows, newest
// first.
func (c *Client) DailySummaries(days int) ([]DailySummary, error) {
	var rows []DailySummary
	if err := c.DB.Order("date DESC").Limit(days).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query daily summaries: %w", err)
	}
	return rows, nil
}

// LatestSummary returns the newest daily summary, or nil when nothing
// has been synced yet.
func (c *Client) LatestSummary() (*DailySummary, error) {
	rows, err := c.DailySummaries(1)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// WorkoutsSince returns workouts dated within the last N days, newest
// first.
func (c *Client) WorkoutsSince(days int) ([]WorkoutRecord, error) {
	var rows []WorkoutRecord
	if err := c.DB.Where("date >= ?", cutoffDate(days)).Order("start_time DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query workouts: %w", err)
	}
	return rows, nil
}

// MoodSince returns mood entries dated within the last N days, newest
// first.
func (c *Client) MoodSince(days int) ([]MoodRecord, error) {
	var rows []MoodRecord
	if err := c.DB.Where("date >= ?", cutoffDate(days)).Order("timestamp DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query mood entries: %w", err)
	}
	return rows, nil
}

// SleepSince returns sleep sessions dated within the last N days,
// newest first.
func (c *Client) SleepSince(days int) ([]SleepRecord, error) {
	var rows []SleepRecord
	if err := c.DB.Where("date >= ?", cutoffDate(days)).Order("start_time DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query sleep sessions: %w", err)
	}
	return rows, nil
}

func cutoffDate(days int) string {
	return time.Now().UTC().AddDate(0, 0, -days).Format(dateLayout)
}

func setJSONB(dst *pgtype.JSONB, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return dst.Set(raw)
}

func nonZero(v float64) *float64 {
	if v == 0 {
		return nil
	}
	return &v
}

func nonZeroInt(v int) *int {
	if v == 0 {
		return nil
	}
	return &v
}

func orEmptyStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
