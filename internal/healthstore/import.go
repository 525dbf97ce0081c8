package healthstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/healthbridge/healthbridge/internal/types"
)

// appleEpochOffset is the number of seconds between the Unix epoch
// (1970-01-01) and the Apple Core Data epoch (2001-01-01). Export files
// timestamp their points in Apple epoch seconds.
const appleEpochOffset int64 = 978307200

func appleTimestampToTime(ts float64) time.Time {
	sec := int64(ts)
	nsec := int64((ts - float64(sec)) * 1e9)
	return time.Unix(sec+appleEpochOffset, nsec).UTC()
}

// exportFile is the root of a health export JSON file. Metric files
// carry Metric plus Data; workout files carry Workouts.
type exportFile struct {
	Metric   string          `json:"metric,omitempty"`
	Data     []exportPoint   `json:"data,omitempty"`
	Workouts []exportWorkout `json:"workouts,omitempty"`
}

// exportPoint is a single reading. Standard metrics use Qty; heart rate
// uses Min/Avg/Max; sleep points carry the per-stage hour fields.
type exportPoint struct {
	Start float64  `json:"start"`
	End   float64  `json:"end"`
	Unit  string   `json:"unit"`
	Qty   *float64 `json:"qty,omitempty"`
	Min   *float64 `json:"min,omitempty"`
	Avg   *float64 `json:"avg,omitempty"`
	Max   *float64 `json:"max,omitempty"`

	Awake *float64 `json:"awake,omitempty"`
	Core  *float64 `json:"core,omitempty"`
	Deep  *float64 `json:"deep,omitempty"`
	REM   *float64 `json:"rem,omitempty"`
}

type exportWorkout struct {
	Name          string   `json:"name"`
	Start         float64  `json:"start"`
	End           float64  `json:"end"`
	ActiveEnergy  *float64 `json:"activeEnergy,omitempty"`
	TotalDistance *float64 `json:"totalDistance,omitempty"`
	ElevationUp   *float64 `json:"elevationUp,omitempty"`
	AvgHeartRate  *float64 `json:"avgHeartRate,omitempty"`
	MaxHeartRate  *float64 `json:"maxHeartRate,omitempty"`
}

// stageKind maps a sleep export point to its stage kind, or "" when the
// point carries no stage field.
func (p *exportPoint) stageKind() string {
	switch {
	case p.Deep != nil && *p.Deep > 0:
		return types.StageDeep
	case p.REM != nil && *p.REM > 0:
		return types.StageREM
	case p.Core != nil && *p.Core > 0:
		return types.StageCore
	case p.Awake != nil && *p.Awake > 0:
		return types.StageAwake
	}
	return ""
}

// value picks the scalar for a quantity point. Averaged metrics such as
// heart rate report Avg instead of Qty.
func (p *exportPoint) value() (float64, bool) {
	if p.Qty != nil {
		return *p.Qty, true
	}
	if p.Avg != nil {
		return *p.Avg, true
	}
	return 0, false
}

// metricSampleTypes maps export metric names to sample type identifiers.
var metricSampleTypes = map[string]string{
	"step_count":                 types.SampleStepCount,
	"walking_running_distance":   types.SampleDistanceWalkRun,
	"active_energy":              types.SampleActiveEnergy,
	"basal_energy_burned":        types.SampleBasalEnergy,
	"apple_exercise_time":        types.SampleExerciseTime,
	"apple_stand_hour":           types.SampleStandHour,
	"flights_climbed":            types.SampleFlightsClimbed,
	"vo2_max":                    types.SampleVO2Max,
	"walking_speed":              types.SampleWalkingSpeed,
	"walking_steadiness":         types.SampleWalkingSteadiness,
	"heart_rate":                 types.SampleHeartRate,
	"resting_heart_rate":         types.SampleRestingHeartRate,
	"heart_rate_variability":     types.SampleHRVSDNN,
	"walking_heart_rate_average": types.SampleWalkingHeartRate,
	"respiratory_rate":           types.SampleRespiratoryRate,
	"blood_oxygen_saturation":    types.SampleOxygenSat,
	"blood_pressure_systolic":    types.SampleBPSystolic,
	"blood_pressure_diastolic":   types.SampleBPDiastolic,
	"body_temperature":           types.SampleBodyTemperature,
	"weight_body_mass":           types.SampleBodyMass,
	"body_mass_index":            types.SampleBodyMassIndex,
	"body_fat_percentage":        types.SampleBodyFatPct,
	"height":                     types.SampleHeight,
	"mindful_minutes":            types.SampleMindfulSession,
	"sleep_analysis":             types.SampleSleepAnalysis,
}

// ImportFile loads one health export JSON file into the store and
// returns the number of rows written. Unrecognized metrics are skipped.
func (s *Store) ImportFile(ctx context.Context, path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read export file: %w", err)
	}

	var file exportFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return 0, fmt.Errorf("decode export file %s: %w", filepath.Base(path), err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import transaction: %w", err)
	}
	defer tx.Rollback()

	written := 0

	if sampleType, ok := metricSampleTypes[file.Metric]; ok {
		for i := range file.Data {
			p := &file.Data[i]
			start := appleTimestampToTime(p.Start)
			end := appleTimestampToTime(p.End)

			if sampleType == types.SampleSleepAnalysis || sampleType == types.SampleMindfulSession {
				stage := ""
				if sampleType == types.SampleSleepAnalysis {
					stage = p.stageKind()
					if stage == "" {
						continue
					}
				}
				_, err = tx.ExecContext(ctx,
					`INSERT INTO samples (id, sample_type, stage, start_time, end_time) VALUES (?, ?, NULLIF(?, ''), ?, ?)`,
					uuid.NewString(), sampleType, stage, fmtTime(start), fmtTime(end))
			} else {
				value, ok := p.value()
				if !ok {
					continue
				}
				_, err = tx.ExecContext(ctx,
					`INSERT INTO samples (id, sample_type, value, unit, start_time, end_time) VALUES (?, ?, ?, ?, ?, ?)`,
					uuid.NewString(), sampleType, value, p.Unit, fmtTime(start), fmtTime(end))
			}
			if err != nil {
				return 0, fmt.Errorf("import %s point: %w", file.Metric, err)
			}
			written++
		}
	}

	for _, w := range file.Workouts {
		start := appleTimestampToTime(w.Start)
		end := appleTimestampToTime(w.End)
		_, err = tx.ExecContext(ctx,
			`INSERT INTO workouts (id, workout_type, start_time, end_time, distance_km, active_calories, avg_hr, max_hr, elevation_gain_m)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.NewString(), w.Name, fmtTime(start), fmtTime(end),
			optFloat(w.TotalDistance), optFloat(w.ActiveEnergy), optFloat(w.AvgHeartRate), optFloat(w.MaxHeartRate), optFloat(w.ElevationUp))
		if err != nil {
			return 0, fmt.Errorf("import workout %q: %w", w.Name, err)
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	return written, nil
}

// ImportDir imports every .json and .hae file in a directory.
func (s *Store) ImportDir(ctx context.Context, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read export directory: %w", err)
	}

	total := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".json" && ext != ".hae" {
			continue
		}
		n, err := s.ImportFile(ctx, filepath.Join(dir, entry.Name()))
		if err != nil {
			return total, fmt.Errorf("import %s: %w", entry.Name(), err)
		}
		total += n
	}
	return total, nil
}
