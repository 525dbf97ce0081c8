// Package healthstore implements the local health sample database. It
// plays both sides of the agent's storage contract: the aggregator
// reads from it through the samplesource query interface, and the
// ledger writes and deletes nutrient samples in it.
package healthstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/healthbridge/healthbridge/internal/types"
	"github.com/healthbridge/healthbridge/pkg/migrate"
)

// timeLayout is RFC 3339 at second precision in UTC. Fixed-width UTC
// strings compare lexically in the same order as the instants they
// encode, which the range queries below rely on.
const timeLayout = "2006-01-02T15:04:05Z"

// Store is a SQLite-backed health sample database.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the sample database at dbPath.
func New(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dbPath != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory() (*Store, error) {
	return New(":memory:")
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	return migrate.New(s.db, MigrationProvider()).Up()
}

func fmtTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

// QuantitySum returns the sum of all point values of the given type in
// [window.Start, window.End), or nil when there are none.
func (s *Store) QuantitySum(ctx context.Context, sampleType string, window types.TimeWindow) (*float64, error) {
	return s.scalarQuery(ctx, `SELECT SUM(value) FROM samples WHERE sample_type = ? AND start_time >= ? AND start_time < ?`,
		sampleType, window)
}

// QuantityAvg returns the mean of all point values of the given type in
// the window, or nil when there are none.
func (s *Store) QuantityAvg(ctx context.Context, sampleType string, window types.TimeWindow) (*float64, error) {
	return s.scalarQuery(ctx, `SELECT AVG(value) FROM samples WHERE sample_type = ? AND start_time >= ? AND start_time < ?`,
		sampleType, window)
}

// QuantityMinMax returns the smallest and largest value of the given
// type in the window; both are nil when there are none.
func (s *Store) QuantityMinMax(ctx context.Context, sampleType string, window types.TimeWindow) (*float64, *float64, error) {
	var min, max sql.NullFloat64
	err := s.db.QueryRowContext(ctx,
		`SELECT MIN(value), MAX(value) FROM samples WHERE sample_type = ? AND start_time >= ? AND start_time < ?`,
		sampleType, fmtTime(window.Start), fmtTime(window.End)).Scan(&min, &max)
	if err != nil {
		return nil, nil, fmt.Errorf("query min/max for %s: %w", sampleType, err)
	}
	if !min.Valid || !max.Valid {
		return nil, nil, nil
	}
	return &min.Float64, &max.Float64, nil
}

// QuantityLatest returns the most recent value of the given type in the
// window, or nil when there are none.
func (s *Store) QuantityLatest(ctx context.Context, sampleType string, window types.TimeWindow) (*float64, error) {
	var v sql.NullFloat64
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM samples WHERE sample_type = ? AND start_time >= ? AND start_time < ?
		 ORDER BY start_time DESC LIMIT 1`,
		sampleType, fmtTime(window.Start), fmtTime(window.End)).Scan(&v)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest %s: %w", sampleType, err)
	}
	if !v.Valid {
		return nil, nil
	}
	return &v.Float64, nil
}

// QuantitySeries returns the raw (timestamp, value) points of the given
// type in the window, ordered by time.
func (s *Store) QuantitySeries(ctx context.Context, sampleType string, window types.TimeWindow) ([]types.SamplePoint, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT start_time, value FROM samples WHERE sample_type = ? AND start_time >= ? AND start_time < ?
		 ORDER BY start_time`,
		sampleType, fmtTime(window.Start), fmtTime(window.End))
	if err != nil {
		return nil, fmt.Errorf("query series for %s: %w", sampleType, err)
	}
	defer rows.Close()

	var points []types.SamplePoint
	for rows.Next() {
		var ts string
		var value float64
		if err := rows.Scan(&ts, &value); err != nil {
			return nil, fmt.Errorf("scan series row: %w", err)
		}
		t, err := parseTime(ts)
		if err != nil {
			return nil, fmt.Errorf("parse series timestamp %q: %w", ts, err)
		}
		points = append(points, types.SamplePoint{Time: t, Value: value})
	}
	return points, rows.Err()
}

// CategoryEvents returns the raw category events of the given type whose
// start falls in the window, ordered by start time.
func (s *Store) CategoryEvents(ctx context.Context, sampleType string, window types.TimeWindow) ([]types.CategoryEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT COALESCE(stage, ''), start_time, end_time FROM samples
		 WHERE sample_type = ? AND start_time >= ? AND start_time < ?
		 ORDER BY start_time`,
		sampleType, fmtTime(window.Start), fmtTime(window.End))
	if err != nil {
		return nil, fmt.Errorf("query category events for %s: %w", sampleType, err)
	}
	defer rows.Close()

	var events []types.CategoryEvent
	for rows.Next() {
		var stage, startStr, endStr string
		if err := rows.Scan(&stage, &startStr, &endStr); err != nil {
			return nil, fmt.Errorf("scan category row: %w", err)
		}
		start, err := parseTime(startStr)
		if err != nil {
			return nil, fmt.Errorf("parse category start %q: %w", startStr, err)
		}
		end, err := parseTime(endStr)
		if err != nil {
			return nil, fmt.Errorf("parse category end %q: %w", endStr, err)
		}
		events = append(events, types.CategoryEvent{Kind: stage, Start: start, End: end})
	}
	return events, rows.Err()
}

// Workouts returns workouts starting in the window, ordered by start.
func (s *Store) Workouts(ctx context.Context, window types.TimeWindow) ([]types.WorkoutSession, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT workout_type, start_time, end_time, distance_km, active_calories, avg_hr, max_hr, elevation_gain_m
		 FROM workouts WHERE start_time >= ? AND start_time < ? ORDER BY start_time`,
		fmtTime(window.Start), fmtTime(window.End))
	if err != nil {
		return nil, fmt.Errorf("query workouts: %w", err)
	}
	defer rows.Close()

	var workouts []types.WorkoutSession
	for rows.Next() {
		var w types.WorkoutSession
		var startStr, endStr string
		var distance, calories, avgHR, maxHR, elevation sql.NullFloat64
		if err := rows.Scan(&w.WorkoutType, &startStr, &endStr, &distance, &calories, &avgHR, &maxHR, &elevation); err != nil {
			return nil, fmt.Errorf("scan workout row: %w", err)
		}
		if w.Start, err = parseTime(startStr); err != nil {
			return nil, fmt.Errorf("parse workout start %q: %w", startStr, err)
		}
		if w.End, err = parseTime(endStr); err != nil {
			return nil, fmt.Errorf("parse workout end %q: %w", endStr, err)
		}
		w.DurationMin = w.End.Sub(w.Start).Minutes()
		if distance.Valid {
			w.DistanceKm = &distance.Float64
		}
		if calories.Valid {
			w.ActiveCalories = &calories.Float64
		}
		if avgHR.Valid {
			w.AvgHR = &avgHR.Float64
		}
		if maxHR.Valid {
			w.MaxHR = &maxHR.Float64
		}
		if elevation.Valid {
			w.ElevationGainM = &elevation.Float64
		}
		workouts = append(workouts, w)
	}
	return workouts, rows.Err()
}

// MoodEntries returns mood entries logged in the window, ordered by time.
func (s *Store) MoodEntries(ctx context.Context, window types.TimeWindow) ([]types.MoodEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, timestamp, valence, labels, associations FROM mood_entries
		 WHERE timestamp >= ? AND timestamp < ? ORDER BY timestamp`,
		fmtTime(window.Start), fmtTime(window.End))
	if err != nil {
		return nil, fmt.Errorf("query mood entries: %w", err)
	}
	defer rows.Close()

	var entries []types.MoodEntry
	for rows.Next() {
		var m types.MoodEntry
		var ts, labels, associations string
		if err := rows.Scan(&m.Kind, &ts, &m.Valence, &labels, &associations); err != nil {
			return nil, fmt.Errorf("scan mood row: %w", err)
		}
		if m.Timestamp, err = parseTime(ts); err != nil {
			return nil, fmt.Errorf("parse mood timestamp %q: %w", ts, err)
		}
		if err := json.Unmarshal([]byte(labels), &m.Labels); err != nil {
			return nil, fmt.Errorf("decode mood labels: %w", err)
		}
		if err := json.Unmarshal([]byte(associations), &m.Associations); err != nil {
			return nil, fmt.Errorf("decode mood associations: %w", err)
		}
		entries = append(entries, m)
	}
	return entries, rows.Err()
}

// WriteQuantitySample stores a point-in-time quantity sample and returns
// its assigned identifier.
func (s *Store) WriteQuantitySample(ctx context.Context, sampleType string, value float64, unit string, ts time.Time) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO samples (id, sample_type, value, unit, start_time, end_time) VALUES (?, ?, ?, ?, ?, ?)`,
		id, sampleType, value, unit, fmtTime(ts), fmtTime(ts))
	if err != nil {
		return "", fmt.Errorf("write %s sample: %w", sampleType, err)
	}
	return id, nil
}

// WriteCategorySample stores an interval category sample (sleep stage,
// mindfulness session) and returns its assigned identifier.
func (s *Store) WriteCategorySample(ctx context.Context, sampleType, stage string, start, end time.Time) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO samples (id, sample_type, stage, start_time, end_time) VALUES (?, ?, NULLIF(?, ''), ?, ?)`,
		id, sampleType, stage, fmtTime(start), fmtTime(end))
	if err != nil {
		return "", fmt.Errorf("write %s sample: %w", sampleType, err)
	}
	return id, nil
}

// WriteWorkout stores a workout and returns its assigned identifier.
func (s *Store) WriteWorkout(ctx context.Context, w types.WorkoutSession) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO workouts (id, workout_type, start_time, end_time, distance_km, active_calories, avg_hr, max_hr, elevation_gain_m)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, w.WorkoutType, fmtTime(w.Start), fmtTime(w.End),
		optFloat(w.DistanceKm), optFloat(w.ActiveCalories), optFloat(w.AvgHR), optFloat(w.MaxHR), optFloat(w.ElevationGainM))
	if err != nil {
		return "", fmt.Errorf("write workout: %w", err)
	}
	return id, nil
}

// WriteMoodEntry stores a mood entry and returns its assigned identifier.
func (s *Store) WriteMoodEntry(ctx context.Context, m types.MoodEntry) (string, error) {
	id := uuid.NewString()
	labels, err := json.Marshal(orEmpty(m.Labels))
	if err != nil {
		return "", fmt.Errorf("encode mood labels: %w", err)
	}
	associations, err := json.Marshal(orEmpty(m.Associations))
	if err != nil {
		return "", fmt.Errorf("encode mood associations: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO mood_entries (id, kind, timestamp, valence, labels, associations) VALUES (?, ?, ?, ?, ?, ?)`,
		id, m.Kind, fmtTime(m.Timestamp), m.Valence, string(labels), string(associations))
	if err != nil {
		return "", fmt.Errorf("write mood entry: %w", err)
	}
	return id, nil
}

// DeleteSamples removes samples by identifier and reports how many rows
// matched. Missing identifiers are not an error.
func (s *Store) DeleteSamples(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query := `DELETE FROM samples WHERE id IN (?` + repeatPlaceholder(len(ids)-1) + `)`
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete samples: %w", err)
	}
	return res.RowsAffected()
}

// DeleteSamplesOfTypes removes all samples of the given types whose
// start falls in the inclusive [start, end] range. Matching zero rows
// is not an error; callers use this as the imprecise fallback when no
// identifiers were tracked.
func (s *Store) DeleteSamplesOfTypes(ctx context.Context, sampleTypes []string, start, end time.Time) (int64, error) {
	if len(sampleTypes) == 0 {
		return 0, nil
	}
	query := `DELETE FROM samples WHERE sample_type IN (?` + repeatPlaceholder(len(sampleTypes)-1) + `)
	          AND start_time >= ? AND start_time <= ?`
	args := make([]interface{}, 0, len(sampleTypes)+2)
	for _, st := range sampleTypes {
		args = append(args, st)
	}
	args = append(args, fmtTime(start), fmtTime(end))
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete samples by type/window: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) scalarQuery(ctx context.Context, query, sampleType string, window types.TimeWindow) (*float64, error) {
	var v sql.NullFloat64
	err := s.db.QueryRowContext(ctx, query, sampleType, fmtTime(window.Start), fmtTime(window.End)).Scan(&v)
	if err != nil {
		return nil, fmt.Errorf("scalar query for %s: %w", sampleType, err)
	}
	if !v.Valid {
		return nil, nil
	}
	return &v.Float64, nil
}

func optFloat(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func repeatPlaceholder(n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += ", ?"
	}
	return out
}
