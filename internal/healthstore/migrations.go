package healthstore

import "github.com/healthbridge/healthbridge/pkg/migrate"

// migrations is the ordered schema history of the sample store. New
// schema changes append here; the store applies pending ones on open.
var migrations = []migrate.Migration{
	{
		Version: 1,
		Name:    "initial schema",
		Up: `
	CREATE TABLE IF NOT EXISTS samples (
		id          TEXT PRIMARY KEY,
		sample_type TEXT NOT NULL,
		value       REAL NOT NULL DEFAULT 0,
		unit        TEXT NOT NULL DEFAULT '',
		start_time  TEXT NOT NULL,
		end_time    TEXT NOT NULL,
		stage       TEXT,
		source      TEXT NOT NULL DEFAULT '',
		created_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);

	CREATE INDEX IF NOT EXISTS idx_samples_type_time ON samples(sample_type, start_time);

	CREATE TABLE IF NOT EXISTS workouts (
		id               TEXT PRIMARY KEY,
		workout_type     TEXT NOT NULL,
		start_time       TEXT NOT NULL,
		end_time         TEXT NOT NULL,
		distance_km      REAL,
		active_calories  REAL,
		avg_hr           REAL,
		max_hr           REAL,
		elevation_gain_m REAL,
		source           TEXT NOT NULL DEFAULT '',
		created_at       TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);

	CREATE INDEX IF NOT EXISTS idx_workouts_time ON workouts(start_time);

	CREATE TABLE IF NOT EXISTS mood_entries (
		id           TEXT PRIMARY KEY,
		kind         TEXT NOT NULL,
		timestamp    TEXT NOT NULL,
		valence      REAL NOT NULL DEFAULT 0,
		labels       TEXT NOT NULL DEFAULT '[]',
		associations TEXT NOT NULL DEFAULT '[]',
		created_at   TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);

	CREATE INDEX IF NOT EXISTS idx_mood_time ON mood_entries(timestamp);
	`,
		Down: `
	DROP INDEX IF EXISTS idx_mood_time;
	DROP TABLE IF EXISTS mood_entries;
	DROP INDEX IF EXISTS idx_workouts_time;
	DROP TABLE IF EXISTS workouts;
	DROP INDEX IF EXISTS idx_samples_type_time;
	DROP TABLE IF EXISTS samples;
	`,
	},
}

// MigrationProvider returns the schema provider for a sample store
// database. The migrate command shares it with Store.
func MigrationProvider() migrate.Provider {
	return migrate.NewCodeProvider("schema_migrations", migrations)
}
