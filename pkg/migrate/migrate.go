// Package migrate applies ordered, versioned schema migrations to a
// database, recording the applied version in a bookkeeping table.
package migrate

import (
	"database/sql"
	"fmt"
	"sort"
)

// Migration is one schema step. Up and Down hold complete SQL scripts;
// a Migration with an empty Down cannot be rolled back.
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

// DB is the subset of database/sql shared by *sql.DB and *sql.Tx, so
// version bookkeeping can run inside the migration transaction.
type DB interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// Provider supplies the migration set and owns version bookkeeping.
type Provider interface {
	Migrations() ([]Migration, error)
	EnsureVersionTable(db *sql.DB) error
	CurrentVersion(db *sql.DB) (int, error)
	SetVersion(db DB, version int) error
}

// Migrator applies a Provider's migrations to one database.
type Migrator struct {
	db       *sql.DB
	provider Provider
}

func New(db *sql.DB, provider Provider) *Migrator {
	return &Migrator{db: db, provider: provider}
}

// Up applies every pending migration.
func (m *Migrator) Up() error {
	return m.To(-1)
}

// To migrates up or down until the schema is at target. A target of -1
// means the latest known version.
func (m *Migrator) To(target int) error {
	if err := m.provider.EnsureVersionTable(m.db); err != nil {
		return fmt.Errorf("ensure version table: %w", err)
	}

	current, err := m.provider.CurrentVersion(m.db)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	migrations, err := m.sorted()
	if err != nil {
		return err
	}

	if target == -1 {
		if len(migrations) == 0 {
			return nil
		}
		target = migrations[len(migrations)-1].Version
	}

	if target < current {
		return m.Down(target)
	}

	for _, mig := range migrations {
		if mig.Version > current && mig.Version <= target {
			if err := m.apply(mig, true); err != nil {
				return fmt.Errorf("apply migration %d (%s): %w", mig.Version, mig.Name, err)
			}
		}
	}
	return nil
}

// Down rolls the schema back until it is at target, which must be below
// the current version.
func (m *Migrator) Down(target int) error {
	if err := m.provider.EnsureVersionTable(m.db); err != nil {
		return fmt.Errorf("ensure version table: %w", err)
	}

	current, err := m.provider.CurrentVersion(m.db)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if target >= current {
		return fmt.Errorf("target version %d must be below current version %d", target, current)
	}

	migrations, err := m.sorted()
	if err != nil {
		return err
	}

	for i := len(migrations) - 1; i >= 0; i-- {
		mig := migrations[i]
		if mig.Version <= current && mig.Version > target {
			if err := m.apply(mig, false); err != nil {
				return fmt.Errorf("roll back migration %d (%s): %w", mig.Version, mig.Name, err)
			}
		}
	}
	return nil
}

// Version reports the currently applied schema version.
func (m *Migrator) Version() (int, error) {
	if err := m.provider.EnsureVersionTable(m.db); err != nil {
		return 0, fmt.Errorf("ensure version table: %w", err)
	}
	return m.provider.CurrentVersion(m.db)
}

// Pending lists migrations above the current version, lowest first.
func (m *Migrator) Pending() ([]Migration, error) {
	current, err := m.Version()
	if err != nil {
		return nil, err
	}

	migrations, err := m.sorted()
	if err != nil {
		return nil, err
	}

	var pending []Migration
	for _, mig := range migrations {
		if mig.Version > current {
			pending = append(pending, mig)
		}
	}
	return pending, nil
}

func (m *Migrator) sorted() ([]Migration, error) {
	migrations, err := m.provider.Migrations()
	if err != nil {
		return nil, fmt.Errorf("load migrations: %w", err)
	}
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

// apply runs one migration and its version update in a single
// transaction.
func (m *Migrator) apply(mig Migration, up bool) error {
	script := mig.Up
	newVersion := mig.Version
	if !up {
		script = mig.Down
		newVersion = mig.Version - 1
	}
	if script == "" {
		return fmt.Errorf("migration %d has no script for this direction", mig.Version)
	}

	tx, err := m.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(script); err != nil {
		return fmt.Errorf("execute script: %w", err)
	}
	if err := m.provider.SetVersion(tx, newVersion); err != nil {
		return fmt.Errorf("record version: %w", err)
	}
	return tx.Commit()
}
