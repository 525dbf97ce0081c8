package migrate

import (
	"database/sql"
	"fmt"
)

// CodeProvider serves migrations compiled into the binary. The version
// table is plain SQLite; nothing reads migration scripts from disk.
type CodeProvider struct {
	table      string
	migrations []Migration
}

func NewCodeProvider(table string, migrations []Migration) *CodeProvider {
	if table == "" {
		table = "schema_migrations"
	}
	return &CodeProvider{table: table, migrations: migrations}
}

func (p *CodeProvider) Migrations() ([]Migration, error) {
	out := make([]Migration, len(p.migrations))
	copy(out, p.migrations)
	return out, nil
}

func (p *CodeProvider) EnsureVersionTable(db *sql.DB) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`, p.table)
	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("create version table: %w", err)
	}
	return nil
}

// CurrentVersion returns the highest applied version, or 0 for a fresh
// database.
func (p *CodeProvider) CurrentVersion(db *sql.DB) (int, error) {
	var version int
	query := fmt.Sprintf("SELECT COALESCE(MAX(version), 0) FROM %s", p.table)
	if err := db.QueryRow(query).Scan(&version); err != nil {
		return 0, fmt.Errorf("query version table: %w", err)
	}
	return version, nil
}

// SetVersion records that the applied set is now exactly versions 1
// through version. Rows above it are cleared so rollbacks land on the
// right MAX.
func (p *CodeProvider) SetVersion(db DB, version int) error {
	if _, err := db.Exec(fmt.Sprintf("DELETE FROM %s WHERE version > ?", p.table), version); err != nil {
		return fmt.Errorf("clear versions above %d: %w", version, err)
	}
	if version == 0 {
		return nil
	}
	query := fmt.Sprintf(
		"INSERT OR REPLACE INTO %s (version, applied_at) VALUES (?, CURRENT_TIMESTAMP)", p.table)
	if _, err := db.Exec(query, version); err != nil {
		return fmt.Errorf("set version %d: %w", version, err)
	}
	return nil
}
