package config

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteProvider implements ConfigProvider for SQLite database configuration
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteProvider creates a new SQLite configuration provider
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	provider := &SQLiteProvider{
		db:     db,
		dbPath: dbPath,
	}
	if err := provider.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return provider, nil
}

func (s *SQLiteProvider) initSchema() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS configs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS agent_configs (
			config_id INTEGER NOT NULL REFERENCES configs(id),
			device_id TEXT,
			api_endpoint TEXT,
			api_key TEXT,
			sync_interval_minutes INTEGER,
			skip_launch_sync INTEGER DEFAULT 0,
			store_path TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS server_configs (
			config_id INTEGER NOT NULL REFERENCES configs(id),
			cert TEXT,
			key TEXT,
			port INTEGER,
			listen_addr TEXT,
			api_key TEXT,
			db_connection_string TEXT
		)`,
		`INSERT OR IGNORE INTO configs (name) VALUES ('default')`,
	}
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to initialize config schema: %w", err)
		}
	}
	return nil
}

// LoadConfig loads the complete configuration from SQLite database
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	config := &ConfigData{}

	agent, err := s.GetAgentConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load agent config: %w", err)
	}
	config.Agent = agent

	server, err := s.GetServerConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load server config: %w", err)
	}
	config.Server = server

	return config, nil
}

// GetAgentConfig returns the agent configuration from the database
func (s *SQLiteProvider) GetAgentConfig() (*AgentData, error) {
	query := `
		SELECT device_id, api_endpoint, api_key, sync_interval_minutes,
		       skip_launch_sync, store_path
		FROM agent_configs
		WHERE config_id = (SELECT id FROM configs WHERE name = 'default')
	`

	var deviceID, apiEndpoint, apiKey, storePath sql.NullString
	var syncInterval sql.NullInt64
	var skipLaunchSync sql.NullBool

	err := s.db.QueryRow(query).Scan(
		&deviceID, &apiEndpoint, &apiKey, &syncInterval,
		&skipLaunchSync, &storePath,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query agent config: %w", err)
	}

	agent := &AgentData{
		DeviceID:    deviceID.String,
		APIEndpoint: apiEndpoint.String,
		APIKey:      apiKey.String,
		StorePath:   storePath.String,
	}
	if syncInterval.Valid {
		agent.SyncIntervalMinutes = int(syncInterval.Int64)
	}
	if skipLaunchSync.Valid {
		agent.SkipLaunchSync = skipLaunchSync.Bool
	}

	return agent, nil
}

// GetServerConfig returns the server configuration from the database
func (s *SQLiteProvider) GetServerConfig() (*ServerData, error) {
	query := `
		SELECT cert, key, port, listen_addr, api_key, db_connection_string
		FROM server_configs
		WHERE config_id = (SELECT id FROM configs WHERE name = 'default')
	`

	var cert, key, listenAddr, apiKey, connString sql.NullString
	var port sql.NullInt64

	err := s.db.QueryRow(query).Scan(&cert, &key, &port, &listenAddr, &apiKey, &connString)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query server config: %w", err)
	}

	server := &ServerData{
		Cert:       cert.String,
		Key:        key.String,
		ListenAddr: listenAddr.String,
		APIKey:     apiKey.String,
	}
	if port.Valid {
		server.Port = int(port.Int64)
	}
	if connString.Valid && connString.String != "" {
		server.Database = &DatabaseData{ConnectionString: connString.String}
	}

	return server, nil
}

// SaveConfig replaces the stored configuration with the given one. Used
// by the config-convert tool and tests; the daemon reads only.
func (s *SQLiteProvider) SaveConfig(config *ConfigData) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin config transaction: %w", err)
	}
	defer tx.Rollback()

	var configID int64
	if err := tx.QueryRow(`SELECT id FROM configs WHERE name = 'default'`).Scan(&configID); err != nil {
		return fmt.Errorf("failed to resolve default config: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM agent_configs WHERE config_id = ?`, configID); err != nil {
		return fmt.Errorf("failed to clear agent config: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM server_configs WHERE config_id = ?`, configID); err != nil {
		return fmt.Errorf("failed to clear server config: %w", err)
	}

	if config.Agent != nil {
		_, err = tx.Exec(`
			INSERT INTO agent_configs (config_id, device_id, api_endpoint, api_key,
			                           sync_interval_minutes, skip_launch_sync, store_path)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			configID, config.Agent.DeviceID, config.Agent.APIEndpoint, config.Agent.APIKey,
			config.Agent.SyncIntervalMinutes, config.Agent.SkipLaunchSync, config.Agent.StorePath,
		)
		if err != nil {
			return fmt.Errorf("failed to save agent config: %w", err)
		}
	}

	if config.Server != nil {
		connString := ""
		if config.Server.Database != nil {
			connString = config.Server.Database.ConnectionString
		}
		_, err = tx.Exec(`
			INSERT INTO server_configs (config_id, cert, key, port, listen_addr, api_key, db_connection_string)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			configID, config.Server.Cert, config.Server.Key, config.Server.Port,
			config.Server.ListenAddr, config.Server.APIKey, connString,
		)
		if err != nil {
			return fmt.Errorf("failed to save server config: %w", err)
		}
	}

	return tx.Commit()
}

// IsReadOnly returns false since SQLite configurations can be modified
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the database connection
func (s *SQLiteProvider) Close() error {
	return s.db.Close()
}
