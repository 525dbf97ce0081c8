package config

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	// Get specific configuration sections
	GetAgentConfig() (*AgentData, error)
	GetServerConfig() (*ServerData, error)

	// Configuration management (for SQLite-specific operations)
	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Agent  *AgentData  `json:"agent,omitempty"`
	Server *ServerData `json:"server,omitempty"`
}

// AgentData holds configuration for the sync agent daemon
type AgentData struct {
	DeviceID            string `json:"device_id,omitempty"`
	APIEndpoint         string `json:"api_endpoint,omitempty"`
	APIKey              string `json:"api_key,omitempty"`
	SyncIntervalMinutes int    `json:"sync_interval_minutes,omitempty"`
	SkipLaunchSync      bool   `json:"skip_launch_sync,omitempty"`
	StorePath           string `json:"store_path,omitempty"`
}

// IsConfigured reports whether the agent has enough configuration to
// talk to the remote server. Both the endpoint and the key must be set.
func (a *AgentData) IsConfigured() bool {
	return a != nil && a.APIEndpoint != "" && a.APIKey != ""
}

// ServerData holds configuration for the receiver server
type ServerData struct {
	Cert       string        `json:"cert,omitempty"`
	Key        string        `json:"key,omitempty"`
	Port       int           `json:"port,omitempty"`
	ListenAddr string        `json:"listen_addr,omitempty"`
	APIKey     string        `json:"api_key,omitempty"`
	Database   *DatabaseData `json:"database,omitempty"`
}

// DatabaseData holds the server's Postgres connection settings
type DatabaseData struct {
	ConnectionString string `json:"connection_string"`
}
