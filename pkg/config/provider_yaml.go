package config

import (
	"os"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
	config   *ConfigData
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig loads the complete configuration from YAML file
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	// Load into temporary struct with YAML tags
	var yamlConfig struct {
		Agent  *AgentYAML  `yaml:"agent,omitempty"`
		Server *ServerYAML `yaml:"server,omitempty"`
	}

	err = yaml.Unmarshal(cfgFile, &yamlConfig)
	if err != nil {
		return nil, err
	}

	// Convert to our internal format
	config := &ConfigData{}

	if yamlConfig.Agent != nil {
		config.Agent = &AgentData{
			DeviceID:            yamlConfig.Agent.DeviceID,
			APIEndpoint:         yamlConfig.Agent.APIEndpoint,
			APIKey:              yamlConfig.Agent.APIKey,
			SyncIntervalMinutes: yamlConfig.Agent.SyncIntervalMinutes,
			SkipLaunchSync:      yamlConfig.Agent.SkipLaunchSync,
			StorePath:           yamlConfig.Agent.StorePath,
		}
	}

	if yamlConfig.Server != nil {
		config.Server = &ServerData{
			Cert:       yamlConfig.Server.Cert,
			Key:        yamlConfig.Server.Key,
			Port:       yamlConfig.Server.Port,
			ListenAddr: yamlConfig.Server.ListenAddr,
			APIKey:     yamlConfig.Server.APIKey,
		}
		if yamlConfig.Server.Database != nil {
			config.Server.Database = &DatabaseData{
				ConnectionString: yamlConfig.Server.Database.ConnectionString,
			}
		}
	}

	y.config = config
	return config, nil
}

// GetAgentConfig returns the agent configuration section
func (y *YAMLProvider) GetAgentConfig() (*AgentData, error) {
	if y.config == nil {
		_, err := y.LoadConfig()
		if err != nil {
			return nil, err
		}
	}
	return y.config.Agent, nil
}

// GetServerConfig returns the server configuration section
func (y *YAMLProvider) GetServerConfig() (*ServerData, error) {
	if y.config == nil {
		_, err := y.LoadConfig()
		if err != nil {
			return nil, err
		}
	}
	return y.config.Server, nil
}

// IsReadOnly returns true since YAML files are read-only through this interface
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}

// YAML-specific structs with proper YAML tags for parsing the original format
type AgentYAML struct {
	DeviceID            string `yaml:"device-id,omitempty"`
	APIEndpoint         string `yaml:"api-endpoint,omitempty"`
	APIKey              string `yaml:"api-key,omitempty"`
	SyncIntervalMinutes int    `yaml:"sync-interval-minutes,omitempty"`
	SkipLaunchSync      bool   `yaml:"skip-launch-sync,omitempty"`
	StorePath           string `yaml:"store-path,omitempty"`
}

type ServerYAML struct {
	Cert       string        `yaml:"cert,omitempty"`
	Key        string        `yaml:"key,omitempty"`
	Port       int           `yaml:"port,omitempty"`
	ListenAddr string        `yaml:"listen-addr,omitempty"`
	APIKey     string        `yaml:"api-key,omitempty"`
	Database   *DatabaseYAML `yaml:"database,omitempty"`
}

type DatabaseYAML struct {
	ConnectionString string `yaml:"connection-string"`
}
