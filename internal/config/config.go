package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

// ConnectionConfig is the warehouse section of transitload.yaml.
// It carries no password; that comes from PGPASSWORD, .env or a connection string.
type ConnectionConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	Username       string `yaml:"username"`
	Database       string `yaml:"database"`
	SSLMode        string `yaml:"sslmode"`
	AuthMethod     string `yaml:"auth_method,omitempty"`
	AzureTenantID  string `yaml:"azure_tenant_id,omitempty"`
	AzureClientID  string `yaml:"azure_client_id,omitempty"`
	AWSRegion      string `yaml:"aws_region,omitempty"`
	GoogleInstance string `yaml:"google_instance,omitempty"`
}

// LoadSection holds the defaults for a load run.
type LoadSection struct {
	Schema                 string `yaml:"schema"`
	RawDir                 string `yaml:"raw_dir"`
	FilePrefix             string `yaml:"file_prefix"`
	TripUpdatesBatchSize   int    `yaml:"trip_updates_batch_size"`
	ServiceAlertsBatchSize int    `yaml:"service_alerts_batch_size"`
	WriteMode              string `yaml:"write_mode"`
	IngestionFallback      string `yaml:"ingestion_fallback"`
	ContinueOnError        bool   `yaml:"continue_on_error"`
	Timeout                string `yaml:"timeout"`
}

// OutputSection configures where a run reports to besides the log.
type OutputSection struct {
	MetricsFile string `yaml:"metrics_file"`
	RedisURL    string `yaml:"redis_url"`
	LogFormat   string `yaml:"log_format"`
}

// ProjectConfig is the parsed transitload.yaml.
type ProjectConfig struct {
	Connection ConnectionConfig `yaml:"connection"`
	Load       LoadSection      `yaml:"load"`
	Output     OutputSection    `yaml:"output"`
}

const ConfigFileName = "transitload.yaml"

// Load reads transitload.yaml from dir.
func Load(dir string) (*ProjectConfig, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads a project config from an explicit path.
func LoadFile(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}
