// Package config resolves pipeline configuration from three layers, lowest
// precedence first: built-in defaults, an optional dormstats.yaml project
// file, and environment variables (typically populated from a .env file by
// the CLI via godotenv).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/dormstats/dormstats/pkg/dormstats"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

// ConfigFileName is the project file looked up relative to the working directory.
const ConfigFileName = "dormstats.yaml"

// ConnectionSettings describe the target database endpoint and credentials.
type ConnectionSettings struct {
	Host               string `yaml:"host"`
	Port               int    `yaml:"port"`
	Database           string `yaml:"database"`
	User               string `yaml:"user"`
	Password           string `yaml:"password,omitempty"`
	ManagementDatabase string `yaml:"management_database,omitempty"`
	SSLMode            string `yaml:"sslmode,omitempty"`
}

// ArtifactSettings locate the opaque SQL and output artifacts of a run.
type ArtifactSettings struct {
	SchemaFile  string `yaml:"schema_file"`
	QueriesFile string `yaml:"queries_file"`
	IndexesFile string `yaml:"indexes_file"`
	OutputDir   string `yaml:"output_dir"`
}

// Config is the fully resolved pipeline configuration.
type Config struct {
	Connection ConnectionSettings `yaml:"connection"`
	Artifacts  ArtifactSettings   `yaml:"artifacts"`
}

// Default returns the built-in configuration baseline.
func Default() *Config {
	return &Config{
		Connection: ConnectionSettings{
			Host:               "127.0.0.1",
			Port:               5432,
			ManagementDatabase: dormstats.DefaultManagementDB,
			SSLMode:            "prefer",
		},
		Artifacts: ArtifactSettings{
			SchemaFile:  "db_schema.sql",
			QueriesFile: "select_queries.sql",
			IndexesFile: "create_indexes.sql",
			OutputDir:   ".",
		},
	}
}

// Load reads and merges the project file from sourcePath onto the defaults.
// Returns ErrConfigNotFound if no project file exists there.
func Load(sourcePath string) (*Config, error) {
	configPath := filepath.Join(sourcePath, ConfigFileName)
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", configPath, err)
	}
	return cfg, nil
}

// ApplyEnv overlays recognized environment variables onto the configuration.
// The variable names match the original deployment environment of this
// pipeline: DB_NAME, DB_USER, DB_PASSWORD, DB_HOST, DB_PORT, plus
// SCHEMA_FILE, SQL_FILE, INDEX_FILE and OUTPUT_DIR for artifacts.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("DB_NAME"); v != "" {
		c.Connection.Database = v
	}
	if v := os.Getenv("DB_USER"); v != "" {
		c.Connection.User = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		c.Connection.Password = v
	}
	if v := os.Getenv("DB_HOST"); v != "" {
		c.Connection.Host = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("DB_PORT %q is not a number: %w", v, dormstats.ErrInvalidConfig)
		}
		c.Connection.Port = port
	}
	if v := os.Getenv("SCHEMA_FILE"); v != "" {
		c.Artifacts.SchemaFile = v
	}
	if v := os.Getenv("SQL_FILE"); v != "" {
		c.Artifacts.QueriesFile = v
	}
	if v := os.Getenv("INDEX_FILE"); v != "" {
		c.Artifacts.IndexesFile = v
	}
	if v := os.Getenv("OUTPUT_DIR"); v != "" {
		c.Artifacts.OutputDir = v
	}
	return nil
}

// Validate checks that everything required to run the pipeline is present.
// It returns a joined error listing every failure.
func (c *Config) Validate() error {
	var errs []error

	if c.Connection.Database == "" {
		errs = append(errs, fmt.Errorf("database name is required (DB_NAME): %w", dormstats.ErrInvalidConfig))
	}
	if c.Connection.User == "" {
		errs = append(errs, fmt.Errorf("database user is required (DB_USER): %w", dormstats.ErrInvalidConfig))
	}
	if c.Connection.Host == "" {
		errs = append(errs, fmt.Errorf("database host is required (DB_HOST): %w", dormstats.ErrInvalidConfig))
	}
	if c.Connection.Port <= 0 || c.Connection.Port > 65535 {
		errs = append(errs, fmt.Errorf("database port %d is out of range: %w", c.Connection.Port, dormstats.ErrInvalidConfig))
	}
	if c.Artifacts.SchemaFile == "" {
		errs = append(errs, fmt.Errorf("schema file is required: %w", dormstats.ErrInvalidConfig))
	}
	if c.Artifacts.QueriesFile == "" {
		errs = append(errs, fmt.Errorf("queries file is required: %w", dormstats.ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// ConnConfig materializes the connection settings for the target database.
func (c *Config) ConnConfig() *dormstats.ConnectionConfig {
	return &dormstats.ConnectionConfig{
		Host:     c.Connection.Host,
		Port:     c.Connection.Port,
		Database: c.Connection.Database,
		User:     c.Connection.User,
		Password: c.Connection.Password,
		SSLMode:  c.Connection.SSLMode,
	}
}

// AdminConnConfig materializes the connection settings for the management
// database used for server-level operations such as CREATE DATABASE.
func (c *Config) AdminConnConfig() *dormstats.ConnectionConfig {
	admin := c.ConnConfig()
	admin.Database = c.Connection.ManagementDatabase
	if admin.Database == "" {
		admin.Database = dormstats.DefaultManagementDB
	}
	return admin
}
