package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	Database struct {
		Type string `yaml:"type"` // "sqlite" or "postgres"
		Path string `yaml:"path"` // SQLite file path
		URL  string `yaml:"url"`  // PostgreSQL connection URL
	} `yaml:"database"`

	Assignment struct {
		BatchSize int `yaml:"batch_size"`
	} `yaml:"assignment"`

	Sheets struct {
		Enabled         bool   `yaml:"enabled"`
		SpreadsheetID   string `yaml:"spreadsheet_id"`
		CredentialsFile string `yaml:"credentials_file"`
		WriteRange      string `yaml:"write_range"`
	} `yaml:"sheets"`

	Static struct {
		Dir string `yaml:"dir"`
	} `yaml:"static"`
}

// LoadConfig loads configuration from YAML file
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	// Set defaults
	if config.Server.Port == "" {
		config.Server.Port = "8000"
	}

	if config.Database.Type == "" {
		config.Database.Type = "sqlite"
	}

	if config.Database.Path == "" {
		config.Database.Path = "./data/annotations.db"
	}

	if config.Assignment.BatchSize == 0 {
		config.Assignment.BatchSize = 15
	}

	if config.Sheets.WriteRange == "" {
		config.Sheets.WriteRange = "Sheet1!A1"
	}

	// Environment overrides: deployments select the storage engine via env
	if url := os.Getenv("DATABASE_URL"); url != "" {
		config.Database.Type = "postgres"
		config.Database.URL = url
	}

	// Expand environment variables in secrets and connection strings
	config.Database.URL = os.ExpandEnv(config.Database.URL)
	config.Sheets.SpreadsheetID = os.ExpandEnv(config.Sheets.SpreadsheetID)
	config.Sheets.CredentialsFile = os.ExpandEnv(config.Sheets.CredentialsFile)

	return config, nil
}
