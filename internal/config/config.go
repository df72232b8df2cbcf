// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/viper"

	"github.com/examtrace/internal/exam"
)

// Config holds the extraction pipeline configuration
type Config struct {
	WatcherID    string          `mapstructure:"watcher_id"`
	Profile      exam.Profile    `mapstructure:"profile"`
	Workers      int             `mapstructure:"workers"`
	WatchPaths   []string        `mapstructure:"watch_paths"`
	DatabasePath string          `mapstructure:"database_path"`
	ReportDir    string          `mapstructure:"report_dir"`
	Oracle       OracleConfig    `mapstructure:"oracle"`
	WebServer    WebServerConfig `mapstructure:"web_server"`
}

// OracleConfig holds vision oracle settings
type OracleConfig struct {
	Model       string `mapstructure:"model"`
	Concurrency int    `mapstructure:"concurrency"`
}

// WebServerConfig holds the status web server settings
type WebServerConfig struct {
	Port int `mapstructure:"port"`
}

// LoadConfig loads configuration from file and environment
func LoadConfig(configPath string) (*Config, error) {
	viper.SetConfigType("yaml")
	viper.SetConfigName("config")

	// Set default values
	viper.SetDefault("profile.min_question_number", 1)
	viper.SetDefault("profile.max_question_number", 60)
	viper.SetDefault("workers", 4)
	viper.SetDefault("watch_paths", []string{"./inbox"})
	viper.SetDefault("database_path", "./examtrace.db")
	viper.SetDefault("report_dir", "./reports")
	viper.SetDefault("oracle.model", "gpt-4o-mini")
	viper.SetDefault("oracle.concurrency", 3)
	viper.SetDefault("web_server.port", 9090)

	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir := filepath.Join(home, ".examtrace")
		configFile := filepath.Join(configDir, "config.yaml")

		if err := os.MkdirAll(configDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}

		if _, err := os.Stat(configFile); os.IsNotExist(err) {
			if err := generateDefaultConfig(configFile); err != nil {
				return nil, fmt.Errorf("failed to generate default config: %w", err)
			}
		}

		viper.SetConfigFile(configFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Printf("LoadConfig: no config file found, using defaults")
		} else {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// Allow environment variables (EXAMTRACE_WORKERS, ...)
	viper.SetEnvPrefix("EXAMTRACE")
	viper.AutomaticEnv()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.Profile.MinQuestionNumber <= 0 || config.Profile.MaxQuestionNumber < config.Profile.MinQuestionNumber {
		log.Printf("LoadConfig: invalid question number range %d-%d, using defaults",
			config.Profile.MinQuestionNumber, config.Profile.MaxQuestionNumber)
		config.Profile = exam.DefaultProfile()
	}
	if config.Workers <= 0 {
		config.Workers = 4
	}
	if config.Oracle.Concurrency <= 0 {
		config.Oracle.Concurrency = 3
	}

	// Generate watcher_id if missing
	if config.WatcherID == "" {
		config.WatcherID = uuid.New().String()
		log.Printf("LoadConfig: generated new watcher ID: %s", config.WatcherID)

		configFile := viper.ConfigFileUsed()
		if configFile != "" {
			viper.Set("watcher_id", config.WatcherID)
			if err := viper.WriteConfig(); err != nil {
				log.Printf("LoadConfig: warning: failed to save watcher_id to config file: %v", err)
			}
		}
	}

	return &config, nil
}

// generateDefaultConfig creates a default configuration file
func generateDefaultConfig(configFile string) error {
	defaultConfig := `# examtrace pipeline configuration
# watcher_id will be auto-generated on first run

profile:
  min_question_number: 1   # lowest plausible question number for this exam
  max_question_number: 60  # highest plausible question number for this exam

workers: 4  # concurrent extraction jobs

watch_paths:
  - "./inbox"  # directories watched for incoming exam documents

database_path: "./examtrace.db"
report_dir: "./reports"

oracle:
  model: "gpt-4o-mini"  # vision model for raw capture and re-extraction
  concurrency: 3        # parallel oracle calls during batch verification

web_server:
  port: 9090  # status web UI port
`

	if err := os.MkdirAll(filepath.Dir(configFile), 0755); err != nil {
		return err
	}

	return os.WriteFile(configFile, []byte(defaultConfig), 0644)
}

// ApplyCLIFlags applies command-line flags to override config values
func ApplyCLIFlags(config *Config, watchDirs []string, workers int, webPort int) {
	if len(watchDirs) > 0 {
		config.WatchPaths = watchDirs
	}
	if workers > 0 {
		config.Workers = workers
	}
	if webPort > 0 {
		config.WebServer.Port = webPort
	}
}
